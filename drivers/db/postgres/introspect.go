package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/burugo/geothing/drivers/schema"
)

// PostgreSQLIntrospector implements schema.Introspector for PostgreSQL.
// PostGIS columns report their udt name ("geometry", "geography").
type PostgreSQLIntrospector struct {
	DB *sql.DB
}

// GetTableInfo introspects the given table in the current schema.
func (pi *PostgreSQLIntrospector) GetTableInfo(ctx context.Context, tableName string) (*schema.TableInfo, error) {
	if pi.DB == nil {
		return nil, fmt.Errorf("PostgreSQLIntrospector: DB is nil")
	}

	colQuery := `SELECT column_name, data_type, udt_name, is_nullable
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`
	colRows, err := pi.DB.QueryContext(ctx, colQuery, tableName)
	if err != nil {
		return nil, fmt.Errorf("information_schema.columns failed: %w", err)
	}
	defer colRows.Close()

	info := &schema.TableInfo{Name: tableName}
	for colRows.Next() {
		var name, dataType, udtName, isNullable string
		if err := colRows.Scan(&name, &dataType, &udtName, &isNullable); err != nil {
			return nil, fmt.Errorf("scan columns: %w", err)
		}
		if dataType == "USER-DEFINED" {
			dataType = udtName
		}
		info.Columns = append(info.Columns, schema.ColumnInfo{
			Name:       name,
			DataType:   dataType,
			IsNullable: isNullable == "YES",
		})
	}
	if err := colRows.Err(); err != nil {
		return nil, fmt.Errorf("columns rows: %w", err)
	}
	if len(info.Columns) == 0 {
		return nil, nil
	}

	pkQuery := `SELECT a.attname
		FROM pg_index i
		JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
		WHERE i.indrelid = $1::regclass AND i.indisprimary`
	if err := pi.DB.QueryRowContext(ctx, pkQuery, tableName).Scan(&info.PrimaryKey); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("pg_index primary key: %w", err)
	}
	for i := range info.Columns {
		info.Columns[i].IsPrimary = info.Columns[i].Name == info.PrimaryKey
	}
	return info, nil
}
