package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/burugo/geothing/drivers/schema"
)

// MySQLIntrospector implements schema.Introspector for MySQL.
type MySQLIntrospector struct {
	DB *sql.DB
}

// GetTableInfo introspects the given table in the connection's database.
func (mi *MySQLIntrospector) GetTableInfo(ctx context.Context, tableName string) (*schema.TableInfo, error) {
	if mi.DB == nil {
		return nil, fmt.Errorf("MySQLIntrospector: DB is nil")
	}

	rows, err := mi.DB.QueryContext(ctx, `SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_KEY
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ORDINAL_POSITION`, tableName)
	if err != nil {
		return nil, fmt.Errorf("information_schema.columns failed: %w", err)
	}
	defer rows.Close()

	info := &schema.TableInfo{Name: tableName}
	for rows.Next() {
		var name, dataType, nullable, key string
		if err := rows.Scan(&name, &dataType, &nullable, &key); err != nil {
			return nil, fmt.Errorf("scan columns: %w", err)
		}
		if key == "PRI" && info.PrimaryKey == "" {
			info.PrimaryKey = name
		}
		info.Columns = append(info.Columns, schema.ColumnInfo{
			Name:       name,
			DataType:   dataType,
			IsNullable: nullable == "YES",
			IsPrimary:  key == "PRI",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("columns rows: %w", err)
	}
	if len(info.Columns) == 0 {
		return nil, nil
	}
	return info, nil
}
