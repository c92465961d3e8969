package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/burugo/geothing/drivers/schema"
)

// SQLiteIntrospector implements schema.Introspector for SQLite.
type SQLiteIntrospector struct {
	DB *sql.DB
}

// GetTableInfo introspects the given table and returns its schema info (SQLite).
func (si *SQLiteIntrospector) GetTableInfo(ctx context.Context, tableName string) (*schema.TableInfo, error) {
	if si.DB == nil {
		return nil, fmt.Errorf("SQLiteIntrospector: DB is nil")
	}

	quoted := `"` + strings.ReplaceAll(tableName, `"`, `""`) + `"`
	rows, err := si.DB.QueryContext(ctx, "PRAGMA table_info("+quoted+")")
	if err != nil {
		return nil, fmt.Errorf("PRAGMA table_info failed: %w", err)
	}
	defer rows.Close()

	info := &schema.TableInfo{Name: tableName}
	for rows.Next() {
		var cid, notnull, pk int
		var name, colType string
		var dfltValue sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notnull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info: %w", err)
		}
		if pk > 0 {
			info.PrimaryKey = name
		}
		info.Columns = append(info.Columns, schema.ColumnInfo{
			Name:       name,
			DataType:   colType,
			IsNullable: notnull == 0,
			IsPrimary:  pk > 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("table_info rows: %w", err)
	}
	if len(info.Columns) == 0 {
		return nil, nil
	}
	return info, nil
}
