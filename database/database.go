package database

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
)

// Builder is the shared statement builder. Both supported drivers take '?'
// placeholders.
var Builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// Exec builds the statement and runs it on the given (usually transactional)
// gorm handle, returning the number of affected rows.
func Exec(tx *gorm.DB, stmt sq.Sqlizer) (int64, error) {
	sqlStr, args, err := stmt.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL statement: %w", err)
	}
	res := tx.Exec(sqlStr, args...)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to execute %q: %w", sqlStr, res.Error)
	}
	return res.RowsAffected, nil
}

// Scan builds the query and scans its result into dest.
func Scan(tx *gorm.DB, query sq.Sqlizer, dest interface{}) error {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL query: %w", err)
	}
	if err := tx.Raw(sqlStr, args...).Scan(dest).Error; err != nil {
		return fmt.Errorf("failed to query %q: %w", sqlStr, err)
	}
	return nil
}
