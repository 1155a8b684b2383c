package mysql

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers we branch on.
const (
	errDuplicateEntry   = 1062
	errForeignKeyChild  = 1452
	errForeignKeyParent = 1451
)

func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == errDuplicateEntry
}

func isForeignKeyViolation(err error) bool {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return false
	}
	return myErr.Number == errForeignKeyChild || myErr.Number == errForeignKeyParent
}
