package gormpersistence

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry 是 MySQL 唯一约束冲突的错误码 (ER_DUP_ENTRY)
const mysqlDuplicateEntry = 1062

// isDuplicateEntryError 通过驱动错误码判断是否为唯一约束冲突。
func isDuplicateEntryError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	return false
}
