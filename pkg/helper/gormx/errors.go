package gormx

import (
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/whitekid/goxp/log"
)

type sqlError struct {
	m string
}

func (e *sqlError) Error() string { return e.m }

func newSQLError(m string) error { return &sqlError{m: m} }

var (
	ErrForeignKeyConstraintFailed = newSQLError("FOREIGN KEY constraint failed")
	ErrUniqueConstraintFailed     = newSQLError("UNIQUE constraint failed")
)

var (
	sqliteExtCodeToErr = map[sqlite3.ErrNoExtended]error{}
	mysqlErrCodeToErr  = map[uint16]error{}
	pgErrCodeToErr     = map[string]error{} // https://www.postgresql.org/docs/11/errcodes-appendix.html
)

func init() {
	sqlErrors := []struct {
		err          error
		sqliteExtErr sqlite3.ErrNoExtended
		mysqlCode    uint16
		pgCode       string
	}{
		{ErrUniqueConstraintFailed, 2067, 1062, "23505"},
		{ErrForeignKeyConstraintFailed, 787, 1452, "23503"},
	}
	for _, se := range sqlErrors {
		sqliteExtCodeToErr[se.sqliteExtErr] = se.err
		mysqlErrCodeToErr[se.mysqlCode] = se.err
		pgErrCodeToErr[se.pgCode] = se.err
	}
}

// ConvertSQLError convert gorm underlying sql driver errors
func ConvertSQLError(err error) error {
	if err == nil {
		return nil
	}

	if se, ok := err.(sqlite3.Error); ok {
		if se.Code == sqlite3.ErrConstraint {
			if ee, ok := sqliteExtCodeToErr[se.ExtendedCode]; ok {
				return ee
			}

			log.Debugf("\tunhandled sqlite error: code=%d, extcode=%d", se.Code, se.ExtendedCode)
		}
	} else if me, ok := err.(*mysql.MySQLError); ok {
		if ee, ok := mysqlErrCodeToErr[me.Number]; ok {
			return ee
		}

		log.Debugf("\tunhandled mysql error: code=%d, message=%s", me.Number, me.Message)
	} else if pe, ok := err.(*pgconn.PgError); ok {
		if ee, ok := pgErrCodeToErr[pe.Code]; ok {
			return ee
		}

		log.Debugf("\tunhandled pg error: code=%s, message=%s", pe.Code, pe.Message)
	}

	return err
}
