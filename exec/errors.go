package exec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	sqlite "modernc.org/sqlite"

	storm "github.com/storm-repo/storm-go"
	"github.com/storm-repo/storm-go/dialect"
)

// MySQL error numbers signalling constraint violations.
var mysqlConstraintCodes = map[uint16]string{
	1022: "duplicate key",
	1048: "not null",
	1062: "unique",
	1169: "unique",
	1216: "foreign key",
	1217: "foreign key",
	1451: "foreign key",
	1452: "foreign key",
	3819: "check",
	4025: "check",
}

// SQLITE_CONSTRAINT; extended codes carry it in the low byte.
const sqliteConstraint = 19

// translate maps driver-specific constraint violations onto
// ConstraintError so callers can branch without importing driver
// packages. Everything else passes through unchanged.
func translate(name string, err error) error {
	if err == nil {
		return nil
	}
	switch name {
	case dialect.MySQL:
		var me *mysql.MySQLError
		if errors.As(err, &me) {
			if kind, ok := mysqlConstraintCodes[me.Number]; ok {
				return storm.NewConstraintError(fmt.Sprintf("%s constraint violated (%d): %s", kind, me.Number, me.Message), err)
			}
		}
	case dialect.Postgres:
		var pe *pq.Error
		if errors.As(err, &pe) && strings.HasPrefix(string(pe.Code), "23") {
			return storm.NewConstraintError(fmt.Sprintf("constraint %s violated: %s", pe.Constraint, pe.Message), err)
		}
	case dialect.SQLite:
		var se *sqlite.Error
		if errors.As(err, &se) && se.Code()&0xff == sqliteConstraint {
			return storm.NewConstraintError(fmt.Sprintf("constraint violated (%d)", se.Code()), err)
		}
	}
	return err
}
