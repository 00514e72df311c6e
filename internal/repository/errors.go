// Package repository defines error types that are reused across multiple
// repositories.  Services translate them into their own taxonomy; handlers
// never see raw driver errors.
package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrSpongeNotFound       = errors.New("sponge not found")
	ErrStockNotFound        = errors.New("stock entry not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrTokenNotFound        = errors.New("refresh token not found")
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrDuplicate is returned when an insert or update hits a unique
	// index.  The registry turns it into a conflict.
	ErrDuplicate = errors.New("duplicate key")

	ErrInvalidQuantity     = errors.New("quantity must be greater than zero")
	ErrInvalidMovementType = errors.New("unknown movement type")
)

// isDuplicateKey recognizes unique violations from MySQL (1062) and SQLite.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// now is the store's clock.  Times are kept in UTC at microsecond
// precision, the resolution of DATETIME(6).
var now = func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

// Column precision of the MySQL schema.  Quantities and thresholds are
// DECIMAL(14,3) and prices DECIMAL(12,2); values must fit both the scale
// and the integer range.  Sums are rounded to QuantityScale so stores
// without a DECIMAL type agree with MySQL.
const (
	QuantityScale = 3
	PriceScale    = 2
	MaxQuantity   = 1e11
	MaxPrice      = 1e10
)

// dbTime normalizes a caller-provided time the same way.
func dbTime(t time.Time) time.Time { return t.UTC().Truncate(time.Microsecond) }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
