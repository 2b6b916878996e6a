package store

import (
	"fmt"
	"sort"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type dialectorFunc func(dsn string) gorm.Dialector

var dialectors = map[string]dialectorFunc{
	DriverSQLite:   sqlite.Open,
	DriverPostgres: postgres.Open,
}

// SupportedDrivers lists the accepted DATABASE_DRIVER values in sorted order.
func SupportedDrivers() []string {
	names := make([]string, 0, len(dialectors))
	for name := range dialectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetDialector returns a GORM dialector for the given driver name and DSN.
func GetDialector(driver, dsn string) (gorm.Dialector, error) {
	open, ok := dialectors[strings.ToLower(driver)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedDriver, driver, strings.Join(SupportedDrivers(), ", "))
	}
	return open(dsn), nil
}
