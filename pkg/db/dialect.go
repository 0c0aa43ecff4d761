package db

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const defaultSQLiteFile = "backoffice.db"

// Dialector picks the gorm driver for c.Type. Every dialect stores times in
// UTC; report days are derived from them in the report timezone.
func (c Config) Dialector() (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(c.Type)) {
	case "postgres", "postgresql":
		return postgres.Open(c.postgresDSN()), nil
	case "mysql":
		return mysql.Open(c.mysqlDSN()), nil
	case "sqlite":
		return sqlite.Open(c.sqliteFile()), nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", c.Type)
	}
}

func (c Config) postgresDSN() string {
	q := url.Values{}
	q.Set("sslmode", defaultTo(c.SSLMode, "disable"))
	q.Set("TimeZone", "UTC")
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func (c Config) mysqlDSN() string {
	m := mysqldriver.NewConfig()
	m.User = c.User
	m.Passwd = c.Password
	m.Net = "tcp"
	m.Addr = net.JoinHostPort(c.Host, c.Port)
	m.DBName = c.Name
	m.ParseTime = true
	m.Loc = time.UTC
	m.Params = map[string]string{"charset": "utf8mb4"}
	return m.FormatDSN()
}

// sqliteFile ignores the postgres default database name.
func (c Config) sqliteFile() string {
	if name := strings.TrimSpace(c.Name); name != "" && name != "postgres" {
		return name
	}
	return defaultSQLiteFile
}

func defaultTo(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
