package tracking

import (
	"fmt"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
)

// Connection identifies one read-only tracking store. The harness only ever
// selects from it; it never mutates tracked data.
type Connection struct {
	Host     string
	Port     int
	Database string
	User     string
	Pass     string
}

// MySQL returns the driver DSN for the store.
func (c Connection) MySQL() string {
	config := mysql.NewConfig()
	config.User = c.User
	config.Passwd = c.Pass
	config.DBName = c.Database
	if strings.HasPrefix(c.Host, "/") {
		config.Net = "unix"
		config.Addr = c.Host
	} else {
		config.Net = "tcp"
		config.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	}
	config.ParseTime = true
	return config.FormatDSN()
}
