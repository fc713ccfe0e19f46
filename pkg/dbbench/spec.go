package dbbench

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Defaults applied by NewConnSpec for empty fields.
const (
	DefaultHost   = "localhost"
	DefaultPort   = 3306
	DefaultUser   = "root"
	DefaultDriver = "mysql"
)

// ConnSpec describes how to reach the target database. Construct it with
// NewConnSpec so that empty fields resolve to their defaults; a ConnSpec is
// a plain value and is never mutated after construction.
type ConnSpec struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password,omitempty" yaml:"password"`
	Database string `json:"database,omitempty" yaml:"database"`
	Driver   string `json:"driver" yaml:"driver"`
}

// NewConnSpec builds a ConnSpec. Any empty argument falls back to its
// documented default (localhost, 3306, root, "", "", mysql); passing an
// empty string and omitting a value are deliberately equivalent. A
// non-empty port must parse as a positive integer.
func NewConnSpec(host, port, user, password, database, driver string) (ConnSpec, error) {
	spec := ConnSpec{
		Host:     DefaultHost,
		Port:     DefaultPort,
		User:     DefaultUser,
		Password: password,
		Database: database,
		Driver:   DefaultDriver,
	}
	if host != "" {
		spec.Host = host
	}
	if user != "" {
		spec.User = user
	}
	if driver != "" {
		spec.Driver = driver
	}
	if port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return ConnSpec{}, &ConfigError{Field: "port", Value: port, Err: err}
		}
		if p <= 0 {
			return ConnSpec{}, &ConfigError{Field: "port", Value: port, Err: errors.New("must be positive")}
		}
		spec.Port = p
	}
	return spec, nil
}

// WithDefaults fills empty fields of a ConnSpec built from a struct
// literal or decoded from a config file.
func (s ConnSpec) WithDefaults() ConnSpec {
	if s.Host == "" {
		s.Host = DefaultHost
	}
	if s.Port == 0 {
		s.Port = DefaultPort
	}
	if s.User == "" {
		s.User = DefaultUser
	}
	if s.Driver == "" {
		s.Driver = DefaultDriver
	}
	return s
}

func (s ConnSpec) String() string {
	return fmt.Sprintf("%s://%s@%s:%d/%s", s.Driver, s.User, s.Host, s.Port, s.Database)
}

// DSN renders the connection string understood by the matching
// database/sql driver.
func (s ConnSpec) DSN() string {
	if sqlDriverName(s.Driver) == "postgres" {
		params := [][2]string{
			{"host", s.Host},
			{"port", strconv.Itoa(s.Port)},
			{"user", s.User},
			{"password", s.Password},
			{"dbname", s.Database},
			{"sslmode", "disable"},
		}
		var parts []string
		for _, kv := range params {
			if kv[1] == "" {
				continue
			}
			parts = append(parts, kv[0]+"="+kv[1])
		}
		return strings.Join(parts, " ")
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", s.User, s.Password, s.Host, s.Port, s.Database)
}

// Open opens a database/sql handle for health checks and setup probing.
// Workload execution itself always goes through the dbbench process, never
// through this handle.
func (s ConnSpec) Open() (*sql.DB, error) {
	name := sqlDriverName(s.Driver)
	if name == "" {
		return nil, fmt.Errorf("no SQL driver registered for %q", s.Driver)
	}
	return sql.Open(name, s.DSN())
}

func sqlDriverName(driver string) string {
	switch driver {
	case "mysql", "memsql", "tidb", "mariadb":
		return "mysql"
	case "postgres", "postgresql", "pgx":
		return "postgres"
	default:
		return ""
	}
}
