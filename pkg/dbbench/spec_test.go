package dbbench

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConnSpecDefaults(t *testing.T) {
	spec, err := NewConnSpec("", "", "", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, ConnSpec{
		Host:   "localhost",
		Port:   3306,
		User:   "root",
		Driver: "mysql",
	}, spec)
}

func TestNewConnSpecExplicit(t *testing.T) {
	spec, err := NewConnSpec("db1", "3307", "bench", "secret", "tpcc", "memsql")
	require.NoError(t, err)
	assert.Equal(t, ConnSpec{
		Host:     "db1",
		Port:     3307,
		User:     "bench",
		Password: "secret",
		Database: "tpcc",
		Driver:   "memsql",
	}, spec)
}

func TestNewConnSpecBadPort(t *testing.T) {
	var cfgErr *ConfigError

	_, err := NewConnSpec("", "not-a-port", "", "", "", "")
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "port", cfgErr.Field)

	_, err = NewConnSpec("", "-1", "", "", "", "")
	require.ErrorAs(t, err, &cfgErr)

	_, err = NewConnSpec("", "0", "", "", "", "")
	require.ErrorAs(t, err, &cfgErr)
}

func TestWithDefaults(t *testing.T) {
	spec := ConnSpec{Database: "tpcc"}.WithDefaults()
	assert.Equal(t, "localhost", spec.Host)
	assert.Equal(t, 3306, spec.Port)
	assert.Equal(t, "root", spec.User)
	assert.Equal(t, "mysql", spec.Driver)
	assert.Equal(t, "tpcc", spec.Database)
}

func TestDSN(t *testing.T) {
	spec := ConnSpec{Host: "db1", Port: 3306, User: "root", Password: "pw", Database: "d", Driver: "mysql"}
	assert.Equal(t, "root:pw@tcp(db1:3306)/d", spec.DSN())

	spec.Driver = "postgres"
	spec.Port = 5432
	assert.Equal(t, "host=db1 port=5432 user=root password=pw dbname=d sslmode=disable", spec.DSN())
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := ConnSpec{Driver: "oracle"}.Open()
	assert.Error(t, err)
}
