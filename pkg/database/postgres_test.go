package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-match-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "tutoring", SSLMode: "disable"})
	require.Equal(t, "host=db port=5433 user=u password=p dbname=tutoring sslmode=disable", dsn)
}
