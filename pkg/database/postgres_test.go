package database

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studymate-api/pkg/config"
)

func TestDSNEscapesCredentials(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "studymate",
		Password: "p@ss word",
		Name:     "studymate",
		SSLMode:  "require",
	})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db.internal:5433", u.Host)
	assert.Equal(t, "/studymate", u.Path)
	pass, _ := u.User.Password()
	assert.Equal(t, "p@ss word", pass)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
	assert.Equal(t, "studymate-api", u.Query().Get("application_name"))
}
