//go:build integration
// +build integration

package persistence

import (
	"path/filepath"
	"testing"

	"github.com/MGTheTrain/crypto-rsa/internal/infrastructure/persistence/models"
	"github.com/MGTheTrain/crypto-rsa/internal/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDBConnection_InvalidSettings(t *testing.T) {
	_, err := NewDBConnection(config.DatabaseSettings{Type: "mysql", DSN: "root@/keys"})
	assert.Error(t, err)

	_, err = NewDBConnection(config.DatabaseSettings{Type: config.PostgresDbType, DSN: "host=localhost"})
	assert.ErrorContains(t, err, "DatabaseSettings")
}

func TestNewDBConnection_SqliteInMemorySharesSchema(t *testing.T) {
	db, err := NewDBConnection(config.DatabaseSettings{Type: config.SqliteDbType, DSN: sqliteInMemoryDSN})
	require.NoError(t, err)
	defer func() { require.NoError(t, CloseDB(db)) }()

	require.NoError(t, db.AutoMigrate(&models.KeyPairModel{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	assert.True(t, db.Migrator().HasTable(&models.KeyPairModel{}))
}

func TestNewDBConnection_SqliteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.db")

	db, err := NewDBConnection(config.DatabaseSettings{Type: config.SqliteDbType, DSN: path})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.KeyPairModel{}))
	require.NoError(t, CloseDB(db))

	reopened, err := NewDBConnection(config.DatabaseSettings{Type: config.SqliteDbType, DSN: path})
	require.NoError(t, err)
	defer func() { require.NoError(t, CloseDB(reopened)) }()
	assert.True(t, reopened.Migrator().HasTable(&models.KeyPairModel{}))
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"keys"`, quoteIdentifier("keys"))
	assert.Equal(t, `"a""b"`, quoteIdentifier(`a"b`))
}
