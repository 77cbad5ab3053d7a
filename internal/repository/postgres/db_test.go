package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpulse/doi-backend/internal/config"
)

func TestNewDB_FailedConnectCanRetry(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:     "127.0.0.1",
		Port:     "1", // nothing listens here
		User:     "u",
		Password: "p",
		DBName:   "d",
		SSLMode:  "disable",
	}

	db, err := NewDB(cfg)
	require.Error(t, err)
	assert.Nil(t, db)

	// The singleton must not latch the failure: a second call reports the
	// connect error again instead of returning (nil, nil).
	db, err = NewDB(cfg)
	require.Error(t, err)
	assert.Nil(t, db)
}
