//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/intake/internal/config"
	"github.com/JonMunkholm/intake/internal/core"
)

func TestIntegration_InsertConflict(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := Open(ctx, config.DatabaseConfig{URL: url, MaxConns: 4, MinConns: 1, MaxConnLifetime: time.Hour, MaxConnIdleTime: time.Minute})
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(ctx))

	id := time.Now().UnixNano()
	rec := record(id, "it-"+time.Now().Format("150405.000000")+"@example.com")
	require.NoError(t, s.Insert(ctx, rec))

	dup := rec
	dup.EmployeeID = id + 1
	assert.ErrorIs(t, s.Insert(ctx, dup), core.ErrDuplicate)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, rec.Email, got.Email)
	assert.True(t, rec.DateOfJoining.Equal(got.DateOfJoining))
}
