package postgres

import (
	"io"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationURL(t *testing.T) {
	tests := []struct {
		name    string
		dsn     string
		want    string
		wantErr bool
	}{
		{name: "postgres", dsn: "postgres://app:secret@db:5432/catalog?sslmode=disable",
			want: "pgx5://app:secret@db:5432/catalog?sslmode=disable"},
		{name: "postgresql", dsn: "postgresql://localhost/catalog", want: "pgx5://localhost/catalog"},
		{name: "keyword form", dsn: "host=localhost dbname=catalog", wantErr: true},
		{name: "other scheme", dsn: "mysql://localhost/catalog", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := migrationURL(tt.dsn)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrationFS, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, _, err := src.ReadUp(first)
	require.NoError(t, err)
	body, err := io.ReadAll(up)
	require.NoError(t, err)
	_ = up.Close()
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS warehouses")
	assert.Contains(t, string(body), "date_create")

	down, _, err := src.ReadDown(first)
	require.NoError(t, err)
	body, err = io.ReadAll(down)
	require.NoError(t, err)
	_ = down.Close()
	assert.Contains(t, string(body), "DROP TABLE IF EXISTS warehouses")
}

func TestMigrateDown_RejectsNonPositiveSteps(t *testing.T) {
	require.Error(t, MigrateDown(t.Context(), "postgres://localhost/catalog", 0))
}
