package migrate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neumaticos/tirestore/pkg/config"
	"github.com/neumaticos/tirestore/pkg/db"
	"github.com/neumaticos/tirestore/pkg/db/models"
	"github.com/neumaticos/tirestore/pkg/logger"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1, "expected exactly one %s migration", suffix)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
}

func TestMigrationsContainSchemas(t *testing.T) {
	cases := map[string][]string{
		"create_users_table": {
			"CREATE TYPE user_role AS ENUM ('user', 'admin')",
			"CREATE TABLE IF NOT EXISTS users",
			"CONSTRAINT users_email_key UNIQUE (email)",
		},
		"create_products_table": {
			"CREATE TYPE product_category AS ENUM ('automovil', 'camioneta', 'moto')",
			"CREATE TABLE IF NOT EXISTS products",
			"stock integer NOT NULL DEFAULT 0 CHECK (stock >= 0)",
		},
		"create_orders_table": {
			"CREATE TYPE order_status AS ENUM ('pendiente', 'confirmado', 'enviado', 'entregado', 'cancelado')",
			"CREATE TABLE IF NOT EXISTS orders",
			"CREATE TABLE IF NOT EXISTS order_line_items",
			"REFERENCES orders (id) ON DELETE CASCADE",
			"idx_order_line_items_order_position",
		},
	}
	for suffix, checks := range cases {
		content := readMigration(t, suffix)
		for _, sub := range checks {
			assert.Contains(t, content, sub, suffix)
		}
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "add_things.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, ValidateDir(dir))

	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000001_things.sql"), []byte("-- +goose Up\n"), 0o644))
	assert.Error(t, ValidateDir(dir))
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Tire Width!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_tire_width.sql"))
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	assert.Error(t, err)
}

func TestMaybeRunDevAutoMigratesSQLite(t *testing.T) {
	cfg := &config.Config{
		App:          config.AppConfig{Env: config.AppEnvDev},
		DB:           config.DBConfig{Driver: config.DriverSQLite, DSN: "file:" + filepath.Join(t.TempDir(), "dev.db")},
		FeatureFlags: config.FeatureFlagsConfig{UseSQLite: true, AutoMigrate: true},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})

	client, err := db.New(context.Background(), cfg.DB, logg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, MaybeRunDev(context.Background(), cfg, logg, client))
	for _, model := range models.All() {
		assert.True(t, client.DB().Migrator().HasTable(model))
	}
}

func TestMaybeRunDevSkipsOutsideDev(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "prod"}, FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true}}
	assert.NoError(t, MaybeRunDev(context.Background(), cfg, nil, nil))
}
