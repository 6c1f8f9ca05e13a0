package migrate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/pkg/config"
	"github.com/mercato-dev/mercato-backend/pkg/migrate"
)

func TestInitMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_marketplace.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no init migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_brands_name ON brands (name)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name ON categories (name)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_user_product ON reviews (user_id, product_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_user_product ON cart_items (user_id, product_id)",
		"FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE SET NULL",
		"CHECK (status IN ('pending', 'confirmed', 'shipped', 'delivered'))",
		"price NUMERIC(12,2) NOT NULL CHECK (price > 0)",
		"DROP TABLE IF EXISTS order_items",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestValidateDirRejectsBadFilename(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Product Tags!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_product_tags.sql") {
		t.Fatalf("unexpected path %q", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("created migration does not validate: %v", err)
	}
}

func TestDirPrefersConfig(t *testing.T) {
	if got := migrate.Dir(nil); got != migrate.DefaultDir {
		t.Fatalf("expected default dir, got %q", got)
	}
	cfg := &config.Config{FeatureFlags: config.FeatureFlagsConfig{MigrationsDir: "/srv/migrations"}}
	if got := migrate.Dir(cfg); got != "/srv/migrations" {
		t.Fatalf("expected configured dir, got %q", got)
	}
}

func TestValidateDirRejectsDownBeforeUp(t *testing.T) {
	dir := t.TempDir()
	body := []byte("-- +goose Down\nDROP TABLE x;\n-- +goose Up\nCREATE TABLE x ();\n")
	if err := os.WriteFile(filepath.Join(dir, "20260101000000_swap.sql"), body, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected section order error")
	}
}

func TestCreateSQLMigrationRejectsEmptyName(t *testing.T) {
	if _, err := migrate.CreateSQLMigration(t.TempDir(), " !! "); err == nil {
		t.Fatal("expected error for unusable name")
	}
}

func TestMigratorUpStatusDownOnSQLite(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"20260101000000_create_tags.sql":  "-- +goose Up\nCREATE TABLE tags (id INTEGER PRIMARY KEY, name TEXT NOT NULL);\n\n-- +goose Down\nDROP TABLE tags;\n",
		"20260102000000_tag_name_idx.sql": "-- +goose Up\nCREATE UNIQUE INDEX idx_tags_name ON tags (name);\n\n-- +goose Down\nDROP INDEX idx_tags_name;\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	dialect, err := migrate.DialectFor("sqlite")
	require.NoError(t, err)
	migrator, err := migrate.NewMigrator(sqlDB, dialect, dir)
	require.NoError(t, err)
	ctx := context.Background()

	applied, err := migrator.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{20260101000000, 20260102000000}, applied)

	statuses, err := migrator.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].Applied)
	assert.True(t, statuses[1].Applied)

	rolledBack, err := migrator.Down(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 20260102000000, rolledBack)

	require.NoError(t, migrator.MigrateTo(ctx, "20260102000000"))
	version, err := migrator.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 20260102000000, version)

	assert.Error(t, migrator.MigrateTo(ctx, "latest"))
}

func TestDialectFor(t *testing.T) {
	_, err := migrate.DialectFor("postgres")
	assert.NoError(t, err)
	_, err = migrate.DialectFor("mysql")
	assert.Error(t, err)
}
