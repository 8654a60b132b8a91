package migration_test

import (
	"io/fs"
	"log/slog"
	"testing"

	"github.com/saransh1220/notify-relay/migrations"
	"github.com/saransh1220/notify-relay/pkg/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunner_DefaultLogger(t *testing.T) {
	r := migration.NewRunner(&migration.Config{
		Source:      migrations.FS,
		DatabaseURL: "postgres://invalid",
	})
	require.NotNil(t, r)
}

func TestRunnerMethods_InvalidConfig(t *testing.T) {
	r := migration.NewRunner(&migration.Config{
		MigrationsPath: "migrations",
		DatabaseURL:    "bad://url",
		Logger:         slog.Default(),
	})

	assert.Error(t, r.Up())
	assert.Error(t, r.Down())
	assert.Error(t, r.Force(1))
	_, _, err := r.Version()
	assert.Error(t, err)
}

func TestRunner_NoSource(t *testing.T) {
	r := migration.NewRunner(&migration.Config{DatabaseURL: "postgres://localhost/db"})

	_, _, err := r.Version()
	assert.ErrorContains(t, err, "no migration source")
	assert.Error(t, migration.AutoMigrate(&migration.Config{DatabaseURL: "postgres://localhost/db"}))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrations.FS, "*.down.sql")
	require.NoError(t, err)

	assert.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}
