package commands

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/nameless-analytics/nameless-tools/internal/docstore"
	"github.com/nameless-analytics/nameless-tools/internal/erasure"
	"github.com/nameless-analytics/nameless-tools/internal/warehouse"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type (
	AppConfig = appConfig
)

// Config returns the configuration of the app.
func (a *App) Config() AppConfig {
	return a.config
}

// SetStoreOpeners overrides how the warehouse and the document store are opened.
func (a *App) SetStoreOpeners(
	openTable func(ctx context.Context, cfg warehouse.Config) (erasure.TableStore, error),
	openDocs func(ctx context.Context, cfg docstore.Config) (erasure.DocumentStore, error),
) {
	a.openTable = openTable
	a.openDocs = openDocs
}

// SetMigrate overrides how migrations are applied.
func (a *App) SetMigrate(migrate func(cfg warehouse.PostgresConfig, dir string) error) {
	a.migrate = migrate
}

// NewForTests creates a new App instance reading conf as its configuration file.
// No dotenv file is loaded.
func NewForTests(t *testing.T, conf map[string]any, args ...string) *App {
	t.Helper()

	if conf == nil {
		conf = map[string]any{}
	}

	d, err := yaml.Marshal(conf)
	require.NoError(t, err, "Setup: failed to marshal config for tests")
	confPath := filepath.Join(t.TempDir(), "testconfig.yaml")
	require.NoError(t, os.WriteFile(confPath, d, 0600), "Setup: failed to write config for tests")

	a, err := New()
	require.NoError(t, err, "Setup: failed to create app")
	a.cmd.SetArgs(append([]string{"--config", confPath, "--env-file="}, args...))
	return a
}

// SetOut redirects the status output of the root command for tests.
func (a *App) SetOut(w io.Writer) {
	a.cmd.SetOut(w)
	a.cmd.SetErr(io.Discard)
}
