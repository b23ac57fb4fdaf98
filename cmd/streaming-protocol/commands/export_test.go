package commands

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/nameless-analytics/nameless-tools/internal/emitter"
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

// SetPageStoreOpener overrides how the warehouse is opened.
func (a *App) SetPageStoreOpener(open func(ctx context.Context, cfg warehouse.Config) (emitter.PageStore, error)) {
	a.openPages = open
}

// NewForTests creates a new App instance reading conf as its configuration file.
// No dotenv file is loaded unless args select one.
func NewForTests(t *testing.T, conf map[string]any, args ...string) *App {
	t.Helper()

	argsWithConf := []string{"--config", GenerateTestConfig(t, conf), "--env-file="}
	argsWithConf = append(argsWithConf, args...)

	a, err := New()
	require.NoError(t, err, "Setup: failed to create app")
	a.cmd.SetArgs(argsWithConf)
	return a
}

// GenerateTestConfig generates a temporary config file for testing.
func GenerateTestConfig(t *testing.T, conf map[string]any) string {
	t.Helper()

	if conf == nil {
		conf = map[string]any{}
	}

	d, err := yaml.Marshal(conf)
	require.NoError(t, err, "Setup: failed to marshal config for tests")

	confPath := filepath.Join(t.TempDir(), "testconfig.yaml")
	require.NoError(t, os.WriteFile(confPath, d, 0600), "Setup: failed to write config for tests")

	return confPath
}

// SetArgs set some arguments on root command for tests.
func (a *App) SetArgs(args ...string) {
	a.cmd.SetArgs(args)
}

// SetOut redirects the status output of the root command for tests.
func (a *App) SetOut(w io.Writer) {
	a.cmd.SetOut(w)
	a.cmd.SetErr(io.Discard)
}
