// Package commands implements the streaming-protocol command line.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nameless-analytics/nameless-tools/internal/cli"
	"github.com/nameless-analytics/nameless-tools/internal/collector"
	"github.com/nameless-analytics/nameless-tools/internal/constants"
	"github.com/nameless-analytics/nameless-tools/internal/emitter"
	"github.com/nameless-analytics/nameless-tools/internal/event"
	"github.com/nameless-analytics/nameless-tools/internal/warehouse"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// App represents the application.
type App struct {
	cmd    *cobra.Command
	viper  *viper.Viper
	config appConfig

	envFile   *string
	openPages func(ctx context.Context, cfg warehouse.Config) (emitter.PageStore, error)
}

// appConfig holds the configuration for the application.
type appConfig struct {
	Verbosity int
	JSONLogs  bool
	DryRun    bool `mapstructure:"dryrun"`

	Warehouse warehouse.Config
	Collector collector.Config
	Event     eventConfig
}

// inherit sends the page id as session cookie when no session id is configured.
func (c *appConfig) inherit() {
	if c.Collector.SessionID == "" {
		c.Collector.SessionID = c.Event.PageID
	}
}

// eventConfig is the static part of the emitted event.
type eventConfig struct {
	PageID    string `mapstructure:"pageid"`
	Name      string
	UserID    string `mapstructure:"userid"`
	Data      map[string]any
	Ecommerce map[string]any
	Consent   event.Consent
}

func (c eventConfig) settings() event.Settings {
	return event.Settings{
		PageID:    c.PageID,
		EventName: c.Name,
		UserID:    c.UserID,
		Data:      c.Data,
		Ecommerce: c.Ecommerce,
		Consent:   c.Consent,
	}
}

// New creates a new App instance with default values.
func New() (*App, error) {
	a := App{openPages: openWarehouse}

	a.cmd = &cobra.Command{
		Use:   constants.EmitterCmdName,
		Short: "Send one event enriched with stored page data to a Nameless Analytics collector",
		Long: `Send one event to a Nameless Analytics collector endpoint.

The page data of the configured page id is read from the warehouse and copied into the event.
Settings are read from flags, environment variables prefixed with STREAMING_PROTOCOL_,
a dotenv file and a configuration file, in that order of precedence.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Command parsing has been successful. Returns to not print usage anymore.
			a.cmd.SilenceUsage = true
			cli.SetSlog(a.config.Verbosity, a.config.JSONLogs) // Set verbosity before loading config
			if err := cli.LoadEnvFile(*a.envFile); err != nil {
				return err
			}
			if err := cli.InitViperConfig(constants.EmitterCmdName, a.cmd, a.viper); err != nil {
				return err
			}
			if err := cli.Unmarshal(a.viper, &a.config); err != nil {
				return err
			}
			a.config.inherit()
			slog.Debug("got app config", "page_id", a.config.Event.PageID, "backend", a.config.Warehouse.Backend, "endpoint", a.config.Collector.Endpoint)

			cli.SetSlog(a.config.Verbosity, a.config.JSONLogs) // Update logging after loading config if necessary
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cmd.SilenceUsage = true

			return a.run(cmd.Context())
		},
	}
	a.viper = viper.New()
	a.cmd.CompletionOptions.HiddenDefaultCmd = true

	installRootCmd(&a)
	cli.InstallConfigFlag(a.cmd)
	a.envFile = cli.InstallEnvFileFlag(a.cmd, constants.DefaultEnvFile)

	if err := a.viper.BindPFlags(a.cmd.PersistentFlags()); err != nil {
		return nil, err
	}
	if err := bindFlags(a.viper, a.cmd, flagKeys); err != nil {
		return nil, err
	}

	a.installVersion()

	return &a, nil
}

// flagKeys maps local flags to their configuration keys.
var flagKeys = map[string]string{
	"page-id":    "event.pageid",
	"event-name": "event.name",
	"user-id":    "event.userid",

	"endpoint":       "collector.endpoint",
	"origin":         "collector.origin",
	"api-key":        "collector.apikey",
	"preview-header": "collector.previewheader",
	"client-id":      "collector.clientid",
	"session-id":     "collector.sessionid",
	"timeout":        "collector.timeout",

	"backend":     "warehouse.backend",
	"project":     "warehouse.project",
	"dataset":     "warehouse.dataset",
	"table":       "warehouse.table",
	"credentials": "warehouse.credentials",
	"db-host":     "warehouse.postgres.host",
	"db-port":     "warehouse.postgres.port",
	"db-user":     "warehouse.postgres.user",
	"db-password": "warehouse.postgres.password",
	"db-name":     "warehouse.postgres.dbname",
	"db-sslmode":  "warehouse.postgres.sslmode",

	"dry-run": "dryrun",
}

func installRootCmd(app *App) {
	cmd := app.cmd

	cmd.PersistentFlags().CountVarP(&app.config.Verbosity, "verbose", "v", "issue INFO (-v), DEBUG (-vv)")
	cmd.PersistentFlags().BoolVar(&app.config.JSONLogs, "json-logs", false, "enable JSON formatted logs")

	// Event flags
	cmd.Flags().String("page-id", "", "page id to look up and send the event for")
	cmd.Flags().String("event-name", constants.DefaultEventName, "name of the event")
	cmd.Flags().String("user-id", "", "user id attached to the session data")

	// Collector flags
	cmd.Flags().String("endpoint", "", "collector endpoint URL")
	cmd.Flags().String("origin", "", "Origin header sent to the collector")
	cmd.Flags().String("api-key", "", "collector API key")
	cmd.Flags().String("preview-header", "", "server-side tag manager preview header")
	cmd.Flags().String("client-id", "", "client id sent in the na_u cookie")
	cmd.Flags().String("session-id", "", "session id sent in the na_s cookie, the page id when empty")
	cmd.Flags().Duration("timeout", 0, "collector request timeout, transport defaults when 0")

	addWarehouseFlags(cmd)

	cmd.Flags().Bool("dry-run", false, "print the event instead of sending it")

	if err := cmd.MarkFlagFilename("credentials", "json"); err != nil {
		panic(fmt.Sprintf("failed to mark credentials flag as filename: %v", err))
	}
}

func addWarehouseFlags(cmd *cobra.Command) {
	cmd.Flags().String("backend", constants.BigQueryBackend, "warehouse backend, bigquery or postgres")
	cmd.Flags().String("project", "", "BigQuery project id")
	cmd.Flags().String("dataset", "", "BigQuery dataset id")
	cmd.Flags().String("table", constants.DefaultTable, "warehouse table holding the page data")
	cmd.Flags().String("credentials", "", "service account JSON key, application default credentials when empty")
	cmd.Flags().String("db-host", "", "database host")
	cmd.Flags().IntP("db-port", "p", 5432, "database port")
	cmd.Flags().StringP("db-user", "u", "", "database user")
	cmd.Flags().StringP("db-password", "P", "", "database password")
	cmd.Flags().StringP("db-name", "n", "", "database name")
	cmd.Flags().StringP("db-sslmode", "s", "", "database SSL mode")
}

func bindFlags(vip *viper.Viper, cmd *cobra.Command, keys map[string]string) error {
	for name, key := range keys {
		if err := vip.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("could not bind flag %q: %w", name, err)
		}
	}
	return nil
}

// Run executes the command and associated process, returning an error if any.
func (a App) Run() error {
	return a.cmd.Execute()
}

// UsageError returns if the error is a command parsing or runtime one.
func (a App) UsageError() bool {
	return !a.cmd.SilenceUsage
}

// RootCmd returns the root command.
func (a App) RootCmd() cobra.Command {
	return *a.cmd
}

func (a *App) run(ctx context.Context) error {
	client, err := collector.New(a.config.Collector)
	if err != nil {
		return err
	}

	out := a.cmd.OutOrStdout()
	fmt.Fprint(out, "NAMELESS ANALYTICS\nSTREAMING PROTOCOL\n\n")

	openPages := func(ctx context.Context) (emitter.PageStore, error) {
		return a.openPages(ctx, a.config.Warehouse)
	}
	e := emitter.New(openPages, client, event.NewAssembler(), a.config.Event.settings(), out,
		emitter.WithDryRun(a.config.DryRun))

	return e.Run(ctx)
}

func openWarehouse(ctx context.Context, cfg warehouse.Config) (emitter.PageStore, error) {
	s, err := warehouse.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}
