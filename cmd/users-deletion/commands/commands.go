// Package commands implements the users-deletion command line.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nameless-analytics/nameless-tools/internal/cli"
	"github.com/nameless-analytics/nameless-tools/internal/constants"
	"github.com/nameless-analytics/nameless-tools/internal/docstore"
	"github.com/nameless-analytics/nameless-tools/internal/erasure"
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
	openTable func(ctx context.Context, cfg warehouse.Config) (erasure.TableStore, error)
	openDocs  func(ctx context.Context, cfg docstore.Config) (erasure.DocumentStore, error)
	migrate   func(cfg warehouse.PostgresConfig, dir string) error
}

// appConfig holds the configuration for the application.
type appConfig struct {
	Verbosity int
	JSONLogs  bool

	Warehouse warehouse.Config
	Docstore  docstore.Config
}

// New creates a new App instance with default values.
func New() (*App, error) {
	a := App{
		openTable: openWarehouse,
		openDocs:  openDocstore,
		migrate:   warehouse.Migrate,
	}

	a.cmd = &cobra.Command{
		Use:   constants.ErasureCmdName + " CLIENT_ID",
		Short: "Delete every record of a client from the warehouse and the document store",
		Long: `Delete every record of a client from the warehouse table and its profile document
from the document store.

Both deletions are attempted independently and reported on the standard output.
Settings are read from flags, environment variables prefixed with USERS_DELETION_,
a dotenv file and a configuration file, in that order of precedence.`,
		Example: "  " + constants.ErasureCmdName + " LPqJP8hpxpGedIA_sKWExPWU8qZLi1\n" +
			"  # A client id named after a subcommand goes after --\n" +
			"  " + constants.ErasureCmdName + " -- version",
		Args: cobra.MatchAll(cobra.ExactArgs(1), func(cmd *cobra.Command, args []string) error {
			if args[0] == "" {
				return erasure.ErrEmptyClientID
			}
			return nil
		}),
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Command parsing has been successful. Returns to not print usage anymore.
			a.cmd.SilenceUsage = true
			cli.SetSlog(a.config.Verbosity, a.config.JSONLogs) // Set verbosity before loading config
			if err := cli.LoadEnvFile(*a.envFile); err != nil {
				return err
			}
			if err := cli.InitViperConfig(constants.ErasureCmdName, a.cmd, a.viper); err != nil {
				return err
			}
			if err := cli.Unmarshal(a.viper, &a.config); err != nil {
				return err
			}
			a.config.inherit()
			slog.Debug("got app config", "warehouse", a.config.Warehouse.Backend, "docstore", a.config.Docstore.Backend)

			cli.SetSlog(a.config.Verbosity, a.config.JSONLogs) // Update logging after loading config if necessary
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cmd.SilenceUsage = true

			return a.run(cmd.Context(), args[0])
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

	a.installMigrateCmd()
	a.installVersion()

	return &a, nil
}

// inherit fills the document store location from the warehouse one, as both usually live in the same project.
func (c *appConfig) inherit() {
	if c.Docstore.Project == "" {
		c.Docstore.Project = c.Warehouse.Project
	}
	if c.Docstore.Credentials == "" {
		c.Docstore.Credentials = c.Warehouse.Credentials
	}
}

// flagKeys maps persistent flags to their configuration keys.
var flagKeys = map[string]string{
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

	"doc-backend":    "docstore.backend",
	"doc-project":    "docstore.project",
	"database":       "docstore.database",
	"collection":     "docstore.collection",
	"redis-addr":     "docstore.redis.addr",
	"redis-password": "docstore.redis.password",
	"redis-db":       "docstore.redis.db",
}

func installRootCmd(app *App) {
	cmd := app.cmd

	cmd.PersistentFlags().CountVarP(&app.config.Verbosity, "verbose", "v", "issue INFO (-v), DEBUG (-vv)")
	cmd.PersistentFlags().BoolVar(&app.config.JSONLogs, "json-logs", false, "enable JSON formatted logs")

	// Warehouse flags, shared with the migrate command.
	cmd.PersistentFlags().String("backend", constants.BigQueryBackend, "warehouse backend, bigquery or postgres")
	cmd.PersistentFlags().String("project", "", "Google Cloud project id")
	cmd.PersistentFlags().String("dataset", "", "BigQuery dataset id")
	cmd.PersistentFlags().String("table", constants.DefaultTable, "warehouse table holding raw events")
	cmd.PersistentFlags().String("credentials", "", "service account JSON key, application default credentials when empty")
	cmd.PersistentFlags().String("db-host", "", "database host")
	cmd.PersistentFlags().IntP("db-port", "p", 5432, "database port")
	cmd.PersistentFlags().StringP("db-user", "u", "", "database user")
	cmd.PersistentFlags().StringP("db-password", "P", "", "database password")
	cmd.PersistentFlags().StringP("db-name", "n", "", "database name")
	cmd.PersistentFlags().StringP("db-sslmode", "s", "", "database SSL mode")

	// Document store flags
	cmd.Flags().String("doc-backend", constants.FirestoreBackend, "document store backend, firestore or redis")
	cmd.Flags().String("doc-project", "", "Firestore project id, defaults to the warehouse project")
	cmd.Flags().String("database", constants.DefaultFirestoreDatabase, "Firestore database")
	cmd.Flags().String("collection", constants.DefaultCollection, "collection holding user documents")
	cmd.Flags().String("redis-addr", "localhost:6379", "Redis address")
	cmd.Flags().String("redis-password", "", "Redis password")
	cmd.Flags().Int("redis-db", 0, "Redis database")

	if err := cmd.MarkPersistentFlagFilename("credentials", "json"); err != nil {
		panic(fmt.Sprintf("failed to mark credentials flag as filename: %v", err))
	}
}

func bindFlags(vip *viper.Viper, cmd *cobra.Command, keys map[string]string) error {
	for name, key := range keys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			f = cmd.PersistentFlags().Lookup(name)
		}
		if err := vip.BindPFlag(key, f); err != nil {
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

// run erases clientID from both stores. Store failures are reported, not returned.
func (a *App) run(ctx context.Context, clientID string) error {
	openTable := func(ctx context.Context) (erasure.TableStore, error) {
		return a.openTable(ctx, a.config.Warehouse)
	}
	openDocs := func(ctx context.Context) (erasure.DocumentStore, error) {
		return a.openDocs(ctx, a.config.Docstore)
	}

	e := erasure.New(openTable, openDocs, a.cmd.OutOrStdout(),
		erasure.WithTableName(a.tableName()),
		erasure.WithCollection(a.config.Docstore.Collection))

	o, err := e.Run(ctx, clientID)
	if err != nil {
		return err
	}
	slog.Info("Erasure completed", "client_id", clientID, "table", o.Table.Status, "document", o.Document.Status)
	return nil
}

func (a App) tableName() string {
	w := a.config.Warehouse
	if w.Dataset == "" {
		return w.Table
	}
	return w.Dataset + "." + w.Table
}

func openWarehouse(ctx context.Context, cfg warehouse.Config) (erasure.TableStore, error) {
	s, err := warehouse.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openDocstore(ctx context.Context, cfg docstore.Config) (erasure.DocumentStore, error) {
	s, err := docstore.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}
