package testutils

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer represents a PostgreSQL container for testing purposes.
type PostgresContainer struct {
	DSN string

	User     string
	Password string
	Name     string
	Host     string
	Port     int
}

// StartPostgresContainer starts a PostgreSQL container for testing purposes.
// The test is skipped when no container provider is available.
// The container is terminated at the end of the test.
func StartPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	const (
		defaultUser     = "postgres"
		defaultPassword = "postgres"
		defaultName     = "testdb"
	)

	skipWithoutProvider(t)

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     defaultUser,
			"POSTGRES_PASSWORD": defaultPassword,
			"POSTGRES_DB":       defaultName,
		},
		WaitingFor: wait.ForListeningPort("5432/tcp"),
	}
	host, port := startContainer(t, req, "5432/tcp")

	pc := &PostgresContainer{
		DSN: fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			defaultUser, defaultPassword, host, port, defaultName),

		User:     defaultUser,
		Password: defaultPassword,
		Name:     defaultName,
		Host:     host,
		Port:     port,
	}
	require.NoError(t, pc.IsReady(t, 5*time.Second, 10), "Setup: PostgreSQL container is not ready")
	return pc
}

// IsReady checks if the PostgreSQL database is connectable.
// It will attempt to connect to the database multiple times, each attempt being timeout long at most.
func (pc PostgresContainer) IsReady(t *testing.T, timeout time.Duration, attempts int) (err error) {
	t.Helper()

	config, err := pgx.ParseConfig(pc.DSN)
	if err != nil {
		return fmt.Errorf("failed to parse DSN: %w", err)
	}

	for i := range attempts {
		ctx, cancel := context.WithTimeout(t.Context(), timeout)
		var conn *pgx.Conn
		conn, err = pgx.ConnectConfig(ctx, config)
		cancel()

		if err != nil {
			t.Logf("Attempt %d: failed to connect to database: %v", i+1, err)
			time.Sleep(1 * time.Second)
			continue
		}

		ctx, cancel = context.WithTimeout(t.Context(), 2*time.Second)
		defer cancel()
		return conn.Close(ctx)
	}

	return fmt.Errorf("database did not become ready after %d attempts: %v", attempts, err)
}

// Exec runs a statement against the container database.
func (pc PostgresContainer) Exec(t *testing.T, sql string, args ...any) {
	t.Helper()

	conn, err := pgx.Connect(t.Context(), pc.DSN)
	require.NoError(t, err, "Setup: failed to connect to the database")
	defer func() {
		require.NoError(t, conn.Close(context.Background()), "Teardown: failed to close the database connection")
	}()

	_, err = conn.Exec(t.Context(), sql, args...)
	require.NoError(t, err, "Setup: failed to execute statement")
}

// RedisContainer represents a Redis container for testing purposes.
type RedisContainer struct {
	Addr string
}

// StartRedisContainer starts a Redis container for testing purposes.
// The test is skipped when no container provider is available.
// The container is terminated at the end of the test.
func StartRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()

	skipWithoutProvider(t)

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}
	host, port := startContainer(t, req, "6379/tcp")

	return &RedisContainer{Addr: fmt.Sprintf("%s:%d", host, port)}
}

func skipWithoutProvider(t *testing.T) {
	t.Helper()

	if runtime.GOOS != "linux" {
		t.Skip("Skipping container test on non-Linux OS")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// startContainer starts the requested container, registers its termination and returns its mapped address.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, exposed nat.Port) (host string, port int) {
	t.Helper()

	ctx := t.Context()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "Setup: failed to start %s container", req.Image)

	host, err = container.Host(ctx)
	require.NoError(t, err, "Setup: failed to get container host")

	mapped, err := container.MappedPort(ctx, exposed)
	require.NoError(t, err, "Setup: failed to get mapped port")

	port, err = strconv.Atoi(mapped.Port())
	require.NoError(t, err, "Setup: invalid mapped port %q", mapped.Port())
	return host, port
}
