// Package constants is responsible for defining the constants shared by the Nameless Analytics tools.
package constants

import (
	"log/slog"
)

var (
	// Version is the version of the application.
	Version = "Dev"
)

const (
	// EmitterCmdName is the name of the streaming protocol command.
	EmitterCmdName = "streaming-protocol"

	// ErasureCmdName is the name of the users deletion command.
	ErasureCmdName = "users-deletion"

	// DefaultLogLevel is the default log level selected without any verbosity flags.
	DefaultLogLevel = slog.LevelWarn

	// DefaultEnvFile is the dotenv file loaded, when present, before reading the environment.
	DefaultEnvFile = ".env"
)

// Streaming protocol constants.
const (
	// StreamingProtocolTag identifies events built by the streaming protocol tool.
	StreamingProtocolTag = "Streaming protocol"

	// UserAgent is the User-Agent header sent to the collector endpoint.
	UserAgent = "Nameless Analytics - Streaming protocol"

	// DefaultEventType is the event_type set in every event_data group.
	DefaultEventType = "event"

	// DefaultEventName is the event name used when none is configured.
	DefaultEventName = "page_view"

	// ClientCookie is the cookie carrying the client identifier.
	ClientCookie = "na_u"

	// SessionCookie is the cookie carrying the session identifier.
	SessionCookie = "na_s"
)

// Storage constants.
const (
	// BigQueryBackend selects BigQuery as the warehouse.
	BigQueryBackend = "bigquery"

	// PostgresBackend selects PostgreSQL as the warehouse.
	PostgresBackend = "postgres"

	// FirestoreBackend selects Firestore as the document store.
	FirestoreBackend = "firestore"

	// RedisBackend selects Redis as the document store.
	RedisBackend = "redis"

	// DefaultTable is the warehouse table holding raw events and their page data.
	DefaultTable = "events_raw"

	// DefaultCollection is the document store collection holding user profiles.
	DefaultCollection = "users"

	// DefaultFirestoreDatabase is the Firestore database used when none is configured.
	DefaultFirestoreDatabase = "(default)"
)
