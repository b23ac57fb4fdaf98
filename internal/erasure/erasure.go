// Package erasure removes the data of one client from the warehouse table and the document store.
//
// Both deletions are independent: a failure on one store is reported and never prevents the other
// one from being attempted.
package erasure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Status is the outcome of one deletion step.
type Status int

const (
	// Failed means the store could not be opened or the deletion failed.
	Failed Status = iota
	// Deleted means data of the client was found and removed.
	Deleted
	// NotFound means the store held no data for the client.
	NotFound
)

func (s Status) String() string {
	switch s {
	case Deleted:
		return "deleted"
	case NotFound:
		return "not found"
	default:
		return "failed"
	}
}

// ErrEmptyClientID is returned when no client id is given.
var ErrEmptyClientID = errors.New("client id is required")

// TableStore deletes the rows of a client.
type TableStore interface {
	// DeleteClient returns the number of deleted rows, or a negative number when unknown.
	DeleteClient(ctx context.Context, clientID string) (int64, error)
	Close() error
}

// DocumentStore deletes the document of a client.
type DocumentStore interface {
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// TableOpener opens the table store.
type TableOpener func(ctx context.Context) (TableStore, error)

// DocumentOpener opens the document store.
type DocumentOpener func(ctx context.Context) (DocumentStore, error)

// StepResult is the outcome of a deletion on one store.
type StepResult struct {
	Status Status
	// Rows is the number of deleted rows for the table step. It is negative when the store did not report it.
	Rows int64
	Err  error
}

// Outcome is the result of an erasure on both stores.
type Outcome struct {
	Table    StepResult
	Document StepResult
}

// Err returns the failures of both steps, if any.
func (o Outcome) Err() error {
	return errors.Join(o.Table.Err, o.Document.Err)
}

// Eraser runs erasure requests.
type Eraser struct {
	openTable TableOpener
	openDocs  DocumentOpener
	out       io.Writer

	tableName  string
	collection string
	log        *slog.Logger
}

type options struct {
	tableName  string
	collection string
	log        *slog.Logger
}

// Options represents an optional function to override Eraser default values.
type Options func(*options)

// WithTableName sets the table name used in progress messages.
func WithTableName(name string) Options {
	return func(o *options) {
		o.tableName = name
	}
}

// WithCollection sets the collection name used in progress messages.
func WithCollection(name string) Options {
	return func(o *options) {
		o.collection = name
	}
}

// New returns an Eraser writing its progress to out.
func New(openTable TableOpener, openDocs DocumentOpener, out io.Writer, args ...Options) Eraser {
	opts := options{
		tableName:  "warehouse",
		collection: "users",
		log:        slog.Default(),
	}
	for _, opt := range args {
		opt(&opts)
	}

	return Eraser{
		openTable:  openTable,
		openDocs:   openDocs,
		out:        out,
		tableName:  opts.tableName,
		collection: opts.collection,
		log:        opts.log,
	}
}

// Run deletes the data of clientID from both stores.
// Stores are only opened when clientID is not empty.
func (e Eraser) Run(ctx context.Context, clientID string) (Outcome, error) {
	if clientID == "" {
		fmt.Fprintln(e.out, "🔴 Error: client_id is required.")
		return Outcome{}, ErrEmptyClientID
	}

	fmt.Fprintf(e.out, "\n--- User deletion process: %s ---\n", clientID)
	o := Outcome{
		Table:    e.deleteRows(ctx, clientID),
		Document: e.deleteDocument(ctx, clientID),
	}
	fmt.Fprint(e.out, "--- Operation completed ---\n\n")

	if err := o.Err(); err != nil {
		e.log.Warn("Erasure partially failed", "client_id", clientID, "error", err)
	}
	return o, nil
}

func (e Eraser) deleteRows(ctx context.Context, clientID string) (r StepResult) {
	fmt.Fprintf(e.out, "⏳ Deleting from table (%s)...\n", e.tableName)

	store, err := e.openTable(ctx)
	if err != nil {
		return e.tableFailed(err)
	}
	defer e.closeStore("table", store)

	n, err := store.DeleteClient(ctx, clientID)
	if err != nil {
		return e.tableFailed(err)
	}

	switch {
	case n == 0:
		fmt.Fprintf(e.out, "🟡 Table: no rows found for '%s'.\n", clientID)
		return StepResult{Status: NotFound}
	case n < 0:
		fmt.Fprintln(e.out, "🟢 Table: records deleted.")
	default:
		fmt.Fprintf(e.out, "🟢 Table: %d records deleted.\n", n)
	}
	return StepResult{Status: Deleted, Rows: n}
}

func (e Eraser) tableFailed(err error) StepResult {
	fmt.Fprintf(e.out, "🔴 Table error: %v\n", err)
	return StepResult{Status: Failed, Err: fmt.Errorf("table deletion: %w", err)}
}

func (e Eraser) deleteDocument(ctx context.Context, clientID string) StepResult {
	store, err := e.openDocs(ctx)
	if err != nil {
		return e.documentFailed(err)
	}
	defer e.closeStore("document", store)

	exists, err := store.Exists(ctx, clientID)
	if err != nil {
		return e.documentFailed(err)
	}
	if !exists {
		fmt.Fprintf(e.out, "🟡 Document store: document '%s' not found in collection '%s'.\n", clientID, e.collection)
		return StepResult{Status: NotFound}
	}

	fmt.Fprintf(e.out, "⏳ Deleting from document store (collection: %s)...\n", e.collection)
	if err := store.Delete(ctx, clientID); err != nil {
		return e.documentFailed(err)
	}
	fmt.Fprintln(e.out, "🟢 Document store: user document deleted.")
	return StepResult{Status: Deleted}
}

func (e Eraser) documentFailed(err error) StepResult {
	fmt.Fprintf(e.out, "🔴 Document store error: %v\n", err)
	return StepResult{Status: Failed, Err: fmt.Errorf("document deletion: %w", err)}
}

func (e Eraser) closeStore(name string, s io.Closer) {
	if err := s.Close(); err != nil {
		e.log.Warn("Failed to close store", "store", name, "error", err)
	}
}
