// Package emitter runs the streaming protocol: it looks up a page, builds one event from it
// and sends the event to the collector.
package emitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nameless-analytics/nameless-tools/internal/collector"
	"github.com/nameless-analytics/nameless-tools/internal/event"
	"github.com/nameless-analytics/nameless-tools/internal/page"
	"github.com/nameless-analytics/nameless-tools/internal/warehouse"
)

// PageStore looks up page records.
type PageStore interface {
	LookupPage(ctx context.Context, pageID string) (page.Record, error)
	Close() error
}

// PageOpener opens the page store. It is only called when the emitter runs.
type PageOpener func(ctx context.Context) (PageStore, error)

// Sender transmits events to the collector.
type Sender interface {
	Send(ctx context.Context, e event.Event) (collector.Response, error)
	Endpoint() string
}

// Assembler builds an event from a page record.
type Assembler interface {
	Assemble(s event.Settings, r page.Record, attrs map[string]any) (event.Event, error)
}

// Emitter is the streaming protocol flow.
type Emitter struct {
	openPages PageOpener
	sender    Sender
	assembler Assembler
	settings  event.Settings
	out       io.Writer

	dryRun bool
	log    *slog.Logger
}

type options struct {
	dryRun bool
	log    *slog.Logger
}

// Options represents an optional function to override Emitter default values.
type Options func(*options)

// WithDryRun prints the event instead of sending it.
func WithDryRun(dryRun bool) Options {
	return func(o *options) {
		o.dryRun = dryRun
	}
}

// New returns an Emitter writing its progress to out.
func New(openPages PageOpener, sender Sender, assembler Assembler, settings event.Settings, out io.Writer, args ...Options) Emitter {
	opts := options{
		log: slog.Default(),
	}
	for _, opt := range args {
		opt(&opts)
	}

	return Emitter{
		openPages: openPages,
		sender:    sender,
		assembler: assembler,
		settings:  settings,
		out:       out,
		dryRun:    opts.dryRun,
		log:       opts.log,
	}
}

// Run looks up the configured page, then builds and sends its event.
//
// An error is returned when the page cannot be retrieved or the event cannot be built, in which
// case nothing is sent. Once the event is built, the outcome of the transmission is only reported
// on out.
func (e Emitter) Run(ctx context.Context) error {
	fmt.Fprintf(e.out, "👉 Retrieve page data for page_id: %s\n", e.settings.PageID)
	r, err := e.lookup(ctx)
	if errors.Is(err, warehouse.ErrPageNotFound) {
		fmt.Fprintln(e.out, "  🔴 Page ID not found. Request aborted")
		return err
	}
	if err != nil {
		fmt.Fprintf(e.out, "  🔴 Error retrieving page data: %v\n", err)
		return err
	}
	fmt.Fprintln(e.out, "  🟢 Page data retrieved")

	evt, err := e.assembler.Assemble(e.settings, r, page.Normalize(r.Attributes))
	if err != nil {
		fmt.Fprintf(e.out, "  🔴 Error building event: %v\n", err)
		return err
	}

	if e.dryRun {
		return e.print(evt)
	}

	fmt.Fprintf(e.out, "👉 Send request to %s\n", e.sender.Endpoint())
	resp, err := e.sender.Send(ctx, evt)
	if err != nil {
		e.log.Warn("Event not delivered", "event_id", evt.EventID, "error", err)
		fmt.Fprintf(e.out, "  🔴 Error while sending: %v\n", err)
		fmt.Fprintln(e.out, "Function execution end: 👎")
		return nil
	}

	e.log.Info("Collector answered", "event_id", evt.EventID, "status", resp.StatusCode)
	fmt.Fprintf(e.out, "   %s\n", resp.Message)
	if resp.OK() {
		fmt.Fprintln(e.out, "Function execution end: 👍")
	} else {
		fmt.Fprintln(e.out, "Function execution end: 👎")
	}
	return nil
}

func (e Emitter) lookup(ctx context.Context) (r page.Record, err error) {
	store, err := e.openPages(ctx)
	if err != nil {
		return page.Record{}, err
	}
	defer func() {
		if cErr := store.Close(); cErr != nil {
			e.log.Warn("Failed to close page store", "error", cErr)
		}
	}()

	return store.LookupPage(ctx, e.settings.PageID)
}

func (e Emitter) print(evt event.Event) error {
	data, err := json.MarshalIndent(evt, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal event: %v", err)
	}
	fmt.Fprintf(e.out, "🟡 Dry run, request not sent to %s\n", e.sender.Endpoint())
	fmt.Fprintln(e.out, string(data))
	return nil
}
