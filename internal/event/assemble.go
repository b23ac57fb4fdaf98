package event

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"time"

	"github.com/nameless-analytics/nameless-tools/internal/constants"
	"github.com/nameless-analytics/nameless-tools/internal/page"
)

// idSuffixBytes is the number of random bytes in an event id, giving 16 hex characters.
const idSuffixBytes = 8

var (
	// ErrMissingPageID is returned when the settings do not name a page.
	ErrMissingPageID = errors.New("page id cannot be empty")
	// ErrMissingEventName is returned when the settings do not name the event.
	ErrMissingEventName = errors.New("event name cannot be empty")
)

// Settings is the static part of an event.
type Settings struct {
	PageID    string
	EventName string
	UserID    string

	// Data is merged into event_data. The event_type key is reserved.
	Data      map[string]any
	Ecommerce map[string]any
	Consent   Consent
}

// Assembler builds events from settings and page records.
type Assembler struct {
	now    func() time.Time
	random io.Reader
}

type options struct {
	now    func() time.Time
	random io.Reader
}

// Options represents an optional function to override Assembler default values.
type Options func(*options)

// WithClock sets the clock used for the event date and timestamp.
func WithClock(now func() time.Time) Options {
	return func(o *options) {
		o.now = now
	}
}

// WithRandom sets the random source of the event id suffix.
func WithRandom(r io.Reader) Options {
	return func(o *options) {
		o.random = r
	}
}

// NewAssembler returns an Assembler using the wall clock and a cryptographically secure random source.
func NewAssembler(args ...Options) Assembler {
	opts := options{
		now:    time.Now,
		random: rand.Reader,
	}
	for _, opt := range args {
		opt(&opts)
	}

	return Assembler{now: opts.now, random: opts.random}
}

// Assemble builds the event for the page record r and its normalized attributes.
func (a Assembler) Assemble(s Settings, r page.Record, attrs map[string]any) (Event, error) {
	if s.PageID == "" {
		return Event{}, ErrMissingPageID
	}
	if s.EventName == "" {
		return Event{}, ErrMissingEventName
	}

	id, err := a.eventID(s.PageID)
	if err != nil {
		return Event{}, err
	}

	now := a.now().UTC()
	if attrs == nil {
		attrs = map[string]any{}
	}

	data := make(map[string]any, len(s.Data)+1)
	maps.Copy(data, s.Data)
	data["event_type"] = constants.DefaultEventType

	ecommerce := make(map[string]any, len(s.Ecommerce))
	maps.Copy(ecommerce, s.Ecommerce)

	var userID *string
	if s.UserID != "" {
		userID = &s.UserID
	}

	var pageDate *string
	if d := r.FormattedDate(); d != "" {
		pageDate = &d
	}

	e := Event{
		UserData: UserData{UserSource: constants.StreamingProtocolTag},
		SessionData: SessionData{
			SessionSource: constants.StreamingProtocolTag,
			UserID:        userID,
		},
		Page: Page{
			PageDate: pageDate,
			PageID:   s.PageID,
			PageData: attrs,
		},
		EventDate:      now.Format(time.DateOnly),
		EventTimestamp: now.UnixMilli(),
		EventID:        id,
		EventName:      s.EventName,
		EventOrigin:    constants.StreamingProtocolTag,
		EventData:      data,
		Ecommerce:      ecommerce,
		ConsentData:    s.Consent,
	}

	slog.Debug("Assembled event", "event_id", e.EventID, "event_name", e.EventName, "page_attributes", len(attrs))
	return e, nil
}

// eventID returns the page id followed by a random hexadecimal suffix.
func (a Assembler) eventID(pageID string) (string, error) {
	b := make([]byte, idSuffixBytes)
	if _, err := io.ReadFull(a.random, b); err != nil {
		return "", fmt.Errorf("failed to generate event id: %v", err)
	}
	return pageID + "_" + hex.EncodeToString(b), nil
}
