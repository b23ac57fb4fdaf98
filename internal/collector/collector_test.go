package collector_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nameless-analytics/nameless-tools/internal/collector"
	"github.com/nameless-analytics/nameless-tools/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		endpoint string

		wantErr bool
	}{
		"Https endpoint":  {endpoint: "https://gtm.example.com/tm/nameless"},
		"Http endpoint":   {endpoint: "http://localhost:8080/tm/nameless"},
		"Error on empty":  {endpoint: "", wantErr: true},
		"Error on scheme": {endpoint: "ftp://gtm.example.com", wantErr: true},
		"Error on host":   {endpoint: "https:///path", wantErr: true},
		"Error on parse":  {endpoint: "http://a b.com/", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, err := collector.New(collector.Config{Endpoint: tc.endpoint})
			if tc.wantErr {
				require.ErrorIs(t, err, collector.ErrInvalidEndpoint)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.endpoint, c.Endpoint())
		})
	}
}

func TestNewTimeout(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		timeout time.Duration
	}{
		"No timeout relies on the transport": {},
		"Explicit timeout":                   {timeout: 5 * time.Second},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, err := collector.New(collector.Config{Endpoint: "https://gtm.example.com/tm/nameless", Timeout: tc.timeout})
			require.NoError(t, err)
			assert.Equal(t, tc.timeout, collector.Timeout(c))
		})
	}
}

func TestSendCookie(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		clientID  string
		sessionID string

		want string
	}{
		"Generated identifiers": {
			clientID:  "LPqJP8hpxpGedIA_sKWExPWU8qZLi1",
			sessionID: "LPqJP8hpxpGedIA_sKWExPWU8qZLi1-pfXyuJdX",
			want:      "na_u=LPqJP8hpxpGedIA_sKWExPWU8qZLi1; na_s=LPqJP8hpxpGedIA_sKWExPWU8qZLi1-pfXyuJdX",
		},
		"Spaces and commas are not quoted": {
			clientID:  "client 1",
			sessionID: "a,b",
			want:      "na_u=client 1; na_s=a,b",
		},
		"Quotes are kept": {
			clientID:  `"c1"`,
			sessionID: `s"1`,
			want:      `na_u="c1"; na_s=s"1`,
		},
		"Empty identifiers": {
			want: "na_u=; na_s=",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cookies := make(chan string, 1)
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				cookies <- r.Header.Get("Cookie")
				w.WriteHeader(http.StatusOK)
			}))
			t.Cleanup(ts.Close)

			c, err := collector.New(collector.Config{Endpoint: ts.URL, ClientID: tc.clientID, SessionID: tc.sessionID})
			require.NoError(t, err, "Setup: could not create collector client")

			_, err = c.Send(context.Background(), event.Event{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, <-cookies)
		})
	}
}

func TestSend(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		status        int
		body          string
		previewHeader string
		serverOffline bool

		wantOK      bool
		wantMessage string
		wantErr     bool
	}{
		"Accepted event":             {status: http.StatusOK, body: `{"response":"🟢 Request claimed successfully"}`, wantOK: true, wantMessage: "🟢 Request claimed successfully"},
		"Accepted with preview":      {status: http.StatusOK, body: `{"response":"ok"}`, previewHeader: "ZW52LTM=", wantOK: true, wantMessage: "ok"},
		"Accepted with raw text":     {status: http.StatusOK, body: "done", wantOK: true, wantMessage: "done"},
		"Rejected event":             {status: http.StatusForbidden, body: `{"response":"🔴 Invalid API key"}`, wantMessage: "🔴 Invalid API key"},
		"Other success is not OK":    {status: http.StatusAccepted, body: "", wantMessage: ""},
		"Server error with raw text": {status: http.StatusInternalServerError, body: "boom", wantMessage: "boom"},

		"Error when server is offline": {serverOffline: true, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var (
				gotHeaders http.Header
				gotBody    map[string]any
			)
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotHeaders = r.Header.Clone()
				b, err := io.ReadAll(r.Body)
				assert.NoError(t, err, "Server: could not read body")
				assert.NoError(t, json.Unmarshal(b, &gotBody), "Server: body is not JSON")
				assert.Equal(t, http.MethodPost, r.Method)

				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(ts.Close)
			if tc.serverOffline {
				ts.Close()
			}

			c, err := collector.New(collector.Config{
				Endpoint:      ts.URL + "/tm/nameless",
				Origin:        "https://example.com",
				APIKey:        "secret",
				PreviewHeader: tc.previewHeader,
				ClientID:      "client-1",
				SessionID:     "P1",
			})
			require.NoError(t, err, "Setup: could not create collector client")

			e := event.Event{EventID: "P1_0001020304050607", EventName: "purchase", Page: event.Page{PageID: "P1"}}
			got, err := c.Send(context.Background(), e)
			if tc.wantErr {
				require.ErrorIs(t, err, collector.ErrSendFailure)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tc.status, got.StatusCode)
			assert.Equal(t, tc.wantOK, got.OK())
			assert.Equal(t, tc.wantMessage, got.Message)

			assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
			assert.Equal(t, "secret", gotHeaders.Get("X-Api-Key"))
			assert.Equal(t, "https://example.com", gotHeaders.Get("Origin"))
			assert.Equal(t, "Nameless Analytics - Streaming protocol", gotHeaders.Get("User-Agent"))
			assert.Equal(t, "na_u=client-1; na_s=P1", gotHeaders.Get("Cookie"))
			assert.Equal(t, tc.previewHeader, gotHeaders.Get("X-Gtm-Server-Preview"))

			assert.Equal(t, "P1_0001020304050607", gotBody["event_id"])
			assert.Equal(t, "P1", gotBody["page_id"])
		})
	}
}

func TestMessage(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		body string

		want string
	}{
		"Response field":                {body: `{"response":"ok"}`, want: "ok"},
		"Missing response field":        {body: `{"status":"ok"}`, want: `{"status":"ok"}`},
		"Non string response field":     {body: `{"response":{"a":1}}`, want: `{"a":1}`},
		"Raw text":                      {body: "plain text", want: "plain text"},
		"JSON array is raw text":        {body: `["a"]`, want: `["a"]`},
		"Empty body":                    {body: "", want: ""},
		"Mis-encoded text is repaired":  {body: `{"response":"Ã¨ stato inviato"}`, want: "è stato inviato"},
		"Proper UTF-8 text is kept":     {body: `{"response":"è stato inviato"}`, want: "è stato inviato"},
		"Text outside Latin-1 is kept":  {body: `{"response":"👍 sent"}`, want: "👍 sent"},
		"Raw text is never re-decoded":  {body: "Ã¨", want: "Ã¨"},
		"Repair applies to escaped too": {body: `{"response":"Ã¨"}`, want: "è"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, collector.Message([]byte(tc.body)))
		})
	}
}
