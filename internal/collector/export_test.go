package collector

import "time"

// Message exposes the response message extraction for tests.
func Message(body []byte) string {
	return message(body)
}

// Timeout returns the timeout of the HTTP client used by c.
func Timeout(c Client) time.Duration {
	return c.http.Timeout
}
