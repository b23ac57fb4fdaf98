package collector

import (
	"encoding/json"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// message extracts the text to display from a collector response body.
//
// A JSON object with a response field gives that field, anything else is displayed verbatim.
func message(body []byte) string {
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return string(body)
	}

	m, ok := parsed["response"]
	if !ok {
		return string(body)
	}

	s, ok := m.(string)
	if !ok {
		b, err := json.Marshal(m)
		if err != nil {
			return string(body)
		}
		return string(b)
	}

	return repairMojibake(s)
}

// repairMojibake undoes UTF-8 text that was decoded as Latin-1 upstream.
// Text that does not round-trip is returned unchanged.
func repairMojibake(s string) string {
	raw, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil || !utf8.ValidString(raw) {
		return s
	}
	return raw
}
