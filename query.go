package pgmap

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

const (
	commentPrefix = "--"
	nameLen       = 16
)

// PreparedQuery is a named, normalized statement plus an optional parameter
// order. It is created once per declared query and reused.
type PreparedQuery struct {
	// Name is the first 16 hex chars of the SHA-256 of the raw text.
	Name string
	// Text is the comment-stripped single-line statement.
	Text string
	// Params names the positional placeholders in order; nil when the query
	// was declared without an order.
	Params []string
}

// Prepare normalizes raw and derives its statement name.
func Prepare(raw string, params ...string) PreparedQuery {
	q := PreparedQuery{
		Name: StatementName(raw),
		Text: Normalize(raw),
	}
	if len(params) > 0 {
		q.Params = append([]string(nil), params...)
	}
	return q
}

// Load reads a SQL file and prepares its content.
func Load(path string, params ...string) (PreparedQuery, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return PreparedQuery{}, fmt.Errorf("pgmap: load query: %w", err)
	}
	return Prepare(string(b), params...), nil
}

// Normalize trims every line, drops blank and line-comment lines and joins
// the rest with single spaces.
func Normalize(raw string) string {
	lines := strings.Split(raw, "\n")
	kept := lines[:0]
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" || strings.HasPrefix(l, commentPrefix) {
			continue
		}
		kept = append(kept, l)
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

// StatementName hashes the raw, not the normalized, text: editing a comment
// changes the name.
func StatementName(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:nameLen]
}
