// Package search indexes stored messages and answers history queries.
package search

import (
	"strconv"
	"strings"
)

const defaultLimit = 10

// Query decouples the raw chat input from the index engine requirements.
type Query struct {
	RawInput string // the original command text
	Terms    string // text to match against message content
	Room     string // restrict to one room when non-empty
	Limit    int    // maximum number of hits
}

// ParseQuery extracts command-line style arguments from a raw input.
// Example: /find invoice --room lobby --limit 5
func ParseQuery(input string) Query {
	q := Query{RawInput: input, Limit: defaultLimit}

	parts := strings.Fields(input)
	var terms []string
	for i := 0; i < len(parts); i++ {
		part := parts[i]

		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			val := parts[i+1]
			switch strings.TrimPrefix(part, "--") {
			case "room":
				q.Room = val
			case "limit":
				if n, err := strconv.Atoi(val); err == nil && n > 0 {
					q.Limit = n
				}
			}
			i++
			continue
		}

		// Anything that is not a flag or the command itself is a term.
		if !strings.HasPrefix(part, "/") {
			terms = append(terms, part)
		}
	}

	q.Terms = strings.Join(terms, " ")
	return q
}
