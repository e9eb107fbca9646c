package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Query
	}{
		{
			name:  "bare terms",
			input: "/find invoice due",
			want:  Query{RawInput: "/find invoice due", Terms: "invoice due", Limit: defaultLimit},
		},
		{
			name:  "room flag",
			input: "/find invoice --room lobby",
			want:  Query{RawInput: "/find invoice --room lobby", Terms: "invoice", Room: "lobby", Limit: defaultLimit},
		},
		{
			name:  "limit flag",
			input: "/find invoice --limit 5",
			want:  Query{RawInput: "/find invoice --limit 5", Terms: "invoice", Limit: 5},
		},
		{
			name:  "flags before terms",
			input: "/find --room lobby --limit 3 invoice",
			want:  Query{RawInput: "/find --room lobby --limit 3 invoice", Terms: "invoice", Room: "lobby", Limit: 3},
		},
		{
			name:  "invalid limit keeps the default",
			input: "/find invoice --limit nope",
			want:  Query{RawInput: "/find invoice --limit nope", Terms: "invoice", Limit: defaultLimit},
		},
		{
			name:  "negative limit keeps the default",
			input: "/find invoice --limit -2",
			want:  Query{RawInput: "/find invoice --limit -2", Terms: "invoice", Limit: defaultLimit},
		},
		{
			name:  "no terms at all",
			input: "/find --room lobby",
			want:  Query{RawInput: "/find --room lobby", Room: "lobby", Limit: defaultLimit},
		},
		{
			name:  "empty input",
			input: "",
			want:  Query{Limit: defaultLimit},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ParseQuery(tt.input))
		})
	}
}
