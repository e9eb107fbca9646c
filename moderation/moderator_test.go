package moderation

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModerator_Censor(t *testing.T) {
	tests := []struct {
		name      string
		words     []string
		input     string
		want      string
		wantFound []string
	}{
		{
			name:      "plain word is masked",
			words:     []string{"badword"},
			input:     "say badword please",
			want:      "say ******* please",
			wantFound: []string{"badword"},
		},
		{
			name:      "matching is case insensitive",
			words:     []string{"badword"},
			input:     "say BadWord please",
			want:      "say ******* please",
			wantFound: []string{"badword"},
		},
		{
			name:      "leet speak spelling is caught",
			words:     []string{"badword"},
			input:     "say b4dw0rd please",
			want:      "say ******* please",
			wantFound: []string{"badword"},
		},
		{
			name:      "spaced out spelling is caught and masked whole",
			words:     []string{"bad"},
			input:     "b a d",
			want:      "*****",
			wantFound: []string{"bad"},
		},
		{
			name:      "several words masked in one message",
			words:     []string{"alpha", "beta"},
			input:     "alpha then beta",
			want:      "***** then ****",
			wantFound: []string{"alpha", "beta"},
		},
		{
			name:  "clean message passes through",
			words: []string{"badword"},
			input: "a perfectly fine message",
			want:  "a perfectly fine message",
		},
		{
			name:  "punctuation only message passes through",
			words: []string{"badword"},
			input: "?!...",
			want:  "?!...",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)

			// Given
			mod, err := NewModerator(tt.words, '*', slog.Default())
			req.NoError(err)

			// When
			got, found := mod.Censor(tt.input)

			// Then
			req.Equal(tt.want, got)
			req.ElementsMatch(tt.wantFound, found)
		})
	}
}

func TestModerator_Disabled_Without_Words(t *testing.T) {
	req := require.New(t)

	// Given a moderator built from an empty word list
	mod, err := NewModerator(nil, '*', slog.Default())
	req.NoError(err)

	// Then it censors nothing
	req.False(mod.Enabled())
	got, found := mod.Censor("anything at all")
	req.Equal("anything at all", got)
	req.Empty(found)
}

func TestModerator_Blank_Words_Are_Ignored(t *testing.T) {
	req := require.New(t)

	// Given a word list that normalizes to nothing
	mod, err := NewModerator([]string{" ", "..."}, '*', slog.Default())
	req.NoError(err)

	// Then the moderator stays disabled
	req.False(mod.Enabled())
}
