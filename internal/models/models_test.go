package models

import (
	"errors"
	"testing"

	"github.com/desertthunder/subsync/internal/shared"
)

func TestTrackedRowValidate(t *testing.T) {
	t.Run("accepts a complete row", func(t *testing.T) {
		row := &TrackedRow{PlaylistID: "PLdest123456789", Sources: []string{"ALL"}}
		if err := row.Validate(); err != nil {
			t.Errorf("expected valid row, got %v", err)
		}
	})

	t.Run("rejects a missing playlist id", func(t *testing.T) {
		row := &TrackedRow{Sources: []string{"ALL"}}
		if err := row.Validate(); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("rejects negative tunables", func(t *testing.T) {
		cases := map[string]*TrackedRow{
			"frequency": {PlaylistID: "PLdest123456789", FrequencyHours: -1},
			"retention": {PlaylistID: "PLdest123456789", RetentionDays: -7},
		}
		for name, row := range cases {
			if err := row.Validate(); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput for negative %s, got %v", name, err)
			}
		}
	})
}

func TestClassifyToken(t *testing.T) {
	cases := []struct {
		token string
		want  TokenKind
	}{
		{"ALL", TokenAllSubscriptions},
		{"all", TokenUsername},
		{"PLrAXtmErZgOdX8j1DBPosu8W5fgDBgWJ0p", TokenPlaylist},
		{"UCXuqSBlHAE6Xw-yeJA0Tunw", TokenChannel},
		{"somecreator", TokenUsername},
		// Short prefixed names are usernames, not IDs.
		{"PLinko", TokenUsername},
		{"UCberkeley", TokenUsername},
		{"", TokenUsername},
	}

	for _, tc := range cases {
		t.Run(tc.token, func(t *testing.T) {
			if got := ClassifyToken(tc.token); got != tc.want {
				t.Errorf("ClassifyToken(%q) = %v, want %v", tc.token, got, tc.want)
			}
		})
	}
}

func TestTokenKindString(t *testing.T) {
	cases := map[TokenKind]string{
		TokenAllSubscriptions: "subscriptions",
		TokenPlaylist:         "playlist",
		TokenChannel:          "channel",
		TokenUsername:         "username",
	}

	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("expected %v to render %q, got %q", kind, want, got)
		}
	}
}
