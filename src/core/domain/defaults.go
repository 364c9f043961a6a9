package domain

import (
	"strconv"
	"strings"
	"time"
)

// DefaultJoinWindow is how long a lobby stays open when nobody extends it.
const DefaultJoinWindow = 120 * time.Second

// DefaultPickWindow is how long each player has to answer a round.
const DefaultPickWindow = 90 * time.Second

// DefaultMinPlayers is the smallest roster that can play.
const DefaultMinPlayers = 2

// DefaultMaxPlayers is the roster size that closes the lobby immediately.
const DefaultMaxPlayers = 15

// DefaultExtendCap bounds a single lobby extension.
const DefaultExtendCap = 240 * time.Second

// DefaultExtension is used when an extension request names no duration.
const DefaultExtension = 30 * time.Second

// MinPick and MaxPick bound a valid pick.
const (
	MinPick = 0
	MaxPick = 100
)

// TimeoutPenalty is the score lost on a player's first missed round.
const TimeoutPenalty = 2

// ValidPick reports whether v is inside the allowed range.
func ValidPick(v int) bool {
	return v >= MinPick && v <= MaxPick
}

// ParsePick validates raw chat text as a pick: surrounding blanks are
// ignored, everything else must be decimal digits within range.
func ParsePick(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, ErrInvalidPick
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, ErrInvalidPick
		}
	}
	v, err := strconv.Atoi(text)
	if err != nil || !ValidPick(v) {
		return 0, ErrInvalidPick
	}
	return v, nil
}
