package cache

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fortuna/livescore/internal/scores"
)

const (
	// LiveTTL applies to team-scoped and live entries.
	LiveTTL = 60 * time.Second
	// FeaturedTTL applies to featured and other non-live entries.
	FeaturedTTL = 300 * time.Second

	TeamsPattern    = "scores:teams:*"
	FeaturedPattern = "scores:sport:*"
)

// TeamsKey keys a team-scoped lookup. ids must already be sanitized.
func TeamsKey(ids []string) string {
	return "scores:teams:" + strings.Join(ids, ",")
}

// FeaturedKey keys a league's featured lookup.
func FeaturedKey(league string) string {
	return fmt.Sprintf("scores:sport:%s:featured", strings.ToUpper(league))
}

// UserKey keys a user-scoped lookup.
func UserKey(userID, sport string, mode scores.Mode) string {
	return fmt.Sprintf("user:%s:%s:%s", userID, strings.ToUpper(sport), mode)
}

// TTLFor picks the entry lifetime for a mode.
func TTLFor(mode scores.Mode) time.Duration {
	if mode == scores.ModeLive {
		return LiveTTL
	}
	return FeaturedTTL
}

// EncodeGames serializes games with RFC 3339 timestamps.
func EncodeGames(games []scores.Game) (string, error) {
	if games == nil {
		games = []scores.Game{}
	}
	raw, err := json.Marshal(games)
	if err != nil {
		return "", fmt.Errorf("encoding cached games: %w", err)
	}
	return string(raw), nil
}

// DecodeGames restores games written by EncodeGames.
func DecodeGames(value string) ([]scores.Game, error) {
	var games []scores.Game
	if err := json.Unmarshal([]byte(value), &games); err != nil {
		return nil, fmt.Errorf("decoding cached games: %w", err)
	}
	return games, nil
}
