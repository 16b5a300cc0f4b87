// Package platform defines the fetch-side contract for pulling a player's
// game history off an external chess site, plus a lichess-shaped stub
// client. Real HTTP fetch is out of scope (spec §1: external collaborator);
// this package holds the Client interface, a stub client, and Combined,
// which splits a max_games budget across several clients. No month-windowed
// pagination is implemented here; each Client implementation does its own.
package platform

import (
	"context"
	"fmt"

	"boardsense.dev/sentinel/internal/model"
)

// Client fetches a window of a player's games from one external platform.
type Client interface {
	// Platform names the site this client talks to ("lichess", "chess.com").
	Platform() string
	// FetchGames returns up to maxGames games for username, walking back
	// monthsBack months, most recent first.
	FetchGames(ctx context.Context, username string, maxGames, monthsBack int) ([]model.GameRef, error)
}

// DefaultMaxGames and DefaultMonthsBack mirror game_fetcher.py's defaults.
const (
	DefaultMaxGames   = 100
	DefaultMonthsBack = 6
)

// LichessClient is a lichess-shaped stub: it satisfies Client, but
// FetchGames returns ErrFetchNotImplemented (after rejecting an empty
// username) rather than making a real HTTP call.
type LichessClient struct{}

// NewLichessClient constructs the stub client.
func NewLichessClient() *LichessClient { return &LichessClient{} }

func (c *LichessClient) Platform() string { return "lichess" }

// ErrFetchNotImplemented is returned by the stub client's FetchGames; callers
// that need real game data must supply their own Client implementation.
var ErrFetchNotImplemented = fmt.Errorf("platform: real game fetch is out of scope, no HTTP client wired")

func (c *LichessClient) FetchGames(ctx context.Context, username string, maxGames, monthsBack int) ([]model.GameRef, error) {
	if username == "" {
		return nil, fmt.Errorf("platform: username required")
	}
	if maxGames <= 0 {
		maxGames = DefaultMaxGames
	}
	if monthsBack <= 0 {
		monthsBack = DefaultMonthsBack
	}
	return nil, ErrFetchNotImplemented
}

// Combined fetches from every client in order and concatenates results,
// matching game_fetcher.py's "combined" platform mode (half the budget per
// site, chess.com then lichess).
func Combined(ctx context.Context, clients []Client, username string, maxGames, monthsBack int) ([]model.GameRef, error) {
	if len(clients) == 0 {
		return nil, nil
	}
	perClient := maxGames / len(clients)
	if perClient <= 0 {
		perClient = 1
	}
	var out []model.GameRef
	for _, c := range clients {
		games, err := c.FetchGames(ctx, username, perClient, monthsBack)
		if err != nil {
			return out, fmt.Errorf("platform: fetch from %s: %w", c.Platform(), err)
		}
		out = append(out, games...)
	}
	return out, nil
}
