// Package handler: games.go exposes the game-fetch contract (spec §6,
// supplemented in internal/platform) over HTTP so a client can request a
// player's recent game list before starting a review-mode session.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"boardsense.dev/sentinel/internal/platform"
)

// GamesHandler serves GET /v1/games.
type GamesHandler struct {
	Clients []platform.Client
}

// NewGamesHandler builds a handler against the given platform clients, in
// the order Combined should query them.
func NewGamesHandler(clients ...platform.Client) *GamesHandler {
	return &GamesHandler{Clients: clients}
}

// List fetches up to max_games games for username across every configured
// platform client. Results are concatenated in client order, each client's
// games in the order that client returns them; the combined list is not
// re-sorted by date.
func (h *GamesHandler) List(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}
	maxGames := queryInt(c, "max_games", platform.DefaultMaxGames)
	monthsBack := queryInt(c, "months_back", platform.DefaultMonthsBack)

	games, err := platform.Combined(c.Request.Context(), h.Clients, username, maxGames, monthsBack)
	if err != nil {
		// Combined returns partial results alongside the error; surface both
		// so a client can still use whatever platforms did respond.
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "games": games})
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := parsePositiveInt(v)
	if err != nil {
		return fallback
	}
	return n
}

func parsePositiveInt(s string) (int, error) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errNotANumber
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

var errNotANumber = httpHandlerError("games: not a number")

type httpHandlerError string

func (e httpHandlerError) Error() string { return string(e) }
