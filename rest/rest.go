package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"doudizhu-game/game"
)

var restLogger = log.With().Str("logger_name", "rest::rest").Logger()

var gameManager *game.Manager

//
// APP error definition
//
type appError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RunRestServer serves the lobby API and the websocket endpoint.
func RunRestServer(addr string, manager *game.Manager) error {
	gameManager = manager
	r := gin.Default()

	r.GET("/ready", checkReady)
	r.GET("/api/rooms", roomList)
	r.GET("/api/rooms/:id/rounds", roomRounds)
	r.GET("/ws", serveWS)

	restLogger.Info().Msgf("REST server listening on %s", addr)
	return r.Run(addr)
}

func checkReady(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func roomList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": gameManager.RoomList()})
}

func roomRounds(c *gin.Context) {
	var req struct {
		ID uint32 `uri:"id" binding:"required"`
	}
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, appError{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		})
		return
	}
	rounds, err := gameManager.LoadRounds(c.Request.Context(), req.ID)
	if err != nil {
		restLogger.Error().Msgf("Failed to load rounds for room %d: %v", req.ID, err)
		c.JSON(http.StatusInternalServerError, appError{
			Code:    http.StatusInternalServerError,
			Message: "could not load rounds",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rounds": rounds})
}
