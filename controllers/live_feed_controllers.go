package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/zemen-restaurant/zemen-backend/apperrors"
	"github.com/zemen-restaurant/zemen-backend/events"
	"github.com/zemen-restaurant/zemen-backend/middlewares"
	"github.com/zemen-restaurant/zemen-backend/utils"
)

type LiveFeedController struct {
	Hub      *events.Hub
	upgrader websocket.Upgrader
}

func NewLiveFeedController(hub *events.Hub, allowedOrigins []string) *LiveFeedController {
	return &LiveFeedController{
		Hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// LiveFeed -> websocket endpoint streaming order and reservation events to
// admins
func (lc *LiveFeedController) LiveFeed(c *gin.Context) {
	claims, ok := middlewares.ClaimsFrom(c)
	if !ok {
		utils.RespondError(c, apperrors.ErrUnauthorized)
		return
	}

	ws, err := lc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response
		utils.Log(c).WithError(err).Warn("websocket upgrade failed")
		return
	}

	lc.Hub.Serve(ws, claims.Username)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set["*"] || set[origin]
	}
}
