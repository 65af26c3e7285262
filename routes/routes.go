package routes

import (
	"net/http"

	"github.com/matchasong/PictureShiritori/handlers"
	"github.com/matchasong/PictureShiritori/middleware"
	"github.com/matchasong/PictureShiritori/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // spectators connect from any origin
	},
}

type Options struct {
	SigningSecret string
	SweepToken    string
}

func SetupRoutes(
	router *gin.Engine,
	gameHandler *handlers.GameHandler,
	hub *services.Hub,
	opts Options,
	logger *zap.Logger,
) {
	slackGroup := router.Group("/slack")
	slackGroup.Use(middleware.SlackVerifier(opts.SigningSecret, logger))
	{
		slackGroup.POST("/commands/start", gameHandler.StartGame)
		slackGroup.POST("/events", gameHandler.SlackEvents)
	}

	api := router.Group("/api")
	{
		games := api.Group("/games")
		{
			games.GET("/current", gameHandler.CurrentGame)
			games.GET("/:id/summary", gameHandler.GameSummary)
			games.POST("/finish", middleware.SweepToken(opts.SweepToken), gameHandler.FinishGame)
		}
	}

	router.GET("/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		hub.RegisterClient(conn)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
