package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/services/realtime"
)

func registerRealtimeAPI(g *echo.Group, deps ServerDeps) {
	if deps.Hub == nil {
		return
	}
	g.GET("/ws", serveRealtime(deps.Hub, deps.Logger))
}

// serveRealtime upgrades the request and blocks until the client disconnects.
// Any caller may connect: events are broadcast to every client.
func serveRealtime(hub *realtime.Hub, logger core.Logger) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if err := hub.ServeWS(ctx.Response(), ctx.Request()); err != nil {
			// the upgrader has already replied to the client
			logger.Debug("realtime connection", err)
		}
		return nil
	}
}
