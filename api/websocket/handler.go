package websocket

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"codeberg.org/codepair/server/internal/logger"
	ws "codeberg.org/codepair/server/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     ws.CheckOrigin,
}

// upgrades the connection and hands it to the hub. A connection carries no
// session yet; the client joins one with a join message afterwards.
func Handler(hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.ErrorErr(err, "websocket upgrade failed",
				"remote_addr", c.Request.RemoteAddr,
			)
			return
		}

		clientID, err := ws.GenerateClientID()
		if err != nil {
			logger.ErrorErr(err, "failed to generate client id")
			conn.Close() //nolint:errcheck,gosec // G104: cleanup on failure
			return
		}

		client := ws.NewClient(clientID, conn, hub)

		hub.Register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}
