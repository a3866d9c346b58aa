package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/flowboard/flowboard/internal/logger"
	"github.com/flowboard/flowboard/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Per-project websocket clients watching a board. Mutation handlers call
// BroadcastBoardUpdate so open boards refetch instead of polling.
var (
	boardClients   = make(map[uint]map[*websocket.Conn]bool)
	boardClientsMu sync.RWMutex
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

func BroadcastBoardUpdate(projectID uint) {
	boardClientsMu.RLock()
	clients := boardClients[projectID]

	conns := make([]*websocket.Conn, 0, len(clients))
	for conn := range clients {
		conns = append(conns, conn)
	}
	boardClientsMu.RUnlock()

	for _, conn := range conns {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			continue
		}

		if err := conn.WriteJSON(gin.H{"type": "board_updated", "projectId": projectID}); err != nil {
			logger.Warn("dropping board watcher", "project_id", projectID, "error", err)
			removeBoardClient(projectID, conn)
			conn.Close()
		}
	}
}

func removeBoardClient(projectID uint, conn *websocket.Conn) {
	boardClientsMu.Lock()
	defer boardClientsMu.Unlock()

	if clients, exists := boardClients[projectID]; exists {
		delete(clients, conn)

		if len(clients) == 0 {
			delete(boardClients, projectID)
		}
	}
}

// BoardSocket upgrades the connection after the usual read access check
// and keeps it registered until the client goes away.
func BoardSocket(ctx *gin.Context) {
	_, project, ok := requireProjectAccess(ctx, false)

	if !ok {
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range types.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)

	if err != nil {
		logger.Warn("websocket upgrade failed", "project_id", project.ID, "error", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	boardClientsMu.Lock()
	if boardClients[project.ID] == nil {
		boardClients[project.ID] = make(map[*websocket.Conn]bool)
	}
	boardClients[project.ID][conn] = true
	boardClientsMu.Unlock()

	defer func() {
		removeBoardClient(project.ID, conn)
		conn.Close()
	}()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}

	if err := conn.WriteJSON(gin.H{"type": "connected", "projectId": project.ID}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	go func() {
		for range ticker.C {
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			break
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("board socket closed", "project_id", project.ID, "error", err)
			}
			break
		}
	}
}
