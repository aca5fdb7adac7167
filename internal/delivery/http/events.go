package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/labelscan/backend/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 25 * time.Second
)

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || isAllowedOrigin(origin, h.allowedOrigins) || sameHost(r, origin)
		},
	}
}

// sameHost accepts the PWA served by this backend
func sameHost(r *http.Request, origin string) bool {
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

// ScanEvents streams a scan job over a WebSocket until it completes or fails.
// The current state is sent immediately, then every change.
func (h *Handler) ScanEvents(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	id := scanID(c)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No scan ID provided"})
		return
	}

	job, err := h.scans.Status(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[Events] Upgrade failed for %s: %v", id, err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// read loop ends on client close/error
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeJob(conn, job); err != nil {
		return
	}

	poll := time.NewTicker(h.pollInterval)
	defer poll.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for !job.Status.IsTerminal() {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
			continue
		case <-poll.C:
		}

		next, err := h.scans.Status(ctx, id)
		if err != nil {
			log.Printf("[Events] Job %s lookup failed: %v", id, err)
			closeWith(conn, websocket.CloseGoingAway, "scan job not found")
			return
		}
		if next.Status != job.Status || !next.UpdatedAt.Equal(job.UpdatedAt) {
			if err := writeJob(conn, next); err != nil {
				return
			}
		}
		job = next
	}

	closeWith(conn, websocket.CloseNormalClosure, string(job.Status))
}

func writeJob(conn *websocket.Conn, job *domain.ScanJob) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(job)
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
