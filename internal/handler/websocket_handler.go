package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"huddle.websocket.go/internal/config"
	internalWs "huddle.websocket.go/internal/websocket"
)

type WebsocketHandler struct {
	hub    *internalWs.Hub
	logger *slog.Logger
	cfg    *config.Config
}

func NewWebsocketHandler(h *internalWs.Hub, l *slog.Logger, cfg *config.Config) *WebsocketHandler {
	return &WebsocketHandler{
		hub:    h,
		logger: l,
		cfg:    cfg,
	}
}

func (wh *WebsocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	for _, allowed := range wh.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(strings.TrimRight(allowed, "/"), u.Scheme+"://"+u.Host) {
			return true
		}
	}
	return false
}

func (wh *WebsocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     wh.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		wh.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	client := internalWs.NewClient(wh.hub, conn, wh.logger, uuid.NewString(), wh.cfg.MaxFrameSize)
	if !wh.hub.Admit(client) {
		wh.logger.Warn("hub stopped, rejecting connection", "client", client.ID)
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	wh.logger.Info("client connected", "client", client.ID, "remote", r.RemoteAddr)

	go client.WritePump()
	go client.ReadPump()
}
