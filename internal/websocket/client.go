package websocket

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	sendBufferSize = 256
)

// Client is one live websocket connection. Its pumps only move bytes; every
// decision about a frame is made by the hub.
type Client struct {
	ID           string
	Hub          *Hub
	Conn         *websocket.Conn
	Send         chan []byte
	logger       *slog.Logger
	maxFrameSize int64

	// evicting is owned by the hub loop.
	evicting bool
}

func NewClient(hub *Hub, conn *websocket.Conn, logger *slog.Logger, id string, maxFrameSize int64) *Client {
	return &Client{
		ID:           id,
		Hub:          hub,
		Conn:         conn,
		Send:         make(chan []byte, sendBufferSize),
		logger:       logger.With("client", id),
		maxFrameSize: maxFrameSize,
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.forward(&Inbound{Client: c, Closed: true})
		c.Conn.Close()
	}()
	if c.maxFrameSize > 0 {
		c.Conn.SetReadLimit(c.maxFrameSize)
	}
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("unexpected close error", "error", err)
			}
			break
		}
		if !c.forward(&Inbound{Client: c, Data: message}) {
			break
		}
	}
}

// forward hands a frame to the hub loop. It reports false once the hub has stopped.
func (c *Client) forward(in *Inbound) bool {
	select {
	case c.Hub.Inbound <- in:
		return true
	case <-c.Hub.done:
		return false
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
