package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/netmond/internal/netmon"
)

const writeTimeout = 5 * time.Second

func accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, context.Context, error) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return nil, nil, err
	}
	return c, r.Context(), nil
}

// StreamEvents upgrades the request to a websocket and streams interface
// events as JSON text messages: a SessionInfo, the current interfaces as
// INTERFACE_ADDED events, then every change. The optional "interface" query
// parameter restricts the stream to one interface name; signals that are not
// tied to an interface are always sent.
func StreamEvents(m netmon.Monitor, w http.ResponseWriter, r *http.Request) {
	only := r.URL.Query().Get("interface")

	c, ctx, err := accept(w, r)
	if err != nil {
		fromContext(r.Context()).WithError(err).Error("Failed to accept client")
		return
	}
	defer c.Close(websocket.StatusNormalClosure, "closing")

	session := uuid.NewString()
	logger := fromContext(ctx).WithFields(log.Fields{
		"session":   session,
		"interface": only,
	})
	logger.Info("Event stream opened")
	defer logger.Info("Event stream closed")

	// The client only ever closes; CloseRead cancels ctx when it does.
	ctx = c.CloseRead(ctx)

	events, unsub := m.Subscribe()
	defer unsub()

	hello := SessionInfo{Session: session, Capabilities: m.Capabilities().Names()}
	if err := write(ctx, c, hello); err != nil {
		logger.WithError(err).Debug("Failed to send session info")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				c.Close(websocket.StatusGoingAway, "monitor stopped")
				return
			}
			if only != "" && ev.InterfaceName != only && ev.Index != 0 {
				continue
			}
			if err := write(ctx, c, NewEventInfo(ev)); err != nil {
				logger.WithError(err).Debug("Failed to send event")
				return
			}
		}
	}
}

func write(ctx context.Context, c *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.Write(ctx, websocket.MessageText, b)
}
