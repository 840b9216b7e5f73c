package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/scribehub/scribe-server/internal/api/middleware"
	"github.com/scribehub/scribe-server/internal/documents"
	"github.com/scribehub/scribe-server/internal/models"
	"github.com/scribehub/scribe-server/internal/permissions"
	"github.com/scribehub/scribe-server/internal/relay"
)

const (
	relayWriteWait = 10 * time.Second
	relayPongWait  = 60 * time.Second
	relayPingEvery = 50 * time.Second
)

// RelayHandler bridges WebSocket connections onto the relay broker. One
// connection equals one subscription to the document's topic; identity
// comes from the token, never from client frames.
type RelayHandler struct {
	documents *documents.Service
	broker    *relay.Broker
	upgrader  websocket.Upgrader
	logger    *slog.Logger
}

// NewRelayHandler creates a new relay handler.
func NewRelayHandler(docSvc *documents.Service, broker *relay.Broker, logger *slog.Logger) *RelayHandler {
	return &RelayHandler{
		documents: docSvc,
		broker:    broker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The edge terminates browser origins; this service trusts it.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeWS handles GET /v1/documents/{documentID}/ws.
func (h *RelayHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID := chi.URLParam(r, "documentID")
	userID := middleware.GetUserID(ctx)
	username := middleware.GetUsername(ctx)

	doc, err := h.documents.Get(ctx, documentID, userID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	permission := string(models.PermissionView)
	if permissions.HasEditPermission(doc, userID) {
		permission = string(models.PermissionEdit)
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err, "document_id", documentID)
		return
	}

	sub := h.broker.Subscribe(documentID)
	h.logger.Info("relay session opened",
		"document_id", documentID, "user_id", userID, "subscriber_id", sub.ID)

	go h.writePump(conn, sub)

	h.broker.Publish(documentID, models.Message{
		Type:       models.MessageTypeUserJoined,
		DocumentID: documentID,
		UserID:     userID,
		Username:   username,
		Permission: permission,
		Timestamp:  time.Now().UTC(),
	})

	h.readPump(conn, documentID, userID, username)

	h.broker.Unsubscribe(sub)
	h.broker.Publish(documentID, models.Message{
		Type:       models.MessageTypeUserLeft,
		DocumentID: documentID,
		UserID:     userID,
		Username:   username,
		Timestamp:  time.Now().UTC(),
	})
	h.logger.Info("relay session closed",
		"document_id", documentID, "user_id", userID, "subscriber_id", sub.ID)
}

// readPump relays client frames into the broker until the connection
// drops. Only content and cursor messages are accepted; presence frames
// are server-generated.
func (h *RelayHandler) readPump(conn *websocket.Conn, documentID, userID, username string) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(relayPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(relayPongWait))
	})

	for {
		var msg models.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read error", "error", err, "document_id", documentID)
			}
			return
		}

		switch msg.Type {
		case models.MessageTypeContentChange, models.MessageTypeCursorPosition:
		default:
			continue
		}

		msg.DocumentID = documentID
		msg.UserID = userID
		msg.Username = username
		msg.Timestamp = time.Now().UTC()

		h.broker.Publish(documentID, msg)
	}
}

// writePump is the connection's sole writer: broker messages and pings
// both flow through here.
func (h *RelayHandler) writePump(conn *websocket.Conn, sub *relay.Subscription) {
	ticker := time.NewTicker(relayPingEvery)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.Ch:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(relayWriteWait))
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			conn.SetWriteDeadline(time.Now().Add(relayWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("websocket write error", "error", err, "subscriber_id", sub.ID)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(relayWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
