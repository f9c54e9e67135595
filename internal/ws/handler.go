package ws

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"messenger/internal/auth"
	"messenger/internal/chat"
	"messenger/internal/models"
	"messenger/internal/observability"
)

// PresenceTracker is notified of connection lifecycle transitions.
type PresenceTracker interface {
	Connect(ctx context.Context, userID int)
	Disconnect(ctx context.Context, userID int)
}

// SocketHandler owns the realtime endpoint: it authenticates the
// handshake, binds the identity to the connection and runs the event loop.
type SocketHandler struct {
	router   *Router
	tokens   *auth.TokenService
	presence PresenceTracker
	ingest   *chat.Ingest
}

// NewSocketHandler constructs a SocketHandler.
func NewSocketHandler(router *Router, tokens *auth.TokenService, presence PresenceTracker, ingest *chat.Ingest) *SocketHandler {
	return &SocketHandler{router: router, tokens: tokens, presence: presence, ingest: ingest}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, authenticates it once and serves events
// until the transport closes. The verified identity is bound to the
// connection here and reused for every subsequent event; events carry no
// credential of their own.
func (h *SocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messenger/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	userID, err := h.tokens.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}

	h.router.Register(info.ConnID, userID, conn)
	h.presence.Connect(ctx, userID)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	publishLifecycle(ctx, "ws_connect", info, "")

	go h.serve(conn, info)
}

func (h *SocketHandler) serve(conn *websocket.Conn, info ConnInfo) {
	// detached from the handshake; the request context is gone by now
	ctx := context.Background()
	var closeReason string

	defer func() {
		h.router.DropConnection(info.ConnID)
		h.presence.Disconnect(ctx, info.UserID)
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		publishLifecycle(ctx, "ws_disconnect", info, closeReason)
		conn.Close()
	}()

	for {
		var event models.ClientEvent
		if err := conn.ReadJSON(&event); err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				publishLifecycle(ctx, "ws_error", info, closeReason)
			}
			return
		}
		h.dispatch(ctx, info, event)
	}
}

func (h *SocketHandler) dispatch(ctx context.Context, info ConnInfo, event models.ClientEvent) {
	switch event.Type {
	case models.EventJoinChat:
		err := h.router.JoinRoom(ctx, info.ConnID, event.ChatID)
		if err != nil {
			h.sendError(info.ConnID, "not authorized for chat")
			return
		}
		h.router.SendToConn(info.ConnID, models.ServerEvent{Type: models.EventJoinedChat, ChatID: event.ChatID})
		observability.IncWSEvent("join_chat")

	case models.EventLeaveChat:
		h.router.LeaveRoom(info.ConnID, event.ChatID)
		h.router.SendToConn(info.ConnID, models.ServerEvent{Type: models.EventLeftChat, ChatID: event.ChatID})
		observability.IncWSEvent("leave_chat")

	case models.EventSendMessage:
		_, err := h.ingest.Send(ctx, info.UserID, event.ChatID, event.Content, event.MsgType, event.Metadata)
		if err != nil {
			h.sendError(info.ConnID, ingestErrorText(err))
			return
		}
		observability.IncWSEvent("send_message")

	case models.EventTyping:
		h.router.Broadcast(event.ChatID, models.ServerEvent{
			Type:     models.EventTyping,
			ChatID:   event.ChatID,
			UserID:   info.UserID,
			IsTyping: event.IsTyping,
		}, info.ConnID)

	default:
		log.Printf("unknown ws event type %q from conn %s", event.Type, info.ConnID)
	}
}

func (h *SocketHandler) sendError(connID, text string) {
	h.router.SendToConn(connID, models.ServerEvent{Type: models.EventError, Error: text})
}

func ingestErrorText(err error) string {
	switch {
	case errors.Is(err, chat.ErrAccessDenied):
		return "not a chat member"
	case errors.Is(err, chat.ErrInvalidContent):
		return "message content is required"
	default:
		return "failed to send message"
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && (header[:7] == "Bearer " || header[:7] == "bearer ") {
		return header[7:]
	}
	return c.Query("token")
}

func publishLifecycle(ctx context.Context, event string, info ConnInfo, reason string) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
	_ = observability.PublishEvent(ctx, "ws_events.sessions", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}
