package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/starmap-generator/backend/internal/models"
	"github.com/starmap-generator/backend/internal/render"
	"github.com/starmap-generator/backend/internal/session"
)

// WebSocket message types for the render channel
const (
	// Client -> Server messages
	MsgTypeRender    = "render"
	MsgTypeKeepAlive = "keepalive"
	MsgTypePing      = "ping"

	// Server -> Client messages
	MsgTypeConnected  = "connected"
	MsgTypeRendered   = "rendered"
	MsgTypeSuperseded = "superseded"
	MsgTypeError      = "error"
	MsgTypePong       = "pong"
)

// DefaultWSMaxMessageSize bounds a single client message.
const DefaultWSMaxMessageSize = 64 * 1024

// WebSocket message structure
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// RenderPayload asks for one render pass on a session
type RenderPayload struct {
	SessionID string               `json:"sessionId"`
	View      string               `json:"view"`
	Request   models.RenderRequest `json:"request"`
}

// KeepAlivePayload names the session to keep open
type KeepAlivePayload struct {
	SessionID string `json:"sessionId"`
}

// WSRenderedResponse reports a committed render
type WSRenderedResponse struct {
	SessionID string               `json:"sessionId"`
	Result    *models.RenderResult `json:"result"`
}

// WSSupersededResponse reports a pass dropped for a newer one
type WSSupersededResponse struct {
	SessionID string `json:"sessionId"`
	View      string `json:"view"`
}

// WebSocket error response
type WSErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// WebSocketHandler manages WebSocket connections that drive render passes
type WebSocketHandler struct {
	sessionMgr     *session.Manager
	upgrader       websocket.Upgrader
	maxMessageSize int64
}

// NewWebSocketHandler creates a new WebSocket render handler
func NewWebSocketHandler(sessionMgr *session.Manager, maxMessageSize int64) *WebSocketHandler {
	if maxMessageSize <= 0 {
		maxMessageSize = DefaultWSMaxMessageSize
	}
	return &WebSocketHandler{
		sessionMgr: sessionMgr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
		},
		maxMessageSize: maxMessageSize,
	}
}

// wsConn serializes writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (wc *wsConn) send(msg WSMessage) {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	data, err := sonic.ConfigStd.Marshal(msg)
	if err != nil {
		apiLog.Error().Err(err).Str("type", msg.Type).Msg("failed to encode websocket message")
		return
	}
	wc.mu.Lock()
	defer wc.mu.Unlock()
	if err := wc.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		apiLog.Debug().Err(err).Msg("failed to send websocket message")
	}
}

func (wc *wsConn) sendError(id string, apiErr *APIError) {
	wc.send(WSMessage{
		Type: MsgTypeError,
		ID:   id,
		Payload: mustJSON(WSErrorResponse{
			Type:    MsgTypeError,
			Message: apiErr.Message,
			Code:    apiErr.Code,
			Details: apiErr.Details,
		}),
	})
}

// HandleWebSocket upgrades the connection and runs the render protocol.
// Render messages run concurrently so a newer one can supersede an older
// pass on the same session.
func (wsh *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()
	ws.SetReadLimit(wsh.maxMessageSize)

	conn := &wsConn{ws: ws}
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	apiLog.Debug().Str("remote", c.RealIP()).Msg("websocket client connected")

	conn.send(WSMessage{Type: MsgTypeConnected})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				apiLog.Warn().Err(err).Msg("websocket connection error")
			}
			break
		}

		var msg WSMessage
		if err := sonic.ConfigStd.Unmarshal(data, &msg); err != nil {
			conn.sendError("", NewBadRequestError("invalid message", err))
			continue
		}

		switch msg.Type {
		case MsgTypePing:
			conn.send(WSMessage{Type: MsgTypePong, ID: msg.ID})
		case MsgTypeKeepAlive:
			wsh.handleKeepAlive(conn, msg)
		case MsgTypeRender:
			wg.Add(1)
			go func(msg WSMessage) {
				defer wg.Done()
				wsh.handleRender(ctx, conn, msg)
			}(msg)
		default:
			conn.sendError(msg.ID, &APIError{Code: "INVALID_TYPE", Message: "Unknown message type: " + msg.Type})
		}
	}

	apiLog.Debug().Msg("websocket client disconnected")
	return nil
}

func (wsh *WebSocketHandler) handleKeepAlive(conn *wsConn, msg WSMessage) {
	var payload KeepAlivePayload
	if err := sonic.ConfigStd.Unmarshal(msg.Payload, &payload); err != nil {
		conn.sendError(msg.ID, NewBadRequestError("invalid keepalive payload", err))
		return
	}
	if !wsh.sessionMgr.TouchSession(payload.SessionID) {
		conn.sendError(msg.ID, NewNotFoundError("session", payload.SessionID))
		return
	}
	conn.send(WSMessage{Type: MsgTypePong, ID: msg.ID})
}

func (wsh *WebSocketHandler) handleRender(ctx context.Context, conn *wsConn, msg WSMessage) {
	var payload RenderPayload
	if err := sonic.ConfigStd.Unmarshal(msg.Payload, &payload); err != nil {
		conn.sendError(msg.ID, NewBadRequestError("invalid render payload", err))
		return
	}
	view, err := models.ParseView(payload.View)
	if err != nil {
		e := NewValidationError("view")
		e.Details = err.Error()
		conn.sendError(msg.ID, e)
		return
	}

	result, err := wsh.sessionMgr.Render(ctx, payload.SessionID, view, payload.Request)
	switch {
	case errors.Is(err, render.ErrStaleRender):
		conn.send(WSMessage{
			Type:    MsgTypeSuperseded,
			ID:      msg.ID,
			Payload: mustJSON(WSSupersededResponse{SessionID: payload.SessionID, View: payload.View}),
		})
	case err != nil:
		conn.sendError(msg.ID, fromDomainError(err, payload.SessionID))
	default:
		conn.send(WSMessage{
			Type:    MsgTypeRendered,
			ID:      msg.ID,
			Payload: mustJSON(WSRenderedResponse{SessionID: payload.SessionID, Result: result}),
		})
	}
}
