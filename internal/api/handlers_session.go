// handlers_session.go - Canvas session, render and download handlers
package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/starmap-generator/backend/internal/export"
	"github.com/starmap-generator/backend/internal/models"
	"github.com/starmap-generator/backend/internal/render"
	"github.com/starmap-generator/backend/internal/session"
	"github.com/vmihailenco/msgpack/v5"
)

// Render response statuses
const (
	RenderStatusRendered   = "rendered"
	RenderStatusSuperseded = "superseded"
)

// HeaderRenderGeneration carries the generation of a served bitmap.
const HeaderRenderGeneration = "X-Render-Generation"

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	sessionMgr  *session.Manager
	jpegQuality int
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionMgr *session.Manager, jpegQuality int) SessionHandler {
	return &SessionHandlerImpl{
		sessionMgr:  sessionMgr,
		jpegQuality: jpegQuality,
	}
}

type renderResponse struct {
	Status    string               `json:"status"`
	SessionID string               `json:"sessionId"`
	Result    *models.RenderResult `json:"result,omitempty"`
}

// HandleCreateSession opens a new canvas session
func (h *SessionHandlerImpl) HandleCreateSession(c echo.Context) error {
	sess, err := h.sessionMgr.CreateSession()
	if err != nil {
		return fromDomainError(err, "")
	}
	return c.JSON(http.StatusCreated, sess)
}

// HandleGetSession returns the status of a canvas session
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	id := c.Param("sessionId")
	sess, ok := h.sessionMgr.GetSession(id)
	if !ok {
		return NewNotFoundError("session", id)
	}
	return c.JSON(http.StatusOK, sess)
}

// HandleDeleteSession drops a canvas session and its bitmap
func (h *SessionHandlerImpl) HandleDeleteSession(c echo.Context) error {
	id := c.Param("sessionId")
	if !h.sessionMgr.DeleteSession(id) {
		return NewNotFoundError("session", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleSessionKeepAlive refreshes the idle timer of a session
func (h *SessionHandlerImpl) HandleSessionKeepAlive(c echo.Context) error {
	id := c.Param("sessionId")
	if !h.sessionMgr.TouchSession(id) {
		return NewNotFoundError("session", id)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// HandleRender composes one view into the session canvas. A pass overtaken
// by a newer request answers 200 with status "superseded".
func (h *SessionHandlerImpl) HandleRender(c echo.Context) error {
	id := c.Param("sessionId")
	view, err := models.ParseView(c.Param("view"))
	if err != nil {
		e := NewValidationError("view")
		e.Details = err.Error()
		return e
	}

	var req models.RenderRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid render request", err)
	}

	result, err := h.sessionMgr.Render(c.Request().Context(), id, view, req)
	if errors.Is(err, render.ErrStaleRender) {
		return c.JSON(http.StatusOK, renderResponse{Status: RenderStatusSuperseded, SessionID: id})
	}
	if err != nil {
		return fromDomainError(err, id)
	}

	return c.JSON(http.StatusOK, renderResponse{
		Status:    RenderStatusRendered,
		SessionID: id,
		Result:    result,
	})
}

// HandlePreview returns the last committed bitmap as PNG
func (h *SessionHandlerImpl) HandlePreview(c echo.Context) error {
	id := c.Param("sessionId")
	img, result, err := h.sessionMgr.Snapshot(id)
	if err != nil {
		return fromDomainError(err, id)
	}
	if img == nil {
		return NewNotFoundError("render", id)
	}

	var buf bytes.Buffer
	if err := export.Encode(&buf, img, export.FormatPNG, 0); err != nil {
		return NewInternalError("failed to encode preview", err)
	}

	c.Response().Header().Set(HeaderRenderGeneration, strconv.FormatUint(result.Generation, 10))
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.Blob(http.StatusOK, export.FormatPNG.ContentType(), buf.Bytes())
}

// HandleLayout returns the circles and text placements of the last
// committed render as msgpack
func (h *SessionHandlerImpl) HandleLayout(c echo.Context) error {
	id := c.Param("sessionId")
	_, result, err := h.sessionMgr.Snapshot(id)
	if err != nil {
		return fromDomainError(err, id)
	}
	if result == nil {
		return NewNotFoundError("render", id)
	}

	data, err := msgpack.Marshal(result)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}

	c.Response().Header().Set(HeaderRenderGeneration, strconv.FormatUint(result.Generation, 10))
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleDownload encodes the last committed bitmap in the requested format
func (h *SessionHandlerImpl) HandleDownload(c echo.Context) error {
	id := c.Param("sessionId")
	f, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		e := NewValidationError("format")
		e.Details = err.Error()
		return e
	}

	img, result, err := h.sessionMgr.Snapshot(id)
	if err != nil {
		return fromDomainError(err, id)
	}
	if img == nil {
		return NewNotFoundError("render", id)
	}

	var buf bytes.Buffer
	if err := export.Encode(&buf, img, f, h.jpegQuality); err != nil {
		return NewInternalError("failed to encode image", err)
	}

	name := export.FileName(c.QueryParam("name"), f)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	c.Response().Header().Set(HeaderRenderGeneration, strconv.FormatUint(result.Generation, 10))
	return c.Blob(http.StatusOK, f.ContentType(), buf.Bytes())
}
