// handlers_export.go - Background export job handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/starmap-generator/backend/internal/export"
	"github.com/starmap-generator/backend/internal/session"
)

// ExportHandlerImpl implements the ExportHandler interface
type ExportHandlerImpl struct {
	sessionMgr *session.Manager
	exportMgr  *export.Manager
}

// NewExportHandler creates a new export handler instance
func NewExportHandler(sessionMgr *session.Manager, exportMgr *export.Manager) ExportHandler {
	return &ExportHandlerImpl{
		sessionMgr: sessionMgr,
		exportMgr:  exportMgr,
	}
}

// HandleStartExport snapshots the committed bitmap of a session and
// encodes it into file storage in the background
func (h *ExportHandlerImpl) HandleStartExport(c echo.Context) error {
	id := c.Param("sessionId")

	var req startExportRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	f, err := req.validate()
	if err != nil {
		return err
	}

	img, result, err := h.sessionMgr.Snapshot(id)
	if err != nil {
		return fromDomainError(err, id)
	}
	if img == nil {
		return NewConflictError("nothing has been rendered in this session yet")
	}

	job := h.exportMgr.StartJob(id, result.Generation, img, f, export.FileName(req.Name, f))

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"jobId":  job.ID,
		"status": job.Status,
	})
}

// HandleGetExport returns the state of an export job
func (h *ExportHandlerImpl) HandleGetExport(c echo.Context) error {
	id := c.Param("jobId")
	job, ok := h.exportMgr.GetJob(id)
	if !ok {
		return NewNotFoundError("export job", id)
	}
	return c.JSON(http.StatusOK, job)
}

// Request/Response types

type startExportRequest struct {
	Format string `json:"format"`
	Name   string `json:"name"`
}

func (r *startExportRequest) validate() (export.Format, error) {
	f, err := export.ParseFormat(r.Format)
	if err != nil {
		e := NewValidationError("format")
		e.Details = err.Error()
		return "", e
	}
	return f, nil
}
