// handlers_files_test.go - Tests for stored export file handlers
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/starmap-generator/backend/internal/models"
	"github.com/starmap-generator/backend/internal/testutil"
)

func TestFileHandler_HandleGetRecentFiles(t *testing.T) {
	tests := []struct {
		name      string
		fileCount int
		limit     string
		wantCount int
		wantErr   bool
	}{
		{name: "empty store", fileCount: 0, wantCount: 0},
		{name: "fewer than default page", fileCount: 5, wantCount: 5},
		{name: "capped at default page", fileCount: 30, wantCount: DefaultRecentFiles},
		{name: "explicit limit", fileCount: 10, limit: "3", wantCount: 3},
		{name: "invalid limit", fileCount: 1, limit: "abc", wantErr: true},
		{name: "zero limit", fileCount: 1, limit: "0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewMockStorage()
			for i := 0; i < tt.fileCount; i++ {
				info := store.AddFile(fmt.Sprintf("file-%d", i), fmt.Sprintf("starmap-%d.png", i), "image/png", []byte("x"))
				info.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
			}
			handler := NewFileHandler(store)

			e := echo.New()
			target := "/api/files/recent"
			if tt.limit != "" {
				target += "?limit=" + tt.limit
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := handler.HandleGetRecentFiles(c)
			if tt.wantErr {
				apiErr, ok := err.(*APIError)
				if !ok {
					t.Fatalf("expected APIError, got %T", err)
				}
				if apiErr.Code != "VALIDATION_ERROR" {
					t.Errorf("expected VALIDATION_ERROR, got %s", apiErr.Code)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var files []models.FileInfo
			if err := json.Unmarshal(rec.Body.Bytes(), &files); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if len(files) != tt.wantCount {
				t.Errorf("expected %d files, got %d", tt.wantCount, len(files))
			}
			for i := 1; i < len(files); i++ {
				if files[i].CreatedAt.After(files[i-1].CreatedAt) {
					t.Errorf("expected newest first, file %d is newer than file %d", i, i-1)
				}
			}
		})
	}
}

func TestFileHandler_HandleGetFile(t *testing.T) {
	tests := []struct {
		name       string
		fileID     string
		setupFiles map[string][]byte
		wantStatus int
		wantErr    bool
		errCode    string
	}{
		{
			name:   "existing file",
			fileID: "test-id-1",
			setupFiles: map[string][]byte{
				"test-id-1": []byte("content"),
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing file id",
			fileID:     "",
			setupFiles: map[string][]byte{},
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errCode:    "VALIDATION_ERROR",
		},
		{
			name:       "non-existent file",
			fileID:     "does-not-exist",
			setupFiles: map[string][]byte{},
			wantStatus: http.StatusNotFound,
			wantErr:    true,
			errCode:    "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewMockStorage()
			for id, data := range tt.setupFiles {
				store.AddFile(id, "starmap.png", "image/png", data)
			}
			handler := NewFileHandler(store)

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/files/:id", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(tt.fileID)

			err := handler.HandleGetFile(c)

			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
					return
				}
				apiErr, ok := err.(*APIError)
				if !ok {
					t.Errorf("expected APIError, got %T", err)
					return
				}
				if apiErr.Status != tt.wantStatus {
					t.Errorf("expected status %d, got %d", tt.wantStatus, apiErr.Status)
				}
				if apiErr.Code != tt.errCode {
					t.Errorf("expected error code %s, got %s", tt.errCode, apiErr.Code)
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var response models.FileInfo
			if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
				t.Errorf("failed to unmarshal response: %v", err)
				return
			}
			if response.ID != tt.fileID {
				t.Errorf("expected ID %s, got %s", tt.fileID, response.ID)
			}
		})
	}
}

func TestFileHandler_HandleDownloadFile(t *testing.T) {
	store := testutil.NewMockStorageWithTempDir(t.TempDir())
	store.AddFile("png-1", "night-sky.png", "image/png", []byte("\x89PNG fake"))
	handler := NewFileHandler(store)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/files/png-1/download", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("png-1")

	if err := handler.HandleDownloadFile(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(got, "night-sky.png") {
		t.Errorf("expected attachment name in Content-Disposition, got %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), []byte("\x89PNG fake")) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/files/missing/download", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("missing")
	if apiErr, ok := handler.HandleDownloadFile(c).(*APIError); !ok || apiErr.Status != http.StatusNotFound {
		t.Errorf("expected 404 APIError, got %v", apiErr)
	}
}

func TestFileHandler_HandleDeleteFile(t *testing.T) {
	tests := []struct {
		name       string
		fileID     string
		setupFiles map[string][]byte
		wantStatus int
		wantErr    bool
		errCode    string
	}{
		{
			name:   "delete existing file",
			fileID: "test-id-1",
			setupFiles: map[string][]byte{
				"test-id-1": []byte("content"),
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "delete non-existent file",
			fileID:     "does-not-exist",
			setupFiles: map[string][]byte{},
			wantStatus: http.StatusNotFound,
			wantErr:    true,
			errCode:    "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewMockStorage()
			for id, data := range tt.setupFiles {
				store.AddFile(id, "starmap.png", "image/png", data)
			}
			handler := NewFileHandler(store)

			e := echo.New()
			req := httptest.NewRequest(http.MethodDelete, "/api/files/:id", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(tt.fileID)

			err := handler.HandleDeleteFile(c)

			if tt.wantErr {
				apiErr, ok := err.(*APIError)
				if !ok {
					t.Errorf("expected APIError, got %T", err)
					return
				}
				if apiErr.Code != tt.errCode {
					t.Errorf("expected error code %s, got %s", tt.errCode, apiErr.Code)
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if store.GetFileCount() != 0 {
				t.Error("file should have been deleted")
			}
		})
	}
}

func TestFileHandler_HandleRenameFile(t *testing.T) {
	tests := []struct {
		name     string
		fileID   string
		body     string
		wantName string
		errCode  string
	}{
		{name: "rename existing", fileID: "f1", body: `{"name":"  anniversary.png "}`, wantName: "anniversary.png"},
		{name: "blank name", fileID: "f1", body: `{"name":"   "}`, errCode: "VALIDATION_ERROR"},
		{name: "unknown file", fileID: "nope", body: `{"name":"x.png"}`, errCode: "NOT_FOUND"},
		{name: "malformed body", fileID: "f1", body: `{"name":`, errCode: "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewMockStorage()
			store.AddFile("f1", "starmap.png", "image/png", []byte("x"))
			handler := NewFileHandler(store)

			e := echo.New()
			req := httptest.NewRequest(http.MethodPut, "/api/files/:id", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(tt.fileID)

			err := handler.HandleRenameFile(c)
			if tt.errCode != "" {
				apiErr, ok := err.(*APIError)
				if !ok {
					t.Fatalf("expected APIError, got %T (%v)", err, err)
				}
				if apiErr.Code != tt.errCode {
					t.Errorf("expected error code %s, got %s", tt.errCode, apiErr.Code)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			info, _ := store.Get("f1")
			if info.Name != tt.wantName {
				t.Errorf("expected name %q, got %q", tt.wantName, info.Name)
			}
		})
	}
}
