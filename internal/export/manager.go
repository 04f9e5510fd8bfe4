package export

import (
	"bytes"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/starmap-generator/backend/internal/logging"
	"github.com/starmap-generator/backend/internal/models"
)

var exportLog = logging.Module("export")

// Status represents the export job status.
type Status string

const (
	StatusQueued   Status = "queued"
	StatusEncoding Status = "encoding"
	StatusStoring  Status = "storing"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// Job represents an async export of a committed canvas.
type Job struct {
	ID          string           `json:"id"`
	SessionID   string           `json:"sessionId"`
	Generation  uint64           `json:"generation"`
	Format      Format           `json:"format"`
	FileName    string           `json:"fileName"`
	Status      Status           `json:"status"`
	Progress    float64          `json:"progress"`
	Stage       string           `json:"stage"`
	FileInfo    *models.FileInfo `json:"fileInfo,omitempty"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

// Store defines what the job manager needs from file storage.
type Store interface {
	SaveBytes(name, contentType, sessionID string, data []byte) (*models.FileInfo, error)
}

// Manager runs export jobs in the background.
type Manager struct {
	jobs    map[string]*Job
	mu      sync.RWMutex
	store   Store
	quality int
	wg      sync.WaitGroup
}

// NewManager creates a new export job manager.
func NewManager(store Store, jpegQuality int) *Manager {
	return &Manager{
		jobs:    make(map[string]*Job),
		store:   store,
		quality: jpegQuality,
	}
}

// StartJob snapshots img and begins encoding it in the background.
func (m *Manager) StartJob(sessionID string, generation uint64, img image.Image, format Format, fileName string) Job {
	job := &Job{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Generation: generation,
		Format:     format,
		FileName:   fileName,
		Status:     StatusQueued,
		Stage:      "queued",
		CreatedAt:  time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	snapshot := *job
	m.mu.Unlock()

	m.wg.Add(1)
	go m.processJob(job, img)

	return snapshot
}

// GetJob returns a copy of the job with the given ID.
func (m *Manager) GetJob(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Wait blocks until every started job has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) processJob(job *Job, img image.Image) {
	defer m.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			m.markJobError(job, fmt.Sprintf("export panicked: %v", r))
		}
	}()

	start := time.Now()
	m.updateJobStatus(job, StatusEncoding, "encoding "+string(job.Format))

	var buf bytes.Buffer
	if err := Encode(&buf, img, job.Format, m.quality); err != nil {
		m.markJobError(job, fmt.Sprintf("failed to encode: %v", err))
		return
	}

	m.updateJobStatus(job, StatusStoring, "saving file")
	info, err := m.store.SaveBytes(job.FileName, job.Format.ContentType(), job.SessionID, buf.Bytes())
	if err != nil {
		m.markJobError(job, fmt.Sprintf("failed to store: %v", err))
		return
	}

	m.markJobComplete(job, info)
	exportLog.Info().
		Str("job", job.ID).
		Str("file", info.ID).
		Int64("bytes", info.Size).
		Dur("took", time.Since(start)).
		Msg("export complete")
}

func (m *Manager) updateJobStatus(job *Job, status Status, stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Status = status
	job.Stage = stage
	switch status {
	case StatusEncoding:
		job.Progress = 10
	case StatusStoring:
		job.Progress = 70
	}
}

func (m *Manager) markJobComplete(job *Job, info *models.FileInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Status = StatusComplete
	job.Stage = "done"
	job.Progress = 100
	job.FileInfo = info
	now := time.Now()
	job.CompletedAt = &now
}

func (m *Manager) markJobError(job *Job, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Status = StatusError
	job.Error = errMsg
	now := time.Now()
	job.CompletedAt = &now
	exportLog.Error().Str("job", job.ID).Msg(errMsg)
}

// CleanupOldJobs removes finished jobs older than maxAge.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for id, job := range m.jobs {
		if job.Status == StatusComplete || job.Status == StatusError {
			if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
				delete(m.jobs, id)
			}
		}
	}
}
