package models

// SessionStatus represents the state of a canvas session.
type SessionStatus string

const (
	SessionStatusEmpty     SessionStatus = "empty"     // nothing committed yet
	SessionStatusRendering SessionStatus = "rendering" // a pass is in flight
	SessionStatusReady     SessionStatus = "ready"
	SessionStatusError     SessionStatus = "error"
)

// CanvasSession is the public view of one browser canvas.
type CanvasSession struct {
	ID           string        `json:"id"`
	Status       SessionStatus `json:"status"`
	Generation   uint64        `json:"generation"`
	Committed    uint64        `json:"committed"`
	LastView     View          `json:"lastView,omitempty"`
	LastError    string        `json:"lastError,omitempty"`
	CreatedAt    int64         `json:"createdAt"`    // Unix ms
	LastAccessed int64         `json:"lastAccessed"` // Unix ms
}
