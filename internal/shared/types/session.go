package types

import "time"

// Session is a saved workspace
type Session struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Workspace   Workspace `json:"workspace"`
}

// Workspace captures every open instance in stacking order (back to front)
type Workspace struct {
	Instances    []Instance `json:"instances"`
	ForegroundID *string    `json:"foreground_id,omitempty"`
}

// SessionMetadata contains session metadata without the workspace
type SessionMetadata struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Instances   int       `json:"instances"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToMetadata converts a session to its metadata
func (s *Session) ToMetadata() SessionMetadata {
	return SessionMetadata{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Instances:   len(s.Workspace.Instances),
		CreatedAt:   s.CreatedAt,
	}
}

// SessionStats contains session manager statistics
type SessionStats struct {
	TotalSessions int        `json:"total_sessions"`
	LastSaved     *time.Time `json:"last_saved,omitempty"`
	LastRestored  *time.Time `json:"last_restored,omitempty"`
}

// AppHint is the app-scoped state kept across reloads
type AppHint struct {
	AppID       AppID     `json:"appId"`
	InitialPath string    `json:"initialPath,omitempty"`
	IsOpen      bool      `json:"isOpen"`
	IsMinimized bool      `json:"isMinimized"`
	Position    *Position `json:"position,omitempty"`
	Size        *Size     `json:"size,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
