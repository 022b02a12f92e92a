package types

import "time"

// Position represents window position on screen
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size represents window dimensions
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Instance represents one running occurrence of an application
type Instance struct {
	InstanceID   string    `json:"instanceId"`
	AppID        AppID     `json:"appId"`
	IsOpen       bool      `json:"isOpen"`
	IsForeground bool      `json:"isForeground"`
	IsMinimized  bool      `json:"isMinimized"`
	Position     *Position `json:"position,omitempty"`
	Size         *Size     `json:"size,omitempty"`
	InitialData  any       `json:"initialData,omitempty"`
	Title        string    `json:"title,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	Sequence     uint64    `json:"sequence"` // Creation order, tie-break for equal CreatedAt
}

// Snapshot is the full registry state consumed by the renderer
type Snapshot struct {
	Instances     map[string]Instance `json:"instances"`
	InstanceOrder []string            `json:"instanceOrder"` // Back to front
	Version       uint64              `json:"version"`
}

// Ordered returns the snapshot's instances in stacking order (back to front)
func (s Snapshot) Ordered() []Instance {
	out := make([]Instance, 0, len(s.InstanceOrder))
	for _, id := range s.InstanceOrder {
		if inst, ok := s.Instances[id]; ok {
			out = append(out, inst)
		}
	}
	return out
}

// Foreground returns the foreground instance, if any
func (s Snapshot) Foreground() (Instance, bool) {
	for _, inst := range s.Instances {
		if inst.IsForeground {
			return inst, true
		}
	}
	return Instance{}, false
}

// AppState is the per-application aggregate used by legacy consumers
type AppState struct {
	IsOpen       bool      `json:"isOpen"`
	IsForeground bool      `json:"isForeground"`
	Position     *Position `json:"position,omitempty"`
	Size         *Size     `json:"size,omitempty"`
	InitialData  any       `json:"initialData,omitempty"`
}

// Stats contains instance registry statistics
type Stats struct {
	TotalInstances     int     `json:"total_instances"`
	MinimizedInstances int     `json:"minimized_instances"`
	ForegroundID       *string `json:"foreground_id,omitempty"`
	Version            uint64  `json:"version"`
}
