package types

// LaunchIntent asks for an application to be opened or brought forward
type LaunchIntent struct {
	AppID       AppID  `json:"appId" binding:"required"`
	InitialPath string `json:"initialPath,omitempty"`
	InitialData any    `json:"initialData,omitempty"`
	NewInstance bool   `json:"newInstance,omitempty"`
}

// DataChange notifies a mounted application that its payload was replaced
type DataChange struct {
	InstanceID  string `json:"instanceId"`
	AppID       AppID  `json:"appId"`
	InitialData any    `json:"initialData,omitempty"`
	InitialPath string `json:"initialPath,omitempty"`
}

// GeometryRequest updates window placement; nil fields are left untouched
type GeometryRequest struct {
	Position *Position `json:"position,omitempty"`
	Size     *Size     `json:"size,omitempty"`
}

// DataRequest replaces an instance payload
type DataRequest struct {
	InitialData any `json:"initialData"`
}

// TitleRequest overrides an instance title
type TitleRequest struct {
	Title string `json:"title"`
}

// SessionRequest names a workspace session to save
type SessionRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type       string           `json:"type"`
	InstanceID string           `json:"instanceId,omitempty"`
	Intent     *LaunchIntent    `json:"intent,omitempty"`
	Geometry   *GeometryRequest `json:"geometry,omitempty"`
	Message    string           `json:"message,omitempty"`
}
