package domain

import "time"

// CameraState — состояние камеры, как его репортит сервер.
type CameraState string

const (
	CameraOnline      CameraState = "online"
	CameraOffline     CameraState = "offline"
	CameraMaintenance CameraState = "maintenance"
	CameraError       CameraState = "error"
)

// CameraStatus — актуальный статус одной камеры.
// Идентичность определяется полем ID: обновления всегда replace-by-id.
type CameraStatus struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Status     CameraState `json:"status"`
	URL        string      `json:"url"`
	Location   string      `json:"location"`
	LastSeenAt time.Time   `json:"last_seen_at"`
	FPS        float64     `json:"fps"`
	Resolution string      `json:"resolution"`
}
