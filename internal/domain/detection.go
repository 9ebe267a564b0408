package domain

import "time"

// Detection — одно сработавшее обнаружение. Иммутабельно после создания:
// стор хранит ограниченный список (новые в начале), дедупликация по ID.
type Detection struct {
	ID          string    `json:"id"`
	CameraID    string    `json:"camera_id"`
	Class       string    `json:"class"` // person, vehicle, animal...
	Confidence  float64   `json:"confidence"`
	SnapshotURL string    `json:"snapshot_url,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// BehaviorEvent — событие поведенческой аналитики (loitering, intrusion и т.д.).
type BehaviorEvent struct {
	ID        string    `json:"id"`
	CameraID  string    `json:"camera_id"`
	Behavior  string    `json:"behavior"`
	Severity  string    `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}
