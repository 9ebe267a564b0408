package domain

import "time"

// PerformanceSummary — скалярный снимок производительности платформы.
// Latest-wins: истории в ядре нет, только последнее значение.
type PerformanceSummary struct {
	FPS            float64 `json:"fps"`
	LatencyMs      float64 `json:"latency_ms"`
	GPUUtilization float64 `json:"gpu_utilization"`
	Availability   float64 `json:"availability"`
	ActiveStreams  int     `json:"active_streams"`
}

// LogEntry — строка системного журнала, приходящая в составе сводки.
type LogEntry struct {
	Level     string    `json:"level"`
	Source    string    `json:"source"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// DashboardSummary — полный снимок состояния дашборда (snapshot/poll/push).
// Все секции опциональны: частичная сводка не должна обнулять
// уже известные данные, поэтому отсутствие секции кодируется nil.
type DashboardSummary struct {
	Cameras     []CameraStatus      `json:"cameras,omitempty"`
	Alerts      []Alert             `json:"alerts,omitempty"`
	Performance *PerformanceSummary `json:"performance,omitempty"`
	Behaviors   []BehaviorEvent     `json:"behaviors,omitempty"`
	Logs        []LogEntry          `json:"logs,omitempty"`
	GeneratedAt time.Time           `json:"generated_at"`
}
