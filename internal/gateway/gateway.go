package gateway

import (
	"context"
	"time"

	"github.com/argusvision/dashsync/internal/domain"
)

// CommandResult — ответ шлюза на императивную команду.
type CommandResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// StreamResult — ответ на создание WebRTC-сессии.
type StreamResult struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
}

// DetectionFilter ограничивает выборку последних обнаружений.
type DetectionFilter struct {
	CameraID string
	Class    string
	Limit    int
	Since    time.Time
}

// RemoteGateway — request/response интерфейс удаленной системы.
// Ядро потребляет его, но не реализует транспорт: сюда подставляется
// HTTPGateway (прод) или мок (тесты/демо).
type RemoteGateway interface {
	GetDashboardSummary(ctx context.Context) (*domain.DashboardSummary, error)
	GetCameraStatus(ctx context.Context) ([]domain.CameraStatus, error)
	GetRecentDetections(ctx context.Context, f DetectionFilter) ([]domain.Detection, error)
	GetActiveAlerts(ctx context.Context, limit int) ([]domain.Alert, error)
	GetPerformanceSummary(ctx context.Context) (*domain.PerformanceSummary, error)

	AcknowledgeAlert(ctx context.Context, alertID, by string) (bool, error)
	AddCamera(ctx context.Context, cam domain.CameraStatus) (CommandResult, error)
	RemoveCamera(ctx context.Context, cameraID string) (CommandResult, error)
	StartCamera(ctx context.Context, cameraID string) (CommandResult, error)
	StopCamera(ctx context.Context, cameraID string) (CommandResult, error)
	UpdateDetectionConfig(ctx context.Context, cameraID string, cfg map[string]interface{}) (bool, error)

	CreateWebRTCStream(ctx context.Context, cameraID, quality string) (StreamResult, error)
	DestroyWebRTCStream(ctx context.Context, sessionID string) (CommandResult, error)
}
