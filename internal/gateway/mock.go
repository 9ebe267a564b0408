package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/argusvision/dashsync/internal/domain"
	"github.com/google/uuid"
)

// MockGateway — имитация удаленной системы для локальной разработки и демо.
// Отдает правдоподобные данные с задержкой 20-120мс.
type MockGateway struct {
	mu       sync.Mutex
	cameras  []domain.CameraStatus
	alerts   []domain.Alert
	sessions map[string]string // sessionID -> cameraID
}

func NewMockGateway() *MockGateway {
	now := time.Now()
	return &MockGateway{
		cameras: []domain.CameraStatus{
			{ID: "cam-entrance", Name: "Entrance", Status: domain.CameraOnline, Location: "Gate A", LastSeenAt: now, FPS: 25, Resolution: "1920x1080"},
			{ID: "cam-parking", Name: "Parking", Status: domain.CameraOnline, Location: "Lot 1", LastSeenAt: now, FPS: 15, Resolution: "1280x720"},
			{ID: "cam-warehouse", Name: "Warehouse", Status: domain.CameraOffline, Location: "Bldg 2", LastSeenAt: now.Add(-time.Hour), FPS: 0, Resolution: "1920x1080"},
		},
		alerts: []domain.Alert{
			{ID: "alert-1", Severity: domain.SeverityHigh, Status: domain.AlertNew, CameraID: "cam-entrance", Message: "Person detected after hours", CreatedAt: now.Add(-10 * time.Minute)},
		},
		sessions: make(map[string]string),
	}
}

func (m *MockGateway) sleep(ctx context.Context) error {
	latency := time.Duration(20+rand.Intn(100)) * time.Millisecond
	select {
	case <-time.After(latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MockGateway) GetDashboardSummary(ctx context.Context) (*domain.DashboardSummary, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return &domain.DashboardSummary{
		Cameras:     append([]domain.CameraStatus(nil), m.cameras...),
		Alerts:      append([]domain.Alert(nil), m.alerts...),
		Performance: &domain.PerformanceSummary{FPS: 24.7, LatencyMs: 42, GPUUtilization: 0.61, Availability: 0.998, ActiveStreams: len(m.sessions)},
		GeneratedAt: time.Now(),
	}, nil
}

func (m *MockGateway) GetCameraStatus(ctx context.Context) ([]domain.CameraStatus, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CameraStatus(nil), m.cameras...), nil
}

func (m *MockGateway) GetRecentDetections(ctx context.Context, f DetectionFilter) ([]domain.Detection, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	return []domain.Detection{
		{ID: uuid.New().String(), CameraID: "cam-entrance", Class: "person", Confidence: 0.93, Timestamp: time.Now()},
	}, nil
}

func (m *MockGateway) GetActiveAlerts(ctx context.Context, limit int) ([]domain.Alert, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]domain.Alert(nil), m.alerts...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockGateway) GetPerformanceSummary(ctx context.Context) (*domain.PerformanceSummary, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	return &domain.PerformanceSummary{FPS: 24.7, LatencyMs: 42, GPUUtilization: 0.61, Availability: 0.998}, nil
}

func (m *MockGateway) AcknowledgeAlert(ctx context.Context, alertID, by string) (bool, error) {
	if err := m.sleep(ctx); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].ID == alertID {
			m.alerts[i].Status = domain.AlertAcknowledged
			m.alerts[i].AcknowledgedBy = by
			return true, nil
		}
	}
	return false, nil
}

func (m *MockGateway) AddCamera(ctx context.Context, cam domain.CameraStatus) (CommandResult, error) {
	if err := m.sleep(ctx); err != nil {
		return CommandResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cameras = append(m.cameras, cam)
	return CommandResult{Success: true}, nil
}

func (m *MockGateway) RemoveCamera(ctx context.Context, cameraID string) (CommandResult, error) {
	if err := m.sleep(ctx); err != nil {
		return CommandResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.cameras[:0]
	for _, c := range m.cameras {
		if c.ID != cameraID {
			kept = append(kept, c)
		}
	}
	m.cameras = kept
	return CommandResult{Success: true}, nil
}

func (m *MockGateway) setCameraState(cameraID string, st domain.CameraState) CommandResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.cameras {
		if m.cameras[i].ID == cameraID {
			m.cameras[i].Status = st
			m.cameras[i].LastSeenAt = time.Now()
			return CommandResult{Success: true}
		}
	}
	return CommandResult{Success: false, Message: fmt.Sprintf("camera %s not found", cameraID)}
}

func (m *MockGateway) StartCamera(ctx context.Context, cameraID string) (CommandResult, error) {
	if err := m.sleep(ctx); err != nil {
		return CommandResult{}, err
	}
	return m.setCameraState(cameraID, domain.CameraOnline), nil
}

func (m *MockGateway) StopCamera(ctx context.Context, cameraID string) (CommandResult, error) {
	if err := m.sleep(ctx); err != nil {
		return CommandResult{}, err
	}
	return m.setCameraState(cameraID, domain.CameraOffline), nil
}

func (m *MockGateway) UpdateDetectionConfig(ctx context.Context, cameraID string, cfg map[string]interface{}) (bool, error) {
	if err := m.sleep(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (m *MockGateway) CreateWebRTCStream(ctx context.Context, cameraID, quality string) (StreamResult, error) {
	if err := m.sleep(ctx); err != nil {
		return StreamResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.sessions[id] = cameraID
	return StreamResult{Success: true, SessionID: id}, nil
}

func (m *MockGateway) DestroyWebRTCStream(ctx context.Context, sessionID string) (CommandResult, error) {
	if err := m.sleep(ctx); err != nil {
		return CommandResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return CommandResult{Success: false, Message: "session not found"}, nil
	}
	delete(m.sessions, sessionID)
	return CommandResult{Success: true}, nil
}
