package engine

import (
	"encoding/json"

	"github.com/argusvision/dashsync/internal/domain"
	"github.com/argusvision/dashsync/internal/store"
	"github.com/argusvision/dashsync/internal/transport"
	"go.uber.org/zap"
)

// translate превращает событие живого канала в действия стора.
// Кривой payload логируется и отбрасывается: одно битое событие не должно
// сломать применение остальных.
func (m *ConnManager) translate(ev transport.Event) []store.Action {
	switch ev.Kind {
	case transport.EventConnected:
		// Статусом соединения управляет сам менеджер, серверное эхо не нужно
		return nil

	case transport.EventDisconnected:
		// Смерть канала ловится по закрытию Events(), здесь ничего не делаем
		return nil

	case transport.EventError:
		return []store.Action{store.ErrorOccurred{Message: ev.Reason}}

	case transport.EventDashboardSummary:
		var sum domain.DashboardSummary
		if !m.decode(ev, &sum) {
			return nil
		}
		// Канал доставляет события строго по порядку: пуш-сводка по
		// определению свежее всего, что тот же канал принес до нее,
		// поэтому без охраны по ревизии
		return []store.Action{store.SummaryReceived{Summary: sum}}

	case transport.EventCameraStatus:
		var cams []domain.CameraStatus
		if !m.decode(ev, &cams) {
			return nil
		}
		return []store.Action{store.CameraStatusReceived{Cameras: cams}}

	case transport.EventRecentDetections:
		var dets []domain.Detection
		if !m.decode(ev, &dets) {
			return nil
		}
		return []store.Action{store.RecentDetectionsReplaced{Detections: dets}}

	case transport.EventActiveAlerts:
		var alerts []domain.Alert
		if !m.decode(ev, &alerts) {
			return nil
		}
		return []store.Action{store.ActiveAlertsReplaced{Alerts: alerts}}

	case transport.EventPerformance:
		var perf domain.PerformanceSummary
		if !m.decode(ev, &perf) {
			return nil
		}
		return []store.Action{store.PerformanceUpdated{Performance: perf}}

	case transport.EventNewDetection:
		var det domain.Detection
		if !m.decode(ev, &det) {
			return nil
		}
		return []store.Action{store.DetectionAppended{Detection: det}}

	case transport.EventNewAlert:
		var alert domain.Alert
		if !m.decode(ev, &alert) {
			return nil
		}
		return []store.Action{store.AlertAppended{Alert: alert}}

	default:
		m.metrics.EventsDropped.WithLabelValues("unknown_kind").Inc()
		m.logger.Debug("unknown event kind dropped", zap.String("kind", string(ev.Kind)))
		return nil
	}
}

func (m *ConnManager) decode(ev transport.Event, out interface{}) bool {
	if err := json.Unmarshal(ev.Payload, out); err != nil {
		m.metrics.EventsDropped.WithLabelValues("malformed").Inc()
		m.logger.Error("malformed payload dropped",
			zap.String("kind", string(ev.Kind)), zap.Error(err))
		return false
	}
	return true
}
