package store

import (
	"time"

	"github.com/argusvision/dashsync/internal/domain"
)

// Apply — чистая функция перехода: возвращает новое состояние, не трогая
// исходное. Экспортирована отдельно от Store, чтобы свойства переходов
// проверялись в тестах без горутин.
func Apply(s DashboardState, a Action) DashboardState {
	next := s.Clone()

	switch act := a.(type) {
	case ConnectionChanged:
		// Только флаг соединения, данные не трогаем
		next.Connection = act.Status

	case ErrorOccurred:
		next.Error = act.Message
		next.Loading = false

	case ErrorCleared:
		next.Error = ""

	case LoadingStarted:
		next.Loading = true

	case SummaryReceived:
		applySummary(&next, act)

	case CameraStatusReceived:
		next.Cameras = append([]domain.CameraStatus(nil), act.Cameras...)
		next.LastUpdated = time.Now()

	case DetectionAppended:
		next.Detections = prependDetection(next.Detections, act.Detection, next.DetectionCapacity)

	case RecentDetectionsReplaced:
		next.Detections = truncateDetections(
			append([]domain.Detection(nil), act.Detections...), next.DetectionCapacity)

	case AlertAppended:
		next.Alerts = append([]domain.Alert{act.Alert}, next.Alerts...)
		next.AlertsRev++

	case ActiveAlertsReplaced:
		// Охраняемый (poll/fetch) снапшот, снятый до более свежей точечной
		// мутации, проигрывает; неохраняемый пришел по упорядоченному каналу
		if !act.Guarded || act.BasedOnAlertsRev >= s.AlertsRev {
			next.Alerts = append([]domain.Alert(nil), act.Alerts...)
		}

	case AlertAcked:
		ackAlert(&next, act)

	case PeerSessionAdded:
		next.PeerSessions[act.CameraID] = act.SessionID

	case PeerSessionRemoved:
		delete(next.PeerSessions, act.CameraID)

	case CameraRemoved:
		removeCamera(&next, act.CameraID)

	case PerformanceUpdated:
		perf := act.Performance
		next.Performance = &perf

	case BehaviorAppended:
		next.Behaviors = append([]domain.BehaviorEvent{act.Event}, next.Behaviors...)

	case LogAppended:
		next.Logs = append([]domain.LogEntry{act.Entry}, next.Logs...)

	case FiltersUpdated:
		mergeFilters(&next.Filters, act.Patch)

	case CameraSelected:
		next.Selection.CameraID = act.CameraID

	case AlertSelected:
		next.Selection.AlertID = act.AlertID

	case AutoRefreshSet:
		next.AutoRefresh = act.Enabled

	case RefreshIntervalSet:
		if act.Interval > 0 {
			next.RefreshInterval = act.Interval
		}
	}

	return next
}

func applySummary(s *DashboardState, act SummaryReceived) {
	sum := act.Summary

	// Частичная сводка не обнуляет известные данные: nil-секция == "нет данных"
	if sum.Cameras != nil {
		s.Cameras = append([]domain.CameraStatus(nil), sum.Cameras...)
	}
	if sum.Alerts != nil && (!act.Guarded || act.BasedOnAlertsRev >= s.AlertsRev) {
		s.Alerts = append([]domain.Alert(nil), sum.Alerts...)
	}
	if sum.Performance != nil {
		perf := *sum.Performance
		s.Performance = &perf
	}
	if sum.Behaviors != nil {
		s.Behaviors = append([]domain.BehaviorEvent(nil), sum.Behaviors...)
	}
	if sum.Logs != nil {
		s.Logs = append([]domain.LogEntry(nil), sum.Logs...)
	}

	s.LastUpdated = time.Now()
	s.Loading = false
	s.Error = ""
}

func prependDetection(list []domain.Detection, d domain.Detection, capacity int) []domain.Detection {
	// Дубликат (push + poll принесли одно и то же) сохраняет исходную позицию
	for _, existing := range list {
		if existing.ID == d.ID {
			return list
		}
	}
	return truncateDetections(append([]domain.Detection{d}, list...), capacity)
}

func truncateDetections(list []domain.Detection, capacity int) []domain.Detection {
	if capacity <= 0 {
		capacity = DefaultDetectionCapacity
	}
	if len(list) > capacity {
		return list[:capacity]
	}
	return list
}

func ackAlert(s *DashboardState, act AlertAcked) {
	for i := range s.Alerts {
		if s.Alerts[i].ID != act.AlertID {
			continue
		}
		// resolved — терминальный статус, назад не откатываем
		if s.Alerts[i].Status == domain.AlertResolved {
			return
		}
		s.Alerts[i].Status = domain.AlertAcknowledged
		s.Alerts[i].AcknowledgedBy = act.By
		at := act.At
		if at.IsZero() {
			at = time.Now()
		}
		s.Alerts[i].AcknowledgedAt = &at
		s.AlertsRev++
		return
	}
	// Тревоги уже нет — no-op, не ошибка
}

func removeCamera(s *DashboardState, cameraID string) {
	kept := make([]domain.CameraStatus, 0, len(s.Cameras))
	for _, c := range s.Cameras {
		if c.ID != cameraID {
			kept = append(kept, c)
		}
	}
	s.Cameras = kept

	delete(s.PeerSessions, cameraID)
	if s.Selection.CameraID == cameraID {
		s.Selection.CameraID = ""
	}
}

func mergeFilters(f *domain.FilterSet, p domain.FilterPatch) {
	if p.TimeRangeHours != nil {
		f.TimeRangeHours = *p.TimeRangeHours
	}
	if p.CameraIDs != nil {
		f.CameraIDs = append([]string(nil), (*p.CameraIDs)...)
	}
	if p.AlertLevels != nil {
		f.AlertLevels = append([]domain.AlertSeverity(nil), (*p.AlertLevels)...)
	}
	if p.DetectionClasses != nil {
		f.DetectionClasses = append([]string(nil), (*p.DetectionClasses)...)
	}
}
