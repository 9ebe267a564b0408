package domain

// FilterSet — чисто клиентские фильтры отображения.
// Меняются синхронно, независимо от состояния соединения.
type FilterSet struct {
	TimeRangeHours   int             `json:"time_range_hours"`
	CameraIDs        []string        `json:"camera_ids"`
	AlertLevels      []AlertSeverity `json:"alert_levels"`
	DetectionClasses []string        `json:"detection_classes"`
}

// FilterPatch — частичное обновление фильтров (shallow-merge).
// nil-поле означает "не трогать".
type FilterPatch struct {
	TimeRangeHours   *int             `json:"time_range_hours,omitempty"`
	CameraIDs        *[]string        `json:"camera_ids,omitempty"`
	AlertLevels      *[]AlertSeverity `json:"alert_levels,omitempty"`
	DetectionClasses *[]string        `json:"detection_classes,omitempty"`
}

// ConnectionStatus — статус живого канала. Переходы делает только
// Connection Manager.
type ConnectionStatus string

const (
	Disconnected ConnectionStatus = "disconnected"
	Connecting   ConnectionStatus = "connecting"
	Connected    ConnectionStatus = "connected"
	Erroring     ConnectionStatus = "erroring"
)
