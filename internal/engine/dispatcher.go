package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/argusvision/dashsync/internal/domain"
	"github.com/argusvision/dashsync/internal/gateway"
	"github.com/argusvision/dashsync/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dispatcher переводит намерения оператора в вызовы шлюза и складывает
// подтвержденный результат обратно в стор. Оптимистичных мутаций нет:
// состояние меняется только после подтверждения сервера, отказ возвращается
// вызывающему и стор не трогает.
//
// Вызовы для разных ключей безопасны параллельно: единственное общее
// состояние — стор с одним писателем. Перекрывающиеся вызовы по одному
// ключу диспетчер не сериализует (last-write-wins на стороне шлюза).
type Dispatcher struct {
	gw      gateway.RemoteGateway
	st      *store.Store
	metrics *Metrics
	logger  *zap.Logger
}

func NewDispatcher(gw gateway.RemoteGateway, st *store.Store, metrics *Metrics, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		gw:      gw,
		st:      st,
		metrics: metrics,
		logger:  logger.Named("dispatcher"),
	}
}

// observe оформляет метрики и лог одной команды.
func (d *Dispatcher) observe(command string, start time.Time, traceID string, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	d.metrics.CommandDuration.WithLabelValues(command, status).Observe(time.Since(start).Seconds())
	if err != nil {
		d.logger.Warn("command failed",
			zap.String("command", command), zap.String("trace_id", traceID), zap.Error(err))
	}
}

// AcknowledgeAlert подтверждает тревогу. Никакого оптимистичного флипа:
// показать acknowledged, который сервер отверг — хуже, чем секунда задержки.
func (d *Dispatcher) AcknowledgeAlert(ctx context.Context, alertID, by string) error {
	start, traceID := time.Now(), uuid.New().String()
	d.metrics.CommandsTotal.WithLabelValues("acknowledge_alert").Inc()

	ok, err := d.gw.AcknowledgeAlert(ctx, alertID, by)
	if err == nil && !ok {
		err = fmt.Errorf("alert %s acknowledge rejected by server", alertID)
	}
	d.observe("acknowledge_alert", start, traceID, err)
	if err != nil {
		return err
	}

	d.st.Dispatch(store.AlertAcked{AlertID: alertID, By: by, At: time.Now()})
	return nil
}

// reloadCameras — после подтвержденной команды над камерой не гадаем
// новое состояние локально, а перечитываем список: железо авторитетно
// на стороне сервера.
func (d *Dispatcher) reloadCameras(ctx context.Context) {
	cams, err := d.gw.GetCameraStatus(ctx)
	if err != nil {
		d.logger.Warn("camera status reload failed", zap.Error(err))
		return
	}
	d.st.Dispatch(store.CameraStatusReceived{Cameras: cams})
}

func (d *Dispatcher) cameraCommand(ctx context.Context, command string, fn func(context.Context) (gateway.CommandResult, error)) error {
	start, traceID := time.Now(), uuid.New().String()
	d.metrics.CommandsTotal.WithLabelValues(command).Inc()

	res, err := fn(ctx)
	if err == nil && !res.Success {
		err = fmt.Errorf("%s rejected: %s", command, res.Message)
	}
	d.observe(command, start, traceID, err)
	if err != nil {
		return err
	}

	d.reloadCameras(ctx)
	return nil
}

func (d *Dispatcher) AddCamera(ctx context.Context, cam domain.CameraStatus) error {
	return d.cameraCommand(ctx, "add_camera", func(ctx context.Context) (gateway.CommandResult, error) {
		return d.gw.AddCamera(ctx, cam)
	})
}

func (d *Dispatcher) RemoveCamera(ctx context.Context, cameraID string) error {
	start, traceID := time.Now(), uuid.New().String()
	d.metrics.CommandsTotal.WithLabelValues("remove_camera").Inc()

	res, err := d.gw.RemoveCamera(ctx, cameraID)
	if err == nil && !res.Success {
		err = fmt.Errorf("remove_camera rejected: %s", res.Message)
	}
	d.observe("remove_camera", start, traceID, err)
	if err != nil {
		return err
	}

	// Подтвержденное удаление сразу чистит камеру, ее peer-сессию и выбор;
	// перечитка списка закрепляет серверную картину
	d.st.Dispatch(store.CameraRemoved{CameraID: cameraID})
	d.reloadCameras(ctx)
	return nil
}

func (d *Dispatcher) StartCamera(ctx context.Context, cameraID string) error {
	return d.cameraCommand(ctx, "start_camera", func(ctx context.Context) (gateway.CommandResult, error) {
		return d.gw.StartCamera(ctx, cameraID)
	})
}

func (d *Dispatcher) StopCamera(ctx context.Context, cameraID string) error {
	return d.cameraCommand(ctx, "stop_camera", func(ctx context.Context) (gateway.CommandResult, error) {
		return d.gw.StopCamera(ctx, cameraID)
	})
}

// UpdateDetectionConfig — fire-and-confirm: конфиг не входит в живую
// модель дашборда, стор не мутируется.
func (d *Dispatcher) UpdateDetectionConfig(ctx context.Context, cameraID string, cfg map[string]interface{}) (bool, error) {
	start, traceID := time.Now(), uuid.New().String()
	d.metrics.CommandsTotal.WithLabelValues("update_detection_config").Inc()

	ok, err := d.gw.UpdateDetectionConfig(ctx, cameraID, cfg)
	d.observe("update_detection_config", start, traceID, err)
	return ok, err
}

// CreateStream создает WebRTC-сессию. Карта сессий мутируется только
// после подтверждения; у камеры не бывает двух активных сессий — новая
// подтвержденная замещает запись по ключу камеры.
func (d *Dispatcher) CreateStream(ctx context.Context, cameraID, quality string) (string, error) {
	start, traceID := time.Now(), uuid.New().String()
	d.metrics.CommandsTotal.WithLabelValues("create_stream").Inc()

	res, err := d.gw.CreateWebRTCStream(ctx, cameraID, quality)
	if err == nil && (!res.Success || res.SessionID == "") {
		err = fmt.Errorf("create stream for camera %s rejected by server", cameraID)
	}
	d.observe("create_stream", start, traceID, err)
	if err != nil {
		return "", err
	}

	d.st.Dispatch(store.PeerSessionAdded{CameraID: cameraID, SessionID: res.SessionID})
	return res.SessionID, nil
}

func (d *Dispatcher) DestroyStream(ctx context.Context, cameraID, sessionID string) error {
	start, traceID := time.Now(), uuid.New().String()
	d.metrics.CommandsTotal.WithLabelValues("destroy_stream").Inc()

	res, err := d.gw.DestroyWebRTCStream(ctx, sessionID)
	if err == nil && !res.Success {
		err = fmt.Errorf("destroy stream %s rejected: %s", sessionID, res.Message)
	}
	d.observe("destroy_stream", start, traceID, err)
	if err != nil {
		return err
	}

	d.st.Dispatch(store.PeerSessionRemoved{CameraID: cameraID})
	return nil
}

// UpdateFilters — чисто клиентская мутация, сервер не участвует.
func (d *Dispatcher) UpdateFilters(patch domain.FilterPatch) {
	d.st.Dispatch(store.FiltersUpdated{Patch: patch})
}

// SelectCamera / SelectAlert — выбор в UI, синхронно и локально.
func (d *Dispatcher) SelectCamera(cameraID string) {
	d.st.Dispatch(store.CameraSelected{CameraID: cameraID})
}

func (d *Dispatcher) SelectAlert(alertID string) {
	d.st.Dispatch(store.AlertSelected{AlertID: alertID})
}

// SetAutoRefresh / SetRefreshInterval управляют фолбэк-поллингом.
func (d *Dispatcher) SetAutoRefresh(enabled bool) {
	d.st.Dispatch(store.AutoRefreshSet{Enabled: enabled})
}

func (d *Dispatcher) SetRefreshInterval(interval time.Duration) {
	d.st.Dispatch(store.RefreshIntervalSet{Interval: interval})
}
