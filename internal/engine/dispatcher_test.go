package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/argusvision/dashsync/internal/domain"
	"github.com/argusvision/dashsync/internal/engine"
	"github.com/argusvision/dashsync/internal/gateway"
	"github.com/argusvision/dashsync/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDispatcher(t *testing.T, gw gateway.RemoteGateway) (*engine.Dispatcher, *store.Store) {
	t.Helper()
	st := store.New(store.NewState(10), zap.NewNop())
	t.Cleanup(st.Close)
	return engine.NewDispatcher(gw, st, engine.NewMetrics(nil), zap.NewNop()), st
}

func TestDispatcher_AcknowledgeAlertConfirmed(t *testing.T) {
	gw := newFakeGateway()
	d, st := newTestDispatcher(t, gw)

	// Тревога пришла пушем, оператор подтверждает, шлюз соглашается
	st.Dispatch(store.AlertAppended{Alert: domain.Alert{
		ID: "a1", Severity: domain.SeverityCritical, Status: domain.AlertNew,
	}})

	require.NoError(t, d.AcknowledgeAlert(context.Background(), "a1", "operator-1"))

	require.Eventually(t, func() bool {
		s := st.State()
		return len(s.Alerts) == 1 && s.Alerts[0].Status == domain.AlertAcknowledged
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, "operator-1", st.State().Alerts[0].AcknowledgedBy)
}

func TestDispatcher_AcknowledgeAlertRejectedLeavesStateUntouched(t *testing.T) {
	gw := newFakeGateway()
	gw.ackOK = false
	d, st := newTestDispatcher(t, gw)

	st.Dispatch(store.AlertAppended{Alert: domain.Alert{ID: "a1", Status: domain.AlertNew}})
	require.Eventually(t, func() bool {
		return len(st.State().Alerts) == 1
	}, time.Second, 5*time.Millisecond)

	// Никакого оптимистичного флипа: отказ сервера = статус не меняется
	require.Error(t, d.AcknowledgeAlert(context.Background(), "a1", "op"))
	require.Equal(t, domain.AlertNew, st.State().Alerts[0].Status)
}

func TestDispatcher_StartCameraTriggersReload(t *testing.T) {
	gw := newFakeGateway()
	gw.cameras = []domain.CameraStatus{{ID: "c1", Status: domain.CameraOnline}}
	d, st := newTestDispatcher(t, gw)

	require.NoError(t, d.StartCamera(context.Background(), "c1"))

	// Состояние камер не угадывается локально, а перечитывается со шлюза
	require.Equal(t, 1, gw.cameraCallCount())
	require.Eventually(t, func() bool {
		s := st.State()
		return len(s.Cameras) == 1 && s.Cameras[0].Status == domain.CameraOnline
	}, time.Second, 5*time.Millisecond)
}

func TestDispatcher_RemoveCameraClearsDerivedState(t *testing.T) {
	gw := newFakeGateway()
	d, st := newTestDispatcher(t, gw)

	st.Dispatch(store.CameraStatusReceived{Cameras: []domain.CameraStatus{{ID: "c1"}}})
	st.Dispatch(store.PeerSessionAdded{CameraID: "c1", SessionID: "sess-1"})
	require.Eventually(t, func() bool {
		return len(st.State().PeerSessions) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, d.RemoveCamera(context.Background(), "c1"))

	require.Eventually(t, func() bool {
		s := st.State()
		return len(s.Cameras) == 0 && len(s.PeerSessions) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestDispatcher_CreateStreamSuccess(t *testing.T) {
	gw := newFakeGateway()
	d, st := newTestDispatcher(t, gw)

	sessionID, err := d.CreateStream(context.Background(), "c1", "hd")
	require.NoError(t, err)
	require.Equal(t, "sess-1", sessionID)

	require.Eventually(t, func() bool {
		return st.State().PeerSessions["c1"] == "sess-1"
	}, time.Second, 5*time.Millisecond)
}

func TestDispatcher_CreateStreamFailureLeavesNoSession(t *testing.T) {
	gw := newFakeGateway()
	gw.streamErr = errors.New("sfu busy")
	d, st := newTestDispatcher(t, gw)

	sessionID, err := d.CreateStream(context.Background(), "c1", "hd")
	require.Error(t, err)
	require.Empty(t, sessionID)

	time.Sleep(50 * time.Millisecond)
	require.NotContains(t, st.State().PeerSessions, "c1")
}

func TestDispatcher_DestroyStreamRemovesSession(t *testing.T) {
	gw := newFakeGateway()
	d, st := newTestDispatcher(t, gw)

	_, err := d.CreateStream(context.Background(), "c1", "hd")
	require.NoError(t, err)

	require.NoError(t, d.DestroyStream(context.Background(), "c1", "sess-1"))
	require.Eventually(t, func() bool {
		return len(st.State().PeerSessions) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestDispatcher_UpdateDetectionConfigDoesNotTouchState(t *testing.T) {
	gw := newFakeGateway()
	d, st := newTestDispatcher(t, gw)

	before := st.State()
	ok, err := d.UpdateDetectionConfig(context.Background(), "c1", map[string]interface{}{"sensitivity": 0.8})
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	after := st.State()
	require.Equal(t, before.Cameras, after.Cameras)
	require.Equal(t, before.Alerts, after.Alerts)
}

func TestDispatcher_ConcurrentDistinctKeys(t *testing.T) {
	gw := newFakeGateway()
	d, st := newTestDispatcher(t, gw)

	var wg sync.WaitGroup
	cams := []string{"c1", "c2", "c3", "c4", "c5"}
	for _, cam := range cams {
		wg.Add(1)
		go func(cam string) {
			defer wg.Done()
			_, err := d.CreateStream(context.Background(), cam, "hd")
			require.NoError(t, err)
		}(cam)
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return len(st.State().PeerSessions) == len(cams)
	}, time.Second, 5*time.Millisecond)
}

func TestDispatcher_FiltersAreLocalAndImmediate(t *testing.T) {
	gw := newFakeGateway()
	d, st := newTestDispatcher(t, gw)

	hours := 2
	d.UpdateFilters(domain.FilterPatch{TimeRangeHours: &hours})

	require.Eventually(t, func() bool {
		return st.State().Filters.TimeRangeHours == 2
	}, time.Second, 5*time.Millisecond)
}
