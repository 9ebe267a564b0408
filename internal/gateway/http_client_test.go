package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/argusvision/dashsync/internal/domain"
	"github.com/argusvision/dashsync/internal/gateway"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestGateway(t *testing.T, handler http.Handler) *gateway.HTTPGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return gateway.NewHTTPGateway(srv.URL, staticToken("test-token"), gateway.NewReliability(relOpts()), zap.NewNop())
}

func TestHTTPGateway_GetDashboardSummary(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/dashboard/summary", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(domain.DashboardSummary{
			Cameras: []domain.CameraStatus{{ID: "cam-1", Status: domain.CameraOnline}},
		})
	}))

	sum, err := gw.GetDashboardSummary(context.Background())
	require.NoError(t, err)
	require.Len(t, sum.Cameras, 1)
	require.Equal(t, "cam-1", sum.Cameras[0].ID)
}

func TestHTTPGateway_RetriesAfterThrottle(t *testing.T) {
	var hits int32
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode([]domain.CameraStatus{{ID: "cam-1"}})
	}))

	start := time.Now()
	cams, err := gw.GetCameraStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, cams, 1)
	require.EqualValues(t, 2, atomic.LoadInt32(&hits))
	require.GreaterOrEqual(t, time.Since(start), time.Second)
}

func TestHTTPGateway_SurfacesStatusError(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "camera not found", http.StatusNotFound)
	}))

	_, err := gw.StartCamera(context.Background(), "missing")
	require.Error(t, err)

	var sErr *gateway.StatusError
	require.True(t, errors.As(err, &sErr))
	require.Equal(t, http.StatusNotFound, sErr.Code)
	require.Contains(t, sErr.Body, "camera not found")
}

func TestHTTPGateway_AcknowledgeAlertPostsBody(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/alerts/a-17/acknowledge", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "operator-7", body["acknowledged_by"])

		json.NewEncoder(w).Encode(gateway.CommandResult{Success: true})
	}))

	ok, err := gw.AcknowledgeAlert(context.Background(), "a-17", "operator-7")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestHTTPGateway_AcknowledgeAlertRejected(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gateway.CommandResult{Success: false, Message: "already resolved"})
	}))

	ok, err := gw.AcknowledgeAlert(context.Background(), "a-17", "operator-7")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHTTPGateway_RecentDetectionsQueryParams(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "cam-1", q.Get("camera_id"))
		require.Equal(t, "person", q.Get("class"))
		require.Equal(t, "25", q.Get("limit"))
		json.NewEncoder(w).Encode([]domain.Detection{{ID: "d1", CameraID: "cam-1"}})
	}))

	dets, err := gw.GetRecentDetections(context.Background(), gateway.DetectionFilter{
		CameraID: "cam-1",
		Class:    "person",
		Limit:    25,
	})
	require.NoError(t, err)
	require.Len(t, dets, 1)
}

func TestHTTPGateway_CreateStreamRoundTrip(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/streams", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "cam-1", body["camera_id"])
		require.Equal(t, "hd", body["quality"])
		json.NewEncoder(w).Encode(gateway.StreamResult{Success: true, SessionID: "sess-42"})
	}))

	res, err := gw.CreateWebRTCStream(context.Background(), "cam-1", "hd")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "sess-42", res.SessionID)
}
