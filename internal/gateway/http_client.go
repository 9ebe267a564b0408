package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/argusvision/dashsync/internal/domain"
	"go.uber.org/zap"
)

// HTTPGateway — боевая реализация RemoteGateway поверх REST API платформы.
// Все вызовы проходят через единую обвязку Reliability (лимитер, CB, retry).
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	tokens  TokenSource
	rel     *Reliability
	logger  *zap.Logger
}

func NewHTTPGateway(baseURL string, tokens TokenSource, rel *Reliability, logger *zap.Logger) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{}, // таймауты задает Reliability пер-попыточно
		tokens:  tokens,
		rel:     rel,
		logger:  logger.Named("http-gateway"),
	}
}

// call выполняет один JSON-запрос с обвязкой надежности.
// out == nil означает "тело ответа не интересует".
func (g *HTTPGateway) call(ctx context.Context, method, path string, body, out interface{}) error {
	return g.rel.Do(ctx, func(ctx context.Context) error {
		var reqBody io.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("marshal request: %w", err)
			}
			reqBody = bytes.NewReader(raw)
		}

		req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if tok := g.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}

		resp, err := g.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		// 429: вычитываем Retry-After и отдаем наверх типизированную ошибку,
		// чтобы retry-слой подождал ровно столько, сколько просит сервер
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := 1 * time.Second
			if s := resp.Header.Get("Retry-After"); s != "" {
				if secs, err := strconv.Atoi(s); err == nil {
					retryAfter = time.Duration(secs) * time.Second
				}
			}
			return &ThrottleError{RetryAfter: retryAfter, Cause: fmt.Errorf("%s %s", method, path)}
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return &StatusError{Code: resp.StatusCode, Body: string(raw)}
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}

func (g *HTTPGateway) GetDashboardSummary(ctx context.Context) (*domain.DashboardSummary, error) {
	var out domain.DashboardSummary
	if err := g.call(ctx, http.MethodGet, "/api/v1/dashboard/summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *HTTPGateway) GetCameraStatus(ctx context.Context) ([]domain.CameraStatus, error) {
	var out []domain.CameraStatus
	if err := g.call(ctx, http.MethodGet, "/api/v1/cameras/status", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) GetRecentDetections(ctx context.Context, f DetectionFilter) ([]domain.Detection, error) {
	q := url.Values{}
	if f.CameraID != "" {
		q.Set("camera_id", f.CameraID)
	}
	if f.Class != "" {
		q.Set("class", f.Class)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if !f.Since.IsZero() {
		q.Set("since", f.Since.Format(time.RFC3339))
	}

	path := "/api/v1/detections/recent"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}

	var out []domain.Detection
	if err := g.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) GetActiveAlerts(ctx context.Context, limit int) ([]domain.Alert, error) {
	path := "/api/v1/alerts/active"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []domain.Alert
	if err := g.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) GetPerformanceSummary(ctx context.Context) (*domain.PerformanceSummary, error) {
	var out domain.PerformanceSummary
	if err := g.call(ctx, http.MethodGet, "/api/v1/performance/summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *HTTPGateway) AcknowledgeAlert(ctx context.Context, alertID, by string) (bool, error) {
	var out CommandResult
	body := map[string]string{"acknowledged_by": by}
	if err := g.call(ctx, http.MethodPost, "/api/v1/alerts/"+url.PathEscape(alertID)+"/acknowledge", body, &out); err != nil {
		return false, err
	}
	return out.Success, nil
}

func (g *HTTPGateway) AddCamera(ctx context.Context, cam domain.CameraStatus) (CommandResult, error) {
	var out CommandResult
	err := g.call(ctx, http.MethodPost, "/api/v1/cameras", cam, &out)
	return out, err
}

func (g *HTTPGateway) RemoveCamera(ctx context.Context, cameraID string) (CommandResult, error) {
	var out CommandResult
	err := g.call(ctx, http.MethodDelete, "/api/v1/cameras/"+url.PathEscape(cameraID), nil, &out)
	return out, err
}

func (g *HTTPGateway) StartCamera(ctx context.Context, cameraID string) (CommandResult, error) {
	var out CommandResult
	err := g.call(ctx, http.MethodPost, "/api/v1/cameras/"+url.PathEscape(cameraID)+"/start", nil, &out)
	return out, err
}

func (g *HTTPGateway) StopCamera(ctx context.Context, cameraID string) (CommandResult, error) {
	var out CommandResult
	err := g.call(ctx, http.MethodPost, "/api/v1/cameras/"+url.PathEscape(cameraID)+"/stop", nil, &out)
	return out, err
}

func (g *HTTPGateway) UpdateDetectionConfig(ctx context.Context, cameraID string, cfg map[string]interface{}) (bool, error) {
	var out CommandResult
	if err := g.call(ctx, http.MethodPut, "/api/v1/cameras/"+url.PathEscape(cameraID)+"/detection-config", cfg, &out); err != nil {
		return false, err
	}
	return out.Success, nil
}

func (g *HTTPGateway) CreateWebRTCStream(ctx context.Context, cameraID, quality string) (StreamResult, error) {
	var out StreamResult
	body := map[string]string{"camera_id": cameraID, "quality": quality}
	err := g.call(ctx, http.MethodPost, "/api/v1/streams", body, &out)
	return out, err
}

func (g *HTTPGateway) DestroyWebRTCStream(ctx context.Context, sessionID string) (CommandResult, error) {
	var out CommandResult
	err := g.call(ctx, http.MethodDelete, "/api/v1/streams/"+url.PathEscape(sessionID), nil, &out)
	return out, err
}
