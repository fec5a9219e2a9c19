package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"finbot/internal/domain/models"
	drepo "finbot/internal/domain/repository"
	xhttp "finbot/pkg/http"
	applogger "finbot/pkg/logger"
)

type stubStore struct {
	mu        sync.Mutex
	snapshots map[string]*models.MarketSnapshot
	healthErr error
}

func newStubStore() *stubStore {
	return &stubStore{snapshots: make(map[string]*models.MarketSnapshot)}
}

func (s *stubStore) Save(_ context.Context, snap *models.MarketSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.Symbol] = snap
	return nil
}

func (s *stubStore) FindLatest(_ context.Context, symbol string) (*models.MarketSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots[symbol], nil
}

func (s *stubStore) FindLatestAsync(ctx context.Context, symbol string) <-chan drepo.SnapshotResult {
	out := make(chan drepo.SnapshotResult, 1)
	snap, err := s.FindLatest(ctx, symbol)
	out <- drepo.SnapshotResult{Snapshot: snap, Err: err}
	close(out)
	return out
}

func (s *stubStore) Delete(_ context.Context, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, symbol)
	return nil
}

func (s *stubStore) Health(context.Context) error { return s.healthErr }
func (s *stubStore) Close() error                 { return nil }

type stubStatus bool

func (s stubStatus) IsConnected() bool { return bool(s) }

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func doRequest(t *testing.T, store drepo.SnapshotRepository, status ConnStatus, path string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	NewMarketHandler(store, status, testLogger(t)).RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (int, json.RawMessage) {
	t.Helper()
	var resp struct {
		Status int             `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return resp.Status, resp.Data
}

func TestGetLatestReturnsSnapshot(t *testing.T) {
	store := newStubStore()
	store.snapshots["BTC"] = &models.MarketSnapshot{Symbol: "BTC", CurrentPrice: 67000.5, MarketState: models.RegimeNeutralStable}

	rec := doRequest(t, store, stubStatus(true), "/api/market/btc")

	status, data := decodeEnvelope(t, rec)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", status, rec.Body.String())
	}
	var snap models.MarketSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Symbol != "BTC" || snap.CurrentPrice != 67000.5 {
		t.Errorf("snapshot = %+v, want BTC at 67000.5", snap)
	}
}

func TestGetLatestNotFound(t *testing.T) {
	rec := doRequest(t, newStubStore(), stubStatus(true), "/api/market/DOGE")

	status, _ := decodeEnvelope(t, rec)
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404: %s", status, rec.Body.String())
	}
}

func TestGetLatestRejectsInvalidSymbol(t *testing.T) {
	cases := map[string]string{
		"non-alphanumeric": "/api/market/BTC-USD",
		"too long":         "/api/market/BTCUSDTBTCUSDT",
	}
	for name, path := range cases {
		rec := doRequest(t, newStubStore(), stubStatus(true), path)

		status, data := decodeEnvelope(t, rec)
		if status != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400: %s", name, status, rec.Body.String())
			continue
		}
		var errs []xhttp.ValidationError
		if err := json.Unmarshal(data, &errs); err != nil || len(errs) == 0 {
			t.Errorf("%s: expected validation errors, got %s (%v)", name, data, err)
			continue
		}
		if errs[0].Field != "Symbol" {
			t.Errorf("%s: field = %q, want Symbol", name, errs[0].Field)
		}
	}
}

func TestHealthOK(t *testing.T) {
	rec := doRequest(t, newStubStore(), stubStatus(true), "/healthz")

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["stream"] != true {
		t.Errorf("body = %v, want ok with live stream", body)
	}
}

func TestHealthDegraded(t *testing.T) {
	store := newStubStore()
	store.healthErr = errors.New("connection refused")

	rec := doRequest(t, store, stubStatus(false), "/healthz")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d, want 503: %s", rec.Code, rec.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "degraded" || body["snapshots"] != false {
		t.Errorf("body = %v, want degraded without snapshots", body)
	}
}
