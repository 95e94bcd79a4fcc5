package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/reclaimhq/reclaim/internal/domain"
	dommatch "github.com/reclaimhq/reclaim/internal/domain/match"
	audituc "github.com/reclaimhq/reclaim/internal/usecase/audit"
	healthuc "github.com/reclaimhq/reclaim/internal/usecase/health"
	matchuc "github.com/reclaimhq/reclaim/internal/usecase/match"
)

// --- Mocks ---

type memItems struct {
	items map[string]domain.ItemRecord
}

func newMemItems() *memItems {
	return &memItems{items: make(map[string]domain.ItemRecord)}
}

func (m *memItems) Put(_ context.Context, rec domain.ItemRecord) (bool, error) {
	_, exists := m.items[rec.ID]
	m.items[rec.ID] = rec
	return !exists, nil
}

func (m *memItems) Delete(_ context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return domain.ErrItemNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memItems) Get(_ context.Context, id string) (domain.ItemRecord, error) {
	rec, ok := m.items[id]
	if !ok {
		return domain.ItemRecord{}, domain.ErrItemNotFound
	}
	return rec, nil
}

func (m *memItems) FindByDisposition(_ context.Context, d domain.Disposition) ([]domain.ItemRecord, error) {
	var out []domain.ItemRecord
	for _, rec := range m.items {
		if rec.Disposition == d {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memItems) UpdateEmbeddings(_ context.Context, id string, image, text domain.FeatureVector) error {
	rec := m.items[id]
	rec.ImageEmbedding = image
	rec.TextEmbedding = text
	m.items[id] = rec
	return nil
}

func (m *memItems) UpdateTextEmbedding(_ context.Context, id string, text domain.FeatureVector) error {
	rec := m.items[id]
	rec.TextEmbedding = text
	m.items[id] = rec
	return nil
}

func (m *memItems) ScanRepairable(_ context.Context) ([]domain.ItemRecord, error) {
	var out []domain.ItemRecord
	for _, rec := range m.items {
		if !rec.Status.Terminal() && rec.Description != "" {
			out = append(out, rec)
		}
	}
	return out, nil
}

type noUsers struct{}

func (noUsers) Get(_ context.Context, _ string) (domain.UserProfile, error) {
	return domain.UserProfile{}, domain.ErrUserNotFound
}

type stubEmbedder struct {
	vec domain.FeatureVector
}

func (s stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: s.vec}, nil
}

func (s stubEmbedder) Dimensions() int { return len(s.vec) }

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(_ context.Context, _ domain.ItemRecord, pairs []dommatch.Pair) []dommatch.Pair {
	return pairs
}

type noopScheduler struct{}

func (noopScheduler) Schedule(_ context.Context, _ string) error { return nil }

type okPinger struct{}

func (okPinger) Ping(_ context.Context) error { return nil }

// --- Harness ---

func testRouter(t *testing.T, items *memItems) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	emb := stubEmbedder{vec: domain.FeatureVector{1, 0}}
	matchSvc := matchuc.New(items, noUsers{}, emb, emb, noopDispatcher{}, noopScheduler{}, logger)
	auditSvc := audituc.New(items, emb, logger)
	healthSvc := healthuc.New(okPinger{}, nil)

	server := NewServer(items, matchSvc, auditSvc, healthSvc, logger)
	r := chi.NewRouter()
	server.RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestCreateItem(t *testing.T) {
	items := newMemItems()
	handler := testRouter(t, items)

	rr := doJSON(t, handler, "POST", "/v1/items", `{
		"id": "item-1",
		"user_id": "u1",
		"disposition": "lost",
		"title": "Black Backpack",
		"description": "black backpack with laptop",
		"images": ["/static/uploads/bag.jpg"],
		"latitude": 40.7128,
		"longitude": -74.0060
	}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, http.StatusCreated, rr.Body.String())
	}
	rec, ok := items.items["item-1"]
	if !ok {
		t.Fatal("item not stored")
	}
	if rec.Status != domain.StatusActive {
		t.Errorf("Status = %q, want active", rec.Status)
	}
	if !rec.ImageEmbedding.Present() {
		t.Error("ingestion should have extracted the image embedding inline")
	}
}

func TestCreateItemGeneratesID(t *testing.T) {
	items := newMemItems()
	handler := testRouter(t, items)

	rr := doJSON(t, handler, "POST", "/v1/items", `{
		"user_id": "u1",
		"disposition": "found",
		"title": "Umbrella",
		"images": ["/static/uploads/umbrella.jpg"]
	}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusCreated)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["id"] == "" {
		t.Error("response must carry the generated item ID")
	}
}

func TestCreateItemInvalidDisposition(t *testing.T) {
	handler := testRouter(t, newMemItems())

	rr := doJSON(t, handler, "POST", "/v1/items", `{
		"user_id": "u1",
		"disposition": "misplaced",
		"title": "Keys"
	}`)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreateItemMissingRequiredFields(t *testing.T) {
	handler := testRouter(t, newMemItems())

	rr := doJSON(t, handler, "POST", "/v1/items", `{"disposition": "lost"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreateItemInvalidCoordinates(t *testing.T) {
	handler := testRouter(t, newMemItems())

	rr := doJSON(t, handler, "POST", "/v1/items", `{
		"user_id": "u1",
		"disposition": "lost",
		"title": "Keys",
		"latitude": 200,
		"longitude": 0
	}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreateItemMalformedBody(t *testing.T) {
	handler := testRouter(t, newMemItems())

	rr := doJSON(t, handler, "POST", "/v1/items", `{not json`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestDeleteItem(t *testing.T) {
	items := newMemItems()
	items.items["item-1"] = domain.ItemRecord{
		ID: "item-1", Disposition: domain.Lost, Status: domain.StatusActive, Title: "Keys",
	}
	handler := testRouter(t, items)

	rr := doJSON(t, handler, "DELETE", "/v1/items/item-1", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if _, ok := items.items["item-1"]; ok {
		t.Error("item not removed")
	}
}

func TestDeleteItemNotFound(t *testing.T) {
	handler := testRouter(t, newMemItems())

	rr := doJSON(t, handler, "DELETE", "/v1/items/missing", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestProcessItemNotFound(t *testing.T) {
	handler := testRouter(t, newMemItems())

	rr := doJSON(t, handler, "POST", "/v1/items/missing/process", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestListMatches(t *testing.T) {
	items := newMemItems()
	items.items["q"] = domain.ItemRecord{
		ID: "q", UserID: "u1", Disposition: domain.Lost, Status: domain.StatusActive,
		Title: "Backpack", ImageEmbedding: domain.FeatureVector{1, 0}, TextEmbedding: domain.FeatureVector{1, 0},
	}
	items.items["c"] = domain.ItemRecord{
		ID: "c", UserID: "u2", Disposition: domain.Found, Status: domain.StatusActive,
		Title: "Found Backpack", ImageEmbedding: domain.FeatureVector{1, 0}, TextEmbedding: domain.FeatureVector{1, 0},
	}
	handler := testRouter(t, items)

	rr := doJSON(t, handler, "GET", "/v1/items/q/matches", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	var matches []displayMatchResponse
	if err := json.NewDecoder(rr.Body).Decode(&matches); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].ID != "c" || matches[0].Score < 0.79 {
		t.Errorf("match = %+v", matches[0])
	}
	if matches[0].User != domain.AnonymousUserName {
		t.Errorf("User = %q, want anonymous placeholder", matches[0].User)
	}
	if matches[0].Image != domain.DefaultImageRef {
		t.Errorf("Image = %q, want default placeholder", matches[0].Image)
	}
}

func TestListMatchesUnknownItem(t *testing.T) {
	handler := testRouter(t, newMemItems())

	rr := doJSON(t, handler, "GET", "/v1/items/missing/matches", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestAuditEndpoint(t *testing.T) {
	items := newMemItems()
	items.items["stale"] = domain.ItemRecord{
		ID: "stale", Disposition: domain.Lost, Status: domain.StatusActive,
		Description:   "worn leather wallet",
		TextEmbedding: domain.FeatureVector{1, 2, 3},
	}
	handler := testRouter(t, items)

	rr := doJSON(t, handler, "POST", "/v1/audit", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var report audituc.Report
	if err := json.NewDecoder(rr.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Scanned != 1 || report.Repaired != 1 {
		t.Errorf("report = %+v, want one scanned, one repaired", report)
	}
	if got := items.items["stale"].TextEmbedding; len(got) != 2 {
		t.Errorf("repaired vector length = %d, want 2", len(got))
	}
}

func TestHealthEndpoint(t *testing.T) {
	handler := testRouter(t, newMemItems())

	rr := doJSON(t, handler, "GET", "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var report healthuc.Report
	if err := json.NewDecoder(rr.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Status != healthuc.Healthy {
		t.Errorf("Status = %q, want healthy", report.Status)
	}
}
