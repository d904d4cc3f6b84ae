package scans

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/cardialink/portal-api/internal/http/middleware"
)

type fakePredictor struct {
	mu      sync.Mutex
	calls   int
	result  *Result
	err     error
	started chan struct{}
	proceed chan struct{}
}

func (f *fakePredictor) Predict(ctx context.Context, filename string, scan io.Reader, includeGradcam bool) (*Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.proceed != nil {
		<-f.proceed
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakePredictor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memResultStore struct {
	mu      sync.Mutex
	results map[string]*Result
}

func newMemResultStore() *memResultStore {
	return &memResultStore{results: make(map[string]*Result)}
}

func (m *memResultStore) Save(ctx context.Context, id string, result *Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[id] = result
	return nil
}

func (m *memResultStore) Get(ctx context.Context, id string) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.results[id]; ok {
		return r, nil
	}
	return nil, ErrNotFound
}

type tokenValidator struct{}

func (tokenValidator) ValidateToken(ctx context.Context, token string) (string, string, error) {
	return "user-" + token, "sess", nil
}

func newScanRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Mount("/results", h.ResultRoutes())
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.SessionAuth(tokenValidator{}))
		pr.Mount("/scans", h.SubmitRoutes())
	})
	return r
}

func scanRequest(t *testing.T, token string, withFile bool) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if withFile {
		part, err := mw.CreateFormFile("scan", "echo.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("pixels"))
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("include_gradcam", "true"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/scans", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestSubmitWithoutFileNeverCallsPredictor(t *testing.T) {
	predictor := &fakePredictor{result: &Result{ClassName: "healthy", Confidence: 1}}
	h := NewHandler(predictor, newMemResultStore(), true, nil, nil)
	router := newScanRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, scanRequest(t, "alice", false))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, predictor.callCount(), "no network call may happen without a file")
}

func TestSubmitSuccessPersistsAndRedirects(t *testing.T) {
	predictor := &fakePredictor{result: &Result{ClassName: "abnormal", Confidence: 0.89}}
	store := newMemResultStore()
	h := NewHandler(predictor, store, true, nil, nil)
	h.newID = func() string { return "fixed-id" }
	router := newScanRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, scanRequest(t, "alice", true))

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		ScanID    string  `json:"scan_id"`
		ResultURL string  `json:"result_url"`
		Result    *Result `json:"result"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "fixed-id", resp.ScanID)
	require.Equal(t, "/results/fixed-id", resp.ResultURL)
	require.Equal(t, "abnormal", resp.Result.ClassName)

	stored, err := store.Get(context.Background(), "fixed-id")
	require.NoError(t, err)
	require.Equal(t, 0.89, stored.Confidence)
}

func TestSubmitFailureReturnsGenericMessage(t *testing.T) {
	predictor := &fakePredictor{err: errors.New("scans: predict returned status 500")}
	store := newMemResultStore()
	h := NewHandler(predictor, store, true, nil, nil)
	router := newScanRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, scanRequest(t, "alice", true))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), "please try again")
	require.Empty(t, store.results, "nothing may be persisted on failure")

	// The user can retry immediately: the in-flight guard is released.
	predictor.err = nil
	predictor.result = &Result{ClassName: "healthy", Confidence: 0.95}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, scanRequest(t, "alice", true))
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestSubmitIsNotReentrantPerUser(t *testing.T) {
	predictor := &fakePredictor{
		result:  &Result{ClassName: "healthy", Confidence: 1},
		started: make(chan struct{}),
		proceed: make(chan struct{}),
	}
	h := NewHandler(predictor, newMemResultStore(), true, nil, nil)
	router := newScanRouter(h)

	firstDone := make(chan int)
	go func() {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, scanRequest(t, "alice", true))
		firstDone <- rec.Code
	}()

	<-predictor.started // first submission is now in flight

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, scanRequest(t, "alice", true))
	require.Equal(t, http.StatusConflict, rec.Code)

	close(predictor.proceed)
	require.Equal(t, http.StatusCreated, <-firstDone)
	require.Equal(t, 1, predictor.callCount())
}

func TestGetResultEmptyState(t *testing.T) {
	h := NewHandler(&fakePredictor{}, newMemResultStore(), true, nil, nil)
	router := newScanRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/results/unknown-id", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, "missing result renders an empty state, not an error")

	var resp struct {
		Found   bool   `json:"found"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.False(t, resp.Found)
	require.Contains(t, resp.Message, "Upload a scan")
}

func TestGetResultRendersView(t *testing.T) {
	store := newMemResultStore()
	require.NoError(t, store.Save(context.Background(), "scan-9", &Result{ClassName: "abnormal", Confidence: 0.89}))

	h := NewHandler(&fakePredictor{}, store, true, nil, nil)
	router := newScanRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/results/scan-9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Found bool `json:"found"`
		View  View `json:"view"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.True(t, resp.Found)
	require.Equal(t, "Abnormal", resp.View.Badge)
	require.Equal(t, "Confidence: 89.0%", resp.View.ConfidenceText)
}
