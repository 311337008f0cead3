package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/ledgerimport/internal/adapter/http/middleware"
	"github.com/iho/ledgerimport/internal/domain"
	"github.com/iho/ledgerimport/internal/ingest"
	"github.com/iho/ledgerimport/internal/usecase"
)

type stubImportService struct {
	input  usecase.ImportInput
	report *usecase.ImportReport
	err    error
	delay  time.Duration
}

func (s *stubImportService) Import(ctx context.Context, input usecase.ImportInput) (*usecase.ImportReport, error) {
	s.input = input
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if input.Progress != nil {
		input.Progress.Report(ctx, usecase.Progress{ProjectID: input.ProjectID, BatchID: "b1", BatchIndex: 1, TotalBatches: 1})
	}
	return s.report, s.err
}

type stubBatchService struct {
	batch       *domain.ImportBatch
	batches     []*domain.ImportBatch
	divergences []*domain.LedgerRow
	listInput   usecase.ListBatchesInput
	err         error
}

func (s *stubBatchService) GetBatch(ctx context.Context, id string) (*domain.ImportBatch, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.batch, nil
}

func (s *stubBatchService) ListBatches(ctx context.Context, input usecase.ListBatchesInput) ([]*domain.ImportBatch, error) {
	s.listInput = input
	return s.batches, s.err
}

func (s *stubBatchService) ListDivergences(ctx context.Context, input usecase.ListDivergencesInput) ([]*domain.LedgerRow, error) {
	return s.divergences, s.err
}

type stubLock struct {
	mu         sync.Mutex
	err        error
	refreshErr error
	acquired   []string
	released   []string
	refreshes  int
}

func (l *stubLock) Refresh(ctx context.Context, projectID, token string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refreshes++
	return l.refreshErr
}

func (l *stubLock) refreshCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refreshes
}

func (l *stubLock) Acquire(ctx context.Context, projectID string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", l.err
	}
	l.acquired = append(l.acquired, projectID)
	return "token-" + projectID, nil
}

func (l *stubLock) Release(ctx context.Context, projectID, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released = append(l.released, token)
	return nil
}

type stubProgressStore struct {
	byBatch   map[string]usecase.Progress
	byProject map[string]usecase.Progress
}

func newStubProgressStore() *stubProgressStore {
	return &stubProgressStore{byBatch: map[string]usecase.Progress{}, byProject: map[string]usecase.Progress{}}
}

func (s *stubProgressStore) Report(ctx context.Context, p usecase.Progress) {
	s.byBatch[p.BatchID] = p
	s.byProject[p.ProjectID] = p
}

func (s *stubProgressStore) ForBatch(ctx context.Context, batchID string) (usecase.Progress, bool, error) {
	p, ok := s.byBatch[batchID]
	return p, ok, nil
}

func (s *stubProgressStore) ForProject(ctx context.Context, projectID string) (usecase.Progress, bool, error) {
	p, ok := s.byProject[projectID]
	return p, ok, nil
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := w.CreateFormFile(name, name+".csv")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for name, value := range fields {
		require.NoError(t, w.WriteField(name, value))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func newUploadRequest(t *testing.T, projectID string, content []byte, fields map[string]string) *http.Request {
	body, contentType := multipartBody(t, fields, map[string][]byte{"file": content})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/"+projectID+"/imports", body)
	req.Header.Set("Content-Type", contentType)
	return withURLParam(req, "projectID", projectID)
}

const (
	testProjectID = "3f2b8c1e-5a4d-4e8f-9b7a-1c2d3e4f5a6b"
	otherProject  = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
)

func TestImportHandlerUpload(t *testing.T) {
	svc := &stubImportService{report: &usecase.ImportReport{BatchID: "b1", TotalRows: 2, Imported: 2, Reconciled: 2}}
	lock := &stubLock{}
	progress := newStubProgressStore()
	h := NewImportHandler(ImportHandlerConfig{Imports: svc, Lock: lock, Progress: progress, Logger: zerolog.Nop()})

	req := newUploadRequest(t, testProjectID, []byte("transaction_id,net_value\nT1,10\n"), map[string]string{"number_format": "us"})
	req = req.WithContext(middleware.WithPrincipal(req.Context(), &middleware.Principal{UserID: "user-1", Role: domain.RoleOperator}))
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, testProjectID, svc.input.ProjectID)
	assert.Equal(t, "file.csv", svc.input.SourceFileName)
	assert.Equal(t, "user-1", svc.input.CreatedBy)
	assert.Equal(t, ingest.NumberFormatUS, svc.input.NumberFormat)
	assert.Equal(t, []string{testProjectID}, lock.acquired)
	assert.Equal(t, []string{"token-"+testProjectID}, lock.released)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "b1", body["batch_id"])
	assert.EqualValues(t, 2, body["reconciled"])

	_, ok, _ := progress.ForProject(context.Background(), testProjectID)
	assert.True(t, ok)
}

func TestImportHandlerUploadRefreshesLockWhileImporting(t *testing.T) {
	svc := &stubImportService{report: &usecase.ImportReport{BatchID: "b1"}, delay: 150 * time.Millisecond}
	lock := &stubLock{}
	h := NewImportHandler(ImportHandlerConfig{Imports: svc, Lock: lock, LockTTL: 30 * time.Millisecond, Logger: zerolog.Nop()})

	rec := httptest.NewRecorder()
	h.Upload(rec, newUploadRequest(t, testProjectID, []byte("a,b\n1,2\n"), nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	refreshes := lock.refreshCount()
	assert.GreaterOrEqual(t, refreshes, 2)
	assert.Len(t, lock.released, 1)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, refreshes, lock.refreshCount(), "refresh loop must stop once the import returns")
}

func TestImportHandlerUploadStopsRefreshingLostLock(t *testing.T) {
	svc := &stubImportService{report: &usecase.ImportReport{BatchID: "b1"}, delay: 100 * time.Millisecond}
	lock := &stubLock{refreshErr: domain.ErrImportLockLost}
	h := NewImportHandler(ImportHandlerConfig{Imports: svc, Lock: lock, LockTTL: 15 * time.Millisecond, Logger: zerolog.Nop()})

	rec := httptest.NewRecorder()
	h.Upload(rec, newUploadRequest(t, testProjectID, []byte("a,b\n1,2\n"), nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, lock.refreshCount())
}

func TestImportHandlerUploadAnonymousWithoutProgress(t *testing.T) {
	svc := &stubImportService{report: &usecase.ImportReport{BatchID: "b1"}}
	h := NewImportHandler(ImportHandlerConfig{Imports: svc, Logger: zerolog.Nop()})

	rec := httptest.NewRecorder()
	h.Upload(rec, newUploadRequest(t, testProjectID, []byte("a,b\n1,2\n"), nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, anonymousUser, svc.input.CreatedBy)
	assert.Nil(t, svc.input.Progress)
}

func TestImportHandlerUploadErrors(t *testing.T) {
	tests := []struct {
		name       string
		projectID  string
		content    []byte
		noFile     bool
		lockErr    error
		importErr  error
		maxSize    int64
		wantStatus int
	}{
		{name: "invalid project", projectID: "bad project!", content: []byte("x"), wantStatus: http.StatusBadRequest},
		{name: "missing file", projectID: otherProject, noFile: true, wantStatus: http.StatusUnprocessableEntity},
		{name: "too large", projectID: otherProject, content: bytes.Repeat([]byte("a"), 64), maxSize: 16, wantStatus: http.StatusRequestEntityTooLarge},
		{name: "locked", projectID: otherProject, content: []byte("x"), lockErr: domain.ErrImportInProgress, wantStatus: http.StatusConflict},
		{name: "schema", projectID: otherProject, content: []byte("x"), importErr: domain.ErrMissingTransactionColumn, wantStatus: http.StatusUnprocessableEntity},
		{name: "number format", projectID: otherProject, content: []byte("x"), importErr: domain.ErrUnsupportedNumberFormat, wantStatus: http.StatusBadRequest},
		{name: "storage", projectID: otherProject, content: []byte("x"), importErr: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubImportService{err: tt.importErr, report: &usecase.ImportReport{}}
			lock := &stubLock{err: tt.lockErr}
			h := NewImportHandler(ImportHandlerConfig{Imports: svc, Lock: lock, MaxFileSize: tt.maxSize, Logger: zerolog.Nop()})

			var req *http.Request
			if tt.noFile {
				body, contentType := multipartBody(t, map[string]string{"number_format": "br"}, nil)
				req = httptest.NewRequest(http.MethodPost, "/", body)
				req.Header.Set("Content-Type", contentType)
				req = withURLParam(req, "projectID", tt.projectID)
			} else {
				req = newUploadRequest(t, tt.projectID, tt.content, nil)
			}
			rec := httptest.NewRecorder()

			h.Upload(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.lockErr == nil && len(lock.acquired) > 0 {
				assert.Len(t, lock.released, 1)
			}
		})
	}
}

func TestImportHandlerUploadSchemaErrorCarriesSuggestions(t *testing.T) {
	mappingErr := &ingest.MappingError{
		Err:         domain.ErrMissingTransactionColumn,
		Headers:     []string{"transacao", "valor"},
		Suggestions: map[string]string{"transacao": "transaction_id"},
	}
	h := NewImportHandler(ImportHandlerConfig{Imports: &stubImportService{err: mappingErr}, Logger: zerolog.Nop()})

	rec := httptest.NewRecorder()
	h.Upload(rec, newUploadRequest(t, otherProject, []byte("transacao,valor\n1,2\n"), nil))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []any{"transacao", "valor"}, body["headers"])
}

func TestImportHandlerGet(t *testing.T) {
	batches := &stubBatchService{batch: &domain.ImportBatch{ID: "b1", ProjectID: "p1", Status: domain.BatchStatusCompleted}}
	h := NewImportHandler(ImportHandlerConfig{Batches: batches, Logger: zerolog.Nop()})

	rec := httptest.NewRecorder()
	h.Get(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/imports/b1", nil), "id", "b1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"completed"`)

	batches.err = domain.ErrImportBatchNotFound
	rec = httptest.NewRecorder()
	h.Get(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/imports/b2", nil), "id", "b2"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportHandlerList(t *testing.T) {
	batches := &stubBatchService{batches: []*domain.ImportBatch{{ID: "b2"}, {ID: "b1"}}}
	h := NewImportHandler(ImportHandlerConfig{Batches: batches, Logger: zerolog.Nop()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/"+testProjectID+"/imports?limit=5&offset=10", nil)
	rec := httptest.NewRecorder()
	h.List(rec, withURLParam(req, "projectID", testProjectID))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, usecase.ListBatchesInput{ProjectID: testProjectID, Limit: 5, Offset: 10}, batches.listInput)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body, 2)
}

func TestImportHandlerDivergencesEmptyIsArray(t *testing.T) {
	h := NewImportHandler(ImportHandlerConfig{Batches: &stubBatchService{}, Logger: zerolog.Nop()})

	rec := httptest.NewRecorder()
	h.Divergences(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/imports/b1/divergences", nil), "id", "b1"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestImportHandlerProgress(t *testing.T) {
	progress := newStubProgressStore()
	progress.Report(context.Background(), usecase.Progress{ProjectID: testProjectID, BatchID: "b1", BatchIndex: 2, TotalBatches: 4})
	h := NewImportHandler(ImportHandlerConfig{Progress: progress, Logger: zerolog.Nop()})

	rec := httptest.NewRecorder()
	h.BatchProgress(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "b1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"batch_index":2`)

	rec = httptest.NewRecorder()
	h.ProjectProgress(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "projectID", testProjectID))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.BatchProgress(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "missing"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	NewImportHandler(ImportHandlerConfig{Logger: zerolog.Nop()}).BatchProgress(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "b1"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
