package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/ledgerimport/internal/adapter/http/dto"
	"github.com/iho/ledgerimport/internal/adapter/http/middleware"
	"github.com/iho/ledgerimport/internal/domain"
	"github.com/iho/ledgerimport/internal/usecase"
)

// multipartOverhead is allowed on top of the file limit for boundaries and
// other form fields.
const multipartOverhead = 1 << 20

// anonymousUser is recorded as created_by when authentication is disabled.
const anonymousUser = "anonymous"

// ImportService defines the behavior needed to run an import.
type ImportService interface {
	Import(ctx context.Context, input usecase.ImportInput) (*usecase.ImportReport, error)
}

// BatchService defines the queries over import batches.
type BatchService interface {
	GetBatch(ctx context.Context, id string) (*domain.ImportBatch, error)
	ListBatches(ctx context.Context, input usecase.ListBatchesInput) ([]*domain.ImportBatch, error)
	ListDivergences(ctx context.Context, input usecase.ListDivergencesInput) ([]*domain.LedgerRow, error)
}

// ProgressStore records and serves import progress.
type ProgressStore interface {
	usecase.ProgressReporter
	ForBatch(ctx context.Context, batchID string) (usecase.Progress, bool, error)
	ForProject(ctx context.Context, projectID string) (usecase.Progress, bool, error)
}

// ImportHandlerConfig holds the dependencies of ImportHandler. Lock and
// Progress are optional.
type ImportHandlerConfig struct {
	Imports     ImportService
	Batches     BatchService
	Lock        usecase.ImportLock
	Progress    ProgressStore
	MaxFileSize int64
	LockTTL     time.Duration
	Logger      zerolog.Logger
}

// ImportHandler handles uploads and import queries.
type ImportHandler struct {
	imports     ImportService
	batches     BatchService
	lock        usecase.ImportLock
	progress    ProgressStore
	maxFileSize int64
	lockTTL     time.Duration
	logger      zerolog.Logger
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(cfg ImportHandlerConfig) *ImportHandler {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 50 << 20
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = usecase.DefaultLockTTL
	}
	return &ImportHandler{
		imports:     cfg.Imports,
		batches:     cfg.Batches,
		lock:        cfg.Lock,
		progress:    cfg.Progress,
		maxFileSize: cfg.MaxFileSize,
		lockTTL:     cfg.LockTTL,
		logger:      cfg.Logger,
	}
}

// Upload imports a multipart "file" for the project in the URL. The project
// stays locked until the import returns; the lock is refreshed every third of
// LockTTL while the import runs.
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	projectID, err := domain.ValidateProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		writeDomainError(w, "invalid project", err)
		return
	}

	fileName, content, err := h.readUpload(w, r)
	if err != nil {
		writeDomainError(w, "invalid upload", err)
		return
	}

	if h.lock != nil {
		token, err := h.lock.Acquire(r.Context(), projectID, h.lockTTL)
		if err != nil {
			writeDomainError(w, "import rejected", err)
			return
		}
		defer func() {
			if err := h.lock.Release(context.WithoutCancel(r.Context()), projectID, token); err != nil {
				h.logger.Warn().Err(err).Str("project_id", projectID).Msg("release import lock")
			}
		}()
		stop := h.keepLock(r.Context(), projectID, token)
		defer stop()
	}

	req := dto.ImportRequest{
		ProjectID:    projectID,
		FileName:     fileName,
		Content:      content,
		NumberFormat: r.FormValue(dto.FormFieldNumberFormat),
		CreatedBy:    createdBy(r.Context()),
		RequestID:    chimiddleware.GetReqID(r.Context()),
	}

	var progress usecase.ProgressReporter
	if h.progress != nil {
		progress = h.progress
	}

	report, err := h.imports.Import(r.Context(), req.ToUseCaseInput(progress))
	if err != nil {
		writeDomainError(w, "import rejected", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ImportReportFromUseCase(report))
}

// readUpload returns the uploaded file name and content, bounded by the
// configured size.
func (h *ImportHandler) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, domain.ErrFileTooLarge
		}
		return "", nil, fmt.Errorf("%w: %v", domain.ErrEmptyFile, err)
	}

	file, header, err := r.FormFile(dto.FormFieldFile)
	if err != nil {
		return "", nil, fmt.Errorf("%w: form field %q is required", domain.ErrEmptyFile, dto.FormFieldFile)
	}
	defer file.Close()

	content, err := readLimited(file, h.maxFileSize)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, content, nil
}

func readLimited(file multipart.File, limit int64) ([]byte, error) {
	content, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(content)) > limit {
		return nil, domain.ErrFileTooLarge
	}
	return content, nil
}

// List lists a project's imports, newest first.
func (h *ImportHandler) List(w http.ResponseWriter, r *http.Request) {
	batches, err := h.batches.ListBatches(r.Context(), usecase.ListBatchesInput{
		ProjectID: chi.URLParam(r, "projectID"),
		Limit:     parseIntQuery(r, "limit", domain.DefaultPageSize),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list imports", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ImportBatchesFromDomain(batches))
}

// Get retrieves an import batch by ID.
func (h *ImportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing import ID", "")
		return
	}

	batch, err := h.batches.GetBatch(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get import", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ImportBatchFromDomain(batch))
}

// Divergences lists the rows an import flagged as divergent.
func (h *ImportHandler) Divergences(w http.ResponseWriter, r *http.Request) {
	rows, err := h.batches.ListDivergences(r.Context(), usecase.ListDivergencesInput{
		BatchID: chi.URLParam(r, "id"),
		Limit:   parseIntQuery(r, "limit", domain.DefaultPageSize),
		Offset:  parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list divergences", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DivergentRowsFromDomain(rows))
}

// BatchProgress returns the latest progress event of an import.
func (h *ImportHandler) BatchProgress(w http.ResponseWriter, r *http.Request) {
	h.writeProgress(w, r, func(ctx context.Context) (usecase.Progress, bool, error) {
		return h.progress.ForBatch(ctx, chi.URLParam(r, "id"))
	})
}

// ProjectProgress returns the latest progress event of a project's running
// import. Uploaders poll it while the upload request is still open.
func (h *ImportHandler) ProjectProgress(w http.ResponseWriter, r *http.Request) {
	projectID, err := domain.ValidateProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		writeDomainError(w, "invalid project", err)
		return
	}

	h.writeProgress(w, r, func(ctx context.Context) (usecase.Progress, bool, error) {
		return h.progress.ForProject(ctx, projectID)
	})
}

func (h *ImportHandler) writeProgress(w http.ResponseWriter, r *http.Request, get func(context.Context) (usecase.Progress, bool, error)) {
	if h.progress == nil {
		writeError(w, http.StatusNotFound, "progress tracking disabled", "")
		return
	}

	p, ok, err := get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read progress", err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no progress recorded", "")
		return
	}

	writeJSON(w, http.StatusOK, dto.ProgressFromUseCase(p))
}

func createdBy(ctx context.Context) string {
	if p, ok := middleware.PrincipalFromContext(ctx); ok && p.UserID != "" {
		return p.UserID
	}
	return anonymousUser
}

// keepLock refreshes the project lock until the returned stop func is called.
// A lost lock is logged and ends the refresh loop.
func (h *ImportHandler) keepLock(ctx context.Context, projectID, token string) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		interval := h.lockTTL / 3
		if interval <= 0 {
			interval = h.lockTTL
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				err := h.lock.Refresh(ctx, projectID, token, h.lockTTL)
				if err == nil || ctx.Err() != nil {
					continue
				}
				h.logger.Warn().Err(err).Str("project_id", projectID).Msg("refresh import lock")
				if errors.Is(err, domain.ErrImportLockLost) {
					return
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
