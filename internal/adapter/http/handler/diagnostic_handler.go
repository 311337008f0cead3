package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/iho/ledgerimport/internal/adapter/http/dto"
	"github.com/iho/ledgerimport/internal/domain"
	"github.com/iho/ledgerimport/internal/usecase"
)

// OfferDiagnosticService defines the behavior needed by DiagnosticHandler.
type OfferDiagnosticService interface {
	Diagnose(input usecase.DiagnoseInput) (*usecase.OfferDiagnosticReport, error)
}

// DiagnosticHandler runs the funnel/offer integrity report over two uploaded exports.
type DiagnosticHandler struct {
	diagnostics OfferDiagnosticService
	maxFileSize int64
}

// NewDiagnosticHandler creates a new DiagnosticHandler.
func NewDiagnosticHandler(diagnostics OfferDiagnosticService, maxFileSize int64) *DiagnosticHandler {
	if maxFileSize <= 0 {
		maxFileSize = 50 << 20
	}
	return &DiagnosticHandler{diagnostics: diagnostics, maxFileSize: maxFileSize}
}

// Offers expects multipart files "funnels" and "offers".
func (h *DiagnosticHandler) Offers(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*h.maxFileSize+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDomainError(w, "invalid upload", domain.ErrFileTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid upload", err.Error())
		return
	}

	var req dto.DiagnoseOffersRequest
	var err error
	if req.FunnelsFileName, req.Funnels, err = h.formFile(r, "funnels"); err != nil {
		writeDomainError(w, "invalid upload", err)
		return
	}
	if req.OffersFileName, req.Offers, err = h.formFile(r, "offers"); err != nil {
		writeDomainError(w, "invalid upload", err)
		return
	}

	report, err := h.diagnostics.Diagnose(req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "diagnostic failed", err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *DiagnosticHandler) formFile(r *http.Request, field string) (string, []byte, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", nil, fmt.Errorf("%w: form field %q is required", domain.ErrEmptyFile, field)
	}
	defer file.Close()

	content, err := readLimited(file, h.maxFileSize)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, content, nil
}
