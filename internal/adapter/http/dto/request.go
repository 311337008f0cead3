package dto

import (
	"github.com/iho/ledgerimport/internal/ingest"
	"github.com/iho/ledgerimport/internal/usecase"
)

// Multipart form fields of the import upload.
const (
	FormFieldFile         = "file"
	FormFieldNumberFormat = "number_format"
)

// ImportRequest carries an uploaded export and the caller's identity.
type ImportRequest struct {
	ProjectID    string
	FileName     string
	Content      []byte
	NumberFormat string
	CreatedBy    string
	RequestID    string
}

// ToUseCaseInput converts to use case input. The number format is validated by the use case.
func (r *ImportRequest) ToUseCaseInput(progress usecase.ProgressReporter) usecase.ImportInput {
	return usecase.ImportInput{
		ProjectID:      r.ProjectID,
		SourceFileName: r.FileName,
		Content:        r.Content,
		CreatedBy:      r.CreatedBy,
		RequestID:      r.RequestID,
		NumberFormat:   ingest.NumberFormat(r.NumberFormat),
		Progress:       progress,
	}
}

// DiagnoseOffersRequest carries the two exports of the offer diagnostic.
type DiagnoseOffersRequest struct {
	FunnelsFileName string
	Funnels         []byte
	OffersFileName  string
	Offers          []byte
}

// ToUseCaseInput converts to use case input.
func (r *DiagnoseOffersRequest) ToUseCaseInput() usecase.DiagnoseInput {
	return usecase.DiagnoseInput{
		FunnelsFileName: r.FunnelsFileName,
		Funnels:         r.Funnels,
		OffersFileName:  r.OffersFileName,
		Offers:          r.Offers,
	}
}
