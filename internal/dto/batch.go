package dto

import "github.com/noah-isme/sma-report-batch/internal/models"

// PrintSettingsRequest carries the report header and optional sections.
type PrintSettingsRequest struct {
	Term              string `json:"term" validate:"required,max=32"`
	AcademicSession   string `json:"academicSession" validate:"required,max=16"`
	IncludeComments   bool   `json:"includeComments"`
	IncludeSignatures bool   `json:"includeSignatures"`
}

// ToModel converts the request into renderer settings.
func (r PrintSettingsRequest) ToModel() models.PrintSettings {
	return models.PrintSettings{
		Term:              r.Term,
		AcademicSession:   r.AcademicSession,
		IncludeComments:   r.IncludeComments,
		IncludeSignatures: r.IncludeSignatures,
	}
}

// BulkReportRequest captures POST /batch/print and /batch/save. The targets
// are the caller's current selection; subjects default to every scored subject.
type BulkReportRequest struct {
	Subjects []string             `json:"subjects" validate:"omitempty,max=40,dive,required,max=64"`
	Settings PrintSettingsRequest `json:"settings"`
}

// BatchStartedResponse is returned once a batch has been accepted.
type BatchStartedResponse struct {
	BatchID string             `json:"batchId"`
	Kind    models.BatchKind   `json:"kind"`
	Status  models.BatchStatus `json:"status"`
	Items   int                `json:"items"`
}
