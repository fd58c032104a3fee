package models

import "time"

// BatchKind identifies the side effect a batch drives.
type BatchKind string

const (
	BatchKindPrint BatchKind = "print"
	BatchKindSave  BatchKind = "save"
)

// Valid reports whether the kind is known.
func (k BatchKind) Valid() bool {
	return k == BatchKindPrint || k == BatchKindSave
}

// BatchStatus is the lifecycle state of the current batch.
type BatchStatus string

const (
	BatchStatusIdle    BatchStatus = "idle"
	BatchStatusRunning BatchStatus = "running"
	BatchStatusSettled BatchStatus = "settled"
)

// BatchOutput records a file produced by a save batch.
type BatchOutput struct {
	StudentID string    `json:"student_id"`
	FileName  string    `json:"file_name"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BatchSnapshot is a read-only copy of the batch state.
type BatchSnapshot struct {
	BatchID         string        `json:"batch_id,omitempty"`
	Kind            BatchKind     `json:"kind,omitempty"`
	Status          BatchStatus   `json:"status"`
	PhaseLabel      string        `json:"phase_label,omitempty"`
	ProgressPercent int           `json:"progress_percent"`
	Errors          []string      `json:"errors"`
	TargetIDs       []string      `json:"target_ids"`
	Outputs         []BatchOutput `json:"outputs,omitempty"`
	StartedAt       *time.Time    `json:"started_at,omitempty"`
	FinishedAt      *time.Time    `json:"finished_at,omitempty"`
}

// PrintSettings is passed through untouched to the document renderer.
type PrintSettings struct {
	Term              string `json:"term"`
	AcademicSession   string `json:"academic_session"`
	IncludeComments   bool   `json:"include_comments"`
	IncludeSignatures bool   `json:"include_signatures"`
}

// Artifact is a rendered report card ready for one side effect.
type Artifact struct {
	StudentID   string
	StudentName string
	FileName    string
	ContentType string
	Data        []byte
}

// SelectionSnapshot is a read-only copy of a selection store.
type SelectionSnapshot struct {
	ClassID     string   `json:"class_id"`
	SelectedIDs []string `json:"selected_ids"`
}
