package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-batch/internal/models"
	appErrors "github.com/noah-isme/sma-report-batch/pkg/errors"
)

// BatchStateMachine is the single authoritative record of the current batch.
// Every command addressed to a batch carries its id; commands for a batch
// that has since been superseded are dropped without touching the state.
type BatchStateMachine struct {
	mu        sync.Mutex
	notifyMu  sync.Mutex
	state     models.BatchSnapshot
	listeners []func(models.BatchSnapshot)

	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

// NewBatchStateMachine returns an idle state machine.
func NewBatchStateMachine(metrics *MetricsService, logger *zap.Logger) *BatchStateMachine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchStateMachine{
		state:   idleSnapshot(nil),
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// OnChange registers fn to receive a snapshot after every accepted mutation.
// Snapshots arrive in mutation order. Listeners may read Snapshot but must not
// issue commands.
func (m *BatchStateMachine) OnChange(fn func(models.BatchSnapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Snapshot returns a copy of the current state.
func (m *BatchStateMachine) Snapshot() models.BatchSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySnapshot(m.state)
}

// Current returns the id of the current batch and whether it is running.
func (m *BatchStateMachine) Current() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.BatchID, m.state.Status == models.BatchStatusRunning
}

// Start opens a new running batch over targetIDs and returns its id. A
// running batch is superseded. An empty target list is rejected with
// ErrEmptySelection: the state becomes idle with that single error, unless a
// batch is running, in which case nothing changes.
func (m *BatchStateMachine) Start(kind models.BatchKind, phaseLabel string, targetIDs []string) (string, error) {
	if !kind.Valid() {
		return "", appErrors.Clone(appErrors.ErrValidation, "unknown batch kind")
	}

	m.mu.Lock()
	if len(targetIDs) == 0 {
		if m.state.Status == models.BatchStatusRunning {
			m.mu.Unlock()
			return "", appErrors.ErrEmptySelection
		}
		m.state = idleSnapshot([]string{appErrors.ErrEmptySelection.Message})
		m.unlockAndNotify()
		return "", appErrors.ErrEmptySelection
	}

	if m.state.Status == models.BatchStatusRunning {
		m.logger.Sugar().Infow("batch superseded", "batch_id", m.state.BatchID, "progress", m.state.ProgressPercent)
	}
	startedAt := m.now().UTC()
	targets := make([]string, len(targetIDs))
	copy(targets, targetIDs)
	m.state = models.BatchSnapshot{
		BatchID:    m.newID(),
		Kind:       kind,
		Status:     models.BatchStatusRunning,
		PhaseLabel: phaseLabel,
		Errors:     []string{},
		TargetIDs:  targets,
		StartedAt:  &startedAt,
	}
	id := m.state.BatchID
	m.unlockAndNotify()
	return id, nil
}

// UpdateProgress raises the progress of batchID. Lower values are ignored so
// the reported progress never goes backwards.
func (m *BatchStateMachine) UpdateProgress(batchID string, percent int) bool {
	m.mu.Lock()
	if !m.acceptLocked(batchID, "progress") {
		m.mu.Unlock()
		return false
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent <= m.state.ProgressPercent {
		m.mu.Unlock()
		return true
	}
	m.state.ProgressPercent = percent
	m.unlockAndNotify()
	return true
}

// SetPhase replaces the human readable phase of batchID.
func (m *BatchStateMachine) SetPhase(batchID, label string) bool {
	m.mu.Lock()
	if !m.acceptLocked(batchID, "phase") {
		m.mu.Unlock()
		return false
	}
	m.state.PhaseLabel = label
	m.unlockAndNotify()
	return true
}

// RecordOutput appends a saved file to batchID.
func (m *BatchStateMachine) RecordOutput(batchID string, output models.BatchOutput) bool {
	m.mu.Lock()
	if !m.acceptLocked(batchID, "output") {
		m.mu.Unlock()
		return false
	}
	m.state.Outputs = append(m.state.Outputs, output)
	m.unlockAndNotify()
	return true
}

// Finish settles batchID with the aggregated errors and forces progress to 100.
func (m *BatchStateMachine) Finish(batchID string, errs []string) bool {
	m.mu.Lock()
	if !m.acceptLocked(batchID, "finish") {
		m.mu.Unlock()
		return false
	}
	finishedAt := m.now().UTC()
	m.state.Status = models.BatchStatusSettled
	m.state.ProgressPercent = 100
	m.state.Errors = append([]string{}, errs...)
	m.state.FinishedAt = &finishedAt
	m.unlockAndNotify()
	return true
}

// SetErrors reports a fatal error outside of any batch. The state becomes idle
// with zero progress. It is refused while a batch is running.
func (m *BatchStateMachine) SetErrors(errs []string) error {
	m.mu.Lock()
	if m.state.Status == models.BatchStatusRunning {
		m.mu.Unlock()
		return appErrors.Clone(appErrors.ErrConflict, "a batch is running")
	}
	m.state = idleSnapshot(errs)
	m.unlockAndNotify()
	return nil
}

// ClearErrors empties the error list of an idle or settled batch without
// touching its progress or kind.
func (m *BatchStateMachine) ClearErrors() error {
	m.mu.Lock()
	if m.state.Status == models.BatchStatusRunning {
		m.mu.Unlock()
		return appErrors.Clone(appErrors.ErrConflict, "errors cannot be cleared while a batch is running")
	}
	m.state.Errors = []string{}
	m.unlockAndNotify()
	return nil
}

// acceptLocked is the batch id guard. Stale reports are expected after a
// supersede and are only logged at debug level.
func (m *BatchStateMachine) acceptLocked(batchID, command string) bool {
	if batchID != "" && batchID == m.state.BatchID && m.state.Status == models.BatchStatusRunning {
		return true
	}
	m.metrics.StaleUpdate()
	m.logger.Debug("stale batch update dropped",
		zap.String("batch_id", batchID),
		zap.String("current_batch_id", m.state.BatchID),
		zap.String("command", command))
	return false
}

// unlockAndNotify releases the lock and fans the new state out to listeners.
func (m *BatchStateMachine) unlockAndNotify() {
	snapshot := copySnapshot(m.state)
	listeners := append([]func(models.BatchSnapshot){}, m.listeners...)
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(snapshot)
	}
}

func idleSnapshot(errs []string) models.BatchSnapshot {
	return models.BatchSnapshot{
		Status:    models.BatchStatusIdle,
		Errors:    append([]string{}, errs...),
		TargetIDs: []string{},
	}
}

func copySnapshot(s models.BatchSnapshot) models.BatchSnapshot {
	out := s
	out.Errors = append([]string{}, s.Errors...)
	out.TargetIDs = append([]string{}, s.TargetIDs...)
	if s.Outputs != nil {
		out.Outputs = append([]models.BatchOutput{}, s.Outputs...)
	}
	if s.StartedAt != nil {
		t := *s.StartedAt
		out.StartedAt = &t
	}
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		out.FinishedAt = &t
	}
	return out
}
