package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-batch/internal/models"
)

// Workspace is one user's selection and batch state.
type Workspace struct {
	UserID    string
	Selection *SelectionStore
	Batch     *BatchStateMachine

	mu         sync.Mutex
	dispatchID string
	cancel     context.CancelFunc
}

// startBatch opens a batch and swaps in its dispatch context under one lock,
// so the context left live always belongs to the batch the state machine shows.
func (w *Workspace) startBatch(kind models.BatchKind, phaseLabel string, targetIDs []string) (string, context.Context, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	batchID, err := w.Batch.Start(kind, phaseLabel, targetIDs)
	if err != nil {
		return "", nil, err
	}
	if w.cancel != nil {
		w.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.dispatchID, w.cancel = batchID, cancel
	return batchID, ctx, nil
}

// endDispatch releases the dispatch context of batchID if it is still current.
func (w *Workspace) endDispatch(batchID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dispatchID != batchID || w.cancel == nil {
		return
	}
	w.cancel()
	w.dispatchID, w.cancel = "", nil
}

// WorkspaceRegistry hands out one workspace per authenticated user.
type WorkspaceRegistry struct {
	mu         sync.Mutex
	workspaces map[string]*Workspace
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewWorkspaceRegistry constructs an empty registry.
func NewWorkspaceRegistry(metrics *MetricsService, logger *zap.Logger) *WorkspaceRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkspaceRegistry{workspaces: make(map[string]*Workspace), metrics: metrics, logger: logger}
}

// Get returns the workspace of userID, creating it on first use.
func (r *WorkspaceRegistry) Get(userID string) *Workspace {
	userID = strings.TrimSpace(userID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if ws, ok := r.workspaces[userID]; ok {
		return ws
	}
	ws := &Workspace{
		UserID:    userID,
		Selection: NewSelectionStore(),
		Batch:     NewBatchStateMachine(r.metrics, r.logger.With(zap.String("user_id", userID))),
	}
	log := r.logger.Sugar()
	ws.Batch.OnChange(func(s models.BatchSnapshot) {
		log.Debugw("batch state changed", "user_id", userID, "batch_id", s.BatchID,
			"status", s.Status, "progress", s.ProgressPercent, "errors", len(s.Errors))
	})
	r.workspaces[userID] = ws
	return ws
}

// Len reports how many workspaces exist.
func (r *WorkspaceRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}
