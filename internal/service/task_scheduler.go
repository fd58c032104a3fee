package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-report-batch/internal/models"
	"github.com/noah-isme/sma-report-batch/pkg/logger"
	"github.com/noah-isme/sma-report-batch/pkg/pacer"
)

// BatchTask is one target of a batch: a render step that may fail on its own.
type BatchTask struct {
	ID     string
	Name   string
	Render func(ctx context.Context) (*models.Artifact, error)
}

// SideEffect delivers one rendered artifact, by printing or saving it.
type SideEffect func(ctx context.Context, artifact *models.Artifact) error

// BatchRequest describes one dispatch of a batch.
type BatchRequest struct {
	BatchID string
	Kind    models.BatchKind
	Items   []BatchTask
	Effect  SideEffect
}

// BatchResult is the aggregated outcome of a batch.
type BatchResult struct {
	Succeeded int
	Errors    []string
}

// batchRecorder is the part of the state machine the scheduler reports to.
type batchRecorder interface {
	UpdateProgress(batchID string, percent int) bool
	SetPhase(batchID, label string) bool
	Finish(batchID string, errs []string) bool
}

// StaggerConfig holds the minimum spacing between side effects per kind.
type StaggerConfig struct {
	Print time.Duration
	Save  time.Duration
}

// TaskScheduler renders each item in order and starts its side effect no
// sooner than one stagger interval after the previous start. Side effects
// may overlap; the stagger limits the start rate, it does not wait for
// completion.
type TaskScheduler struct {
	staggers StaggerConfig
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewTaskScheduler constructs a TaskScheduler.
func NewTaskScheduler(staggers StaggerConfig, metrics *MetricsService, log *zap.Logger) *TaskScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskScheduler{staggers: staggers, metrics: metrics, logger: log}
}

// Stagger returns the spacing used for kind.
func (s *TaskScheduler) Stagger(kind models.BatchKind) time.Duration {
	if kind == models.BatchKindPrint {
		return s.staggers.Print
	}
	return s.staggers.Save
}

// RunBatch executes req and reports to state. Render and side-effect failures
// are recorded against the item and the batch goes on. Cancelling ctx stops
// dispatching: items not yet started are reported as cancelled while side
// effects already started run to completion. An empty batch is a no-op.
func (s *TaskScheduler) RunBatch(ctx context.Context, state batchRecorder, req BatchRequest) BatchResult {
	total := len(req.Items)
	if total == 0 {
		return BatchResult{Errors: []string{}}
	}

	log := logger.ForBatch(s.logger, req.BatchID, string(req.Kind)).Sugar()
	started := time.Now()
	s.metrics.BatchStarted(req.Kind)
	log.Infow("batch dispatch started", "items", total, "stagger", s.Stagger(req.Kind))

	var (
		mu        sync.Mutex
		completed int
		succeeded int
		failures  = make([]string, total)
	)
	settle := func(i int, failure, outcome string) {
		mu.Lock()
		defer mu.Unlock()
		completed++
		if failure != "" {
			failures[i] = failure
		} else {
			succeeded++
		}
		s.metrics.BatchItem(req.Kind, outcome)
		state.UpdateProgress(req.BatchID, completed*100/total)
	}

	verb := phaseVerb(req.Kind)
	limiter := pacer.New(s.Stagger(req.Kind))
	effectCtx := context.WithoutCancel(ctx)
	var g errgroup.Group

	for i, item := range req.Items {
		if ctx.Err() != nil {
			cancelRemaining(req.Items[i:], i, settle)
			break
		}
		state.SetPhase(req.BatchID, fmt.Sprintf("%s %d of %d: %s", verb, i+1, total, item.Name))

		artifact, err := item.Render(ctx)
		if err != nil {
			log.Warnw("render failed", "student_id", item.ID, "error", err)
			settle(i, fmt.Sprintf("%s: %v", item.Name, err), OutcomeRenderFailed)
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			cancelRemaining(req.Items[i:], i, settle)
			break
		}

		i, item := i, item
		g.Go(func() error {
			if err := req.Effect(effectCtx, artifact); err != nil {
				log.Warnw("side effect failed", "student_id", item.ID, "error", err)
				settle(i, fmt.Sprintf("%s: %v", item.Name, err), OutcomeEffectFailed)
				return nil
			}
			settle(i, "", OutcomeSucceeded)
			return nil
		})
	}
	_ = g.Wait()

	errs := make([]string, 0, total)
	for _, failure := range failures {
		if failure != "" {
			errs = append(errs, failure)
		}
	}
	state.SetPhase(req.BatchID, fmt.Sprintf("%s finished: %d of %d succeeded", verb, succeeded, total))
	if !state.Finish(req.BatchID, errs) {
		log.Debugw("batch superseded before finish")
	}
	s.metrics.BatchFinished(req.Kind, time.Since(started))
	log.Infow("batch dispatch finished", "succeeded", succeeded, "failed", len(errs), "duration", time.Since(started))

	return BatchResult{Succeeded: succeeded, Errors: errs}
}

func cancelRemaining(items []BatchTask, offset int, settle func(int, string, string)) {
	for j, item := range items {
		settle(offset+j, fmt.Sprintf("%s: batch cancelled", item.Name), OutcomeCancelled)
	}
}

func phaseVerb(kind models.BatchKind) string {
	if kind == models.BatchKindPrint {
		return "Printing"
	}
	return "Saving"
}
