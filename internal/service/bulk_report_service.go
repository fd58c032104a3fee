package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-batch/internal/dto"
	"github.com/noah-isme/sma-report-batch/internal/models"
	appErrors "github.com/noah-isme/sma-report-batch/pkg/errors"
	"github.com/noah-isme/sma-report-batch/pkg/jobs"
)

const jobTypeReportBatch = "report_batch"

type classRanker interface {
	ClassRanking(ctx context.Context, classID string, subjects []string) (*models.ClassRanking, error)
}

type reportRenderer interface {
	Available() error
	RenderStudentReport(student models.Student, rank models.RankResult, settings models.PrintSettings) (*models.Artifact, error)
}

type artifactPrinter interface {
	Print(ctx context.Context, batchID string, artifact *models.Artifact) error
}

type artifactSaver interface {
	Save(ctx context.Context, batchID string, artifact *models.Artifact) (*models.BatchOutput, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// BatchDispatch is the queue payload of one accepted batch.
type BatchDispatch struct {
	Workspace *Workspace
	Request   BatchRequest
	// Ctx is cancelled when a newer batch supersedes this one.
	Ctx context.Context
}

// BulkReportService validates bulk print/save requests, prepares one task per
// selected student and hands the batch to the worker queue.
type BulkReportService struct {
	rankings  classRanker
	roster    rosterRepository
	renderer  reportRenderer
	printer   artifactPrinter
	saver     artifactSaver
	queue     jobDispatcher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBulkReportService constructs a BulkReportService.
func NewBulkReportService(rankings classRanker, roster rosterRepository, renderer reportRenderer, printer artifactPrinter, saver artifactSaver, queue jobDispatcher, validate *validator.Validate, logger *zap.Logger) *BulkReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkReportService{
		rankings:  rankings,
		roster:    roster,
		renderer:  renderer,
		printer:   printer,
		saver:     saver,
		queue:     queue,
		validator: validate,
		logger:    logger,
	}
}

// StartBulkPrint prints a report card for every selected student.
func (s *BulkReportService) StartBulkPrint(ctx context.Context, ws *Workspace, req dto.BulkReportRequest) (*dto.BatchStartedResponse, error) {
	return s.start(ctx, ws, models.BatchKindPrint, req)
}

// StartBulkSave saves a report card for every selected student.
func (s *BulkReportService) StartBulkSave(ctx context.Context, ws *Workspace, req dto.BulkReportRequest) (*dto.BatchStartedResponse, error) {
	return s.start(ctx, ws, models.BatchKindSave, req)
}

func (s *BulkReportService) start(ctx context.Context, ws *Workspace, kind models.BatchKind, req dto.BulkReportRequest) (*dto.BatchStartedResponse, error) {
	targets := ws.Selection.SelectedIDs()
	if len(targets) == 0 {
		_, err := ws.Batch.Start(kind, "", nil)
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}

	classID := ws.Selection.ClassID()
	if classID == "" {
		return nil, s.fail(ws, appErrors.Clone(appErrors.ErrValidation, "Please choose a class first"))
	}
	if err := s.renderer.Available(); err != nil {
		return nil, s.fail(ws, err)
	}

	ranking, err := s.rankings.ClassRanking(ctx, classID, req.Subjects)
	if err != nil {
		return nil, s.fail(ws, err)
	}
	roster, err := s.roster.ListByClass(ctx, classID)
	if err != nil {
		return nil, s.fail(ws, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster"))
	}
	if len(roster) == 0 {
		return nil, s.fail(ws, appErrors.Clone(appErrors.ErrValidation, "The class has no enrolled students"))
	}

	items := s.buildTasks(classID, targets, roster, ranking.Results, req.Settings.ToModel())
	batchID, dispatchCtx, err := ws.startBatch(kind, fmt.Sprintf("Preparing %d report cards", len(items)), targets)
	if err != nil {
		return nil, err
	}

	dispatch := &BatchDispatch{
		Workspace: ws,
		Ctx:       dispatchCtx,
		Request: BatchRequest{
			BatchID: batchID,
			Kind:    kind,
			Items:   items,
			Effect:  s.effectFor(ws, kind, batchID),
		},
	}
	if err := s.queue.Enqueue(jobs.Job{ID: batchID, Type: jobTypeReportBatch, Payload: dispatch}); err != nil {
		ws.endDispatch(batchID)
		ws.Batch.Finish(batchID, []string{appErrors.ErrBatchDispatch.Message})
		s.logger.Error("batch enqueue failed", zap.String("batch_id", batchID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrBatchDispatch.Code, appErrors.ErrBatchDispatch.Status, appErrors.ErrBatchDispatch.Message)
	}

	s.logger.Sugar().Infow("batch accepted", "batch_id", batchID, "kind", kind, "user_id", ws.UserID, "class_id", classID, "items", len(items))
	return &dto.BatchStartedResponse{BatchID: batchID, Kind: kind, Status: models.BatchStatusRunning, Items: len(items)}, nil
}

// buildTasks keeps selection order. A selected student missing from the
// roster fails on its own when rendered.
func (s *BulkReportService) buildTasks(classID string, targets []string, roster []models.Student, results []models.RankResult, settings models.PrintSettings) []BatchTask {
	students := make(map[string]models.Student, len(roster))
	for _, st := range roster {
		students[st.ID] = st
	}
	ranks := make(map[string]models.RankResult, len(results))
	for _, r := range results {
		ranks[r.StudentID] = r
	}

	items := make([]BatchTask, 0, len(targets))
	for _, id := range targets {
		student, enrolled := students[id]
		rank, ranked := ranks[id]
		name := student.FullName
		if name == "" {
			name = id
		}
		items = append(items, BatchTask{
			ID:   id,
			Name: name,
			Render: func(context.Context) (*models.Artifact, error) {
				if !enrolled || !ranked {
					return nil, fmt.Errorf("not enrolled in class %s", classID)
				}
				return s.renderer.RenderStudentReport(student, rank, settings)
			},
		})
	}
	return items
}

func (s *BulkReportService) effectFor(ws *Workspace, kind models.BatchKind, batchID string) SideEffect {
	if kind == models.BatchKindPrint {
		return func(ctx context.Context, artifact *models.Artifact) error {
			return s.printer.Print(ctx, batchID, artifact)
		}
	}
	return func(ctx context.Context, artifact *models.Artifact) error {
		output, err := s.saver.Save(ctx, batchID, artifact)
		if err != nil {
			return err
		}
		ws.Batch.RecordOutput(batchID, *output)
		return nil
	}
}

// fail records a fatal pre-dispatch error on the batch state and returns it.
func (s *BulkReportService) fail(ws *Workspace, err error) error {
	appErr := appErrors.FromError(err)
	if setErr := ws.Batch.SetErrors([]string{appErr.Message}); setErr != nil {
		s.logger.Debug("fatal batch error not recorded", zap.String("user_id", ws.UserID), zap.Error(setErr))
	}
	return err
}

// BatchWorker bridges queued batches to the TaskScheduler.
type BatchWorker struct {
	scheduler *TaskScheduler
	logger    *zap.Logger
}

// NewBatchWorker constructs a worker.
func NewBatchWorker(scheduler *TaskScheduler, logger *zap.Logger) *BatchWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchWorker{scheduler: scheduler, logger: logger}
}

// Handle runs one queued batch. Per-item failures end up in the batch state,
// so the queue never retries a batch.
func (w *BatchWorker) Handle(ctx context.Context, job jobs.Job) error {
	dispatch, ok := job.Payload.(*BatchDispatch)
	if !ok || dispatch == nil || dispatch.Workspace == nil {
		return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
	}
	ws := dispatch.Workspace
	defer ws.endDispatch(dispatch.Request.BatchID)

	parent := dispatch.Ctx
	if parent == nil {
		parent = context.Background()
	}
	runCtx, cancel := context.WithCancel(parent)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	w.scheduler.RunBatch(runCtx, ws.Batch, dispatch.Request)
	return nil
}
