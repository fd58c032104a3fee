package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-report-batch/internal/dto"
	"github.com/noah-isme/sma-report-batch/internal/models"
	appErrors "github.com/noah-isme/sma-report-batch/pkg/errors"
	"github.com/noah-isme/sma-report-batch/pkg/export"
	"github.com/noah-isme/sma-report-batch/pkg/jobs"
	"github.com/noah-isme/sma-report-batch/pkg/storage"
)

type inlineDispatcher struct {
	worker *BatchWorker
	fail   error
	held   []jobs.Job
	hold   bool
}

func (d *inlineDispatcher) Enqueue(job jobs.Job) error {
	if d.fail != nil {
		return d.fail
	}
	if d.hold {
		d.held = append(d.held, job)
		return nil
	}
	return d.worker.Handle(context.Background(), job)
}

type printerStub struct {
	mu      sync.Mutex
	printed []string
	failFor string
}

func (p *printerStub) Print(ctx context.Context, batchID string, artifact *models.Artifact) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if artifact.StudentID == p.failFor {
		return errors.New("printer offline")
	}
	p.printed = append(p.printed, artifact.StudentID)
	return nil
}

type unavailableRenderer struct{}

func (unavailableRenderer) Check() error { return errors.New("font missing") }

func (unavailableRenderer) Render(export.ReportCard) ([]byte, error) { return nil, errors.New("unreachable") }

type bulkFixture struct {
	svc        *BulkReportService
	ws         *Workspace
	printer    *printerStub
	dispatcher *inlineDispatcher
	roster     *rosterRepoStub
	scores     *scoreRepoStub
	store      *storage.LocalStorage
}

func newBulkFixture(t *testing.T, renderer reportCardRenderer) *bulkFixture {
	t.Helper()
	roster, scores := classFixture()
	rankings := NewRankingService(roster, scores, nil, time.Minute, nil)
	if renderer == nil {
		renderer = export.NewReportCardRenderer("")
	}
	renders := NewRenderService(renderer, "SMA Negeri 1", nil)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	saver := NewSaveService(store, storage.NewSignedURLSigner("secret", time.Hour), "/api/v1/export", nil)
	printer := &printerStub{}

	scheduler := NewTaskScheduler(StaggerConfig{}, nil, nil)
	dispatcher := &inlineDispatcher{worker: NewBatchWorker(scheduler, nil)}
	svc := NewBulkReportService(rankings, roster, renders, printer, saver, dispatcher, nil, nil)

	ws := NewWorkspaceRegistry(nil, nil).Get("teacher-1")
	ws.Selection.OnClassChange("c1")
	return &bulkFixture{svc: svc, ws: ws, printer: printer, dispatcher: dispatcher, roster: roster, scores: scores, store: store}
}

func validRequest() dto.BulkReportRequest {
	return dto.BulkReportRequest{Settings: dto.PrintSettingsRequest{Term: "First Term", AcademicSession: "2024/2025", IncludeComments: true}}
}

func TestBulkPrintWithEmptySelection(t *testing.T) {
	f := newBulkFixture(t, nil)

	_, err := f.svc.StartBulkPrint(context.Background(), f.ws, validRequest())
	assert.ErrorIs(t, err, appErrors.ErrEmptySelection)

	s := f.ws.Batch.Snapshot()
	assert.Equal(t, models.BatchStatusIdle, s.Status)
	assert.Equal(t, 0, s.ProgressPercent)
	require.Len(t, s.Errors, 1)
	assert.True(t, strings.HasPrefix(s.Errors[0], "Please select at least one student"))
	assert.Empty(t, f.printer.printed)
}

func TestBulkPrintOneRenderFailure(t *testing.T) {
	f := newBulkFixture(t, nil)
	f.roster.students[1].FullName = ""
	f.ws.Selection.SelectAll([]string{"s1", "s2", "s3"})

	resp, err := f.svc.StartBulkPrint(context.Background(), f.ws, validRequest())
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Items)
	assert.Equal(t, models.BatchKindPrint, resp.Kind)

	s := f.ws.Batch.Snapshot()
	assert.Equal(t, resp.BatchID, s.BatchID)
	assert.Equal(t, models.BatchStatusSettled, s.Status)
	assert.Equal(t, models.BatchKindPrint, s.Kind)
	assert.Equal(t, 100, s.ProgressPercent)
	require.Len(t, s.Errors, 1)
	assert.Contains(t, s.Errors[0], "s2")
	assert.ElementsMatch(t, []string{"s1", "s3"}, f.printer.printed)
}

func TestBulkPrintSideEffectFailureIsAttributed(t *testing.T) {
	f := newBulkFixture(t, nil)
	f.printer.failFor = "s1"
	f.ws.Selection.SelectAll([]string{"s1", "s2"})

	_, err := f.svc.StartBulkPrint(context.Background(), f.ws, validRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{"Ayu: printer offline"}, f.ws.Batch.Snapshot().Errors)
}

func TestBulkSaveRecordsOutputs(t *testing.T) {
	f := newBulkFixture(t, nil)
	f.ws.Selection.SelectAll([]string{"s3", "s1"})

	resp, err := f.svc.StartBulkSave(context.Background(), f.ws, validRequest())
	require.NoError(t, err)

	s := f.ws.Batch.Snapshot()
	assert.Equal(t, models.BatchKindSave, s.Kind)
	assert.Empty(t, s.Errors)
	require.Len(t, s.Outputs, 2)
	ids := []string{s.Outputs[0].StudentID, s.Outputs[1].StudentID}
	assert.ElementsMatch(t, []string{"s3", "s1"}, ids)
	for _, out := range s.Outputs {
		assert.True(t, strings.HasPrefix(out.URL, "/api/v1/export/"+resp.BatchID+"."))
		assert.True(t, strings.HasSuffix(out.FileName, ".pdf"))
	}
	assert.Equal(t, []string{"s3", "s1"}, s.TargetIDs)
}

func TestBulkPrintRendererUnavailable(t *testing.T) {
	f := newBulkFixture(t, unavailableRenderer{})
	f.ws.Selection.SelectAll([]string{"s1"})

	_, err := f.svc.StartBulkPrint(context.Background(), f.ws, validRequest())
	assert.True(t, appErrors.HasCode(err, appErrors.ErrRendererUnavailable))

	s := f.ws.Batch.Snapshot()
	assert.Equal(t, models.BatchStatusIdle, s.Status)
	assert.Equal(t, 0, s.ProgressPercent)
	assert.Equal(t, []string{appErrors.ErrRendererUnavailable.Message}, s.Errors)
	assert.Empty(t, f.printer.printed)
}

func TestBulkPrintRequiresClassAndSubjects(t *testing.T) {
	f := newBulkFixture(t, nil)
	f.ws.Selection.SelectAll([]string{"s1"})
	f.scores.subjects = nil

	_, err := f.svc.StartBulkPrint(context.Background(), f.ws, validRequest())
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	assert.Equal(t, []string{"no subjects have been scored for this class"}, f.ws.Batch.Snapshot().Errors)

	other := NewWorkspaceRegistry(nil, nil).Get("teacher-2")
	other.Selection.Select("s1")
	_, err = f.svc.StartBulkPrint(context.Background(), other, validRequest())
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	assert.Equal(t, []string{"Please choose a class first"}, other.Batch.Snapshot().Errors)
}

func TestBulkPrintRejectsInvalidSettings(t *testing.T) {
	f := newBulkFixture(t, nil)
	f.ws.Selection.SelectAll([]string{"s1"})

	_, err := f.svc.StartBulkPrint(context.Background(), f.ws, dto.BulkReportRequest{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	assert.Equal(t, models.BatchStatusIdle, f.ws.Batch.Snapshot().Status)
	assert.Empty(t, f.ws.Batch.Snapshot().Errors)
}

func TestBulkPrintStudentOutsideRoster(t *testing.T) {
	f := newBulkFixture(t, nil)
	f.ws.Selection.SelectAll([]string{"s1", "ghost"})

	_, err := f.svc.StartBulkPrint(context.Background(), f.ws, validRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{"ghost: not enrolled in class c1"}, f.ws.Batch.Snapshot().Errors)
	assert.Equal(t, []string{"s1"}, f.printer.printed)
}

func TestBulkPrintEnqueueFailure(t *testing.T) {
	f := newBulkFixture(t, nil)
	f.dispatcher.fail = jobs.ErrQueueFull
	f.ws.Selection.SelectAll([]string{"s1"})

	_, err := f.svc.StartBulkPrint(context.Background(), f.ws, validRequest())
	assert.True(t, appErrors.HasCode(err, appErrors.ErrBatchDispatch))
	assert.ErrorIs(t, err, jobs.ErrQueueFull)

	s := f.ws.Batch.Snapshot()
	assert.Equal(t, models.BatchStatusSettled, s.Status)
	assert.Equal(t, []string{appErrors.ErrBatchDispatch.Message}, s.Errors)
}

func TestBulkPrintSupersedeCancelsQueuedBatch(t *testing.T) {
	f := newBulkFixture(t, nil)
	f.dispatcher.hold = true
	f.ws.Selection.SelectAll([]string{"s1", "s2"})

	first, err := f.svc.StartBulkPrint(context.Background(), f.ws, validRequest())
	require.NoError(t, err)
	second, err := f.svc.StartBulkSave(context.Background(), f.ws, validRequest())
	require.NoError(t, err)
	require.Len(t, f.dispatcher.held, 2)

	require.NoError(t, f.dispatcher.worker.Handle(context.Background(), f.dispatcher.held[0]))
	assert.Empty(t, f.printer.printed, "a superseded batch dispatches nothing")
	s := f.ws.Batch.Snapshot()
	assert.Equal(t, second.BatchID, s.BatchID)
	assert.Equal(t, models.BatchStatusRunning, s.Status)
	assert.NotEqual(t, first.BatchID, s.BatchID)

	require.NoError(t, f.dispatcher.worker.Handle(context.Background(), f.dispatcher.held[1]))
	s = f.ws.Batch.Snapshot()
	assert.Equal(t, models.BatchStatusSettled, s.Status)
	assert.Len(t, s.Outputs, 2)
}

func TestBatchWorkerRejectsUnknownPayload(t *testing.T) {
	worker := NewBatchWorker(NewTaskScheduler(StaggerConfig{}, nil, nil), nil)
	err := worker.Handle(context.Background(), jobs.Job{ID: "j1", Payload: "nope"})
	assert.Error(t, err)
}
