package service

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-report-batch/internal/models"
	appErrors "github.com/noah-isme/sma-report-batch/pkg/errors"
)

func newTestMachine(metrics *MetricsService) *BatchStateMachine {
	m := NewBatchStateMachine(metrics, nil)
	seq := 0
	m.newID = func() string {
		seq++
		return []string{"b1", "b2", "b3", "b4"}[seq-1]
	}
	m.now = func() time.Time { return time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC) }
	return m
}

func TestBatchStateMachineStartsIdle(t *testing.T) {
	m := newTestMachine(nil)
	s := m.Snapshot()
	assert.Equal(t, models.BatchStatusIdle, s.Status)
	assert.Empty(t, s.Errors)
	assert.Equal(t, 0, s.ProgressPercent)
}

func TestBatchStateMachineRejectsEmptySelection(t *testing.T) {
	m := newTestMachine(nil)

	id, err := m.Start(models.BatchKindPrint, "Printing", nil)
	assert.Empty(t, id)
	assert.ErrorIs(t, err, appErrors.ErrEmptySelection)

	s := m.Snapshot()
	assert.Equal(t, models.BatchStatusIdle, s.Status)
	assert.Equal(t, 0, s.ProgressPercent)
	assert.Equal(t, []string{"Please select at least one student"}, s.Errors)
	assert.Empty(t, s.BatchID)
}

func TestBatchStateMachineEmptySelectionLeavesRunningBatchAlone(t *testing.T) {
	m := newTestMachine(nil)
	id, err := m.Start(models.BatchKindSave, "Saving", []string{"s1"})
	require.NoError(t, err)
	m.UpdateProgress(id, 40)

	_, err = m.Start(models.BatchKindPrint, "", nil)
	assert.ErrorIs(t, err, appErrors.ErrEmptySelection)

	s := m.Snapshot()
	assert.Equal(t, id, s.BatchID)
	assert.Equal(t, models.BatchStatusRunning, s.Status)
	assert.Equal(t, 40, s.ProgressPercent)
	assert.Empty(t, s.Errors)
}

func TestBatchStateMachineLifecycle(t *testing.T) {
	m := newTestMachine(nil)
	var seen []models.BatchSnapshot
	m.OnChange(func(s models.BatchSnapshot) { seen = append(seen, s) })

	id, err := m.Start(models.BatchKindPrint, "Preparing", []string{"s1", "s2"})
	require.NoError(t, err)
	assert.Equal(t, "b1", id)

	s := m.Snapshot()
	assert.Equal(t, models.BatchStatusRunning, s.Status)
	assert.Equal(t, models.BatchKindPrint, s.Kind)
	assert.Equal(t, []string{"s1", "s2"}, s.TargetIDs)
	require.NotNil(t, s.StartedAt)

	assert.True(t, m.SetPhase(id, "Printing 1 of 2: Ayu"))
	assert.True(t, m.UpdateProgress(id, 50))
	assert.True(t, m.Finish(id, []string{"Budi: printer offline"}))

	s = m.Snapshot()
	assert.Equal(t, models.BatchStatusSettled, s.Status)
	assert.Equal(t, 100, s.ProgressPercent)
	assert.Equal(t, []string{"Budi: printer offline"}, s.Errors)
	assert.Equal(t, "Printing 1 of 2: Ayu", s.PhaseLabel)
	require.NotNil(t, s.FinishedAt)
	assert.Len(t, seen, 4)

	assert.False(t, m.UpdateProgress(id, 10), "settled batches take no more progress")
	assert.False(t, m.Finish(id, nil))
}

func TestBatchStateMachineProgressNeverGoesBackwards(t *testing.T) {
	m := newTestMachine(nil)
	id, err := m.Start(models.BatchKindSave, "", []string{"s1"})
	require.NoError(t, err)

	m.UpdateProgress(id, 60)
	m.UpdateProgress(id, 30)
	assert.Equal(t, 60, m.Snapshot().ProgressPercent)

	m.UpdateProgress(id, 250)
	assert.Equal(t, 100, m.Snapshot().ProgressPercent)
}

func TestBatchStateMachineDropsStaleUpdates(t *testing.T) {
	metrics := NewMetricsService()
	m := newTestMachine(metrics)

	old, err := m.Start(models.BatchKindPrint, "old", []string{"s1", "s2"})
	require.NoError(t, err)
	m.UpdateProgress(old, 50)

	current, err := m.Start(models.BatchKindSave, "new", []string{"s3"})
	require.NoError(t, err)
	assert.NotEqual(t, old, current)
	assert.Equal(t, 0, m.Snapshot().ProgressPercent, "a new batch starts from zero")

	assert.False(t, m.UpdateProgress(old, 90))
	assert.False(t, m.SetPhase(old, "old phase"))
	assert.False(t, m.RecordOutput(old, models.BatchOutput{StudentID: "s1"}))
	assert.False(t, m.Finish(old, []string{"late"}))

	s := m.Snapshot()
	assert.Equal(t, current, s.BatchID)
	assert.Equal(t, 0, s.ProgressPercent)
	assert.Equal(t, "new", s.PhaseLabel)
	assert.Empty(t, s.Errors)
	assert.Empty(t, s.Outputs)
	assert.Equal(t, models.BatchStatusRunning, s.Status)
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.staleUpdates))

	assert.False(t, m.UpdateProgress("", 10))
}

func TestBatchStateMachineRecordOutput(t *testing.T) {
	m := newTestMachine(nil)
	id, err := m.Start(models.BatchKindSave, "", []string{"s1"})
	require.NoError(t, err)

	assert.True(t, m.RecordOutput(id, models.BatchOutput{StudentID: "s1", FileName: "ayu.pdf"}))
	s := m.Snapshot()
	require.Len(t, s.Outputs, 1)
	assert.Equal(t, "ayu.pdf", s.Outputs[0].FileName)
}

func TestBatchStateMachineClearErrors(t *testing.T) {
	m := newTestMachine(nil)
	id, err := m.Start(models.BatchKindPrint, "", []string{"s1"})
	require.NoError(t, err)

	err = m.ClearErrors()
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))

	m.Finish(id, []string{"s1: failed"})
	require.NoError(t, m.ClearErrors())

	s := m.Snapshot()
	assert.Empty(t, s.Errors)
	assert.Equal(t, 100, s.ProgressPercent)
	assert.Equal(t, models.BatchKindPrint, s.Kind)
	assert.Equal(t, models.BatchStatusSettled, s.Status)
}

func TestBatchStateMachineSetErrors(t *testing.T) {
	m := newTestMachine(nil)
	require.NoError(t, m.SetErrors([]string{"report renderer is unavailable"}))
	s := m.Snapshot()
	assert.Equal(t, models.BatchStatusIdle, s.Status)
	assert.Equal(t, []string{"report renderer is unavailable"}, s.Errors)

	_, err := m.Start(models.BatchKindSave, "", []string{"s1"})
	require.NoError(t, err)
	err = m.SetErrors([]string{"x"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
	assert.Empty(t, m.Snapshot().Errors)
}

func TestBatchStateMachineRejectsUnknownKind(t *testing.T) {
	m := newTestMachine(nil)
	_, err := m.Start(models.BatchKind("fax"), "", []string{"s1"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	assert.Equal(t, models.BatchStatusIdle, m.Snapshot().Status)
}

func TestBatchStateMachineSnapshotIsACopy(t *testing.T) {
	m := newTestMachine(nil)
	_, err := m.Start(models.BatchKindSave, "", []string{"s1"})
	require.NoError(t, err)

	s := m.Snapshot()
	s.TargetIDs[0] = "changed"
	assert.Equal(t, []string{"s1"}, m.Snapshot().TargetIDs)
}
