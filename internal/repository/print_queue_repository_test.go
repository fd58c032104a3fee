package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHook answers commands in process without touching the network.
type recordingHook struct {
	args []interface{}
	err  error
}

func (h *recordingHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("dial not expected")
	}
}

func (h *recordingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.args = cmd.Args()
		if h.err != nil {
			cmd.SetErr(h.err)
			return h.err
		}
		if sc, ok := cmd.(*redis.StringCmd); ok {
			sc.SetVal("1700000000000-0")
		}
		return nil
	}
}

func (h *recordingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func newHookedClient(t *testing.T, hook *recordingHook) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(hook)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestPrintQueueRepositoryAppend(t *testing.T) {
	hook := &recordingHook{}
	repo := NewPrintQueueRepository(newHookedClient(t, hook), "reports:print", 1000)
	require.True(t, repo.Enabled())

	queuedAt := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	id, err := repo.Append(context.Background(), PrintJob{
		BatchID:     "b1",
		StudentID:   "s1",
		StudentName: "Ayu Lestari",
		FilePath:    "print/b1/ayu.pdf",
		QueuedAt:    queuedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, "1700000000000-0", id)

	require.GreaterOrEqual(t, len(hook.args), 6)
	assert.Equal(t, []interface{}{"xadd", "reports:print", "maxlen", "~", int64(1000), "*"}, hook.args[:6])

	values := map[string]string{}
	rest := hook.args[6:]
	require.Zero(t, len(rest)%2)
	for i := 0; i < len(rest); i += 2 {
		values[fmt.Sprint(rest[i])] = fmt.Sprint(rest[i+1])
	}
	assert.Equal(t, map[string]string{
		"batch_id":     "b1",
		"student_id":   "s1",
		"student_name": "Ayu Lestari",
		"file":         "print/b1/ayu.pdf",
		"copies":       "1",
		"queued_at":    "2024-07-01T08:00:00Z",
	}, values)
}

func TestPrintQueueRepositoryAppendUncapped(t *testing.T) {
	hook := &recordingHook{}
	repo := NewPrintQueueRepository(newHookedClient(t, hook), "reports:print", 0)

	_, err := repo.Append(context.Background(), PrintJob{BatchID: "b1", StudentID: "s1", Copies: 2})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"xadd", "reports:print", "*"}, hook.args[:3])
	assert.NotContains(t, hook.args, "maxlen")
}

func TestPrintQueueRepositoryAppendError(t *testing.T) {
	hook := &recordingHook{err: errors.New("READONLY replica")}
	repo := NewPrintQueueRepository(newHookedClient(t, hook), "reports:print", 1000)

	_, err := repo.Append(context.Background(), PrintJob{BatchID: "b1", StudentID: "s1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, hook.err)
	assert.Contains(t, err.Error(), "append print job to reports:print")
}
