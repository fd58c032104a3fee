package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PrintJob is one entry handed to the print spooler.
type PrintJob struct {
	BatchID     string
	StudentID   string
	StudentName string
	FilePath    string
	Copies      int
	QueuedAt    time.Time
}

// PrintQueueRepository appends print jobs to a Redis stream consumed by the
// spooler attached to the school printers.
type PrintQueueRepository struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewPrintQueueRepository constructs the repository. client may be nil when Redis is disabled.
func NewPrintQueueRepository(client *redis.Client, stream string, maxLen int64) *PrintQueueRepository {
	if stream == "" {
		stream = "reports:print"
	}
	return &PrintQueueRepository{client: client, stream: stream, maxLen: maxLen}
}

// Enabled reports whether a stream backend is configured.
func (r *PrintQueueRepository) Enabled() bool {
	return r != nil && r.client != nil
}

// Stream returns the target stream name.
func (r *PrintQueueRepository) Stream() string {
	return r.stream
}

// Append adds job to the stream and returns the entry id.
func (r *PrintQueueRepository) Append(ctx context.Context, job PrintJob) (string, error) {
	if !r.Enabled() {
		return "", fmt.Errorf("print stream %s: redis disabled", r.stream)
	}
	if job.Copies <= 0 {
		job.Copies = 1
	}
	if job.QueuedAt.IsZero() {
		job.QueuedAt = time.Now().UTC()
	}
	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]interface{}{
			"batch_id":     job.BatchID,
			"student_id":   job.StudentID,
			"student_name": job.StudentName,
			"file":         job.FilePath,
			"copies":       job.Copies,
			"queued_at":    job.QueuedAt.Format(time.RFC3339),
		},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}
	id, err := r.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("append print job to %s: %w", r.stream, err)
	}
	return id, nil
}
