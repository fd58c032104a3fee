package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cleanerStub struct {
	ttl     time.Duration
	deleted []string
	err     error
	calls   int
}

func (c *cleanerStub) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	c.calls++
	c.ttl = ttl
	return c.deleted, c.err
}

func TestCleanupServiceRunOnce(t *testing.T) {
	cleaner := &cleanerStub{deleted: []string{"saved/b1/a.pdf", "print/b1/a.pdf"}}
	svc := NewCleanupService(cleaner, 24*time.Hour, "", nil)

	assert.Equal(t, 2, svc.RunOnce())
	assert.Equal(t, 24*time.Hour, cleaner.ttl)

	cleaner.err = errors.New("permission denied")
	assert.Equal(t, 0, svc.RunOnce())
}

func TestCleanupServiceStartStop(t *testing.T) {
	svc := NewCleanupService(&cleanerStub{}, time.Hour, "@every 1h", nil)
	require.NoError(t, svc.Start())
	svc.Stop()

	bad := NewCleanupService(&cleanerStub{}, time.Hour, "not a schedule", nil)
	assert.Error(t, bad.Start())
	bad.Stop()
}
