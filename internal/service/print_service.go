package service

import (
	"context"
	"path"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-batch/internal/models"
	"github.com/noah-isme/sma-report-batch/internal/repository"
	appErrors "github.com/noah-isme/sma-report-batch/pkg/errors"
)

type printSpool interface {
	Enabled() bool
	Append(ctx context.Context, job repository.PrintJob) (string, error)
}

// PrintService stages a report card on disk and queues it on the print spool.
type PrintService struct {
	storage reportStorage
	spool   printSpool
	logger  *zap.Logger
}

// NewPrintService constructs a PrintService.
func NewPrintService(storage reportStorage, spool printSpool, logger *zap.Logger) *PrintService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrintService{storage: storage, spool: spool, logger: logger}
}

// Print queues artifact. Without a spool the file is only staged and logged,
// which is how development setups run.
func (s *PrintService) Print(ctx context.Context, batchID string, artifact *models.Artifact) error {
	if artifact == nil || len(artifact.Data) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "empty report document")
	}
	rel, err := s.storage.Save(path.Join("print", batchID, artifact.FileName), artifact.Data)
	if err != nil {
		return err
	}
	if s.spool == nil || !s.spool.Enabled() {
		s.logger.Info("print spool disabled, report staged only", zap.String("batch_id", batchID), zap.String("path", rel))
		return nil
	}
	id, err := s.spool.Append(ctx, repository.PrintJob{
		BatchID:     batchID,
		StudentID:   artifact.StudentID,
		StudentName: artifact.StudentName,
		FilePath:    rel,
		Copies:      1,
	})
	if err != nil {
		return err
	}
	s.logger.Debug("print job queued", zap.String("batch_id", batchID), zap.String("entry_id", id))
	return nil
}
