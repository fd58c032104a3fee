package service

import (
	"context"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-batch/internal/models"
	appErrors "github.com/noah-isme/sma-report-batch/pkg/errors"
)

type reportStorage interface {
	Save(filename string, data []byte) (string, error)
}

type downloadSigner interface {
	Generate(batchID, relPath string) (string, time.Time, error)
}

// SaveService writes report cards to the export directory and hands back a
// signed download link for each one.
type SaveService struct {
	storage     reportStorage
	signer      downloadSigner
	downloadURL string
	logger      *zap.Logger
}

// NewSaveService constructs a SaveService. downloadURL is the public prefix
// the token is appended to, for example "/api/v1/export/".
func NewSaveService(storage reportStorage, signer downloadSigner, downloadURL string, logger *zap.Logger) *SaveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !strings.HasSuffix(downloadURL, "/") {
		downloadURL += "/"
	}
	return &SaveService{storage: storage, signer: signer, downloadURL: downloadURL, logger: logger}
}

// Save stores artifact under the batch directory.
func (s *SaveService) Save(ctx context.Context, batchID string, artifact *models.Artifact) (*models.BatchOutput, error) {
	if artifact == nil || len(artifact.Data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty report document")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := s.storage.Save(path.Join("saved", batchID, artifact.FileName), artifact.Data)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(batchID, rel)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("report saved", zap.String("batch_id", batchID), zap.String("path", rel))
	return &models.BatchOutput{
		StudentID: artifact.StudentID,
		FileName:  artifact.FileName,
		URL:       s.downloadURL + token,
		ExpiresAt: expiresAt,
	}, nil
}
