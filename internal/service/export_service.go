package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-batch/internal/models"
	appErrors "github.com/noah-isme/sma-report-batch/pkg/errors"
	"github.com/noah-isme/sma-report-batch/pkg/export"
	"github.com/noah-isme/sma-report-batch/pkg/storage"
)

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type downloadStore interface {
	Open(filename string) (*os.File, error)
}

type downloadTokenParser interface {
	Parse(token string, allowExpired bool) (*storage.Grant, error)
}

// Broadsheet formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// ExportFile is a rendered file ready to be streamed.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Download is an opened saved report card.
type Download struct {
	File      *os.File
	Name      string
	Size      int64
	ExpiresAt time.Time
}

// ExportService renders class broadsheets and resolves signed download links.
type ExportService struct {
	rankings classRanker
	store    downloadStore
	tokens   downloadTokenParser
	csv      datasetRenderer
	pdf      datasetRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(rankings classRanker, store downloadStore, tokens downloadTokenParser, csv, pdf datasetRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{rankings: rankings, store: store, tokens: tokens, csv: csv, pdf: pdf, logger: logger}
}

// Broadsheet renders the ranking of a class as CSV or PDF.
func (s *ExportService) Broadsheet(ctx context.Context, classID, format string, subjects []string) (*ExportFile, error) {
	var renderer datasetRenderer
	contentType := ""
	switch format {
	case FormatCSV:
		renderer, contentType = s.csv, "text/csv; charset=utf-8"
	case FormatPDF:
		renderer, contentType = s.pdf, "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	ranking, err := s.rankings.ClassRanking(ctx, classID, subjects)
	if err != nil {
		return nil, err
	}
	data, err := renderer.Render(BroadsheetDataset(ranking))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render broadsheet")
	}
	name := fmt.Sprintf("broadsheet_%s_%s.%s", sanitizeFilename(classID), time.Now().UTC().Format("20060102_150405"), format)
	return &ExportFile{Name: name, ContentType: contentType, Data: data}, nil
}

// OpenDownload validates token and opens the saved file it points at.
func (s *ExportService) OpenDownload(token string) (*Download, error) {
	grant, err := s.tokens.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "download not found")
	}
	file, err := s.store.Open(grant.Path)
	if err != nil {
		s.logger.Warn("saved report missing", zap.String("batch_id", grant.BatchID), zap.String("path", grant.Path), zap.Error(err))
		return nil, appErrors.Clone(appErrors.ErrNotFound, "download not found")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read saved report")
	}
	return &Download{File: file, Name: path.Base(grant.Path), Size: info.Size(), ExpiresAt: grant.ExpiresAt}, nil
}

// BroadsheetDataset lays a ranking out as one row per student, best first.
// Unranked students come last.
func BroadsheetDataset(ranking *models.ClassRanking) export.Dataset {
	headers := append([]string{"Position", "Student"}, ranking.Subjects...)
	headers = append(headers, "Total", "Average", "Grade")

	results := append([]models.RankResult{}, ranking.Results...)
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Position, results[j].Position
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})

	rows := make([]map[string]string, 0, len(results))
	for _, res := range results {
		row := map[string]string{
			"Position": FormatPosition(res),
			"Student":  res.StudentName,
			"Total":    strconv.FormatFloat(res.TotalScore, 'f', -1, 64),
			"Average":  strconv.FormatFloat(res.Average, 'f', 2, 64),
			"Grade":    orDash(res.OverallGrade),
		}
		for _, line := range res.Subjects {
			if line.Complete {
				row[line.Subject] = strconv.FormatFloat(line.Total, 'f', -1, 64)
			} else {
				row[line.Subject] = "-"
			}
		}
		rows = append(rows, row)
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Class Broadsheet %s", ranking.ClassID),
		Headers: headers,
		Rows:    rows,
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	result := fileNameUnsafe.ReplaceAllString(raw, "_")
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
