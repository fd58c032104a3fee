package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-batch/internal/models"
	appErrors "github.com/noah-isme/sma-report-batch/pkg/errors"
)

type rosterRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
}

type scoreRepository interface {
	ScoreTable(ctx context.Context, classID string) (models.ScoreTable, error)
	Subjects(ctx context.Context, classID string) ([]string, error)
	Version(ctx context.Context, classID string) (string, error)
}

// RankingService loads roster and scores for a class and memoizes the
// computed ranking by class and score table version.
type RankingService struct {
	students rosterRepository
	scores   scoreRepository
	cache    *CacheService
	ttl      time.Duration
	logger   *zap.Logger
}

// NewRankingService constructs a RankingService. cache may be nil.
func NewRankingService(students rosterRepository, scores scoreRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *RankingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RankingService{students: students, scores: scores, cache: cache, ttl: ttl, logger: logger}
}

// ClassRanking returns the ranking of classID over subjects, or over every
// scored subject of the class when subjects is empty.
func (s *RankingService) ClassRanking(ctx context.Context, classID string, subjects []string) (*models.ClassRanking, error) {
	classID = strings.TrimSpace(classID)
	if classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class id is required")
	}

	version, err := s.scores.Version(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read score table version")
	}
	key := rankingCacheKey(classID, version, subjects)

	var cached models.ClassRanking
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	if len(subjects) == 0 {
		subjects, err = s.scores.Subjects(ctx, classID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
		}
	}
	if len(subjects) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no subjects have been scored for this class")
	}

	roster, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
	}
	table, err := s.scores.ScoreTable(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score table")
	}

	results, err := ComputeClassRanking(roster, table, subjects)
	if err != nil {
		return nil, err
	}
	ranking := &models.ClassRanking{ClassID: classID, Version: version, Subjects: subjects, Results: results}

	if err := s.cache.Set(ctx, key, ranking, s.ttl); err != nil {
		s.logger.Debug("ranking not cached", zap.String("class_id", classID), zap.Error(err))
	}
	return ranking, nil
}

func rankingCacheKey(classID, version string, subjects []string) string {
	if len(subjects) == 0 {
		return fmt.Sprintf("ranking:%s:%s", classID, version)
	}
	return fmt.Sprintf("ranking:%s:%s:%s", classID, version, strings.Join(subjects, ","))
}
