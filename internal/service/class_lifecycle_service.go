package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/studymate-api/internal/models"
	"github.com/noah-isme/studymate-api/pkg/jobs"
)

// JobClassLifecycle is the job type handled by ClassLifecycleService.
const JobClassLifecycle = "class_lifecycle"

type classLifecycleStore interface {
	Activate(ctx context.Context, now time.Time) (int64, error)
	Complete(ctx context.Context, now time.Time) (int64, error)
	ListByStatus(ctx context.Context, classType models.ClassType, statuses ...models.ClassStatus) ([]models.TuitionClass, error)
}

// ClassLifecycleResult summarises one lifecycle pass.
type ClassLifecycleResult struct {
	Activated int64 `json:"activated"`
	Completed int64 `json:"completed"`
	Generated int   `json:"generated"`
	Failed    int   `json:"failed"`
}

// ClassLifecycleService moves classes through their dated statuses and keeps
// group classes generated ahead of time.
type ClassLifecycleService struct {
	classes   classLifecycleStore
	generator groupSessionGenerator
	logger    *zap.Logger
	now       func() time.Time
}

// NewClassLifecycleService constructs the lifecycle runner.
func NewClassLifecycleService(classes classLifecycleStore, generator groupSessionGenerator, logger *zap.Logger) *ClassLifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassLifecycleService{classes: classes, generator: generator, logger: logger, now: time.Now}
}

// Run activates started classes, completes ended ones and pre-generates
// sessions for every bookable group class. A failing class does not stop the pass.
func (s *ClassLifecycleService) Run(ctx context.Context) (ClassLifecycleResult, error) {
	var result ClassLifecycleResult
	now := s.now().UTC()

	activated, err := s.classes.Activate(ctx, now)
	if err != nil {
		return result, fmt.Errorf("activate classes: %w", err)
	}
	result.Activated = activated

	completed, err := s.classes.Complete(ctx, now)
	if err != nil {
		return result, fmt.Errorf("complete classes: %w", err)
	}
	result.Completed = completed

	classes, err := s.classes.ListByStatus(ctx, models.ClassTypeGroup, models.ClassStatusPublished, models.ClassStatusActive)
	if err != nil {
		return result, fmt.Errorf("list group classes: %w", err)
	}
	for _, class := range classes {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		created, err := s.generator.EnsureGroupSessions(ctx, class.ID)
		if err != nil {
			result.Failed++
			s.logger.Warn("pre-generation failed", zap.String("class_id", class.ID), zap.Error(err))
			continue
		}
		result.Generated += created
	}

	s.logger.Info("class lifecycle pass finished",
		zap.Int64("activated", result.Activated),
		zap.Int64("completed", result.Completed),
		zap.Int("generated", result.Generated),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// Handle adapts Run to a jobs.Handler.
func (s *ClassLifecycleService) Handle(ctx context.Context, job jobs.Job) error {
	if job.Type != JobClassLifecycle {
		return fmt.Errorf("unexpected job type %q", job.Type)
	}
	_, err := s.Run(ctx)
	return err
}

// ClassLifecycleJob builds the periodic lifecycle job for a tick.
func ClassLifecycleJob(at time.Time) jobs.Job {
	return jobs.Job{ID: fmt.Sprintf("%s-%d", JobClassLifecycle, at.Unix()), Type: JobClassLifecycle}
}
