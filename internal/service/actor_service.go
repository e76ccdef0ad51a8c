package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/studymate-api/internal/models"
	appErrors "github.com/noah-isme/studymate-api/pkg/errors"
)

type profileRepository interface {
	TutorIDByUser(ctx context.Context, userID string) (string, error)
	StudentIDByUser(ctx context.Context, userID string) (string, error)
}

// ActorService resolves token claims into the tutor or student acting on a request.
type ActorService struct {
	profiles profileRepository
	logger   *zap.Logger
}

// NewActorService constructs an ActorService.
func NewActorService(profiles profileRepository, logger *zap.Logger) *ActorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActorService{profiles: profiles, logger: logger}
}

// Resolve maps claims to an Actor. Tutors and students without a profile are rejected.
func (s *ActorService) Resolve(ctx context.Context, claims *models.JWTClaims) (*models.Actor, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing claims")
	}
	actor := &models.Actor{UserID: claims.UserID, Role: claims.Role, Name: claims.FullName}
	switch claims.Role {
	case models.RoleTutor:
		id, err := s.profiles.TutorIDByUser(ctx, claims.UserID)
		if err != nil {
			return nil, s.profileError(err, "tutor")
		}
		actor.TutorID = id
	case models.RoleStudent:
		id, err := s.profiles.StudentIDByUser(ctx, claims.UserID)
		if err != nil {
			return nil, s.profileError(err, "student")
		}
		actor.StudentID = id
	case models.RoleAdmin:
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "unsupported role")
	}
	return actor, nil
}

func (s *ActorService) profileError(err error, kind string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, kind+" account not found")
	}
	s.logger.Error("resolve actor profile", zap.String("kind", kind), zap.Error(err))
	return appErrors.Internal(err, "failed to resolve "+kind+" profile")
}
