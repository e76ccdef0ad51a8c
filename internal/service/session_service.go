package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/studymate-api/internal/dto"
	"github.com/noah-isme/studymate-api/internal/models"
	appErrors "github.com/noah-isme/studymate-api/pkg/errors"
	"github.com/noah-isme/studymate-api/pkg/meeting"
	"github.com/noah-isme/studymate-api/pkg/timeutil"
)

const upcomingCachePrefix = "sessions:upcoming:"

type sessionStore interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error)
	ListUpcoming(ctx context.Context, tutorID, studentID string, from time.Time) ([]models.Session, error)
	HasPendingRequest(ctx context.Context, classID, studentID string) (bool, error)
	Create(ctx context.Context, session *models.Session) error
	Update(ctx context.Context, session *models.Session) error
	SetMeetingLink(ctx context.Context, id, link string) error
}

type enrollmentChecker interface {
	IsEnrolled(ctx context.Context, classID, studentID string) (bool, error)
}

type groupSessionGenerator interface {
	EnsureGroupSessions(ctx context.Context, classID string) (int, error)
}

type sessionChecker interface {
	slotChecker
	AvailableSlots(ctx context.Context, tutorID string, date time.Time, durationMin, stepMin int) ([]models.AvailableSlot, error)
}

// MeetingRooms issues links and names rooms for sessions.
type MeetingRooms interface {
	MeetingLinkIssuer
	RoomName(sessionID string) string
	Provider() meeting.Provider
}

type joinTokenSigner interface {
	Sign(claims meeting.JoinClaims) (string, time.Time, error)
}

// SessionPolicy carries the tunable lifecycle rules.
type SessionPolicy struct {
	NoticePeriod           time.Duration
	TutorSkipsAvailability bool
	UpcomingTTL            time.Duration
}

// SessionService runs the session lifecycle: private requests, approval,
// cancellation, rescheduling, ad hoc group sessions and read paths.
type SessionService struct {
	sessions    sessionStore
	classes     classReader
	enrollments enrollmentChecker
	checker     sessionChecker
	generator   groupSessionGenerator
	rooms       MeetingRooms
	signer      joinTokenSigner
	locker      TutorLocker
	cache       *CacheService
	metrics     *MetricsService
	policy      SessionPolicy
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewSessionService wires the lifecycle manager.
func NewSessionService(
	sessions sessionStore,
	classes classReader,
	enrollments enrollmentChecker,
	checker sessionChecker,
	generator groupSessionGenerator,
	rooms MeetingRooms,
	signer joinTokenSigner,
	locker TutorLocker,
	cache *CacheService,
	metrics *MetricsService,
	policy SessionPolicy,
	validate *validator.Validate,
	logger *zap.Logger,
) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = NewLocalTutorLocker()
	}
	if policy.NoticePeriod <= 0 {
		policy.NoticePeriod = 12 * time.Hour
	}
	if policy.UpcomingTTL <= 0 {
		policy.UpcomingTTL = time.Minute
	}
	return &SessionService{
		sessions:    sessions,
		classes:     classes,
		enrollments: enrollments,
		checker:     checker,
		generator:   generator,
		rooms:       rooms,
		signer:      signer,
		locker:      locker,
		cache:       cache,
		metrics:     metrics,
		policy:      policy,
		validator:   newSchedulingValidator(validate),
		logger:      logger,
		now:         time.Now,
	}
}

// Create books a private session. Students create a request awaiting tutor
// approval; tutors create an already scheduled session.
func (s *SessionService) Create(ctx context.Context, actor *models.Actor, req dto.CreateSessionRequest) (*models.Session, error) {
	if !actor.IsStudent() && !actor.IsTutor() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only tutors and students can book sessions")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid session payload")
	}
	class, err := s.loadClass(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}
	if class.Type != models.ClassTypePrivate {
		return nil, appErrors.Clone(appErrors.ErrValidation, "not a private class")
	}
	if !class.Status.Bookable() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class is not accepting sessions")
	}
	if class.Capacity != 1 {
		return nil, appErrors.Internal(fmt.Errorf("private class %s has capacity %d", class.ID, class.Capacity), "private class misconfigured")
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	iv, err := intervalFrom(req.StartTime, req.Duration)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ClassID:     class.ID,
		TutorID:     class.TutorID,
		Date:        date,
		StartTime:   req.StartTime,
		DurationMin: req.Duration,
		SessionType: models.SessionTypeRegular,
	}
	skipAvailability := false
	if actor.IsStudent() {
		if err := s.requireEnrollment(ctx, class.ID, actor.StudentID); err != nil {
			return nil, err
		}
		pending, err := s.sessions.HasPendingRequest(ctx, class.ID, actor.StudentID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to check pending requests")
		}
		if pending {
			return nil, appErrors.Clone(appErrors.ErrValidation, "you already have a pending request for this class")
		}
		session.StudentID = stringPtr(actor.StudentID)
		session.Status = models.SessionStatusPendingApproval
		session.CreatedBy = models.CreatedByStudent
	} else {
		if class.TutorID != actor.TutorID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not own this class")
		}
		if req.StudentID != "" {
			if err := s.requireEnrollment(ctx, class.ID, req.StudentID); err != nil {
				return nil, err
			}
			session.StudentID = stringPtr(req.StudentID)
		}
		session.Status = models.SessionStatusScheduled
		session.CreatedBy = models.CreatedByTutor
		skipAvailability = s.policy.TutorSkipsAvailability
	}

	if !timeutil.At(date, iv.Start).After(s.now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrPastTime, "session must be scheduled in the future")
	}

	err = withTutorLock(ctx, s.locker, s.metrics, class.TutorID, func() error {
		cand := SlotCandidate{TutorID: class.TutorID, Date: date, Interval: iv, SkipAvailability: skipAvailability}
		if err := s.checker.Check(ctx, cand); err != nil {
			return err
		}
		if err := s.sessions.Create(ctx, session); err != nil {
			return appErrors.Internal(err, "failed to create session")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionStatusScheduled {
		s.attachLink(ctx, session)
	}
	s.recordTransition(ctx, session, "session created")
	return session, nil
}

// Approve moves a pending private request to SCHEDULED.
func (s *SessionService) Approve(ctx context.Context, actor *models.Actor, id string) (*models.Session, error) {
	session, err := s.pendingForTutor(ctx, actor, id, "approved")
	if err != nil {
		return nil, err
	}
	iv, err := session.Interval()
	if err != nil {
		return nil, appErrors.Internal(err, "stored session has malformed start time")
	}
	err = withTutorLock(ctx, s.locker, s.metrics, session.TutorID, func() error {
		cand := SlotCandidate{TutorID: session.TutorID, Date: session.Date, Interval: iv, ExcludeSessionID: session.ID, SkipAvailability: true}
		if err := s.checker.Check(ctx, cand); err != nil {
			return err
		}
		session.Status = models.SessionStatusScheduled
		if err := s.sessions.Update(ctx, session); err != nil {
			return appErrors.Internal(err, "failed to approve session")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.attachLink(ctx, session)
	s.recordTransition(ctx, session, "session approved")
	return session, nil
}

// Reject declines a pending private request.
func (s *SessionService) Reject(ctx context.Context, actor *models.Actor, id string) (*models.Session, error) {
	session, err := s.pendingForTutor(ctx, actor, id, "rejected")
	if err != nil {
		return nil, err
	}
	session.Status = models.SessionStatusCancelledByTutor
	session.MeetingLink = nil
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, appErrors.Internal(err, "failed to reject session")
	}
	s.recordTransition(ctx, session, "session rejected")
	return session, nil
}

// Cancel ends a session on behalf of its tutor or its student. Students need
// the configured notice and cannot cancel group sessions.
func (s *SessionService) Cancel(ctx context.Context, actor *models.Actor, id string) (*models.Session, error) {
	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidStateTransition, "session cannot be cancelled")
	}

	var next models.SessionStatus
	switch {
	case actor.IsStudent():
		class, err := s.loadClass(ctx, session.ClassID)
		if err != nil {
			return nil, err
		}
		if class.Type == models.ClassTypeGroup {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "students cannot cancel group sessions")
		}
		if session.StudentID == nil || *session.StudentID != actor.StudentID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not own this session")
		}
		next = models.SessionStatusCancelledByStudent
	case actor.IsTutor():
		if session.TutorID != actor.TutorID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not own this session")
		}
		next = models.SessionStatusCancelledByTutor
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only tutors and students can cancel sessions")
	}

	if err := s.checkLeadTime(session, actor, "cancel"); err != nil {
		return nil, err
	}

	session.Status = next
	session.MeetingLink = nil
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, appErrors.Internal(err, "failed to cancel session")
	}
	s.recordTransition(ctx, session, "session cancelled")
	return session, nil
}

// Reschedule moves a scheduled private session. The new slot must pass every
// check, availability included, whoever asks. A student move needs tutor
// re-approval and drops the meeting link; a tutor move keeps both.
func (s *SessionService) Reschedule(ctx context.Context, actor *models.Actor, id string, req dto.RescheduleSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid reschedule payload")
	}
	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.IsStudent():
		if session.StudentID == nil || *session.StudentID != actor.StudentID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not own this session")
		}
	case actor.IsTutor():
		if session.TutorID != actor.TutorID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not own this session")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only tutors and students can reschedule sessions")
	}

	class, err := s.loadClass(ctx, session.ClassID)
	if err != nil {
		return nil, err
	}
	if class.Type != models.ClassTypePrivate || session.SessionType != models.SessionTypeRegular {
		return nil, appErrors.Clone(appErrors.ErrInvalidStateTransition, "only private regular sessions can be rescheduled")
	}
	if session.Status != models.SessionStatusScheduled {
		return nil, appErrors.Clone(appErrors.ErrInvalidStateTransition, "only scheduled sessions can be rescheduled")
	}
	if err := s.checkLeadTime(session, actor, "reschedule"); err != nil {
		return nil, err
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	duration := req.Duration
	if duration == 0 {
		duration = session.DurationMin
	}
	iv, err := intervalFrom(req.StartTime, duration)
	if err != nil {
		return nil, err
	}
	start := timeutil.At(date, iv.Start)
	now := s.now().UTC()
	if !start.After(now) {
		return nil, appErrors.Clone(appErrors.ErrPastTime, "new time must be in the future")
	}
	if actor.IsStudent() && start.Sub(now) < s.policy.NoticePeriod {
		return nil, appErrors.Clone(appErrors.ErrInsufficientNotice, fmt.Sprintf("sessions must be rescheduled at least %s in advance", s.policy.NoticePeriod))
	}

	err = withTutorLock(ctx, s.locker, s.metrics, session.TutorID, func() error {
		cand := SlotCandidate{
			TutorID:          session.TutorID,
			Date:             date,
			Interval:         iv,
			ExcludeSessionID: session.ID,
		}
		if err := s.checker.Check(ctx, cand); err != nil {
			return err
		}
		session.Date = date
		session.StartTime = req.StartTime
		session.DurationMin = duration
		if actor.IsStudent() {
			session.Status = models.SessionStatusPendingApproval
			session.MeetingLink = nil
		}
		if err := s.sessions.Update(ctx, session); err != nil {
			return appErrors.Internal(err, "failed to reschedule session")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordTransition(ctx, session, "session rescheduled")
	return session, nil
}

// Complete marks a started session as held.
func (s *SessionService) Complete(ctx context.Context, actor *models.Actor, id string) (*models.Session, error) {
	tutorID, err := requireTutor(actor)
	if err != nil {
		return nil, err
	}
	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.TutorID != tutorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not own this session")
	}
	if session.Status != models.SessionStatusScheduled {
		return nil, appErrors.Clone(appErrors.ErrInvalidStateTransition, "only scheduled sessions can be completed")
	}
	start, err := session.StartsAt()
	if err != nil {
		return nil, appErrors.Internal(err, "stored session has malformed start time")
	}
	if start.After(s.now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrInvalidStateTransition, "session has not started yet")
	}
	session.Status = models.SessionStatusCompleted
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, appErrors.Internal(err, "failed to complete session")
	}
	s.recordTransition(ctx, session, "session completed")
	return session, nil
}

// CreateExtraSession adds a one-off extra session to a group class.
func (s *SessionService) CreateExtraSession(ctx context.Context, actor *models.Actor, classID string, req dto.CreateAdHocSessionRequest) (*models.Session, error) {
	return s.createAdHoc(ctx, actor, classID, req, models.SessionTypeExtra)
}

// CreateDboutSession adds a makeup session to a group class.
func (s *SessionService) CreateDboutSession(ctx context.Context, actor *models.Actor, classID string, req dto.CreateAdHocSessionRequest) (*models.Session, error) {
	return s.createAdHoc(ctx, actor, classID, req, models.SessionTypeDbout)
}

func (s *SessionService) createAdHoc(ctx context.Context, actor *models.Actor, classID string, req dto.CreateAdHocSessionRequest, kind models.SessionType) (*models.Session, error) {
	tutorID, err := requireTutor(actor)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid session payload")
	}
	class, err := s.loadClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class.TutorID != tutorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not own this class")
	}
	if class.Type != models.ClassTypeGroup {
		return nil, appErrors.Clone(appErrors.ErrValidation, "extra and makeup sessions are only allowed for group classes")
	}
	if !class.Status.Bookable() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class is not accepting sessions")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	iv, err := intervalFrom(req.StartTime, req.Duration)
	if err != nil {
		return nil, err
	}
	if !timeutil.At(date, iv.Start).After(s.now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrPastTime, "session must be scheduled in the future")
	}

	session := &models.Session{
		ClassID:     class.ID,
		TutorID:     tutorID,
		Date:        date,
		StartTime:   req.StartTime,
		DurationMin: req.Duration,
		SessionType: kind,
		Status:      models.SessionStatusScheduled,
		CreatedBy:   models.CreatedByTutor,
	}
	err = withTutorLock(ctx, s.locker, s.metrics, tutorID, func() error {
		cand := SlotCandidate{TutorID: tutorID, Date: date, Interval: iv, SkipAvailability: true}
		if err := s.checker.Check(ctx, cand); err != nil {
			return err
		}
		if err := s.sessions.Create(ctx, session); err != nil {
			return appErrors.Internal(err, "failed to create session")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.attachLink(ctx, session)
	s.recordTransition(ctx, session, "ad hoc session created")
	return session, nil
}

// Upcoming lists the actor's active sessions that start after now.
func (s *SessionService) Upcoming(ctx context.Context, actor *models.Actor) ([]models.Session, error) {
	var tutorID, studentID string
	switch {
	case actor.IsTutor():
		tutorID = actor.TutorID
	case actor.IsStudent():
		studentID = actor.StudentID
	default:
		return []models.Session{}, nil
	}

	now := s.now().UTC()
	key := upcomingCacheKey(actor)
	var sessions []models.Session
	if !s.cache.Get(ctx, key, &sessions) {
		var err error
		sessions, err = s.sessions.ListUpcoming(ctx, tutorID, studentID, timeutil.StartOfDay(now))
		if err != nil {
			return nil, appErrors.Internal(err, "failed to list upcoming sessions")
		}
		s.cache.Set(ctx, key, sessions, s.policy.UpcomingTTL)
	}

	upcoming := make([]models.Session, 0, len(sessions))
	for _, session := range sessions {
		start, err := session.StartsAt()
		if err != nil {
			s.logger.Warn("skipping session with malformed start time", zap.String("session_id", session.ID))
			continue
		}
		if start.After(now) {
			upcoming = append(upcoming, session)
		}
	}
	return upcoming, nil
}

// ListClassSessions returns a page of a class's sessions. Group classes are
// topped up to the rolling window before they are listed.
func (s *SessionService) ListClassSessions(ctx context.Context, actor *models.Actor, classID string, query dto.SessionQuery) ([]models.Session, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, validationError(err, "invalid session filter")
	}
	class, err := s.loadClass(ctx, classID)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case actor.IsTutor():
		if class.TutorID != actor.TutorID {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "you do not own this class")
		}
	case actor.IsStudent():
		if err := s.requireEnrollment(ctx, class.ID, actor.StudentID); err != nil {
			return nil, nil, err
		}
	case actor != nil && actor.Role == models.RoleAdmin:
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "forbidden")
	}

	if class.Type == models.ClassTypeGroup {
		if _, err := s.generator.EnsureGroupSessions(ctx, class.ID); err != nil {
			return nil, nil, err
		}
	}

	filter := models.SessionFilter{ClassID: class.ID, SessionType: models.SessionType(query.SessionType), Page: query.Page, Limit: query.Limit}
	if query.Status != "" {
		status := models.SessionStatus(query.Status)
		if !knownStatus(status) {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown session status")
		}
		filter.Statuses = []models.SessionStatus{status}
	}
	if filter.FromDate, err = parseOptionalDate(query.FromDate); err != nil {
		return nil, nil, err
	}
	if filter.ToDate, err = parseOptionalDate(query.ToDate); err != nil {
		return nil, nil, err
	}
	if filter.FromDate != nil && filter.ToDate != nil && filter.FromDate.After(*filter.ToDate) {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidRange, "from_date must not be after to_date")
	}

	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list sessions")
	}
	page, limit := models.Page(query.Page, query.Limit)
	return sessions, models.NewPagination(page, limit, total), nil
}

// JoinConfig returns what a participant needs to enter the session's room.
func (s *SessionService) JoinConfig(ctx context.Context, actor *models.Actor, id string) (*models.JoinConfig, error) {
	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.IsTutor():
		if session.TutorID != actor.TutorID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not a participant of this session")
		}
	case actor.IsStudent():
		if session.StudentID != nil {
			if *session.StudentID != actor.StudentID {
				return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not a participant of this session")
			}
		} else if err := s.requireEnrollment(ctx, session.ClassID, actor.StudentID); err != nil {
			return nil, err
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not a participant of this session")
	}
	if session.Status != models.SessionStatusScheduled {
		return nil, appErrors.Clone(appErrors.ErrInvalidStateTransition, "only scheduled sessions can be joined")
	}

	if session.MeetingLink == nil {
		s.attachLink(ctx, session)
		if session.MeetingLink == nil {
			return nil, appErrors.Internal(fmt.Errorf("no meeting link for session %s", session.ID), "meeting room unavailable")
		}
	}

	room := s.rooms.RoomName(session.ID)
	token, expiresAt, err := s.signer.Sign(meeting.JoinClaims{
		SessionID:   session.ID,
		Room:        room,
		DisplayName: actor.Name,
		Moderator:   actor.IsTutor(),
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign join token")
	}
	return &models.JoinConfig{
		Provider:    string(s.rooms.Provider()),
		RoomName:    room,
		MeetingLink: *session.MeetingLink,
		DisplayName: actor.Name,
		IsModerator: actor.IsTutor(),
		Token:       token,
		ExpiresAt:   expiresAt,
	}, nil
}

// AvailableSlots lists bookable start times for a tutor on a date. Slots that
// already started are dropped.
func (s *SessionService) AvailableSlots(ctx context.Context, tutorID string, query dto.AvailableSlotsQuery) ([]models.AvailableSlot, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, validationError(err, "invalid slot query")
	}
	date, err := parseDate(query.Date)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	today := timeutil.StartOfDay(now)
	if date.Before(today) {
		return []models.AvailableSlot{}, nil
	}
	slots, err := s.checker.AvailableSlots(ctx, tutorID, date, query.Duration, query.Step)
	if err != nil {
		return nil, err
	}
	if !timeutil.SameDay(date, now) {
		return slots, nil
	}
	nowMin := now.Hour()*60 + now.Minute()
	future := slots[:0]
	for _, slot := range slots {
		if m, err := timeutil.ToMinutes(slot.StartTime); err == nil && m > nowMin {
			future = append(future, slot)
		}
	}
	return future, nil
}

func (s *SessionService) pendingForTutor(ctx context.Context, actor *models.Actor, id, verb string) (*models.Session, error) {
	tutorID, err := requireTutor(actor)
	if err != nil {
		return nil, err
	}
	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.TutorID != tutorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not own this session")
	}
	class, err := s.loadClass(ctx, session.ClassID)
	if err != nil {
		return nil, err
	}
	if class.Type != models.ClassTypePrivate || session.SessionType != models.SessionTypeRegular {
		return nil, appErrors.Clone(appErrors.ErrInvalidStateTransition, fmt.Sprintf("only private regular sessions can be %s", verb))
	}
	if session.Status != models.SessionStatusPendingApproval {
		return nil, appErrors.Clone(appErrors.ErrInvalidStateTransition, fmt.Sprintf("only pending sessions can be %s", verb))
	}
	return session, nil
}

// checkLeadTime rejects changes to sessions that already started and, for
// students, changes inside the notice period.
func (s *SessionService) checkLeadTime(session *models.Session, actor *models.Actor, verb string) error {
	start, err := session.StartsAt()
	if err != nil {
		return appErrors.Internal(err, "stored session has malformed start time")
	}
	now := s.now().UTC()
	if !start.After(now) {
		return appErrors.Clone(appErrors.ErrPastTime, fmt.Sprintf("cannot %s a session that has already started", verb))
	}
	if actor.IsStudent() && start.Sub(now) < s.policy.NoticePeriod {
		return appErrors.Clone(appErrors.ErrInsufficientNotice, fmt.Sprintf("sessions must be changed at least %s in advance", s.policy.NoticePeriod))
	}
	return nil
}

func (s *SessionService) attachLink(ctx context.Context, session *models.Session) {
	if s.rooms == nil {
		return
	}
	link, err := s.rooms.IssueLink(ctx, session.ID)
	if err == nil {
		err = s.sessions.SetMeetingLink(ctx, session.ID, link)
	}
	if err != nil {
		s.metrics.RecordMeetingLinkFailure()
		s.logger.Warn("meeting link issuance failed", zap.String("session_id", session.ID), zap.Error(err))
		return
	}
	session.MeetingLink = &link
}

func (s *SessionService) recordTransition(ctx context.Context, session *models.Session, msg string) {
	s.metrics.RecordTransition(session.Status)
	s.cache.Invalidate(ctx, upcomingCachePrefix+"*")
	s.logger.Info(msg,
		zap.String("session_id", session.ID),
		zap.String("tutor_id", session.TutorID),
		zap.String("status", string(session.Status)),
	)
}

func (s *SessionService) loadSession(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "session not found", "failed to load session")
	}
	return session, nil
}

func (s *SessionService) loadClass(ctx context.Context, id string) (*models.TuitionClass, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "class not found", "failed to load class")
	}
	return class, nil
}

func (s *SessionService) requireEnrollment(ctx context.Context, classID, studentID string) error {
	enrolled, err := s.enrollments.IsEnrolled(ctx, classID, studentID)
	if err != nil {
		return appErrors.Internal(err, "failed to check enrollment")
	}
	if !enrolled {
		return appErrors.Clone(appErrors.ErrForbidden, "you are not enrolled in this class")
	}
	return nil
}

func upcomingCacheKey(actor *models.Actor) string {
	return fmt.Sprintf("%s%s:%s", upcomingCachePrefix, actor.Role, actor.UserID)
}

func knownStatus(status models.SessionStatus) bool {
	switch status {
	case models.SessionStatusPendingApproval, models.SessionStatusScheduled, models.SessionStatusCompleted,
		models.SessionStatusCancelledByTutor, models.SessionStatusCancelledByStudent:
		return true
	}
	return false
}
