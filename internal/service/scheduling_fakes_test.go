package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/studymate-api/internal/models"
	"github.com/noah-isme/studymate-api/internal/repository"
	"github.com/noah-isme/studymate-api/pkg/meeting"
	"github.com/noah-isme/studymate-api/pkg/timeutil"
)

func day(raw string) time.Time {
	d, err := timeutil.ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func fixedClock(raw string) func() time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func tutorActor(tutorID string) *models.Actor {
	return &models.Actor{UserID: "user-" + tutorID, Role: models.RoleTutor, Name: "Tutor " + tutorID, TutorID: tutorID}
}

func studentActor(studentID string) *models.Actor {
	return &models.Actor{UserID: "user-" + studentID, Role: models.RoleStudent, Name: "Student " + studentID, StudentID: studentID}
}

type fakeAvailabilityRepo struct {
	mu    sync.Mutex
	seq   int
	items map[string]models.TutorAvailability
}

func newFakeAvailabilityRepo(windows ...models.TutorAvailability) *fakeAvailabilityRepo {
	r := &fakeAvailabilityRepo{items: map[string]models.TutorAvailability{}}
	for _, w := range windows {
		w := w
		_ = r.Create(context.Background(), &w)
	}
	return r
}

func (r *fakeAvailabilityRepo) List(ctx context.Context, tutorID string, filter models.AvailabilityFilter) ([]models.TutorAvailability, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TutorAvailability
	for _, w := range r.items {
		if w.TutorID != tutorID {
			continue
		}
		if filter.DayOfWeek != "" && w.DayOfWeek != filter.DayOfWeek {
			continue
		}
		if filter.IsActive != nil && w.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *fakeAvailabilityRepo) ListActiveByDay(ctx context.Context, tutorID string, d models.DayOfWeek) ([]models.TutorAvailability, error) {
	active := true
	all, _, _ := r.List(ctx, tutorID, models.AvailabilityFilter{DayOfWeek: d, IsActive: &active})
	return all, nil
}

func (r *fakeAvailabilityRepo) FindByID(ctx context.Context, id string) (*models.TutorAvailability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &w, nil
}

func (r *fakeAvailabilityRepo) Create(ctx context.Context, w *models.TutorAvailability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w.ID == "" {
		r.seq++
		w.ID = fmt.Sprintf("avail-%d", r.seq)
	}
	r.items[w.ID] = *w
	return nil
}

func (r *fakeAvailabilityRepo) Update(ctx context.Context, w *models.TutorAvailability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[w.ID] = *w
	return nil
}

func (r *fakeAvailabilityRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

type fakeTimeOffRepo struct {
	mu    sync.Mutex
	seq   int
	items map[string]models.TutorTimeOff
}

func newFakeTimeOffRepo(blocks ...models.TutorTimeOff) *fakeTimeOffRepo {
	r := &fakeTimeOffRepo{items: map[string]models.TutorTimeOff{}}
	for _, b := range blocks {
		b := b
		_ = r.Create(context.Background(), &b)
	}
	return r
}

func (r *fakeTimeOffRepo) List(ctx context.Context, tutorID string, filter models.DateRangeFilter) ([]models.TutorTimeOff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TutorTimeOff
	for _, b := range r.items {
		if b.TutorID != tutorID {
			continue
		}
		if filter.FromDate != nil && b.Date.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && b.Date.After(*filter.ToDate) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *fakeTimeOffRepo) ListByDate(ctx context.Context, tutorID string, date time.Time) ([]models.TutorTimeOff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TutorTimeOff
	for _, b := range r.items {
		if b.TutorID == tutorID && timeutil.SameDay(b.Date, date) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeTimeOffRepo) FindByID(ctx context.Context, id string) (*models.TutorTimeOff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &b, nil
}

func (r *fakeTimeOffRepo) Create(ctx context.Context, b *models.TutorTimeOff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == "" {
		r.seq++
		b.ID = fmt.Sprintf("timeoff-%d", r.seq)
	}
	r.items[b.ID] = *b
	return nil
}

func (r *fakeTimeOffRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

type fakeLeaveRepo struct {
	mu    sync.Mutex
	seq   int
	items map[string]models.TutorLeave
}

func newFakeLeaveRepo(leaves ...models.TutorLeave) *fakeLeaveRepo {
	r := &fakeLeaveRepo{items: map[string]models.TutorLeave{}}
	for _, l := range leaves {
		l := l
		_ = r.Create(context.Background(), &l)
	}
	return r
}

func (r *fakeLeaveRepo) List(ctx context.Context, tutorID string, filter models.DateRangeFilter) ([]models.TutorLeave, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TutorLeave
	for _, l := range r.items {
		if l.TutorID != tutorID {
			continue
		}
		if filter.FromDate != nil && l.EndDate.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && l.StartDate.After(*filter.ToDate) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *fakeLeaveRepo) ListOverlapping(ctx context.Context, tutorID string, start, end time.Time) ([]models.TutorLeave, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TutorLeave
	for _, l := range r.items {
		if l.TutorID == tutorID && l.OverlapsRange(start, end) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeLeaveRepo) FindByID(ctx context.Context, id string) (*models.TutorLeave, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &l, nil
}

func (r *fakeLeaveRepo) Create(ctx context.Context, l *models.TutorLeave) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		r.seq++
		l.ID = fmt.Sprintf("leave-%d", r.seq)
	}
	r.items[l.ID] = *l
	return nil
}

func (r *fakeLeaveRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

// fakeSessionRepo mirrors SessionRepository, including the unique index on
// template-generated sessions.
type fakeSessionRepo struct {
	mu        sync.Mutex
	seq       int
	items     map[string]models.Session
	createErr error
	links     map[string]string
}

func newFakeSessionRepo(sessions ...models.Session) *fakeSessionRepo {
	r := &fakeSessionRepo{items: map[string]models.Session{}, links: map[string]string{}}
	for _, s := range sessions {
		s := s
		_ = r.Create(context.Background(), &s)
	}
	return r
}

func (r *fakeSessionRepo) FindByID(ctx context.Context, id string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (r *fakeSessionRepo) ListByTutorDate(ctx context.Context, tutorID string, date time.Time, statuses []models.SessionStatus) ([]models.Session, error) {
	return r.filter(func(s models.Session) bool {
		return s.TutorID == tutorID && timeutil.SameDay(s.Date, date) && hasStatus(statuses, s.Status)
	}), nil
}

func (r *fakeSessionRepo) ListByTutorRange(ctx context.Context, tutorID string, from, to *time.Time, statuses []models.SessionStatus) ([]models.Session, error) {
	return r.filter(func(s models.Session) bool {
		if s.TutorID != tutorID || !hasStatus(statuses, s.Status) {
			return false
		}
		if from != nil && s.Date.Before(*from) {
			return false
		}
		return to == nil || !s.Date.After(*to)
	}), nil
}

func (r *fakeSessionRepo) ListRegularDates(ctx context.Context, classID string, from, to time.Time) ([]time.Time, error) {
	var dates []time.Time
	for _, s := range r.filter(func(s models.Session) bool {
		return s.ClassID == classID && s.SessionType == models.SessionTypeRegular && s.CreatedBy == models.CreatedBySystem &&
			!s.Date.Before(from) && !s.Date.After(to)
	}) {
		dates = append(dates, s.Date)
	}
	return dates, nil
}

func (r *fakeSessionRepo) HasPendingRequest(ctx context.Context, classID, studentID string) (bool, error) {
	return len(r.filter(func(s models.Session) bool {
		return s.ClassID == classID && s.StudentID != nil && *s.StudentID == studentID && s.Status == models.SessionStatusPendingApproval
	})) > 0, nil
}

func (r *fakeSessionRepo) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	all := r.filter(func(s models.Session) bool {
		if filter.ClassID != "" && s.ClassID != filter.ClassID {
			return false
		}
		if len(filter.Statuses) > 0 && !hasStatus(filter.Statuses, s.Status) {
			return false
		}
		if filter.SessionType != "" && s.SessionType != filter.SessionType {
			return false
		}
		if filter.FromDate != nil && s.Date.Before(*filter.FromDate) {
			return false
		}
		return filter.ToDate == nil || !s.Date.After(*filter.ToDate)
	})
	page, limit := models.Page(filter.Page, filter.Limit)
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (r *fakeSessionRepo) ListUpcoming(ctx context.Context, tutorID, studentID string, from time.Time) ([]models.Session, error) {
	return r.filter(func(s models.Session) bool {
		if tutorID != "" && s.TutorID != tutorID {
			return false
		}
		if studentID != "" && (s.StudentID == nil || *s.StudentID != studentID) {
			return false
		}
		return hasStatus(models.ActiveSessionStatuses, s.Status) && !s.Date.Before(from)
	}), nil
}

func (r *fakeSessionRepo) Create(ctx context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if s.SessionType == models.SessionTypeRegular && s.CreatedBy == models.CreatedBySystem {
		for _, existing := range r.items {
			if existing.ClassID == s.ClassID && existing.SessionType == models.SessionTypeRegular &&
				existing.CreatedBy == models.CreatedBySystem && timeutil.SameDay(existing.Date, s.Date) {
				return repository.ErrDuplicateSession
			}
		}
	}
	if s.ID == "" {
		r.seq++
		s.ID = fmt.Sprintf("session-%d", r.seq)
	}
	r.items[s.ID] = *s
	return nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[s.ID]; !ok {
		return sql.ErrNoRows
	}
	r.items[s.ID] = *s
	return nil
}

func (r *fakeSessionRepo) SetMeetingLink(ctx context.Context, id, link string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.MeetingLink = &link
	r.items[id] = s
	r.links[id] = link
	return nil
}

func (r *fakeSessionRepo) ListForExport(ctx context.Context, tutorID string, from, to time.Time) ([]models.SessionWithClass, error) {
	var out []models.SessionWithClass
	for _, s := range r.filter(func(s models.Session) bool {
		return s.TutorID == tutorID && !s.Date.Before(from) && !s.Date.After(to)
	}) {
		out = append(out, models.SessionWithClass{Session: s, ClassTitle: "Class " + s.ClassID})
	}
	return out, nil
}

func (r *fakeSessionRepo) filter(keep func(models.Session) bool) []models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Session{}
	for _, s := range r.items {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *fakeSessionRepo) active(tutorID string) []models.Session {
	return r.filter(func(s models.Session) bool {
		return s.TutorID == tutorID && hasStatus(models.ActiveSessionStatuses, s.Status)
	})
}

func hasStatus(statuses []models.SessionStatus, status models.SessionStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeClassRepo struct {
	items map[string]models.TuitionClass
}

func newFakeClassRepo(classes ...models.TuitionClass) *fakeClassRepo {
	r := &fakeClassRepo{items: map[string]models.TuitionClass{}}
	for _, c := range classes {
		r.items[c.ID] = c
	}
	return r
}

func (r *fakeClassRepo) FindByID(ctx context.Context, id string) (*models.TuitionClass, error) {
	c, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

type fakeEnrollments map[string][]string

func (f fakeEnrollments) IsEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	for _, id := range f[classID] {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeEnrollments) ListStudentIDs(ctx context.Context, classID string) ([]string, error) {
	return f[classID], nil
}

type fakeRooms struct {
	fail bool
}

func (f fakeRooms) IssueLink(ctx context.Context, sessionID string) (string, error) {
	if f.fail {
		return "", fmt.Errorf("meeting provider unavailable")
	}
	return "https://meet.jit.si/studymate-session-" + sessionID, nil
}

func (f fakeRooms) RoomName(sessionID string) string {
	return "studymate-session-" + sessionID
}

func (f fakeRooms) Provider() meeting.Provider {
	return meeting.ProviderJitsi
}

// scheduling bundles the services around one in-memory store.
type scheduling struct {
	availability *fakeAvailabilityRepo
	timeOff      *fakeTimeOffRepo
	leave        *fakeLeaveRepo
	sessions     *fakeSessionRepo
	classes      *fakeClassRepo
	enrollments  fakeEnrollments
	checker      *ConflictChecker
	metrics      *MetricsService
}

func newScheduling() *scheduling {
	s := &scheduling{
		availability: newFakeAvailabilityRepo(),
		timeOff:      newFakeTimeOffRepo(),
		leave:        newFakeLeaveRepo(),
		sessions:     newFakeSessionRepo(),
		classes:      newFakeClassRepo(),
		enrollments:  fakeEnrollments{},
		metrics:      NewMetricsService(),
	}
	s.checker = NewConflictChecker(s.availability, s.timeOff, s.leave, s.sessions, s.metrics, nil)
	return s
}

func (s *scheduling) addWindow(tutorID string, d models.DayOfWeek, start, end string) {
	_ = s.availability.Create(context.Background(), &models.TutorAvailability{TutorID: tutorID, DayOfWeek: d, StartTime: start, EndTime: end, TimeZone: "UTC", IsActive: true})
}

func (s *scheduling) addSession(session models.Session) models.Session {
	_ = s.sessions.Create(context.Background(), &session)
	return session
}
