package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/futbolmvp/booking-system/models"
	"github.com/futbolmvp/booking-system/repositories"
)

// memStore is a single in-memory state shared by the fake repositories, so a
// service wired against them behaves like one database. Repository methods
// return copies, mirroring row scans: mutating a returned struct never changes
// stored state.
type memStore struct {
	mu    sync.Mutex
	clock time.Time

	users         map[uuid.UUID]*models.User
	events        map[uuid.UUID]*models.Event
	courts        map[uuid.UUID]*models.Court
	registrations map[uuid.UUID]*models.Registration
	captains      map[captainKey]time.Time
	audit         []models.AuditEntry

	tournaments map[uuid.UUID]*models.Tournament
	teams       map[uuid.UUID]*models.Team
	teamOrder   []uuid.UUID
	members     map[uuid.UUID]*models.TeamMember
	matches     map[uuid.UUID]*models.Match
}

type captainKey struct {
	eventID, courtID, userID uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		clock:         time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC),
		users:         make(map[uuid.UUID]*models.User),
		events:        make(map[uuid.UUID]*models.Event),
		courts:        make(map[uuid.UUID]*models.Court),
		registrations: make(map[uuid.UUID]*models.Registration),
		captains:      make(map[captainKey]time.Time),
		tournaments:   make(map[uuid.UUID]*models.Tournament),
		teams:         make(map[uuid.UUID]*models.Team),
		members:       make(map[uuid.UUID]*models.TeamMember),
		matches:       make(map[uuid.UUID]*models.Match),
	}
}

// tick returns a strictly increasing timestamp, keeping FIFO ordering
// deterministic.
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) auditActions() []models.AuditAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	actions := make([]models.AuditAction, len(s.audit))
	for i, e := range s.audit {
		actions[i] = e.Action
	}
	return actions
}

func (s *memStore) hasAuditAction(action models.AuditAction) bool {
	for _, got := range s.auditActions() {
		if got == action {
			return true
		}
	}
	return false
}

// ---- seeding helpers ----

func (s *memStore) seedUser(roles ...string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{
		ID:        uuid.New(),
		FullName:  "Test User",
		IsActive:  true,
		Roles:     roles,
		CreatedAt: s.tick(),
	}
	s.users[u.ID] = u
	return u.ID
}

func (s *memStore) seedEvent(status models.EventStatus) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &models.Event{
		ID:        uuid.New(),
		Title:     "Friday Night",
		StartsAt:  s.clock.Add(24 * time.Hour),
		Status:    status,
		CreatedAt: s.tick(),
	}
	s.events[e.ID] = e
	return e.ID
}

func (s *memStore) seedCourt(eventID uuid.UUID, capacity int, open bool) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &models.Court{
		ID:        uuid.New(),
		EventID:   eventID,
		Name:      "Court",
		Capacity:  capacity,
		IsOpen:    open,
		SortOrder: len(s.courts) + 1,
		CreatedAt: s.tick(),
	}
	s.courts[c.ID] = c
	return c.ID
}

func (s *memStore) seedCaptain(eventID, courtID, userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captains[captainKey{eventID, courtID, userID}] = s.tick()
}

func (s *memStore) seedRegistration(reg models.Registration) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg.ID = uuid.New()
	reg.CreatedAt = s.tick()
	s.registrations[reg.ID] = &reg
	return reg.ID
}

func (s *memStore) seedTournament(status models.TournamentStatus, format models.TournamentFormat, teamsCount int) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr := &models.Tournament{
		ID:          uuid.New(),
		Title:       "Copa",
		Status:      status,
		Format:      format,
		TeamsCount:  teamsCount,
		PublicToken: uuid.NewString(),
		CreatedAt:   s.tick(),
	}
	s.tournaments[tr.ID] = tr
	return tr.ID
}

func (s *memStore) seedTeam(tournamentID uuid.UUID, name string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	team := &models.Team{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		Name:         name,
		CreatedAt:    s.tick(),
	}
	s.teams[team.ID] = team
	s.teamOrder = append(s.teamOrder, team.ID)
	return team.ID
}

func (s *memStore) seedMatch(m models.Match) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = s.tick()
	s.matches[m.ID] = &m
	return m.ID
}

func (s *memStore) registration(id uuid.UUID) models.Registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.registrations[id]
}

func (s *memStore) court(id uuid.UUID) models.Court {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.courts[id]
}

func (s *memStore) event(id uuid.UUID) models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.events[id]
}

func (s *memStore) match(id uuid.UUID) models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.matches[id]
}

func (s *memStore) tournament(id uuid.UUID) models.Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.tournaments[id]
}

// ---- transactor ----

type fakeTransactor struct{ s *memStore }

func (t *fakeTransactor) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

// ---- user repository ----

type fakeUserRepo struct{ s *memStore }

func (r *fakeUserRepo) Create(ctx context.Context, exec repositories.SQLExecutor, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.PhoneE164 == user.PhoneE164 {
			return repositories.ErrUserPhoneConflict
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = r.s.tick()
	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByPhone(ctx context.Context, exec repositories.SQLExecutor, phone string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.PhoneE164 == phone {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) HasAdminRole(ctx context.Context, exec repositories.SQLExecutor, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return false, nil
	}
	return u.IsAdmin(), nil
}

// ---- event repository ----

type fakeEventRepo struct{ s *memStore }

func (r *fakeEventRepo) Create(ctx context.Context, exec repositories.SQLExecutor, event *models.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	event.ID = uuid.New()
	event.CreatedAt = r.s.tick()
	stored := *event
	r.s.events[event.ID] = &stored
	return nil
}

func (r *fakeEventRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) (*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *fakeEventRepo) List(ctx context.Context, exec repositories.SQLExecutor, filter repositories.ListEventsFilter) ([]models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Event, 0)
	for _, e := range r.s.events {
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.Status == nil && !filter.IncludeFinalized && e.Status == models.EventStatusFinalized {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *fakeEventRepo) ListActive(ctx context.Context, exec repositories.SQLExecutor) ([]models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Event, 0)
	for _, e := range r.s.events {
		if e.Status == models.EventStatusOpen || e.Status == models.EventStatusClosed {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeEventRepo) MostRecentActive(ctx context.Context, exec repositories.SQLExecutor) (*models.Event, error) {
	active, _ := r.ListActive(ctx, exec)
	if len(active) == 0 {
		return nil, repositories.ErrEventNotFound
	}
	copied := active[0]
	return &copied, nil
}

func (r *fakeEventRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID, status models.EventStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	e.Status = status
	return nil
}

func (r *fakeEventRepo) Finalize(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	e.Status = models.EventStatusFinalized
	e.FinalizedAt = &at
	return nil
}

func (r *fakeEventRepo) Reopen(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	e.Status = models.EventStatusOpen
	e.FinalizedAt = nil
	return nil
}

func (r *fakeEventRepo) CloseIfOpen(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return false, repositories.ErrEventNotFound
	}
	if e.Status != models.EventStatusOpen {
		return false, nil
	}
	e.Status = models.EventStatusClosed
	return true, nil
}

func (r *fakeEventRepo) ListDueForClose(ctx context.Context, exec repositories.SQLExecutor, now time.Time) ([]models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Event, 0)
	for _, e := range r.s.events {
		if e.Status == models.EventStatusOpen && e.CloseAt != nil && !e.CloseAt.After(now) {
			out = append(out, *e)
		}
	}
	return out, nil
}

// ---- court repository ----

type fakeCourtRepo struct{ s *memStore }

func (r *fakeCourtRepo) Create(ctx context.Context, exec repositories.SQLExecutor, court *models.Court) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	court.ID = uuid.New()
	court.CreatedAt = r.s.tick()
	stored := *court
	r.s.courts[court.ID] = &stored
	return nil
}

func (r *fakeCourtRepo) get(courtID, eventID uuid.UUID) (*models.Court, error) {
	c, ok := r.s.courts[courtID]
	if !ok || c.EventID != eventID {
		return nil, repositories.ErrCourtNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCourtRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, courtID, eventID uuid.UUID) (*models.Court, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.get(courtID, eventID)
}

func (r *fakeCourtRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, courtID, eventID uuid.UUID) (*models.Court, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.get(courtID, eventID)
}

func (r *fakeCourtRepo) ListByEvent(ctx context.Context, exec repositories.SQLExecutor, eventID uuid.UUID) ([]models.Court, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Court, 0)
	for _, c := range r.s.courts {
		if c.EventID == eventID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r *fakeCourtRepo) Update(ctx context.Context, exec repositories.SQLExecutor, courtID, eventID uuid.UUID, patch repositories.CourtPatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courts[courtID]
	if !ok || c.EventID != eventID {
		return repositories.ErrCourtNotFound
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Capacity != nil {
		c.Capacity = *patch.Capacity
	}
	if patch.SortOrder != nil {
		c.SortOrder = *patch.SortOrder
	}
	if patch.IsOpen != nil {
		c.IsOpen = *patch.IsOpen
	}
	return nil
}

func (r *fakeCourtRepo) SetOpen(ctx context.Context, exec repositories.SQLExecutor, courtID uuid.UUID, open bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courts[courtID]
	if !ok {
		return repositories.ErrCourtNotFound
	}
	c.IsOpen = open
	return nil
}

func (r *fakeCourtRepo) CloseIfOpen(ctx context.Context, exec repositories.SQLExecutor, courtID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courts[courtID]
	if !ok {
		return false, repositories.ErrCourtNotFound
	}
	if !c.IsOpen {
		return false, nil
	}
	c.IsOpen = false
	return true, nil
}

func (r *fakeCourtRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, courtID, eventID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courts[courtID]
	if !ok || c.EventID != eventID {
		return repositories.ErrCourtNotFound
	}
	delete(r.s.courts, courtID)
	return nil
}

// ---- registration repository ----

type fakeRegistrationRepo struct{ s *memStore }

func (r *fakeRegistrationRepo) Create(ctx context.Context, exec repositories.SQLExecutor, reg *models.Registration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if reg.Type == models.RegistrationTypeUser && reg.UserID != nil {
		for _, existing := range r.s.registrations {
			if existing.EventID == reg.EventID &&
				existing.Type == models.RegistrationTypeUser &&
				existing.UserID != nil && *existing.UserID == *reg.UserID &&
				existing.Status != models.RegistrationStatusCancelled {
				return repositories.ErrRegistrationConflict
			}
		}
	}
	reg.ID = uuid.New()
	reg.CreatedAt = r.s.tick()
	stored := *reg
	r.s.registrations[reg.ID] = &stored
	return nil
}

func (r *fakeRegistrationRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) (*models.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reg, ok := r.s.registrations[id]
	if !ok {
		return nil, repositories.ErrRegistrationNotFound
	}
	copied := *reg
	return &copied, nil
}

func (r *fakeRegistrationRepo) CountConfirmedByCourt(ctx context.Context, exec repositories.SQLExecutor, courtID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.countConfirmed(courtID), nil
}

func (r *fakeRegistrationRepo) countConfirmed(courtID uuid.UUID) int {
	count := 0
	for _, reg := range r.s.registrations {
		if reg.Status == models.RegistrationStatusConfirmed && reg.CourtID != nil && *reg.CourtID == courtID {
			count++
		}
	}
	return count
}

func (r *fakeRegistrationRepo) CountActiveGuestsByCreator(ctx context.Context, exec repositories.SQLExecutor, eventID, creatorID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, reg := range r.s.registrations {
		if reg.EventID == eventID &&
			reg.Type == models.RegistrationTypeGuest &&
			reg.CreatedByUserID == creatorID &&
			reg.Status != models.RegistrationStatusCancelled {
			count++
		}
	}
	return count, nil
}

func (r *fakeRegistrationRepo) CountByCourt(ctx context.Context, exec repositories.SQLExecutor, courtID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, reg := range r.s.registrations {
		if reg.CourtID != nil && *reg.CourtID == courtID {
			count++
		}
	}
	return count, nil
}

func (r *fakeRegistrationRepo) OldestWaitlisted(ctx context.Context, exec repositories.SQLExecutor, eventID uuid.UUID) (*models.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var oldest *models.Registration
	for _, reg := range r.s.registrations {
		if reg.EventID != eventID || reg.Status != models.RegistrationStatusWaitlist || reg.CourtID != nil {
			continue
		}
		if oldest == nil || reg.CreatedAt.Before(oldest.CreatedAt) {
			oldest = reg
		}
	}
	if oldest == nil {
		return nil, repositories.ErrRegistrationNotFound
	}
	copied := *oldest
	return &copied, nil
}

func (r *fakeRegistrationRepo) Cancel(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reg, ok := r.s.registrations[id]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	reg.Status = models.RegistrationStatusCancelled
	reg.CancelledAt = &at
	return nil
}

func (r *fakeRegistrationRepo) MoveToCourt(ctx context.Context, exec repositories.SQLExecutor, id, courtID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reg, ok := r.s.registrations[id]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	reg.CourtID = &courtID
	return nil
}

func (r *fakeRegistrationRepo) Promote(ctx context.Context, exec repositories.SQLExecutor, id, courtID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reg, ok := r.s.registrations[id]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	reg.Status = models.RegistrationStatusConfirmed
	reg.CourtID = &courtID
	return nil
}

func (r *fakeRegistrationRepo) ListConfirmedByEvent(ctx context.Context, exec repositories.SQLExecutor, eventID uuid.UUID) ([]models.Registration, error) {
	return r.listByStatus(eventID, models.RegistrationStatusConfirmed), nil
}

func (r *fakeRegistrationRepo) ListWaitlistByEvent(ctx context.Context, exec repositories.SQLExecutor, eventID uuid.UUID) ([]models.Registration, error) {
	return r.listByStatus(eventID, models.RegistrationStatusWaitlist), nil
}

func (r *fakeRegistrationRepo) listByStatus(eventID uuid.UUID, status models.RegistrationStatus) []models.Registration {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Registration, 0)
	for _, reg := range r.s.registrations {
		if reg.EventID == eventID && reg.Status == status {
			out = append(out, *reg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *fakeRegistrationRepo) CourtOccupancies(ctx context.Context, exec repositories.SQLExecutor, eventID uuid.UUID) ([]models.CourtOccupancy, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.CourtOccupancy, 0)
	for _, c := range r.s.courts {
		if c.EventID != eventID {
			continue
		}
		out = append(out, models.CourtOccupancy{
			CourtID:  c.ID,
			Capacity: c.Capacity,
			IsOpen:   c.IsOpen,
			Occupied: r.countConfirmed(c.ID),
		})
	}
	return out, nil
}

// ---- captain repository ----

type fakeCaptainRepo struct{ s *memStore }

func (r *fakeCaptainRepo) Assign(ctx context.Context, exec repositories.SQLExecutor, captain *models.CourtCaptain) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := captainKey{captain.EventID, captain.CourtID, captain.UserID}
	if _, exists := r.s.captains[key]; exists {
		return repositories.ErrCaptainConflict
	}
	r.s.captains[key] = r.s.tick()
	return nil
}

func (r *fakeCaptainRepo) Remove(ctx context.Context, exec repositories.SQLExecutor, eventID, courtID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := captainKey{eventID, courtID, userID}
	if _, exists := r.s.captains[key]; !exists {
		return repositories.ErrCaptainNotFound
	}
	delete(r.s.captains, key)
	return nil
}

func (r *fakeCaptainRepo) IsCaptainOfCourt(ctx context.Context, exec repositories.SQLExecutor, eventID, courtID, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.captains[captainKey{eventID, courtID, userID}]
	return ok, nil
}

func (r *fakeCaptainRepo) ListByEvent(ctx context.Context, exec repositories.SQLExecutor, eventID uuid.UUID) ([]models.CourtCaptain, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.CourtCaptain, 0)
	for key, at := range r.s.captains {
		if key.eventID == eventID {
			out = append(out, models.CourtCaptain{
				EventID:   key.eventID,
				CourtID:   key.courtID,
				UserID:    key.userID,
				CreatedAt: at,
			})
		}
	}
	return out, nil
}

func (r *fakeCaptainRepo) DeleteByCourt(ctx context.Context, exec repositories.SQLExecutor, eventID, courtID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for key := range r.s.captains {
		if key.eventID == eventID && key.courtID == courtID {
			delete(r.s.captains, key)
		}
	}
	return nil
}

// ---- audit repository ----

type fakeAuditRepo struct{ s *memStore }

func (r *fakeAuditRepo) Append(ctx context.Context, exec repositories.SQLExecutor, entry *models.AuditEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = int64(len(r.s.audit) + 1)
	entry.CreatedAt = r.s.tick()
	r.s.audit = append(r.s.audit, *entry)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, exec repositories.SQLExecutor, filter repositories.ListAuditFilter) ([]models.AuditEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.AuditEntry, 0, len(r.s.audit))
	for _, entry := range r.s.audit {
		if filter.EventID != nil && (entry.EventID == nil || *entry.EventID != *filter.EventID) {
			continue
		}
		if filter.Action != nil && entry.Action != *filter.Action {
			continue
		}
		out = append(out, entry)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// ---- tournament repository ----

type fakeTournamentRepo struct{ s *memStore }

func (r *fakeTournamentRepo) Create(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.tournaments {
		if existing.PublicToken == t.PublicToken {
			return repositories.ErrTournamentTokenConflict
		}
	}
	t.ID = uuid.New()
	t.CreatedAt = r.s.tick()
	t.UpdatedAt = t.CreatedAt
	stored := *t
	r.s.tournaments[t.ID] = &stored
	return nil
}

func (r *fakeTournamentRepo) get(id uuid.UUID) (*models.Tournament, error) {
	t, ok := r.s.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) (*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.get(id)
}

func (r *fakeTournamentRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) (*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.get(id)
}

func (r *fakeTournamentRepo) GetByPublicToken(ctx context.Context, exec repositories.SQLExecutor, token string) (*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tournaments {
		if t.PublicToken == token {
			copied := *t
			return &copied, nil
		}
	}
	return nil, repositories.ErrTournamentNotFound
}

func (r *fakeTournamentRepo) List(ctx context.Context, exec repositories.SQLExecutor, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Tournament, 0)
	for _, t := range r.s.tournaments {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Status == nil && !filter.IncludeArchived && t.Status == models.TournamentStatusArchived {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *fakeTournamentRepo) Update(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID, patch repositories.TournamentPatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.LocationName != nil {
		t.LocationName = patch.LocationName
	}
	if patch.StartsAt != nil {
		t.StartsAt = patch.StartsAt
	}
	if patch.Format != nil {
		t.Format = *patch.Format
	}
	if patch.TeamsCount != nil {
		t.TeamsCount = *patch.TeamsCount
	}
	if patch.MinutesPerMatch != nil {
		t.MinutesPerMatch = *patch.MinutesPerMatch
	}
	t.UpdatedAt = r.s.tick()
	return nil
}

func (r *fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID, status models.TournamentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	t.UpdatedAt = r.s.tick()
	return nil
}

func (r *fakeTournamentRepo) Touch(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.UpdatedAt = r.s.tick()
	return nil
}

// ---- team repository ----

type fakeTeamRepo struct{ s *memStore }

func (r *fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.teams {
		if existing.TournamentID == team.TournamentID && existing.Name == team.Name {
			return repositories.ErrTeamNameConflict
		}
	}
	team.ID = uuid.New()
	team.CreatedAt = r.s.tick()
	stored := *team
	r.s.teams[team.ID] = &stored
	r.s.teamOrder = append(r.s.teamOrder, team.ID)
	return nil
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, teamID, tournamentID uuid.UUID) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	team, ok := r.s.teams[teamID]
	if !ok || team.TournamentID != tournamentID {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeamRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID uuid.UUID) ([]models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Team, 0)
	for _, id := range r.s.teamOrder {
		team, ok := r.s.teams[id]
		if ok && team.TournamentID == tournamentID {
			out = append(out, *team)
		}
	}
	return out, nil
}

func (r *fakeTeamRepo) CountByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID uuid.UUID) (int, error) {
	teams, _ := r.ListByTournament(ctx, exec, tournamentID)
	return len(teams), nil
}

func (r *fakeTeamRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, teamID, tournamentID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	team, ok := r.s.teams[teamID]
	if !ok || team.TournamentID != tournamentID {
		return repositories.ErrTeamNotFound
	}
	delete(r.s.teams, teamID)
	return nil
}

func (r *fakeTeamRepo) AddMember(ctx context.Context, exec repositories.SQLExecutor, member *models.TeamMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	member.ID = uuid.New()
	member.CreatedAt = r.s.tick()
	stored := *member
	r.s.members[member.ID] = &stored
	return nil
}

func (r *fakeTeamRepo) ListMembers(ctx context.Context, exec repositories.SQLExecutor, tournamentID, teamID uuid.UUID) ([]models.TeamMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.TeamMember, 0)
	for _, m := range r.s.members {
		if m.TournamentID == tournamentID && m.TeamID == teamID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeTeamRepo) ListMembersByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID uuid.UUID) ([]models.TeamMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.TeamMember, 0)
	for _, m := range r.s.members {
		if m.TournamentID == tournamentID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeTeamRepo) RemoveMember(ctx context.Context, exec repositories.SQLExecutor, memberID, teamID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.members[memberID]
	if !ok || m.TeamID != teamID {
		return repositories.ErrMemberNotFound
	}
	delete(r.s.members, memberID)
	return nil
}

// ---- match repository ----

type fakeMatchRepo struct{ s *memStore }

func (r *fakeMatchRepo) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, matches []*models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range matches {
		m.CreatedAt = r.s.tick()
		stored := *m
		r.s.matches[m.ID] = &stored
	}
	return nil
}

func (r *fakeMatchRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, m := range r.s.matches {
		if m.TournamentID == tournamentID {
			delete(r.s.matches, id)
		}
	}
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, matchID, tournamentID uuid.UUID) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[matchID]
	if !ok || m.TournamentID != tournamentID {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID uuid.UUID) ([]models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Match, 0)
	for _, m := range r.s.matches {
		if m.TournamentID == tournamentID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].SortOrder < out[j].SortOrder
	})
	return out, nil
}

func (r *fakeMatchRepo) ListFinishedWithTeams(ctx context.Context, exec repositories.SQLExecutor, tournamentID uuid.UUID) ([]models.Match, error) {
	all, _ := r.ListByTournament(ctx, exec, tournamentID)
	out := make([]models.Match, 0, len(all))
	for _, m := range all {
		if m.Status == models.MatchStatusFinished && m.HomeTeamID != nil && m.AwayTeamID != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) CountByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID uuid.UUID) (int, error) {
	all, _ := r.ListByTournament(ctx, exec, tournamentID)
	return len(all), nil
}

func (r *fakeMatchRepo) CountPlayed(ctx context.Context, exec repositories.SQLExecutor, tournamentID uuid.UUID) (int, error) {
	all, _ := r.ListByTournament(ctx, exec, tournamentID)
	count := 0
	for _, m := range all {
		if m.Status != models.MatchStatusPending {
			count++
		}
	}
	return count, nil
}

func (r *fakeMatchRepo) CountLiveExcept(ctx context.Context, exec repositories.SQLExecutor, tournamentID, matchID uuid.UUID) (int, error) {
	all, _ := r.ListByTournament(ctx, exec, tournamentID)
	count := 0
	for _, m := range all {
		if m.Status == models.MatchStatusLive && m.ID != matchID {
			count++
		}
	}
	return count, nil
}

func (r *fakeMatchRepo) MarkStarted(ctx context.Context, exec repositories.SQLExecutor, matchID uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Status = models.MatchStatusLive
	m.StartedAt = &at
	return nil
}

func (r *fakeMatchRepo) UpdateScore(ctx context.Context, exec repositories.SQLExecutor, matchID uuid.UUID, homeGoals, awayGoals int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.HomeGoals = homeGoals
	m.AwayGoals = awayGoals
	return nil
}

func (r *fakeMatchRepo) MarkFinished(ctx context.Context, exec repositories.SQLExecutor, matchID uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Status = models.MatchStatusFinished
	m.EndedAt = &at
	return nil
}

func (r *fakeMatchRepo) SetSlotTeam(ctx context.Context, exec repositories.SQLExecutor, matchID uuid.UUID, slot models.MatchSlot, teamID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if slot == models.SlotHome {
		m.HomeTeamID = &teamID
	} else {
		m.AwayTeamID = &teamID
	}
	return nil
}

// ---- wiring ----

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRegistrationService(s *memStore) *RegistrationService {
	return NewRegistrationService(
		&fakeTransactor{s},
		&fakeRegistrationRepo{s},
		&fakeCourtRepo{s},
		&fakeEventRepo{s},
		&fakeCaptainRepo{s},
		&fakeUserRepo{s},
		&fakeAuditRepo{s},
		testLogger(),
	)
}

func newEventService(s *memStore) *EventService {
	return NewEventService(
		&fakeTransactor{s},
		&fakeEventRepo{s},
		&fakeCourtRepo{s},
		&fakeRegistrationRepo{s},
		&fakeCaptainRepo{s},
		&fakeUserRepo{s},
		&fakeAuditRepo{s},
		testLogger(),
	)
}

func newTournamentService(s *memStore) *TournamentService {
	return NewTournamentService(
		&fakeTransactor{s},
		&fakeTournamentRepo{s},
		&fakeTeamRepo{s},
		&fakeMatchRepo{s},
		&fakeUserRepo{s},
		testLogger(),
	)
}

func newMatchService(s *memStore) *MatchService {
	return NewMatchService(
		&fakeTransactor{s},
		&fakeTournamentRepo{s},
		&fakeTeamRepo{s},
		&fakeMatchRepo{s},
		&fakeUserRepo{s},
		nil,
		testLogger(),
	)
}
