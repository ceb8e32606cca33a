package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	reservationserrors "roomreserve/internal/reservations/errors"
	"roomreserve/internal/reservations/validator"
	"roomreserve/pkg/config"
	mongotx "roomreserve/pkg/db/mongo"
	"roomreserve/pkg/logger"
	"roomreserve/pkg/model"
	"roomreserve/pkg/scheduling"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ────────────────────────────────────────────────
// In-memory reservation repository with transaction rollback
// ────────────────────────────────────────────────

type memReservationRepository struct {
	mu   sync.Mutex
	docs []model.Reservation

	createErr     error
	createManyErr []error // returned once each, in order, before CreateMany succeeds
	createIDs     []string
	maxAttempts   int
	findAllFunc   func(ctx context.Context, filter model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, error)
	countFunc     func(ctx context.Context, filter model.ReservationFilter) (int64, error)
	transactions  int
	createManyLen int
}

func (m *memReservationRepository) seed(r model.Reservation) *model.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = primitive.NewObjectID().Hex()
	}
	if r.Status == "" {
		r.Status = model.StatusConfirmed
	}
	m.docs = append(m.docs, r)
	cp := r
	return &cp
}

func (m *memReservationRepository) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

func (m *memReservationRepository) get(id string) (model.Reservation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.ID == id {
			return d, true
		}
	}
	return model.Reservation{}, false
}

func (m *memReservationRepository) FindOverlapping(_ context.Context, roomID string, start, end time.Time, excludeID string) ([]*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Reservation
	for _, d := range m.docs {
		if d.RoomID != roomID || d.Status == model.StatusCancelled || d.ID == excludeID {
			continue
		}
		if scheduling.Overlaps(start, end, d.StartTime, d.EndTime) {
			cp := d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memReservationRepository) Create(_ context.Context, r *model.Reservation) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createIDs = append(m.createIDs, r.ID)
	// like InsertOne with an omitempty _id, a preset id is stored as given
	if r.ID == "" {
		r.ID = primitive.NewObjectID().Hex()
	}
	r.CreatedAt = time.Now().UTC()
	m.docs = append(m.docs, *r)
	return nil
}

func (m *memReservationRepository) CreateMany(_ context.Context, rs []*model.Reservation) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.createManyErr) > 0 {
		err := m.createManyErr[0]
		m.createManyErr = m.createManyErr[1:]
		return err
	}
	m.createManyLen += len(rs)
	for _, r := range rs {
		if r.ID == "" {
			r.ID = primitive.NewObjectID().Hex()
		}
		m.docs = append(m.docs, *r)
	}
	return nil
}

func (m *memReservationRepository) FindByID(_ context.Context, id string) (*model.Reservation, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, reservationserrors.ErrInvalidID
	}
	if d, ok := m.get(id); ok {
		return &d, nil
	}
	return nil, reservationserrors.ErrNotFound
}

func (m *memReservationRepository) FindAll(ctx context.Context, filter model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, filter, limit, offset)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Reservation
	for _, d := range m.docs {
		if filter.RoomID != "" && d.RoomID != filter.RoomID {
			continue
		}
		cp := d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *memReservationRepository) Count(ctx context.Context, filter model.ReservationFilter) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, filter)
	}
	all, _ := m.FindAll(ctx, filter, 0, 0)
	return int64(len(all)), nil
}

func (m *memReservationRepository) Update(_ context.Context, id string, r *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.docs {
		if m.docs[i].ID == id {
			m.docs[i] = *r
			return nil
		}
	}
	return reservationserrors.ErrNotFound
}

func (m *memReservationRepository) Cancel(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.docs {
		if m.docs[i].ID == id {
			m.docs[i].Status = model.StatusCancelled
			return nil
		}
	}
	return reservationserrors.ErrNotFound
}

func (m *memReservationRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.docs {
		if m.docs[i].ID == id {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return nil
		}
	}
	return reservationserrors.ErrNotFound
}

func (m *memReservationRepository) FindStartingBetween(_ context.Context, from, to time.Time) ([]*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Reservation
	for _, d := range m.docs {
		if d.Status == model.StatusConfirmed && !d.ReminderSent && !d.StartTime.Before(from) && !d.StartTime.After(to) {
			cp := d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memReservationRepository) MarkReminderSent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.docs {
		if m.docs[i].ID == id {
			m.docs[i].ReminderSent = true
			return nil
		}
	}
	return reservationserrors.ErrNotFound
}

// ExecuteTransaction restores the previous documents when fn fails. Errors labelled
// TransientTransactionError rerun fn up to maxAttempts times, as session.WithTransaction does.
func (m *memReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	attempts := max(m.maxAttempts, 1)
	for attempt := 1; ; attempt++ {
		m.mu.Lock()
		m.transactions++
		snapshot := append([]model.Reservation(nil), m.docs...)
		m.mu.Unlock()

		err := fn(mongo.NewSessionContext(ctx, nil))
		if err == nil {
			return nil
		}
		m.mu.Lock()
		m.docs = snapshot
		m.mu.Unlock()

		var labeled mongo.LabeledError
		if attempt < attempts && errors.As(err, &labeled) && labeled.HasErrorLabel("TransientTransactionError") {
			continue
		}
		return err
	}
}

// ────────────────────────────────────────────────
// Rooms, locks and publisher
// ────────────────────────────────────────────────

type memRoomRepository struct {
	rooms map[string]*model.Room
}

func (m *memRoomRepository) FindByID(_ context.Context, id string) (*model.Room, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, reservationserrors.ErrInvalidID
	}
	room, ok := m.rooms[id]
	if !ok {
		return nil, reservationserrors.ErrRoomNotFound
	}
	cp := *room
	return &cp, nil
}

type memLockRepository struct {
	mu      sync.Mutex
	locks   map[string]string
	created int
}

func newMemLockRepository() *memLockRepository {
	return &memLockRepository{locks: map[string]string{}}
}

func (m *memLockRepository) Create(_ context.Context, lock *model.ReservationLock) (*model.ReservationLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[lock.ID]; held {
		return nil, reservationserrors.ErrLockHeld
	}
	m.locks[lock.ID] = lock.Owner
	m.created++
	return lock, nil
}

func (m *memLockRepository) Delete(_ context.Context, lockID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[lockID] == owner {
		delete(m.locks, lockID)
	}
	return nil
}

func (m *memLockRepository) held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*model.ReservationEvent
	err    error
}

func (p *recordingPublisher) record(eventType string, e *model.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	e.Type = eventType
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) PublishCreated(_ context.Context, e *model.ReservationEvent) error {
	return p.record(model.EventReservationCreated, e)
}

func (p *recordingPublisher) PublishUpdated(_ context.Context, e *model.ReservationEvent) error {
	return p.record(model.EventReservationUpdated, e)
}

func (p *recordingPublisher) PublishCancelled(_ context.Context, e *model.ReservationEvent) error {
	return p.record(model.EventReservationCancelled, e)
}

func (p *recordingPublisher) PublishReminder(_ context.Context, e *model.ReservationEvent) error {
	return p.record(model.EventReservationReminder, e)
}

func (p *recordingPublisher) Close() error { return nil }

// ────────────────────────────────────────────────
// Fixture
// ────────────────────────────────────────────────

const (
	roomA        = "65f1a2b3c4d5e6f7a8b9c0d1"
	roomB        = "65f1a2b3c4d5e6f7a8b9c0d2"
	roomInactive = "65f1a2b3c4d5e6f7a8b9c0d3"
	roomMissing  = "65f1a2b3c4d5e6f7a8b9c0ff"
)

type fixture struct {
	svc       ReservationService
	repo      *memReservationRepository
	locks     *memLockRepository
	publisher *recordingPublisher
	cfg       *config.Config
}

func newFixture() *fixture {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{
		Log:                    log,
		ReadTimeout:            5 * time.Second,
		WriteTimeout:           5 * time.Second,
		MinReservationDuration: 30 * time.Minute,
		MaxReservationDuration: 24 * time.Hour,
		LockTTL:                10 * time.Second,
		EventPublishTimeout:    time.Second,
	}

	f := &fixture{
		repo:      &memReservationRepository{maxAttempts: 3},
		locks:     newMemLockRepository(),
		publisher: &recordingPublisher{},
		cfg:       cfg,
	}
	rooms := &memRoomRepository{rooms: map[string]*model.Room{
		roomA:        {ID: roomA, Name: "Aurora", Location: "2F", Capacity: 8, IsActive: true},
		roomB:        {ID: roomB, Name: "Borealis", Location: "3F", Capacity: 4, IsActive: true},
		roomInactive: {ID: roomInactive, Name: "Storage", IsActive: false},
	}}
	f.svc = NewReservationService(f.repo, rooms, f.locks, validator.NewReservationValidator(log), f.publisher, nil, cfg)
	return f
}
