package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"careercraft/internal/domain"
	"careercraft/internal/events"
	"careercraft/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var ist = time.FixedZone("IST", 5*3600+1800)

type mockConsultationRepo struct {
	mock.Mock
}

func (m *mockConsultationRepo) CreateConsultation(ctx context.Context, c *models.Consultation) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockConsultationRepo) GetConsultation(ctx context.Context, id int64) (*models.Consultation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Consultation), args.Error(1)
}

func (m *mockConsultationRepo) ListConsultations(ctx context.Context) ([]*models.Consultation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Consultation), args.Error(1)
}

func (m *mockConsultationRepo) UpdateConsultationStatus(ctx context.Context, id int64, from, to string) (*models.Consultation, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Consultation), args.Error(1)
}

// 2026-10-15 10:00 IST
func fixedNow() time.Time {
	return time.Date(2026, 10, 15, 4, 30, 0, 0, time.UTC)
}

func validRequest() ConsultationRequest {
	return ConsultationRequest{
		FullName:    "Asha Rao",
		Email:       "asha@example.com",
		Phone:       "9876543210",
		MeetingDate: "2026-10-20",
		MeetingTime: "10:30 AM",
	}
}

func newConsultationService(repo domain.ConsultationRepository, bus domain.EventPublisher, n *Notifier) *ConsultationService {
	s := NewConsultationService(repo, bus, n, ist, &testLogger)
	s.now = fixedNow
	return s
}

func TestSubmitValidationOrder(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *ConsultationRequest)
		message string
	}{
		{"blank name", func(r *ConsultationRequest) { r.FullName = "   " }, "All fields are required"},
		{"missing time", func(r *ConsultationRequest) { r.MeetingTime = "" }, "All fields are required"},
		{"missing everything but phone bad", func(r *ConsultationRequest) { r.Email = ""; r.Phone = "12" }, "All fields are required"},
		{"short phone", func(r *ConsultationRequest) { r.Phone = "98765" }, "exactly 10 digits"},
		{"phone with dashes", func(r *ConsultationRequest) { r.Phone = "987-654-3210" }, "exactly 10 digits"},
		{"phone checked before email", func(r *ConsultationRequest) { r.Phone = "abc"; r.Email = "nope" }, "exactly 10 digits"},
		{"bad email", func(r *ConsultationRequest) { r.Email = "asha@example" }, "valid email"},
		{"email before date", func(r *ConsultationRequest) { r.Email = "a b@c.d"; r.MeetingDate = "2000-01-01" }, "valid email"},
		{"bad date format", func(r *ConsultationRequest) { r.MeetingDate = "20/10/2026" }, "YYYY-MM-DD"},
		{"past date", func(r *ConsultationRequest) { r.MeetingDate = "2026-10-14" }, "cannot be in the past"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockConsultationRepo)
			email, admin := &recordingSender{}, &recordingSender{}
			s := newConsultationService(repo, nil, newTestNotifier(email, admin))

			req := validRequest()
			tt.mutate(&req)
			_, err := s.Submit(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, domain.KindValidation, kindOf(t, err))
			assert.Contains(t, err.Error(), tt.message)

			s.Wait()
			repo.AssertNotCalled(t, "CreateConsultation", mock.Anything, mock.Anything)
			assert.Empty(t, email.messages())
			assert.Empty(t, admin.messages())
		})
	}
}

func TestSubmitTrimsAndAcceptsToday(t *testing.T) {
	repo := new(mockConsultationRepo)
	repo.On("CreateConsultation", mock.Anything, mock.MatchedBy(func(c *models.Consultation) bool {
		return c.FullName == "Asha Rao" && c.Phone == "9876543210" &&
			c.MeetingDate.Format(models.DateLayout) == "2026-10-15" && c.Status == models.StatusPending
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Consultation).ID = 9
	}).Return(nil).Once()

	s := newConsultationService(repo, nil, nil)
	req := validRequest()
	req.FullName = "  Asha Rao "
	req.Phone = " 9876543210\t"
	req.MeetingDate = "2026-10-15"

	c, err := s.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(9), c.ID)
	repo.AssertExpectations(t)
}

func TestSubmitUsesConfiguredTimezone(t *testing.T) {
	s := newConsultationService(new(mockConsultationRepo), nil, nil)
	// 2026-10-15 20:00 UTC is already 2026-10-16 in IST
	s.now = func() time.Time { return time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC) }

	req := validRequest()
	req.MeetingDate = "2026-10-15"
	_, err := s.Validate(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "past")

	req.MeetingDate = "2026-10-16"
	_, err = s.Validate(req)
	assert.NoError(t, err)
}

func TestSubmitPersistsAndNotifies(t *testing.T) {
	db := setupTestDB(t)
	email, admin := &recordingSender{}, &recordingSender{}
	bus := newRecordingBus()
	s := newConsultationService(db, bus.bus, newTestNotifier(email, admin))

	c, err := s.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, models.StatusPending, c.Status)
	assert.False(t, c.CreatedAt.IsZero())

	s.Wait()
	userMsgs := email.messages()
	require.Len(t, userMsgs, 1)
	assert.Equal(t, "asha@example.com", userMsgs[0].To)
	assert.Contains(t, userMsgs[0].HTML, "https://meet.example.com/cc")

	adminMsgs := admin.messages()
	require.Len(t, adminMsgs, 1)
	assert.Equal(t, "ops@careercraft.example", adminMsgs[0].To)
	assert.Equal(t, "New Consultation: Asha Rao", adminMsgs[0].Subject)

	assert.Equal(t, []string{events.EventConsultationCreated}, bus.types())

	stored, err := s.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-20", stored.MeetingDate.Format(models.DateLayout))
}

func TestSubmitNotificationFailureIsNotSurfaced(t *testing.T) {
	db := setupTestDB(t)
	email := &recordingSender{err: errors.New("sendgrid down")}
	admin := &recordingSender{}
	s := newConsultationService(db, nil, newTestNotifier(email, admin))

	c, err := s.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	s.Wait()

	assert.Len(t, admin.messages(), 1, "the admin notice must still go out")
	stored, err := s.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestSubmitSlotConflict(t *testing.T) {
	db := setupTestDB(t)
	email, admin := &recordingSender{}, &recordingSender{}
	s := newConsultationService(db, nil, newTestNotifier(email, admin))
	ctx := context.Background()

	first, err := s.Submit(ctx, validRequest())
	require.NoError(t, err)

	other := validRequest()
	other.Email = "ravi@example.com"
	_, err = s.Submit(ctx, other)
	require.Error(t, err)
	assert.Equal(t, domain.KindSlotConflict, kindOf(t, err))
	assert.Equal(t, 409, domain.KindOf(err).Status())

	// другое время на ту же дату свободно
	other.MeetingTime = "11:30 AM"
	_, err = s.Submit(ctx, other)
	require.NoError(t, err)

	// отмена освобождает слот
	_, err = s.UpdateStatus(ctx, first.ID, models.StatusCancelled)
	require.NoError(t, err)
	other.MeetingTime = "10:30 AM"
	_, err = s.Submit(ctx, other)
	require.NoError(t, err)

	s.Wait()
	assert.Len(t, email.messages(), 3)
}

func TestSubmitConcurrentSameSlot(t *testing.T) {
	db := setupTestDB(t)
	s := newConsultationService(db, nil, nil)

	const n = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Submit(context.Background(), validRequest())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case domain.KindOf(err) == domain.KindSlotConflict:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, conflicts)
}

func TestSubmitPersistenceError(t *testing.T) {
	repo := new(mockConsultationRepo)
	repo.On("CreateConsultation", mock.Anything, mock.Anything).Return(errors.New("disk I/O error")).Once()
	email, admin := &recordingSender{}, &recordingSender{}
	s := newConsultationService(repo, nil, newTestNotifier(email, admin))

	_, err := s.Submit(context.Background(), validRequest())
	require.Error(t, err)
	assert.Equal(t, domain.KindPersistence, kindOf(t, err))
	assert.False(t, domain.KindOf(err).Public())

	s.Wait()
	assert.Empty(t, email.messages())
	assert.Empty(t, admin.messages())
}

func TestUpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	bus := newRecordingBus()
	email, admin := &recordingSender{}, &recordingSender{}
	s := newConsultationService(db, bus.bus, newTestNotifier(email, admin))
	ctx := context.Background()

	c, err := s.Submit(ctx, validRequest())
	require.NoError(t, err)
	s.Wait()

	t.Run("UnknownStatus", func(t *testing.T) {
		_, err := s.UpdateStatus(ctx, c.ID, "archived")
		assert.Equal(t, domain.KindValidation, kindOf(t, err))
	})

	t.Run("UnknownID", func(t *testing.T) {
		_, err := s.UpdateStatus(ctx, 9999, models.StatusConfirmed)
		assert.Equal(t, domain.KindNotFound, kindOf(t, err))
	})

	t.Run("IllegalTransition", func(t *testing.T) {
		_, err := s.UpdateStatus(ctx, c.ID, models.StatusCompleted)
		assert.Equal(t, domain.KindValidation, kindOf(t, err))
	})

	t.Run("ConfirmThenReapply", func(t *testing.T) {
		confirmed, err := s.UpdateStatus(ctx, c.ID, models.StatusConfirmed)
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, confirmed.Status)

		time.Sleep(5 * time.Millisecond)
		again, err := s.UpdateStatus(ctx, c.ID, models.StatusConfirmed)
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, again.Status)
		assert.True(t, again.UpdatedAt.After(confirmed.UpdatedAt) || again.UpdatedAt.Equal(confirmed.UpdatedAt))
	})

	t.Run("TerminalStatus", func(t *testing.T) {
		_, err := s.UpdateStatus(ctx, c.ID, models.StatusCompleted)
		require.NoError(t, err)
		_, err = s.UpdateStatus(ctx, c.ID, models.StatusCancelled)
		assert.Equal(t, domain.KindValidation, kindOf(t, err))
	})

	s.Wait()
	// смена статуса не шлет писем
	assert.Len(t, email.messages(), 1)
	assert.Len(t, admin.messages(), 1)

	types := bus.types()
	require.Len(t, types, 4)
	assert.Equal(t, events.EventConsultationStatusChanged, types[1])

	bus.mu.Lock()
	var payload events.ConsultationPayload
	require.NoError(t, json.Unmarshal(bus.events[1].Payload, &payload))
	bus.mu.Unlock()
	assert.Equal(t, models.StatusPending, payload.PreviousStatus)
	assert.Equal(t, models.StatusConfirmed, payload.Status)
}

func TestListConsultationsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	s := newConsultationService(db, nil, nil)
	ctx := context.Background()

	for _, slot := range []string{"09:00", "10:00", "11:00"} {
		req := validRequest()
		req.MeetingTime = slot
		_, err := s.Submit(ctx, req)
		require.NoError(t, err)
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "11:00", list[0].MeetingTime)
	assert.Equal(t, "09:00", list[2].MeetingTime)
}
