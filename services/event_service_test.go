package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futbolmvp/booking-system/models"
	"github.com/futbolmvp/booking-system/repositories"
)

func TestCreateEvent(t *testing.T) {
	store := newMemStore()
	svc := newEventService(store)

	admin := store.seedUser(models.RoleAdmin)
	user := store.seedUser()

	t.Run("admin creates an open event", func(t *testing.T) {
		event, err := svc.CreateEvent(context.Background(), admin, CreateEventInput{
			Title:    "  Friday Night  ",
			StartsAt: time.Date(2025, 7, 4, 20, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		assert.Equal(t, "Friday Night", event.Title)
		assert.Equal(t, models.EventStatusOpen, event.Status)
		assert.Equal(t, admin, event.CreatedByUserID)
		assert.True(t, store.hasAuditAction(models.AuditCreateEvent))
	})

	t.Run("blank title rejected", func(t *testing.T) {
		_, err := svc.CreateEvent(context.Background(), admin, CreateEventInput{Title: "   "})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		_, err := svc.CreateEvent(context.Background(), user, CreateEventInput{Title: "Nope"})
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestGetEventDetail(t *testing.T) {
	store := newMemStore()
	svc := newEventService(store)

	playerA := store.seedUser()
	playerB := store.seedUser()
	waiter := store.seedUser()
	captain := store.seedUser()
	eventID := store.seedEvent(models.EventStatusOpen)
	courtID := store.seedCourt(eventID, 4, true)
	emptyCourtID := store.seedCourt(eventID, 2, true)
	store.seedCaptain(eventID, courtID, captain)

	for _, p := range []uuid.UUID{playerA, playerB} {
		p := p
		store.seedRegistration(models.Registration{
			EventID:         eventID,
			Type:            models.RegistrationTypeUser,
			Status:          models.RegistrationStatusConfirmed,
			CourtID:         &courtID,
			UserID:          &p,
			CreatedByUserID: p,
		})
	}
	store.seedRegistration(models.Registration{
		EventID:         eventID,
		Type:            models.RegistrationTypeUser,
		Status:          models.RegistrationStatusWaitlist,
		UserID:          &waiter,
		CreatedByUserID: waiter,
	})

	detail, err := svc.GetEventDetail(context.Background(), eventID)
	require.NoError(t, err)

	assert.Equal(t, eventID, detail.Event.ID)
	require.Len(t, detail.Courts, 2)

	byID := make(map[uuid.UUID]CourtDetail, 2)
	for _, c := range detail.Courts {
		byID[c.ID] = c
	}
	assert.Equal(t, 2, byID[courtID].Occupied)
	assert.Equal(t, 2, byID[courtID].Available)
	assert.Len(t, byID[courtID].Confirmed, 2)
	assert.Equal(t, 0, byID[emptyCourtID].Occupied)
	assert.Equal(t, 2, byID[emptyCourtID].Available)
	assert.NotNil(t, byID[emptyCourtID].Confirmed)

	require.Len(t, detail.Waitlist, 1)
	require.Len(t, detail.Captains, 1)
	assert.Equal(t, captain, detail.Captains[0].UserID)
}

func TestGetEventDetailUnknownEvent(t *testing.T) {
	store := newMemStore()
	svc := newEventService(store)

	_, err := svc.GetEventDetail(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventLifecycleTransitions(t *testing.T) {
	store := newMemStore()
	svc := newEventService(store)
	admin := store.seedUser(models.RoleAdmin)

	t.Run("close then reopen", func(t *testing.T) {
		eventID := store.seedEvent(models.EventStatusOpen)

		event, err := svc.CloseEvent(context.Background(), eventID, admin)
		require.NoError(t, err)
		assert.Equal(t, models.EventStatusClosed, event.Status)

		event, err = svc.ReopenEvent(context.Background(), eventID, admin)
		require.NoError(t, err)
		assert.Equal(t, models.EventStatusOpen, event.Status)
	})

	t.Run("close an already closed event", func(t *testing.T) {
		eventID := store.seedEvent(models.EventStatusClosed)
		_, err := svc.CloseEvent(context.Background(), eventID, admin)
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("reopen an open event", func(t *testing.T) {
		eventID := store.seedEvent(models.EventStatusOpen)
		_, err := svc.ReopenEvent(context.Background(), eventID, admin)
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("finalize sets the timestamp", func(t *testing.T) {
		eventID := store.seedEvent(models.EventStatusClosed)
		event, err := svc.FinalizeEvent(context.Background(), eventID, admin)
		require.NoError(t, err)
		assert.Equal(t, models.EventStatusFinalized, event.Status)
		require.NotNil(t, event.FinalizedAt)
	})

	t.Run("finalize twice", func(t *testing.T) {
		eventID := store.seedEvent(models.EventStatusFinalized)
		_, err := svc.FinalizeEvent(context.Background(), eventID, admin)
		assert.ErrorIs(t, err, ErrEventFinalized)
	})

	t.Run("close a finalized event", func(t *testing.T) {
		eventID := store.seedEvent(models.EventStatusFinalized)
		_, err := svc.CloseEvent(context.Background(), eventID, admin)
		assert.ErrorIs(t, err, ErrEventFinalized)
	})

	t.Run("reopen a finalized event clears finalized_at", func(t *testing.T) {
		eventID := store.seedEvent(models.EventStatusClosed)
		_, err := svc.FinalizeEvent(context.Background(), eventID, admin)
		require.NoError(t, err)

		event, err := svc.ReopenEvent(context.Background(), eventID, admin)
		require.NoError(t, err)
		assert.Equal(t, models.EventStatusOpen, event.Status)
		assert.Nil(t, event.FinalizedAt)
	})
}

func TestUpdateCourt(t *testing.T) {
	store := newMemStore()
	svc := newEventService(store)

	admin := store.seedUser(models.RoleAdmin)
	occupantA := store.seedUser()
	occupantB := store.seedUser()
	eventID := store.seedEvent(models.EventStatusOpen)
	courtID := store.seedCourt(eventID, 4, true)

	for _, p := range []uuid.UUID{occupantA, occupantB} {
		p := p
		store.seedRegistration(models.Registration{
			EventID:         eventID,
			Type:            models.RegistrationTypeUser,
			Status:          models.RegistrationStatusConfirmed,
			CourtID:         &courtID,
			UserID:          &p,
			CreatedByUserID: p,
		})
	}

	t.Run("empty patch rejected", func(t *testing.T) {
		_, err := svc.UpdateCourt(context.Background(), eventID, courtID, admin, repositories.CourtPatch{})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("capacity cannot drop below confirmed count", func(t *testing.T) {
		capacity := 1
		_, err := svc.UpdateCourt(context.Background(), eventID, courtID, admin, repositories.CourtPatch{Capacity: &capacity})
		assert.ErrorIs(t, err, ErrCapacityBelowCount)
	})

	t.Run("shrink to the confirmed count is allowed", func(t *testing.T) {
		capacity := 2
		court, err := svc.UpdateCourt(context.Background(), eventID, courtID, admin, repositories.CourtPatch{Capacity: &capacity})
		require.NoError(t, err)
		assert.Equal(t, 2, court.Capacity)
	})

	t.Run("non-positive capacity rejected", func(t *testing.T) {
		capacity := 0
		_, err := svc.UpdateCourt(context.Background(), eventID, courtID, admin, repositories.CourtPatch{Capacity: &capacity})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("rename", func(t *testing.T) {
		name := "Cancha Central"
		court, err := svc.UpdateCourt(context.Background(), eventID, courtID, admin, repositories.CourtPatch{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Cancha Central", court.Name)
	})
}

func TestDeleteCourt(t *testing.T) {
	store := newMemStore()
	svc := newEventService(store)

	admin := store.seedUser(models.RoleAdmin)
	occupant := store.seedUser()
	captain := store.seedUser()
	eventID := store.seedEvent(models.EventStatusOpen)

	t.Run("court with registrations stays", func(t *testing.T) {
		courtID := store.seedCourt(eventID, 2, true)
		store.seedRegistration(models.Registration{
			EventID:         eventID,
			Type:            models.RegistrationTypeUser,
			Status:          models.RegistrationStatusConfirmed,
			CourtID:         &courtID,
			UserID:          &occupant,
			CreatedByUserID: occupant,
		})
		err := svc.DeleteCourt(context.Background(), eventID, courtID, admin)
		assert.ErrorIs(t, err, ErrCourtInUse)
	})

	t.Run("empty court goes along with its captains", func(t *testing.T) {
		courtID := store.seedCourt(eventID, 2, true)
		store.seedCaptain(eventID, courtID, captain)

		err := svc.DeleteCourt(context.Background(), eventID, courtID, admin)
		require.NoError(t, err)

		detail, err := svc.GetEventDetail(context.Background(), eventID)
		require.NoError(t, err)
		for _, c := range detail.Courts {
			assert.NotEqual(t, courtID, c.ID)
		}
		assert.Empty(t, detail.Captains)
	})
}

func TestCaptainAssignment(t *testing.T) {
	store := newMemStore()
	svc := newEventService(store)

	admin := store.seedUser(models.RoleAdmin)
	captain := store.seedUser()
	eventID := store.seedEvent(models.EventStatusOpen)
	courtID := store.seedCourt(eventID, 4, true)

	require.NoError(t, svc.AssignCaptain(context.Background(), eventID, courtID, captain, admin))

	err := svc.AssignCaptain(context.Background(), eventID, courtID, captain, admin)
	assert.ErrorIs(t, err, ErrCaptainConflict)

	err = svc.AssignCaptain(context.Background(), eventID, courtID, uuid.New(), admin)
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, svc.RemoveCaptain(context.Background(), eventID, courtID, captain, admin))

	err = svc.RemoveCaptain(context.Background(), eventID, courtID, captain, admin)
	assert.ErrorIs(t, err, ErrCaptainNotFound)
}

func TestAutoCloseDueEvents(t *testing.T) {
	store := newMemStore()
	svc := newEventService(store)

	now := time.Date(2025, 6, 10, 22, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	dueID := store.seedEvent(models.EventStatusOpen)
	notDueID := store.seedEvent(models.EventStatusOpen)
	noDeadlineID := store.seedEvent(models.EventStatusOpen)
	alreadyClosedID := store.seedEvent(models.EventStatusClosed)

	store.mu.Lock()
	store.events[dueID].CloseAt = &past
	store.events[notDueID].CloseAt = &future
	store.events[alreadyClosedID].CloseAt = &past
	store.mu.Unlock()

	closed, err := svc.AutoCloseDueEvents(context.Background(), now)
	require.NoError(t, err)

	require.Len(t, closed, 1)
	assert.Equal(t, dueID, closed[0])
	assert.Equal(t, models.EventStatusClosed, store.event(dueID).Status)
	assert.Equal(t, models.EventStatusOpen, store.event(notDueID).Status)
	assert.Equal(t, models.EventStatusOpen, store.event(noDeadlineID).Status)
	assert.True(t, store.hasAuditAction(models.AuditAutoCloseEvent))
}

func TestListOpenEvents(t *testing.T) {
	store := newMemStore()
	svc := newEventService(store)

	openID := store.seedEvent(models.EventStatusOpen)
	store.seedEvent(models.EventStatusClosed)
	store.seedEvent(models.EventStatusFinalized)

	events, err := svc.ListOpenEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, openID, events[0].ID)
}
