// ABOUTME: Tests for custom reminder and interaction persistence
// ABOUTME: Covers the pending to completed transition and interaction edits
package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/prm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderLifecycle(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	p := createTestPartner(t, repo, "Acme")

	due := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	rem := &models.CustomReminder{PartnerID: p.ID, Title: "Renewal call", DueDate: due}
	require.NoError(t, repo.CreateReminder(ctx, rem))

	pending, err := repo.ListPendingReminders(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, due.Equal(pending[0].DueDate))
	assert.False(t, pending[0].Completed)

	doneAt := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	done, err := repo.CompleteReminder(ctx, rem.ID, doneAt)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, doneAt.Equal(*done.CompletedAt))

	_, err = repo.CompleteReminder(ctx, rem.ID, doneAt)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	pending, err = repo.ListPendingReminders(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	open, err := repo.ListReminders(ctx, p.ID, false)
	require.NoError(t, err)
	assert.Empty(t, open)

	all, err := repo.ListReminders(ctx, p.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestReminderErrors(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	p := createTestPartner(t, repo, "Acme")

	assert.ErrorIs(t, repo.CreateReminder(ctx, &models.CustomReminder{PartnerID: p.ID, DueDate: time.Now()}), ErrInvalid)
	assert.ErrorIs(t, repo.CreateReminder(ctx, &models.CustomReminder{PartnerID: p.ID, Title: "x"}), ErrInvalid)
	assert.ErrorIs(t, repo.CreateReminder(ctx, &models.CustomReminder{PartnerID: uuid.New(), Title: "x", DueDate: time.Now()}), ErrNotFound)

	_, err := repo.CompleteReminder(ctx, uuid.New(), time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.DeleteReminder(ctx, uuid.New()), ErrNotFound)
}

func TestInteractionCRUD(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	p := createTestPartner(t, repo, "Acme")

	i := &models.Interaction{
		PartnerID:   p.ID,
		Date:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Type:        models.InteractionMeeting,
		Notes:       "Kickoff",
		Attachments: []models.Attachment{{Name: "deck.pdf", URL: "http://localhost/files/abc"}},
	}
	require.NoError(t, repo.CreateInteraction(ctx, i))

	got, err := repo.GetInteraction(ctx, i.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kickoff", got.Notes)
	assert.Equal(t, i.Attachments, got.Attachments)

	got.Notes = "Kickoff, follow up on pricing"
	got.Type = models.InteractionCall
	require.NoError(t, repo.UpdateInteraction(ctx, got))

	list, err := repo.ListInteractions(ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.InteractionCall, list[0].Type)

	n, err := repo.CountInteractionsSince(ctx, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.DeleteInteraction(ctx, i.ID))
	_, err = repo.GetInteraction(ctx, i.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInteractionValidation(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	p := createTestPartner(t, repo, "Acme")

	err := repo.CreateInteraction(ctx, &models.Interaction{PartnerID: p.ID, Type: "fax"})
	assert.ErrorIs(t, err, ErrInvalid)

	err = repo.CreateInteraction(ctx, &models.Interaction{PartnerID: uuid.New(), Type: models.InteractionCall})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInteractionsNewestFirst(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	p := createTestPartner(t, repo, "Acme")

	for _, day := range []int{3, 9, 5} {
		require.NoError(t, repo.CreateInteraction(ctx, &models.Interaction{
			PartnerID: p.ID,
			Date:      time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC),
			Type:      models.InteractionEmail,
		}))
	}

	list, err := repo.ListInteractions(ctx, p.ID, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 9, list[0].Date.Day())
	assert.Equal(t, 5, list[1].Date.Day())
}

func TestContactCRUD(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	p := createTestPartner(t, repo, "Acme")

	c := &models.Contact{PartnerID: p.ID, Name: "Bob", Email: "bob@acme.test"}
	require.NoError(t, repo.CreateContact(ctx, c))

	c.Role = "CTO"
	require.NoError(t, repo.UpdateContact(ctx, c))

	list, err := repo.ListContacts(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "CTO", list[0].Role)

	require.NoError(t, repo.DeleteContact(ctx, c.ID))
	assert.ErrorIs(t, repo.DeleteContact(ctx, c.ID), ErrNotFound)
}
