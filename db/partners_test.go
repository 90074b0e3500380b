// ABOUTME: Tests for partner persistence
// ABOUTME: Covers derived last interaction date, cascades, bulk delete rollback and version conflicts
package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/prm/models"
	"github.com/harperreed/prm/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetPartner(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	dana := "Dana"

	p := &models.Partner{Name: "Acme", KeyPersonID: &dana, Vertical: "Retail"}
	require.NoError(t, repo.CreatePartner(ctx, p))
	assert.Equal(t, models.HealthActive, p.HealthStatus)
	assert.Equal(t, models.DefaultNeedsAttentionDays, p.NeedsAttentionDays)
	assert.Equal(t, int64(1), p.Version)

	got, err := repo.GetPartner(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, "Dana", got.KeyPerson())
	assert.Nil(t, got.LastInteractionDate)
	assert.NotNil(t, got.IntegrationProducts)
	assert.Empty(t, got.IntegrationProducts)
}

func TestCreatePartnerValidation(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	assert.ErrorIs(t, repo.CreatePartner(ctx, &models.Partner{Name: " "}), ErrInvalid)
	assert.ErrorIs(t, repo.CreatePartner(ctx, &models.Partner{Name: "X", HealthStatus: "Thriving"}), ErrInvalid)
	assert.ErrorIs(t, repo.CreatePartner(ctx, &models.Partner{Name: "X", NeedsAttentionDays: -3}), ErrInvalid)
}

func TestGetPartnerNotFound(t *testing.T) {
	repo := setupTestDB(t)
	_, err := repo.GetPartner(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLastInteractionDateIsDerived(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	p := createTestPartner(t, repo, "Acme")

	older := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 2, 20, 15, 30, 0, 0, time.UTC)
	require.NoError(t, repo.CreateInteraction(ctx, &models.Interaction{PartnerID: p.ID, Date: newer, Type: models.InteractionCall}))
	require.NoError(t, repo.CreateInteraction(ctx, &models.Interaction{PartnerID: p.ID, Date: older, Type: models.InteractionEmail}))

	got, err := repo.GetPartner(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastInteractionDate)
	assert.True(t, newer.Equal(*got.LastInteractionDate), "got %v", got.LastInteractionDate)

	list, err := repo.ListPartners(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].LastInteractionDate)
	assert.True(t, newer.Equal(*list[0].LastInteractionDate))
}

func TestListPartnersSearch(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	createTestPartner(t, repo, "Globex")
	createTestPartner(t, repo, "acme")
	createTestPartner(t, repo, "Initech")

	all, err := repo.ListPartners(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "acme", all[0].Name)

	found, err := repo.ListPartners(ctx, "GLOB")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Globex", found[0].Name)
}

func TestListPartnersSearchTreatsWildcardsLiterally(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	createTestPartner(t, repo, "a_b")
	createTestPartner(t, repo, "axb")
	createTestPartner(t, repo, "100% Co")
	createTestPartner(t, repo, "1000 Co")

	found, err := repo.ListPartners(ctx, "a_b")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "a_b", found[0].Name)

	found, err = repo.ListPartners(ctx, "0%")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "100% Co", found[0].Name)
}

func TestUpdatePartnerVersionConflict(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	p := createTestPartner(t, repo, "Acme")

	stale := *p
	p.HealthStatus = models.HealthAtRisk
	require.NoError(t, repo.UpdatePartner(ctx, p))
	assert.Equal(t, int64(2), p.Version)

	stale.Name = "Acme Renamed"
	assert.ErrorIs(t, repo.UpdatePartner(ctx, &stale), ErrConflict)

	missing := &models.Partner{ID: uuid.New(), Name: "Ghost", Version: 1}
	assert.ErrorIs(t, repo.UpdatePartner(ctx, missing), ErrNotFound)

	got, err := repo.GetPartner(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, models.HealthAtRisk, got.HealthStatus)
}

func TestDismissPartner(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	p := createTestPartner(t, repo, "Acme")

	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.DismissPartner(ctx, p.ID, at))

	got, err := repo.GetPartner(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DismissedAt)
	assert.True(t, at.Equal(*got.DismissedAt))
	assert.Equal(t, int64(2), got.Version)

	assert.ErrorIs(t, repo.DismissPartner(ctx, uuid.New(), at), ErrNotFound)
}

func TestDeletePartnerCascades(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	p := createTestPartner(t, repo, "Acme")

	require.NoError(t, repo.CreateContact(ctx, &models.Contact{PartnerID: p.ID, Name: "Alice"}))
	require.NoError(t, repo.CreateInteraction(ctx, &models.Interaction{PartnerID: p.ID, Type: models.InteractionMeeting}))
	require.NoError(t, repo.CreateReminder(ctx, &models.CustomReminder{PartnerID: p.ID, Title: "QBR", DueDate: time.Now()}))
	tag := &models.Tag{Name: "strategic"}
	require.NoError(t, repo.CreateTag(ctx, tag))
	require.NoError(t, repo.SetPartnerTags(ctx, p.ID, []uuid.UUID{tag.ID}))

	require.NoError(t, repo.DeletePartner(ctx, p.ID))

	for _, table := range []string{"contacts", "interactions", "custom_reminders", "partner_tags"} {
		var n int
		require.NoError(t, repo.DB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, "%s should be empty", table)
	}

	tags, err := repo.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1, "tags themselves survive")

	assert.ErrorIs(t, repo.DeletePartner(ctx, p.ID), ErrNotFound)
}

func TestBulkDeletePartners(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	a := createTestPartner(t, repo, "A")
	b := createTestPartner(t, repo, "B")
	c := createTestPartner(t, repo, "C")

	n, err := repo.BulkDeletePartners(ctx, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := repo.ListPartners(ctx, "")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, c.ID, left[0].ID)
}

func TestBulkDeletePartnersRollsBackOnUnknownID(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	a := createTestPartner(t, repo, "A")
	b := createTestPartner(t, repo, "B")

	_, err := repo.BulkDeletePartners(ctx, []uuid.UUID{a.ID, uuid.New(), b.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	left, err := repo.ListPartners(ctx, "")
	require.NoError(t, err)
	assert.Len(t, left, 2, "nothing deleted")
}

func TestMoveProductLeavesOtherEntriesUnchanged(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	p := createTestPartner(t, repo, "Acme",
		models.ProductIntegration{Product: "API", Status: models.StatusInPipeline},
		models.ProductIntegration{Product: "SDK", Status: models.StatusOnHold},
	)

	moved, err := repo.MoveProduct(ctx, p.ID, "API", models.StatusFinished, p.Version)
	require.NoError(t, err)
	assert.Equal(t, []models.ProductIntegration{
		{Product: "API", Status: models.StatusFinished},
		{Product: "SDK", Status: models.StatusOnHold},
	}, moved.IntegrationProducts)
	assert.Equal(t, p.Version+1, moved.Version)
}

func TestMoveProductKeepsUnreadableEntries(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	p := createTestPartner(t, repo, "Acme")

	stored := `[{"product":"API","status":"In pipeline"},{"product":"SDK","status":"Paused"},{"product":"","status":"No"}]`
	_, err := repo.DB().Exec(`UPDATE partners SET integration_products = ? WHERE id = ?`, stored, p.ID.String())
	require.NoError(t, err)

	moved, err := repo.MoveProduct(ctx, p.ID, "API", models.StatusFinished, 0)
	require.NoError(t, err)
	assert.Equal(t, []models.ProductIntegration{{Product: "API", Status: models.StatusFinished}}, moved.IntegrationProducts)

	var raw string
	require.NoError(t, repo.DB().QueryRow(`SELECT integration_products FROM partners WHERE id = ?`, p.ID.String()).Scan(&raw))
	assert.JSONEq(t,
		`[{"product":"API","status":"Finished"},{"product":"SDK","status":"Paused"},{"product":"","status":"No"}]`,
		raw)

	// unreadable entries cannot be moved
	_, err = repo.MoveProduct(ctx, p.ID, "SDK", models.StatusFinished, 0)
	assert.ErrorIs(t, err, pipeline.ErrProductNotFound)
}

func TestMoveProductConflictAndErrors(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	p := createTestPartner(t, repo, "Acme",
		models.ProductIntegration{Product: "API", Status: models.StatusNo},
		models.ProductIntegration{Product: "SDK", Status: models.StatusNo},
	)

	_, err := repo.MoveProduct(ctx, p.ID, "API", models.StatusInPipeline, p.Version)
	require.NoError(t, err)

	// A second client still holding version 1 loses the race.
	_, err = repo.MoveProduct(ctx, p.ID, "SDK", models.StatusFinished, p.Version)
	assert.ErrorIs(t, err, ErrConflict)

	got, err := repo.GetPartner(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNo, got.IntegrationProducts[1].Status)
	assert.Equal(t, models.StatusInPipeline, got.IntegrationProducts[0].Status)

	_, err = repo.MoveProduct(ctx, p.ID, "Webhooks", models.StatusFinished, 0)
	assert.Error(t, err)

	_, err = repo.MoveProduct(ctx, uuid.New(), "API", models.StatusFinished, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetPartnerProducts(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	p := createTestPartner(t, repo, "Acme")

	products := []models.ProductIntegration{{Product: "API", Status: models.StatusInDevelopment}}
	got, err := repo.SetPartnerProducts(ctx, p.ID, products, p.Version)
	require.NoError(t, err)
	assert.Equal(t, products, got.IntegrationProducts)

	_, err = repo.SetPartnerProducts(ctx, p.ID, []models.ProductIntegration{{Product: "API", Status: "Live"}}, 0)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestMalformedProductColumnReadsAsEmpty(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	p := createTestPartner(t, repo, "Acme")

	_, err := repo.DB().Exec(`UPDATE partners SET integration_products = '{not json' WHERE id = ?`, p.ID.String())
	require.NoError(t, err)

	got, err := repo.GetPartner(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.IntegrationProducts)
}
