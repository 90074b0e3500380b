// ABOUTME: Tests for dashboard statistics, rendering and the pipeline graph
// ABOUTME: Uses a static in-memory stats source
package viz

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/prm/models"
	"github.com/harperreed/prm/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type staticSource struct {
	partners []models.Partner
	custom   []models.CustomReminder
	recent   int
}

func (s staticSource) ListPartners(context.Context, string) ([]models.Partner, error) {
	return s.partners, nil
}

func (s staticSource) ListPendingReminders(context.Context) ([]models.CustomReminder, error) {
	return s.custom, nil
}

func (s staticSource) CountInteractionsSince(context.Context, time.Time) (int, error) {
	return s.recent, nil
}

func fixture() staticSource {
	last := now.AddDate(0, 0, -40)
	acme := models.Partner{
		ID: uuid.New(), Name: "Acme", HealthStatus: models.HealthActive, NeedsAttentionDays: 30,
		LastInteractionDate: &last,
		IntegrationProducts: []models.ProductIntegration{
			{Product: "API", Status: models.StatusInPipeline},
			{Product: "SDK", Status: models.StatusFinished},
		},
	}
	globex := models.Partner{
		ID: uuid.New(), Name: "Globex", HealthStatus: models.HealthDormant, NeedsAttentionDays: 30,
		IntegrationProducts: []models.ProductIntegration{{Product: "API", Status: models.StatusCancelled}},
	}
	return staticSource{
		partners: []models.Partner{acme, globex},
		custom: []models.CustomReminder{
			{ID: uuid.New(), PartnerID: acme.ID, Title: "QBR", DueDate: now.AddDate(0, 0, 3)},
		},
		recent: 4,
	}
}

func TestGenerateDashboardStats(t *testing.T) {
	stats, err := GenerateDashboardStats(context.Background(), fixture(), now)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalPartners)
	assert.Equal(t, 1, stats.ByHealth[models.HealthActive])
	assert.Equal(t, 0, stats.ByHealth[models.HealthAtRisk])
	assert.Equal(t, 1, stats.ByHealth[models.HealthDormant])
	assert.Equal(t, 1, stats.Overdue)
	assert.Equal(t, 1, stats.Upcoming)
	assert.Equal(t, 4, stats.RecentTouches)

	require.Len(t, stats.Pipeline, len(models.IntegrationStatuses))
	assert.Equal(t, StatusCount{Status: models.StatusNo, Count: 0}, stats.Pipeline[0])
	assert.Equal(t, StatusCount{Status: models.StatusInPipeline, Count: 1}, stats.Pipeline[1])

	require.Len(t, stats.NeedsAttention, 1)
	assert.Equal(t, "Acme", stats.NeedsAttention[0].PartnerName)
}

func TestRenderDashboard(t *testing.T) {
	stats, err := GenerateDashboardStats(context.Background(), fixture(), now)
	require.NoError(t, err)

	out := RenderDashboard(stats)
	assert.Contains(t, out, "PRM DASHBOARD")
	assert.Contains(t, out, "In pipeline")
	assert.Contains(t, out, "1 overdue")
	assert.Contains(t, out, "No contact for 40 days")
	assert.True(t, strings.Index(out, "In pipeline") < strings.Index(out, "Not interested"))
}

func TestGeneratePipelineGraph(t *testing.T) {
	board := pipeline.Build(fixture().partners, pipeline.Filter{})

	dot, err := GeneratePipelineGraph(context.Background(), board, FormatDOT)
	require.NoError(t, err)
	assert.Contains(t, dot, "Acme")
	assert.Contains(t, dot, "SDK")
	assert.Contains(t, dot, "forestgreen")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
