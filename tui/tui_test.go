// ABOUTME: Tests for the TUI model
// ABOUTME: Drives Update with key and load messages and checks views and repository side effects
package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *db.Repository {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return db.NewRepository(database)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run applies msg and then every follow-up command, the way the program loop would.
func run(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	for msg != nil {
		next, cmd := m.Update(msg)
		m = next.(Model)
		if cmd == nil {
			break
		}
		msg = cmd()
	}
	return m
}

func loaded(t *testing.T, repo *db.Repository) Model {
	t.Helper()
	m := NewModel(repo)
	return run(t, m, m.Init()())
}

func TestRemindersTab(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, repo.CreatePartner(ctx, &models.Partner{Name: "Acme"}))

	m := loaded(t, repo)
	require.Len(t, m.reminders, 1)
	assert.Equal(t, 1, m.overdue)

	view := m.View()
	assert.Contains(t, view, "Reminders (1/0)")
	assert.Contains(t, view, "Acme")
	assert.Contains(t, view, "Never contacted")
}

func TestDismissFromReminders(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	p := &models.Partner{Name: "Acme"}
	require.NoError(t, repo.CreatePartner(ctx, p))

	m := loaded(t, repo)
	m = run(t, m, key("d"))

	assert.Empty(t, m.reminders)
	assert.Contains(t, m.status, "Dismissed Acme")
	assert.Contains(t, m.View(), "Nothing needs attention")

	got, err := repo.GetPartner(ctx, p.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.DismissedAt)
}

func TestCompleteCustomReminder(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	p := &models.Partner{Name: "Acme"}
	require.NoError(t, repo.CreatePartner(ctx, p))
	require.NoError(t, repo.DismissPartner(ctx, p.ID, time.Now().UTC()))
	require.NoError(t, repo.CreateReminder(ctx, &models.CustomReminder{
		PartnerID: p.ID, Title: "Renewal call", DueDate: time.Now().UTC().AddDate(0, 0, -1),
	}))

	m := loaded(t, repo)
	require.Len(t, m.reminders, 1)
	m = run(t, m, key("c"))

	assert.Empty(t, m.reminders)
	assert.Equal(t, "Completed: Renewal call", m.status)
}

func TestCompleteRejectsAttentionReminder(t *testing.T) {
	repo := setupTestDB(t)
	require.NoError(t, repo.CreatePartner(context.Background(), &models.Partner{Name: "Acme"}))

	m := loaded(t, repo)
	m = run(t, m, key("c"))
	assert.Contains(t, m.status, "Only custom reminders")
	assert.Len(t, m.reminders, 1)
}

func TestPipelineMove(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	p := &models.Partner{
		Name:                "Acme",
		IntegrationProducts: []models.ProductIntegration{{Product: "Payments", Status: models.StatusNo}},
	}
	require.NoError(t, repo.CreatePartner(ctx, p))

	m := loaded(t, repo)
	m = run(t, m, key("tab"))
	assert.Equal(t, TabPipeline, m.tab)
	require.Len(t, m.cards, 1)
	assert.Contains(t, m.View(), "In pipeline (0)")

	m = run(t, m, key("right"))
	assert.Contains(t, m.status, "Payments → In pipeline")
	require.Len(t, m.cards, 1)
	assert.Equal(t, models.StatusInPipeline, m.cards[0].Status)

	// leftmost column cannot move further left
	got, err := repo.GetPartner(ctx, p.ID)
	require.NoError(t, err)
	m = run(t, m, key("h"))
	m = run(t, m, key("h"))
	after, err := repo.GetPartner(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNo, after.IntegrationProducts[0].Status)
	assert.Equal(t, got.Version+1, after.Version)
}

func TestPipelineMoveConflictReloads(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	p := &models.Partner{
		Name:                "Acme",
		IntegrationProducts: []models.ProductIntegration{{Product: "Payments", Status: models.StatusNo}},
	}
	require.NoError(t, repo.CreatePartner(ctx, p))

	m := loaded(t, repo)
	m = run(t, m, key("tab"))

	_, err := repo.MoveProduct(ctx, p.ID, "Payments", models.StatusFinished, 0)
	require.NoError(t, err)

	m = run(t, m, key("right"))
	assert.Contains(t, m.status, "changed elsewhere")
	assert.Equal(t, models.StatusFinished, m.cards[0].Status)
}

func TestDetailAndDelete(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	p := &models.Partner{Name: "Acme", Vertical: "Retail"}
	require.NoError(t, repo.CreatePartner(ctx, p))
	require.NoError(t, repo.CreateContact(ctx, &models.Contact{PartnerID: p.ID, Name: "Sam"}))

	m := loaded(t, repo)
	m = run(t, m, key("enter"))
	require.Equal(t, ViewDetail, m.viewMode)
	view := m.View()
	assert.Contains(t, view, "ACME")
	assert.Contains(t, view, "Retail")
	assert.Contains(t, view, "Sam")

	m = run(t, m, key("x"))
	assert.Equal(t, ViewConfirmDelete, m.viewMode)
	assert.Contains(t, m.View(), "DELETE CONFIRMATION")

	m = run(t, m, key("esc"))
	assert.Equal(t, ViewDetail, m.viewMode)

	m = run(t, m, key("x"))
	m = run(t, m, key("y"))
	assert.Equal(t, ViewList, m.viewMode)
	assert.Equal(t, "Deleted Acme", m.status)
	_, err := repo.GetPartner(ctx, p.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestGraphView(t *testing.T) {
	repo := setupTestDB(t)
	require.NoError(t, repo.CreatePartner(context.Background(), &models.Partner{
		Name:                "Acme",
		IntegrationProducts: []models.ProductIntegration{{Product: "Payments", Status: models.StatusFinished}},
	}))

	m := loaded(t, repo)
	m = run(t, m, key("tab"))
	m = run(t, m, key("g"))
	require.Equal(t, ViewGraph, m.viewMode)
	assert.True(t, strings.Contains(m.View(), "digraph"))

	m = run(t, m, key("esc"))
	assert.Equal(t, ViewList, m.viewMode)
}

func TestQuit(t *testing.T) {
	repo := setupTestDB(t)
	m := loaded(t, repo)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
