// ABOUTME: Tests for the CLI commands
// ABOUTME: Runs commands against a temporary database and checks printed output and stored state
package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/harperreed/prm/config"
	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCLI(t *testing.T) (*db.Repository, *bytes.Buffer) {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	buf := &bytes.Buffer{}
	prev := out
	out = buf
	t.Cleanup(func() { out = prev })
	return db.NewRepository(database), buf
}

func TestAddAndListPartners(t *testing.T) {
	repo, buf := setupTestCLI(t)

	require.NoError(t, AddPartnerCommand(repo, []string{
		"--name", "Acme", "--key-person", "Dana", "--products", "Payments:In pipeline; Lending",
	}))
	assert.Contains(t, buf.String(), "Partner created: Acme")

	partners, err := repo.ListPartners(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, partners, 1)
	assert.Equal(t, []models.ProductIntegration{
		{Product: "Payments", Status: models.StatusInPipeline},
		{Product: "Lending", Status: models.StatusNo},
	}, partners[0].IntegrationProducts)

	buf.Reset()
	require.NoError(t, ListPartnersCommand(repo, nil))
	assert.Contains(t, buf.String(), "Acme")
	assert.Contains(t, buf.String(), "Never")
	assert.Contains(t, buf.String(), "Total: 1 partner(s)")

	assert.Error(t, AddPartnerCommand(repo, nil))
}

func TestResolvePartner(t *testing.T) {
	repo, _ := setupTestCLI(t)
	ctx := context.Background()
	p := &models.Partner{Name: "Acme"}
	require.NoError(t, repo.CreatePartner(ctx, p))

	byName, err := resolvePartner(ctx, repo, "acme")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byName.ID)

	byPrefix, err := resolvePartner(ctx, repo, p.ID.String()[:8])
	require.NoError(t, err)
	assert.Equal(t, p.ID, byPrefix.ID)

	_, err = resolvePartner(ctx, repo, "Globex")
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = resolvePartner(ctx, repo, "")
	assert.Error(t, err)
}

func TestLogInteractionAndReminders(t *testing.T) {
	repo, buf := setupTestCLI(t)
	ctx := context.Background()
	require.NoError(t, repo.CreatePartner(ctx, &models.Partner{Name: "Acme"}))
	require.NoError(t, repo.CreatePartner(ctx, &models.Partner{Name: "Globex"}))

	require.NoError(t, LogInteractionCommand(repo, []string{"--partner", "Globex", "--type", "call", "--notes", "intro"}))
	assert.Contains(t, buf.String(), "Logged call with Globex")

	buf.Reset()
	require.NoError(t, RemindersCommand(repo, nil))
	assert.Contains(t, buf.String(), "Acme")
	assert.NotContains(t, buf.String(), "Globex")
	assert.Contains(t, buf.String(), "1 overdue, 0 upcoming")

	buf.Reset()
	require.NoError(t, AddReminderCommand(repo, []string{"--partner", "Globex", "--title", "Send contract", "--due", "2020-01-01"}))
	pending, err := repo.ListPendingReminders(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	buf.Reset()
	require.NoError(t, RemindersCommand(repo, []string{"--kind", "custom"}))
	assert.Contains(t, buf.String(), "Send contract")

	require.NoError(t, CompleteReminderCommand(repo, []string{pending[0].ID.String()}))
	assert.Error(t, CompleteReminderCommand(repo, []string{pending[0].ID.String()}))

	assert.Error(t, RemindersCommand(repo, []string{"--kind", "birthday"}))

	buf.Reset()
	require.NoError(t, HistoryCommand(repo, []string{"Globex"}))
	assert.Contains(t, buf.String(), "intro")
}

func TestDismissAndMove(t *testing.T) {
	repo, _ := setupTestCLI(t)
	ctx := context.Background()
	p := &models.Partner{
		Name:                "Acme",
		IntegrationProducts: []models.ProductIntegration{{Product: "Payments", Status: models.StatusInPipeline}},
	}
	require.NoError(t, repo.CreatePartner(ctx, p))

	require.NoError(t, DismissPartnerCommand(repo, []string{"Acme"}))
	require.NoError(t, MoveProductCommand(repo, []string{"--product", "Payments", "--status", models.StatusFinished, "Acme"}))

	got, err := repo.GetPartner(ctx, p.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.DismissedAt)
	assert.Equal(t, models.StatusFinished, got.IntegrationProducts[0].Status)
	assert.Equal(t, int64(3), got.Version)

	assert.Error(t, MoveProductCommand(repo, []string{"--product", "Lending", "--status", models.StatusFinished, "Acme"}))
}

func TestContactsAndTags(t *testing.T) {
	repo, buf := setupTestCLI(t)
	ctx := context.Background()
	p := &models.Partner{Name: "Acme"}
	require.NoError(t, repo.CreatePartner(ctx, p))

	require.NoError(t, AddContactCommand(repo, []string{"--partner", "Acme", "--name", "Sam", "--role", "CTO"}))
	buf.Reset()
	require.NoError(t, ListContactsCommand(repo, []string{"Acme"}))
	assert.Contains(t, buf.String(), "Sam")

	require.NoError(t, AddTagCommand(repo, []string{"--name", "Beta"}))
	require.NoError(t, TagPartnerCommand(repo, []string{"--tags", "beta", "Acme"}))
	tags, err := repo.ListPartnerTags(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "Beta", tags[0].Name)

	assert.Error(t, TagPartnerCommand(repo, []string{"--tags", "gamma", "Acme"}))
}

func TestAddUser(t *testing.T) {
	repo, buf := setupTestCLI(t)
	prev := passwordReader
	passwordReader = func(string) (string, error) { return "correct horse", nil }
	t.Cleanup(func() { passwordReader = prev })

	require.NoError(t, AddUserCommand(repo, []string{"--name", "Dana", "--email", "dana@example.com", "--role", models.RoleAdmin}))
	assert.Contains(t, buf.String(), "User created: Dana")

	u, err := repo.GetUserByEmail(context.Background(), "dana@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.NotEmpty(t, u.PasswordHash)

	passwordReader = func(string) (string, error) { return "short", nil }
	assert.Error(t, AddUserCommand(repo, []string{"--name", "Eve", "--email", "eve@example.com"}))
}

func TestExportAndImport(t *testing.T) {
	repo, buf := setupTestCLI(t)
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "partners.csv")
	csv := "name,vertical,use_case,key_person,health,needs_attention_days,products\n" +
		"Acme,Retail,Checkout,Dana,Active,14,Payments:In pipeline\n" +
		",Retail,,,,,\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(csv), 0644))

	require.NoError(t, ImportCommand(repo, []string{"--dry-run", csvPath}))
	assert.Contains(t, buf.String(), "1 row(s) would be imported, 1 rejected")

	buf.Reset()
	require.NoError(t, ImportCommand(repo, []string{csvPath}))
	assert.Contains(t, buf.String(), "Imported 1 partner(s)")

	xlsxPath := filepath.Join(dir, "out.xlsx")
	require.NoError(t, ExportCommand(repo, []string{"--output", xlsxPath}))
	info, err := os.Stat(xlsxPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, ImportCommand(repo, []string{filepath.Join(dir, "partners.json")}))
}

func TestVizCommands(t *testing.T) {
	repo, buf := setupTestCLI(t)
	require.NoError(t, repo.CreatePartner(context.Background(), &models.Partner{
		Name:                "Acme",
		IntegrationProducts: []models.ProductIntegration{{Product: "Payments", Status: models.StatusInDevelopment}},
	}))

	require.NoError(t, VizDashboardCommand(repo, nil))
	assert.NotEmpty(t, buf.String())

	buf.Reset()
	require.NoError(t, VizGraphPipelineCommand(repo, nil))
	assert.Contains(t, buf.String(), "digraph")

	assert.Error(t, VizGraphPipelineCommand(repo, []string{"--format", "png"}))
}

func TestSweepRequiresPush(t *testing.T) {
	repo, _ := setupTestCLI(t)
	cfg := config.Default()
	assert.Error(t, SweepCommand(context.Background(), cfg, repo, nil, nil))
}

func TestKeysCommand(t *testing.T) {
	_, buf := setupTestCLI(t)
	require.NoError(t, KeysCommand(nil))
	assert.Contains(t, buf.String(), "PRM_VAPID_PUBLIC_KEY=")
	assert.Contains(t, buf.String(), "PRM_VAPID_PRIVATE_KEY=")
}
