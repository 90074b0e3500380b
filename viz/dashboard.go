// ABOUTME: Dashboard statistics and terminal rendering
// ABOUTME: Summarises partner health, pipeline columns, reminder counts and recent activity
package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/prm/models"
	"github.com/harperreed/prm/pipeline"
	"github.com/harperreed/prm/reminders"
)

// StatsSource is the data the dashboard reads.
type StatsSource interface {
	ListPartners(ctx context.Context, search string) ([]models.Partner, error)
	ListPendingReminders(ctx context.Context) ([]models.CustomReminder, error)
	CountInteractionsSince(ctx context.Context, since time.Time) (int, error)
}

type DashboardStats struct {
	TotalPartners  int                  `json:"total_partners"`
	ByHealth       map[string]int       `json:"by_health"`
	Pipeline       []StatusCount        `json:"pipeline"`
	Overdue        int                  `json:"overdue"`
	Upcoming       int                  `json:"upcoming"`
	RecentTouches  int                  `json:"recent_interactions"`
	NeedsAttention []reminders.Reminder `json:"needs_attention"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// attentionListSize caps the needs-attention section.
const attentionListSize = 10

func GenerateDashboardStats(ctx context.Context, src StatsSource, now time.Time) (*DashboardStats, error) {
	partners, err := src.ListPartners(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch partners: %w", err)
	}
	custom, err := src.ListPendingReminders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reminders: %w", err)
	}
	recent, err := src.CountInteractionsSince(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, fmt.Errorf("failed to count interactions: %w", err)
	}

	stats := &DashboardStats{
		TotalPartners: len(partners),
		ByHealth:      make(map[string]int, len(models.HealthStatuses)),
		RecentTouches: recent,
	}
	for _, h := range models.HealthStatuses {
		stats.ByHealth[h] = 0
	}
	for _, p := range partners {
		stats.ByHealth[p.HealthStatus]++
	}

	board := pipeline.Build(partners, pipeline.Filter{})
	for _, col := range board.Columns {
		stats.Pipeline = append(stats.Pipeline, StatusCount{Status: col.Status, Count: len(col.Items)})
	}

	merged := reminders.Merge(partners, custom, now)
	stats.Overdue, stats.Upcoming = reminders.Counts(merged)

	overdue := reminders.Filter{Level: reminders.LevelOverdue}.Apply(merged)
	if len(overdue) > attentionListSize {
		overdue = overdue[:attentionListSize]
	}
	stats.NeedsAttention = overdue

	return stats, nil
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  PRM DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("PIPELINE\n")
	renderPipeline(&out, stats.Pipeline)
	out.WriteString("\n")

	out.WriteString("PARTNERS\n")
	out.WriteString(fmt.Sprintf("  🤝 %d partners  🟢 %d active  🟡 %d at risk  ⚪ %d dormant\n",
		stats.TotalPartners,
		stats.ByHealth[models.HealthActive],
		stats.ByHealth[models.HealthAtRisk],
		stats.ByHealth[models.HealthDormant]))
	out.WriteString(fmt.Sprintf("  📞 %d interactions in the last 7 days\n\n", stats.RecentTouches))

	out.WriteString("REMINDERS\n")
	out.WriteString(fmt.Sprintf("  🔴 %d overdue  🟠 %d upcoming\n", stats.Overdue, stats.Upcoming))

	if len(stats.NeedsAttention) > 0 {
		out.WriteString("\nNEEDS ATTENTION\n")
		for _, r := range stats.NeedsAttention {
			out.WriteString(fmt.Sprintf("  ⚠️  %-24s %s\n", truncate(r.PartnerName, 24), r.Summary()))
		}
	}

	return out.String()
}

func renderPipeline(out *strings.Builder, counts []StatusCount) {
	maxCount := 0
	for _, c := range counts {
		if c.Count > maxCount {
			maxCount = c.Count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, c := range counts {
		barLength := (c.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-15s %s  %2d\n", c.Status, bar, c.Count))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
