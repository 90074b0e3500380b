// ABOUTME: Tests for the reminder merger and filters
// ABOUTME: Checks ordering, custom reminder lifecycle, dormant exclusion and no-dedup policy
package reminders

import (
	"encoding/json"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/prm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customFor(p models.Partner, title string, due time.Time) models.CustomReminder {
	return models.CustomReminder{
		ID:        uuid.New(),
		PartnerID: p.ID,
		Title:     title,
		DueDate:   due,
		CreatedAt: now.AddDate(0, 0, -30),
	}
}

func TestMergeCustomReminderLifecycle(t *testing.T) {
	p := newPartner("Acme")
	p.LastInteractionDate = daysAgo(1)
	c := customFor(p, "Send contract", now.AddDate(0, 0, -1))

	list := Merge([]models.Partner{p}, []models.CustomReminder{c}, now)
	require.Len(t, list, 1)
	assert.Equal(t, KindCustom, list[0].Kind)
	assert.Equal(t, LevelOverdue, list[0].Level)
	assert.Equal(t, "Send contract", list[0].Title)
	assert.Equal(t, c.ID, *list[0].ReminderID)

	c.Completed = true
	completedAt := now
	c.CompletedAt = &completedAt
	// attention reminders may fire later on; the completed custom one never returns
	for _, when := range []time.Time{now, now.AddDate(0, 0, 10), now.AddDate(1, 0, 0)} {
		list := Merge([]models.Partner{p}, []models.CustomReminder{c}, when)
		assert.Empty(t, Filter{Kind: KindCustom}.Apply(list), "at %s", when)
	}
	assert.Empty(t, Merge([]models.Partner{p}, []models.CustomReminder{c}, now))
}

func TestMergeFutureCustomIsUpcoming(t *testing.T) {
	p := newPartner("Acme")
	p.LastInteractionDate = daysAgo(1)
	c := customFor(p, "Quarterly review", now.AddDate(0, 0, 12))

	list := Merge([]models.Partner{p}, []models.CustomReminder{c}, now)

	require.Len(t, list, 1)
	assert.Equal(t, LevelUpcoming, list[0].Level)
	assert.Equal(t, 12, list[0].DaysRemaining)
}

func TestMergeDueExactlyNowIsOverdue(t *testing.T) {
	p := newPartner("Acme")
	p.LastInteractionDate = daysAgo(1)
	c := customFor(p, "Call back", now)

	list := Merge([]models.Partner{p}, []models.CustomReminder{c}, now)

	require.Len(t, list, 1)
	assert.Equal(t, LevelOverdue, list[0].Level)
}

func TestMergeNeverTouchedAndCustomBothEmitted(t *testing.T) {
	p := newPartner("Fresh")
	c := customFor(p, "Kickoff", now.Add(-time.Hour))

	list := Merge([]models.Partner{p}, []models.CustomReminder{c}, now)

	require.Len(t, list, 2)
	assert.Equal(t, KindAttention, list[0].Kind)
	assert.True(t, list[0].Never)
	assert.Equal(t, math.MinInt, list[0].DaysRemaining)
	assert.Equal(t, KindCustom, list[1].Kind)
	assert.Equal(t, LevelOverdue, list[1].Level)
}

func TestMergeSkipsDormantPartners(t *testing.T) {
	p := newPartner("Sleepy")
	p.HealthStatus = models.HealthDormant
	c := customFor(p, "Ping", now.AddDate(0, 0, -3))

	assert.Empty(t, Merge([]models.Partner{p}, []models.CustomReminder{c}, now))
}

func TestMergeSkipsGoodPartners(t *testing.T) {
	p := newPartner("Happy")
	p.LastInteractionDate = daysAgo(2)

	assert.Empty(t, Merge([]models.Partner{p}, nil, now))
}

func TestMergeOrdering(t *testing.T) {
	never := newPartner("Never")
	veryLate := newPartner("VeryLate")
	veryLate.LastInteractionDate = daysAgo(90)
	late := newPartner("Late")
	late.LastInteractionDate = daysAgo(35)
	soon := newPartner("Soon")
	soon.LastInteractionDate = daysAgo(27)
	fine := newPartner("Fine")
	fine.LastInteractionDate = daysAgo(1)

	customs := []models.CustomReminder{
		customFor(fine, "Far future", now.AddDate(0, 0, 40)),
		customFor(fine, "Last week", now.AddDate(0, 0, -7)),
	}

	list := Merge([]models.Partner{fine, soon, late, veryLate, never}, customs, now)

	var names []string
	for _, r := range list {
		names = append(names, r.PartnerName+"/"+string(r.Kind))
	}
	assert.Equal(t, []string{
		"Never/attention",
		"VeryLate/attention",
		"Fine/custom",
		"Late/attention",
		"Soon/attention",
		"Fine/custom",
	}, names)

	for i := 1; i < len(list); i++ {
		assert.LessOrEqual(t, list[i-1].DaysRemaining, list[i].DaysRemaining)
	}
}

func TestMergeIsStableOnTies(t *testing.T) {
	a := newPartner("A")
	a.LastInteractionDate = daysAgo(40)
	b := newPartner("B")
	b.LastInteractionDate = daysAgo(40)
	c := newPartner("C")
	c.LastInteractionDate = daysAgo(40)

	list := Merge([]models.Partner{a, b, c}, nil, now)

	require.Len(t, list, 3)
	assert.Equal(t, "A", list[0].PartnerName)
	assert.Equal(t, "B", list[1].PartnerName)
	assert.Equal(t, "C", list[2].PartnerName)
}

func TestMergeIgnoresOrphanCustomReminders(t *testing.T) {
	p := newPartner("Acme")
	p.LastInteractionDate = daysAgo(1)
	orphan := models.CustomReminder{ID: uuid.New(), PartnerID: uuid.New(), Title: "Ghost", DueDate: now}

	assert.Empty(t, Merge([]models.Partner{p}, []models.CustomReminder{orphan}, now))
}

func TestFilterComposes(t *testing.T) {
	dana := "Dana"
	p1 := newPartner("One")
	p1.KeyPersonID = &dana
	p2 := newPartner("Two")
	p2.LastInteractionDate = daysAgo(26)

	customs := []models.CustomReminder{customFor(p1, "Renewal", now.AddDate(0, 0, 3))}
	list := Merge([]models.Partner{p1, p2}, customs, now)
	require.Len(t, list, 3)

	assert.Len(t, Filter{Level: LevelOverdue}.Apply(list), 1)
	assert.Len(t, Filter{Level: LevelUpcoming}.Apply(list), 2)
	assert.Len(t, Filter{Kind: KindCustom}.Apply(list), 1)
	assert.Len(t, Filter{KeyPerson: "Dana"}.Apply(list), 2)
	assert.Len(t, Filter{KeyPerson: "Dana", Level: LevelUpcoming}.Apply(list), 1)
	assert.Len(t, Filter{PartnerID: &p2.ID}.Apply(list), 1)
	assert.Len(t, Filter{}.Apply(list), 3)

	overdue, upcoming := Counts(list)
	assert.Equal(t, 1, overdue)
	assert.Equal(t, 2, upcoming)
}

func TestReminderSummary(t *testing.T) {
	due := now.AddDate(0, 0, -2)
	assert.Equal(t, "Never contacted", Reminder{Kind: KindAttention, Never: true, Level: LevelOverdue}.Summary())
	assert.Equal(t, "No contact for 40 days", Reminder{Kind: KindAttention, DaysSince: 40, Level: LevelOverdue}.Summary())
	assert.Equal(t, "Follow up within 3 days", Reminder{Kind: KindAttention, DaysRemaining: 3, Level: LevelUpcoming}.Summary())
	assert.Equal(t, "Renewal (due 2026-03-13)", Reminder{Kind: KindCustom, Title: "Renewal", DueDate: &due, Level: LevelOverdue}.Summary())
}

func TestFilterValidate(t *testing.T) {
	assert.NoError(t, Filter{}.Validate())
	assert.NoError(t, Filter{Level: LevelOverdue, Kind: KindCustom}.Validate())
	assert.ErrorIs(t, Filter{Level: LevelGood}.Validate(), ErrInvalidFilter)
	assert.ErrorIs(t, Filter{Kind: "birthday"}.Validate(), ErrInvalidFilter)
}

func TestReminderJSONHidesNeverSentinel(t *testing.T) {
	p := newPartner("Fresh")
	touched := newPartner("Touched")
	touched.LastInteractionDate = daysAgo(40)

	list := Merge([]models.Partner{p, touched}, nil, now)
	require.Len(t, list, 2)

	data, err := json.Marshal(list[0])
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, true, fields["never"])
	assert.NotContains(t, fields, "days_remaining")
	assert.NotContains(t, string(data), strconv.Itoa(math.MinInt))

	data, err = json.Marshal(list[1])
	require.NoError(t, err)
	fields = nil
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, float64(-10), fields["days_remaining"])
	assert.Equal(t, "Touched", fields["partner_name"])
}
