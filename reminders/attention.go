// ABOUTME: Attention calculator deciding when a partner needs follow-up
// ABOUTME: Pure date arithmetic over last interaction, dismissal and per-partner threshold
package reminders

import (
	"math"
	"strconv"
	"time"

	"github.com/harperreed/prm/models"
)

// Level is the tri-state attention classification.
type Level string

const (
	LevelGood     Level = "good"
	LevelUpcoming Level = "upcoming"
	LevelOverdue  Level = "overdue"
)

// UpcomingWindowDays is how close to the threshold a partner must be to show as upcoming.
const UpcomingWindowDays = 7

// Attention is the result of evaluating one partner.
type Attention struct {
	Level     Level      `json:"level"`
	DaysSince int        `json:"days_since"`
	Never     bool       `json:"never"`
	Excluded  bool       `json:"excluded"`
	LastTouch *time.Time `json:"last_touch,omitempty"`
}

// NeedsAttention reports whether the partner is past its threshold.
func (a Attention) NeedsAttention() bool {
	return !a.Excluded && a.Level == LevelOverdue
}

// DaysLabel renders DaysSince, or "Never" for untouched partners.
func (a Attention) DaysLabel() string {
	if a.Never {
		return "Never"
	}
	return strconv.Itoa(a.DaysSince)
}

// LastTouch returns the later of the last interaction and the last dismissal.
func LastTouch(p *models.Partner) *time.Time {
	switch {
	case p.LastInteractionDate == nil:
		return p.DismissedAt
	case p.DismissedAt == nil:
		return p.LastInteractionDate
	case p.DismissedAt.After(*p.LastInteractionDate):
		return p.DismissedAt
	default:
		return p.LastInteractionDate
	}
}

// Evaluate classifies a partner against now. Dormant partners are excluded
// and always classify as good.
func Evaluate(p *models.Partner, now time.Time) Attention {
	if p.HealthStatus == models.HealthDormant {
		return Attention{Level: LevelGood, Excluded: true}
	}

	touch := LastTouch(p)
	if touch == nil {
		return Attention{Level: LevelOverdue, Never: true}
	}

	daysSince := DaysBetween(*touch, now)
	a := Attention{DaysSince: daysSince, LastTouch: touch, Level: LevelGood}

	switch {
	case daysSince > p.NeedsAttentionDays:
		a.Level = LevelOverdue
	case p.NeedsAttentionDays-daysSince <= UpcomingWindowDays:
		a.Level = LevelUpcoming
	}
	return a
}

// DaysBetween returns floor((to - from) / 24h).
func DaysBetween(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}
