// ABOUTME: Reminder merger combining computed attention reminders with custom reminders
// ABOUTME: Produces one stable list ordered by days remaining, plus composable filters
package reminders

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/prm/models"
)

// Kind distinguishes computed reminders from user-created ones.
type Kind string

const (
	KindAttention Kind = "attention"
	KindCustom    Kind = "custom"
)

// NeverDaysRemaining sorts never-touched partners ahead of everything else.
// It is internal to sorting and never serialized.
const NeverDaysRemaining = math.MinInt

// Reminder is one entry of the merged list.
type Reminder struct {
	Kind          Kind      `json:"kind"`
	Level         Level     `json:"level"`
	PartnerID     uuid.UUID `json:"partner_id"`
	PartnerName   string    `json:"partner_name"`
	KeyPerson     string    `json:"key_person,omitempty"`
	DaysRemaining int       `json:"days_remaining"`

	// attention reminders
	DaysSince int  `json:"days_since,omitempty"`
	Never     bool `json:"never,omitempty"`

	// custom reminders
	ReminderID *uuid.UUID `json:"reminder_id,omitempty"`
	Title      string     `json:"title,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
}

// MarshalJSON omits days_remaining for never-touched partners; those carry
// never: true instead of the sort sentinel.
func (r Reminder) MarshalJSON() ([]byte, error) {
	type plain Reminder
	out := struct {
		plain
		DaysRemaining *int `json:"days_remaining,omitempty"`
	}{plain: plain(r)}
	if !r.Never {
		days := r.DaysRemaining
		out.DaysRemaining = &days
	}
	return json.Marshal(out)
}

// Summary is a one-line human description of the reminder.
func (r Reminder) Summary() string {
	if r.Kind == KindCustom {
		if r.Level == LevelOverdue {
			return fmt.Sprintf("%s (due %s)", r.Title, r.DueDate.Format("2006-01-02"))
		}
		return fmt.Sprintf("%s (in %d days)", r.Title, r.DaysRemaining)
	}
	if r.Never {
		return "Never contacted"
	}
	if r.Level == LevelOverdue {
		return fmt.Sprintf("No contact for %d days", r.DaysSince)
	}
	return fmt.Sprintf("Follow up within %d days", r.DaysRemaining)
}

// Merge builds the reminder list for the fleet. Dormant partners contribute
// nothing. Each other partner contributes at most one attention reminder
// (upcoming or overdue only) and one entry per pending custom reminder.
// The result is stably sorted by DaysRemaining, most overdue first.
func Merge(partners []models.Partner, custom []models.CustomReminder, now time.Time) []Reminder {
	byPartner := make(map[uuid.UUID][]models.CustomReminder)
	for _, c := range custom {
		if c.Completed {
			continue
		}
		byPartner[c.PartnerID] = append(byPartner[c.PartnerID], c)
	}

	out := make([]Reminder, 0)
	for i := range partners {
		p := &partners[i]
		if p.HealthStatus == models.HealthDormant {
			continue
		}

		att := Evaluate(p, now)
		if att.Level != LevelGood {
			r := Reminder{
				Kind:        KindAttention,
				Level:       att.Level,
				PartnerID:   p.ID,
				PartnerName: p.Name,
				KeyPerson:   p.KeyPerson(),
				DaysSince:   att.DaysSince,
				Never:       att.Never,
			}
			if att.Never {
				r.DaysRemaining = NeverDaysRemaining
			} else {
				r.DaysRemaining = p.NeedsAttentionDays - att.DaysSince
			}
			out = append(out, r)
		}

		for _, c := range byPartner[p.ID] {
			id := c.ID
			due := c.DueDate
			level := LevelUpcoming
			if !due.After(now) {
				level = LevelOverdue
			}
			out = append(out, Reminder{
				Kind:          KindCustom,
				Level:         level,
				PartnerID:     p.ID,
				PartnerName:   p.Name,
				KeyPerson:     p.KeyPerson(),
				DaysRemaining: DaysBetween(now, due),
				ReminderID:    &id,
				Title:         c.Title,
				DueDate:       &due,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysRemaining < out[j].DaysRemaining
	})
	return out
}

// Filter narrows a merged list. Zero-valued fields match everything and
// set fields compose with AND.
type Filter struct {
	Level     Level
	Kind      Kind
	PartnerID *uuid.UUID
	KeyPerson string
}

// ErrInvalidFilter reports an unknown level or kind.
var ErrInvalidFilter = errors.New("invalid reminder filter")

// Validate rejects levels and kinds the merged list never contains.
func (f Filter) Validate() error {
	switch f.Level {
	case "", LevelOverdue, LevelUpcoming:
	default:
		return fmt.Errorf("%w: unknown level %q", ErrInvalidFilter, f.Level)
	}
	switch f.Kind {
	case "", KindAttention, KindCustom:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidFilter, f.Kind)
	}
	return nil
}

func (f Filter) Match(r Reminder) bool {
	if f.Level != "" && r.Level != f.Level {
		return false
	}
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.PartnerID != nil && r.PartnerID != *f.PartnerID {
		return false
	}
	if f.KeyPerson != "" && r.KeyPerson != f.KeyPerson {
		return false
	}
	return true
}

// Apply returns the reminders matching f, preserving order.
func (f Filter) Apply(list []Reminder) []Reminder {
	out := make([]Reminder, 0, len(list))
	for _, r := range list {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Counts tallies a merged list by level.
func Counts(list []Reminder) (overdue, upcoming int) {
	for _, r := range list {
		switch r.Level {
		case LevelOverdue:
			overdue++
		case LevelUpcoming:
			upcoming++
		}
	}
	return overdue, upcoming
}
