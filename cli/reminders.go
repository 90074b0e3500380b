// ABOUTME: Reminder CLI commands
// ABOUTME: Lists the merged reminder feed and manages custom reminders
package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/models"
	"github.com/harperreed/prm/reminders"
)

// RemindersCommand lists overdue and upcoming reminders, most overdue first.
func RemindersCommand(repo *db.Repository, args []string) error {
	fs := flag.NewFlagSet("reminders", flag.ExitOnError)
	overdueOnly := fs.Bool("overdue-only", false, "Show only overdue reminders")
	kind := fs.String("kind", "", "Filter by kind (attention, custom)")
	keyPerson := fs.String("key-person", "", "Only partners owned by this key person")
	limit := fs.Int("limit", 50, "Maximum number of reminders to show")
	_ = fs.Parse(args)
	ctx := context.Background()

	f := reminders.Filter{Kind: reminders.Kind(*kind), KeyPerson: *keyPerson}
	if *overdueOnly {
		f.Level = reminders.LevelOverdue
	}
	if err := f.Validate(); err != nil {
		return err
	}

	partners, err := repo.ListPartners(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to list partners: %w", err)
	}
	pending, err := repo.ListPendingReminders(ctx)
	if err != nil {
		return fmt.Errorf("failed to list reminders: %w", err)
	}
	list := f.Apply(reminders.Merge(partners, pending, time.Now().UTC()))
	overdue, upcoming := reminders.Counts(list)
	if len(list) > *limit {
		list = list[:*limit]
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PARTNER\tKIND\tKEY PERSON\tSUMMARY\tID")
	_, _ = fmt.Fprintln(w, "-------\t----\t----------\t-------\t--")
	for _, r := range list {
		icon := "🟡"
		if r.Level == reminders.LevelOverdue {
			icon = "🔴"
		}
		id := shortID(r.PartnerID)
		if r.ReminderID != nil {
			id = shortID(*r.ReminderID)
		}
		_, _ = fmt.Fprintf(w, "%s %s\t%s\t%s\t%s\t%s\n",
			icon, r.PartnerName, r.Kind, orDash(r.KeyPerson), r.Summary(), id)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\n%d overdue, %d upcoming\n", overdue, upcoming)
	return nil
}

// AddReminderCommand creates a custom reminder on a partner.
func AddReminderCommand(repo *db.Repository, args []string) error {
	fs := flag.NewFlagSet("add-reminder", flag.ExitOnError)
	partner := fs.String("partner", "", "Partner ID or name (required)")
	title := fs.String("title", "", "What needs to happen (required)")
	due := fs.String("due", "", "Due date as YYYY-MM-DD (required)")
	_ = fs.Parse(args)
	ctx := context.Background()

	if *title == "" || *due == "" {
		return fmt.Errorf("--title and --due are required")
	}
	dueDate, err := time.Parse("2006-01-02", *due)
	if err != nil {
		return fmt.Errorf("invalid --due: %w", err)
	}
	p, err := resolvePartner(ctx, repo, *partner)
	if err != nil {
		return err
	}

	rem := &models.CustomReminder{PartnerID: p.ID, Title: *title, DueDate: dueDate}
	if err := repo.CreateReminder(ctx, rem); err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}

	_, _ = fmt.Fprintf(out, "✓ Reminder created for %s: %s (due %s, ID: %s)\n", p.Name, rem.Title, *due, rem.ID)
	return nil
}

// CompleteReminderCommand marks a custom reminder done.
func CompleteReminderCommand(repo *db.Repository, args []string) error {
	fs := flag.NewFlagSet("complete-reminder", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("reminder ID is required")
	}
	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid reminder ID: %w", err)
	}

	rem, err := repo.CompleteReminder(context.Background(), id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to complete reminder: %w", err)
	}

	_, _ = fmt.Fprintf(out, "✓ Completed: %s\n", rem.Title)
	return nil
}
