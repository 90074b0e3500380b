// ABOUTME: Contact and interaction CLI commands
// ABOUTME: Commands for partner contacts, logging touchpoints and viewing history
package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/models"
)

// AddContactCommand adds a person at a partner.
func AddContactCommand(repo *db.Repository, args []string) error {
	fs := flag.NewFlagSet("add-contact", flag.ExitOnError)
	partner := fs.String("partner", "", "Partner ID or name (required)")
	name := fs.String("name", "", "Contact name (required)")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	role := fs.String("role", "", "Role at the partner")
	notes := fs.String("notes", "", "Notes about the contact")
	_ = fs.Parse(args)
	ctx := context.Background()

	if *name == "" {
		return fmt.Errorf("--name is required")
	}
	p, err := resolvePartner(ctx, repo, *partner)
	if err != nil {
		return err
	}

	c := &models.Contact{
		PartnerID: p.ID,
		Name:      *name,
		Email:     *email,
		Phone:     *phone,
		Role:      *role,
		Notes:     *notes,
	}
	if err := repo.CreateContact(ctx, c); err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	_, _ = fmt.Fprintf(out, "✓ Contact created: %s at %s (ID: %s)\n", c.Name, p.Name, c.ID)
	return nil
}

// ListContactsCommand lists a partner's contacts.
func ListContactsCommand(repo *db.Repository, args []string) error {
	fs := flag.NewFlagSet("list-contacts", flag.ExitOnError)
	_ = fs.Parse(args)
	ctx := context.Background()

	p, err := resolvePartner(ctx, repo, fs.Arg(0))
	if err != nil {
		return err
	}
	contacts, err := repo.ListContacts(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}
	if len(contacts) == 0 {
		_, _ = fmt.Fprintln(out, "No contacts found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tROLE\tEMAIL\tPHONE\tID")
	_, _ = fmt.Fprintln(w, "----\t----\t-----\t-----\t--")
	for _, c := range contacts {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			c.Name, orDash(c.Role), orDash(c.Email), orDash(c.Phone), shortID(c.ID))
	}
	_ = w.Flush()
	return nil
}

// LogInteractionCommand records a touchpoint with a partner.
func LogInteractionCommand(repo *db.Repository, args []string) error {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	partner := fs.String("partner", "", "Partner ID or name (required)")
	kind := fs.String("type", models.InteractionMeeting, "Interaction type (call, email, meeting)")
	notes := fs.String("notes", "", "What was discussed")
	date := fs.String("date", "", "Date as YYYY-MM-DD (default: now)")
	_ = fs.Parse(args)
	ctx := context.Background()

	p, err := resolvePartner(ctx, repo, *partner)
	if err != nil {
		return err
	}

	i := &models.Interaction{PartnerID: p.ID, Type: *kind, Notes: *notes}
	if *date != "" {
		i.Date, err = time.Parse("2006-01-02", *date)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}
	if err := repo.CreateInteraction(ctx, i); err != nil {
		return fmt.Errorf("failed to log interaction: %w", err)
	}

	_, _ = fmt.Fprintf(out, "✓ Logged %s with %s on %s\n", i.Type, p.Name, i.Date.Format("2006-01-02"))
	return nil
}

// HistoryCommand shows a partner's interactions, newest first.
func HistoryCommand(repo *db.Repository, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum results")
	_ = fs.Parse(args)
	ctx := context.Background()

	p, err := resolvePartner(ctx, repo, fs.Arg(0))
	if err != nil {
		return err
	}
	interactions, err := repo.ListInteractions(ctx, p.ID, *limit)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}
	if len(interactions) == 0 {
		_, _ = fmt.Fprintf(out, "No interactions with %s yet\n", p.Name)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATE\tTYPE\tNOTES")
	_, _ = fmt.Fprintln(w, "----\t----\t-----")
	for _, in := range interactions {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", in.Date.Format("2006-01-02"), in.Type, orDash(in.Notes))
	}
	_ = w.Flush()
	return nil
}
