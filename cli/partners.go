// ABOUTME: Partner CLI commands
// ABOUTME: Human-friendly commands for managing partners and their product integrations
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/export"
	"github.com/harperreed/prm/models"
	"github.com/harperreed/prm/reminders"
)

// out is where commands print. Tests swap it for a buffer.
var out io.Writer = os.Stdout

// resolvePartner accepts a full ID, an ID prefix of at least 8 characters or
// an exact (case-insensitive) partner name.
func resolvePartner(ctx context.Context, repo *db.Repository, ref string) (*models.Partner, error) {
	if ref == "" {
		return nil, fmt.Errorf("partner ID or name is required")
	}
	if id, err := uuid.Parse(ref); err == nil {
		return repo.GetPartner(ctx, id)
	}

	partners, err := repo.ListPartners(ctx, "")
	if err != nil {
		return nil, err
	}
	var match *models.Partner
	for i := range partners {
		p := &partners[i]
		byPrefix := len(ref) >= 8 && strings.HasPrefix(p.ID.String(), ref)
		if !byPrefix && !strings.EqualFold(p.Name, ref) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("%q matches more than one partner", ref)
		}
		match = p
	}
	if match == nil {
		return nil, fmt.Errorf("partner %q: %w", ref, db.ErrNotFound)
	}
	return match, nil
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// AddPartnerCommand adds a new partner.
func AddPartnerCommand(repo *db.Repository, args []string) error {
	fs := flag.NewFlagSet("add-partner", flag.ExitOnError)
	name := fs.String("name", "", "Partner name (required)")
	health := fs.String("health", models.HealthActive, "Health status (Active, AtRisk, Dormant)")
	keyPerson := fs.String("key-person", "", "Team member responsible for the partner")
	vertical := fs.String("vertical", "", "Industry vertical")
	useCase := fs.String("use-case", "", "What the partner uses the product for")
	days := fs.Int("attention-days", models.DefaultNeedsAttentionDays, "Days without contact before the partner needs attention")
	products := fs.String("products", "", `Products as "Name:Status;Name:Status"`)
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	p := &models.Partner{
		Name:               *name,
		HealthStatus:       *health,
		Vertical:           *vertical,
		UseCase:            *useCase,
		NeedsAttentionDays: *days,
	}
	if *keyPerson != "" {
		p.KeyPersonID = keyPerson
	}
	if *products != "" {
		parsed, err := export.ParseProductsCell(*products)
		if err != nil {
			return err
		}
		p.IntegrationProducts = parsed
	}

	if err := repo.CreatePartner(context.Background(), p); err != nil {
		return fmt.Errorf("failed to create partner: %w", err)
	}

	_, _ = fmt.Fprintf(out, "✓ Partner created: %s (ID: %s)\n", p.Name, p.ID)
	if *keyPerson != "" {
		_, _ = fmt.Fprintf(out, "  Key person: %s\n", *keyPerson)
	}
	for _, pi := range p.IntegrationProducts {
		_, _ = fmt.Fprintf(out, "  %s: %s\n", pi.Product, pi.Status)
	}
	return nil
}

// ListPartnersCommand lists partners with their attention state.
func ListPartnersCommand(repo *db.Repository, args []string) error {
	fs := flag.NewFlagSet("list-partners", flag.ExitOnError)
	query := fs.String("query", "", "Search by name")
	health := fs.String("health", "", "Filter by health status")
	_ = fs.Parse(args)

	partners, err := repo.ListPartners(context.Background(), *query)
	if err != nil {
		return fmt.Errorf("failed to list partners: %w", err)
	}

	now := time.Now().UTC()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tHEALTH\tKEY PERSON\tDAYS\tATTENTION\tID")
	_, _ = fmt.Fprintln(w, "----\t------\t----------\t----\t---------\t--")

	shown := 0
	for i := range partners {
		p := &partners[i]
		if *health != "" && p.HealthStatus != *health {
			continue
		}
		att := reminders.Evaluate(p, now)
		level := string(att.Level)
		if att.Excluded {
			level = "-"
		}
		_, _ = fmt.Fprintf(w, "%s %s\t%s\t%s\t%s\t%s\t%s\n",
			indicator(att), p.Name, p.HealthStatus, orDash(p.KeyPerson()), att.DaysLabel(), level, shortID(p.ID))
		shown++
	}
	_ = w.Flush()

	if shown == 0 {
		_, _ = fmt.Fprintln(out, "No partners found")
		return nil
	}
	_, _ = fmt.Fprintf(out, "\nTotal: %d partner(s)\n", shown)
	return nil
}

func indicator(att reminders.Attention) string {
	switch {
	case att.Excluded:
		return "⚪"
	case att.Level == reminders.LevelOverdue:
		return "🔴"
	case att.Level == reminders.LevelUpcoming:
		return "🟡"
	default:
		return "🟢"
	}
}

// ShowPartnerCommand prints one partner with contacts and recent interactions.
func ShowPartnerCommand(repo *db.Repository, args []string) error {
	fs := flag.NewFlagSet("show-partner", flag.ExitOnError)
	_ = fs.Parse(args)
	ctx := context.Background()

	p, err := resolvePartner(ctx, repo, fs.Arg(0))
	if err != nil {
		return err
	}
	att := reminders.Evaluate(p, time.Now().UTC())

	_, _ = fmt.Fprintf(out, "%s %s (%s)\n", indicator(att), p.Name, p.ID)
	_, _ = fmt.Fprintf(out, "  Health:     %s\n", p.HealthStatus)
	_, _ = fmt.Fprintf(out, "  Key person: %s\n", orDash(p.KeyPerson()))
	_, _ = fmt.Fprintf(out, "  Vertical:   %s\n", orDash(p.Vertical))
	_, _ = fmt.Fprintf(out, "  Last touch: %s days ago (threshold %d)\n", att.DaysLabel(), p.NeedsAttentionDays)
	_, _ = fmt.Fprintf(out, "  Version:    %d\n", p.Version)

	if len(p.IntegrationProducts) > 0 {
		_, _ = fmt.Fprintln(out, "\nProducts:")
		for _, pi := range p.IntegrationProducts {
			_, _ = fmt.Fprintf(out, "  %-20s %s\n", pi.Product, pi.Status)
		}
	}

	contacts, err := repo.ListContacts(ctx, p.ID)
	if err != nil {
		return err
	}
	if len(contacts) > 0 {
		_, _ = fmt.Fprintln(out, "\nContacts:")
		for _, c := range contacts {
			_, _ = fmt.Fprintf(out, "  %s <%s> %s\n", c.Name, orDash(c.Email), c.Role)
		}
	}

	interactions, err := repo.ListInteractions(ctx, p.ID, 5)
	if err != nil {
		return err
	}
	if len(interactions) > 0 {
		_, _ = fmt.Fprintln(out, "\nRecent interactions:")
		for _, in := range interactions {
			_, _ = fmt.Fprintf(out, "  %s  %-8s %s\n", in.Date.Format("2006-01-02"), in.Type, in.Notes)
		}
	}
	return nil
}

// UpdatePartnerCommand updates fields that were passed as flags.
func UpdatePartnerCommand(repo *db.Repository, args []string) error {
	fs := flag.NewFlagSet("update-partner", flag.ExitOnError)
	name := fs.String("name", "", "Partner name")
	health := fs.String("health", "", "Health status")
	keyPerson := fs.String("key-person", "", "Key person")
	vertical := fs.String("vertical", "", "Industry vertical")
	useCase := fs.String("use-case", "", "Use case")
	days := fs.Int("attention-days", 0, "Attention threshold in days")
	_ = fs.Parse(args)
	ctx := context.Background()

	p, err := resolvePartner(ctx, repo, fs.Arg(0))
	if err != nil {
		return err
	}

	if *name != "" {
		p.Name = *name
	}
	if *health != "" {
		p.HealthStatus = *health
	}
	if *keyPerson != "" {
		p.KeyPersonID = keyPerson
	}
	if *vertical != "" {
		p.Vertical = *vertical
	}
	if *useCase != "" {
		p.UseCase = *useCase
	}
	if *days > 0 {
		p.NeedsAttentionDays = *days
	}

	if err := repo.UpdatePartner(ctx, p); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return fmt.Errorf("partner was changed by someone else, re-run the command: %w", err)
		}
		return fmt.Errorf("failed to update partner: %w", err)
	}

	_, _ = fmt.Fprintf(out, "✓ Partner updated: %s (version %d)\n", p.Name, p.Version)
	return nil
}

// DeletePartnerCommand deletes a partner and everything attached to it.
func DeletePartnerCommand(repo *db.Repository, args []string) error {
	fs := flag.NewFlagSet("delete-partner", flag.ExitOnError)
	_ = fs.Parse(args)
	ctx := context.Background()

	p, err := resolvePartner(ctx, repo, fs.Arg(0))
	if err != nil {
		return err
	}
	if err := repo.DeletePartner(ctx, p.ID); err != nil {
		return fmt.Errorf("failed to delete partner: %w", err)
	}

	_, _ = fmt.Fprintf(out, "✓ Partner deleted: %s\n", p.Name)
	return nil
}

// DismissPartnerCommand snoozes a partner's attention reminder.
func DismissPartnerCommand(repo *db.Repository, args []string) error {
	fs := flag.NewFlagSet("dismiss", flag.ExitOnError)
	_ = fs.Parse(args)
	ctx := context.Background()

	p, err := resolvePartner(ctx, repo, fs.Arg(0))
	if err != nil {
		return err
	}
	if err := repo.DismissPartner(ctx, p.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to dismiss partner: %w", err)
	}

	_, _ = fmt.Fprintf(out, "✓ Dismissed %s for %d days\n", p.Name, p.NeedsAttentionDays)
	return nil
}

// MoveProductCommand changes the integration status of one product.
func MoveProductCommand(repo *db.Repository, args []string) error {
	fs := flag.NewFlagSet("move-product", flag.ExitOnError)
	product := fs.String("product", "", "Product name (required)")
	status := fs.String("status", "", "Target status (required)")
	_ = fs.Parse(args)
	ctx := context.Background()

	if *product == "" || *status == "" {
		return fmt.Errorf("--product and --status are required")
	}
	p, err := resolvePartner(ctx, repo, fs.Arg(0))
	if err != nil {
		return err
	}

	moved, err := repo.MoveProduct(ctx, p.ID, *product, *status, p.Version)
	if err != nil {
		return fmt.Errorf("failed to move %s: %w", *product, err)
	}

	_, _ = fmt.Fprintf(out, "✓ %s / %s → %s\n", moved.Name, *product, *status)
	return nil
}
