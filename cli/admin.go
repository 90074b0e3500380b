// ABOUTME: Tag and user administration CLI commands
// ABOUTME: Creates tags, tags partners and bootstraps user accounts with a hidden password prompt
package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/harperreed/prm/auth"
	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/models"
	"golang.org/x/term"
)

// AddTagCommand creates a tag.
func AddTagCommand(repo *db.Repository, args []string) error {
	fs := flag.NewFlagSet("add-tag", flag.ExitOnError)
	name := fs.String("name", "", "Tag name (required)")
	color := fs.String("color", "#6b7280", "Tag colour as a hex value")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}
	tag := &models.Tag{Name: *name, Color: *color}
	if err := repo.CreateTag(context.Background(), tag); err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}

	_, _ = fmt.Fprintf(out, "✓ Tag created: %s\n", tag.Name)
	return nil
}

// ListTagsCommand lists every tag.
func ListTagsCommand(repo *db.Repository, args []string) error {
	tags, err := repo.ListTags(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list tags: %w", err)
	}
	if len(tags) == 0 {
		_, _ = fmt.Fprintln(out, "No tags found")
		return nil
	}
	for _, t := range tags {
		_, _ = fmt.Fprintf(out, "  %s  %s\n", t.Color, t.Name)
	}
	return nil
}

// TagPartnerCommand replaces a partner's tags with the comma-separated names given.
func TagPartnerCommand(repo *db.Repository, args []string) error {
	fs := flag.NewFlagSet("tag", flag.ExitOnError)
	names := fs.String("tags", "", "Comma-separated tag names; empty clears all tags")
	_ = fs.Parse(args)
	ctx := context.Background()

	p, err := resolvePartner(ctx, repo, fs.Arg(0))
	if err != nil {
		return err
	}
	all, err := repo.ListTags(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]uuid.UUID, len(all))
	for _, t := range all {
		byName[strings.ToLower(t.Name)] = t.ID
	}

	ids := make([]uuid.UUID, 0)
	for _, n := range strings.Split(*names, ",") {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		id, ok := byName[strings.ToLower(n)]
		if !ok {
			return fmt.Errorf("unknown tag %q (create it with add-tag)", n)
		}
		ids = append(ids, id)
	}
	if err := repo.SetPartnerTags(ctx, p.ID, ids); err != nil {
		return fmt.Errorf("failed to tag partner: %w", err)
	}

	_, _ = fmt.Fprintf(out, "✓ %s now has %d tag(s)\n", p.Name, len(ids))
	return nil
}

// passwordReader reads a password. Tests replace it.
var passwordReader = readPassword

// readPassword prompts without echo when stdin is a terminal and falls back
// to reading one line otherwise, so scripts can pipe a password in.
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		_, _ = fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(os.Stderr)
		return string(b), err
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// AddUserCommand creates a user account.
func AddUserCommand(repo *db.Repository, args []string) error {
	fs := flag.NewFlagSet("add-user", flag.ExitOnError)
	name := fs.String("name", "", "Display name (required)")
	email := fs.String("email", "", "Login email (required)")
	role := fs.String("role", models.RoleUser, "Role (Admin, User, Sales)")
	keyPerson := fs.String("key-person", "", "Key person name this user owns partners under")
	_ = fs.Parse(args)

	if *name == "" || *email == "" {
		return fmt.Errorf("--name and --email are required")
	}

	password, err := passwordReader("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	u := &models.User{Name: *name, Email: *email, Role: *role, PasswordHash: hash}
	if *keyPerson != "" {
		u.LinkedKeyPerson = keyPerson
	}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	_, _ = fmt.Fprintf(out, "✓ User created: %s <%s> (%s)\n", u.Name, u.Email, u.Role)
	return nil
}

// ListUsersCommand lists user accounts.
func ListUsersCommand(repo *db.Repository, args []string) error {
	users, err := repo.ListUsers(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		_, _ = fmt.Fprintln(out, "No users found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tEMAIL\tROLE\tKEY PERSON\tID")
	_, _ = fmt.Fprintln(w, "----\t-----\t----\t----------\t--")
	for _, u := range users {
		kp := "-"
		if u.LinkedKeyPerson != nil {
			kp = *u.LinkedKeyPerson
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.Name, u.Email, u.Role, kp, shortID(u.ID))
	}
	_ = w.Flush()
	return nil
}
