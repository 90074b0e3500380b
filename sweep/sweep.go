// ABOUTME: Reminder sweep that pushes overdue reminders to the people responsible
// ABOUTME: Resolves recipients per partner, delivers, and prunes subscriptions the push service rejects
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/prm/metrics"
	"github.com/harperreed/prm/models"
	"github.com/harperreed/prm/notify"
	"github.com/harperreed/prm/reminders"
	"go.uber.org/zap"
)

// Store is the persistence the sweep needs.
type Store interface {
	ListPartners(ctx context.Context, search string) ([]models.Partner, error)
	ListPendingReminders(ctx context.Context) ([]models.CustomReminder, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]models.PushSubscription, error)
	DeleteSubscription(ctx context.Context, id uuid.UUID) error
}

// Result summarises one sweep.
type Result struct {
	Overdue    int `json:"overdue"`
	Recipients int `json:"recipients"`
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
	Pruned     int `json:"pruned"`
}

// Sweeper runs reminder sweeps.
type Sweeper struct {
	store   Store
	pusher  notify.Pusher
	log     *zap.Logger
	linkURL string
}

// New builds a Sweeper. linkURL is opened when a notification is clicked.
func New(store Store, pusher notify.Pusher, log *zap.Logger, linkURL string) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{store: store, pusher: pusher, log: log, linkURL: linkURL}
}

// Run loads the fleet, keeps overdue reminders and notifies every recipient's
// subscriptions. Delivery failures are counted, not returned; only loading
// errors abort the sweep. There is no already-notified marker, so every run
// notifies again.
func (s *Sweeper) Run(ctx context.Context, now time.Time) (Result, error) {
	var res Result

	partners, err := s.store.ListPartners(ctx, "")
	if err != nil {
		metrics.SweepRuns.WithLabelValues("failed").Inc()
		return res, fmt.Errorf("failed to load partners: %w", err)
	}
	custom, err := s.store.ListPendingReminders(ctx)
	if err != nil {
		metrics.SweepRuns.WithLabelValues("failed").Inc()
		return res, fmt.Errorf("failed to load reminders: %w", err)
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		metrics.SweepRuns.WithLabelValues("failed").Inc()
		return res, fmt.Errorf("failed to load users: %w", err)
	}

	byID := make(map[uuid.UUID]*models.Partner, len(partners))
	for i := range partners {
		byID[partners[i].ID] = &partners[i]
	}

	overdue := reminders.Filter{Level: reminders.LevelOverdue}.Apply(reminders.Merge(partners, custom, now))
	res.Overdue = len(overdue)
	metrics.SweepReminders.Set(float64(len(overdue)))

	subs := make(map[uuid.UUID][]models.PushSubscription)
	seen := make(map[uuid.UUID]bool)
	gone := make(map[uuid.UUID]bool)

	for _, r := range overdue {
		p, ok := byID[r.PartnerID]
		if !ok {
			continue
		}
		msg := s.message(r)

		for _, u := range Recipients(p, users) {
			if !seen[u.ID] {
				seen[u.ID] = true
				res.Recipients++
			}
			list, ok := subs[u.ID]
			if !ok {
				list, err = s.store.ListSubscriptions(ctx, u.ID)
				if err != nil {
					s.log.Warn("failed to load subscriptions", zap.String("user_id", u.ID.String()), zap.Error(err))
					continue
				}
				subs[u.ID] = list
			}

			for _, sub := range list {
				if gone[sub.ID] {
					continue
				}
				if err := ctx.Err(); err != nil {
					return res, err
				}
				s.deliver(ctx, sub, msg, &res, gone)
			}
		}
	}

	metrics.SweepRuns.WithLabelValues("ok").Inc()
	s.log.Info("reminder sweep finished",
		zap.Int("overdue", res.Overdue),
		zap.Int("recipients", res.Recipients),
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed),
		zap.Int("pruned", res.Pruned),
	)
	return res, nil
}

func (s *Sweeper) deliver(ctx context.Context, sub models.PushSubscription, msg notify.Message, res *Result, gone map[uuid.UUID]bool) {
	err := s.pusher.Push(ctx, sub, msg)
	switch {
	case err == nil:
		res.Sent++
		metrics.Notifications.WithLabelValues("sent").Inc()
	case notify.IsGone(err):
		gone[sub.ID] = true
		if derr := s.store.DeleteSubscription(ctx, sub.ID); derr != nil {
			s.log.Warn("failed to prune subscription", zap.String("subscription_id", sub.ID.String()), zap.Error(derr))
			res.Failed++
			metrics.Notifications.WithLabelValues("failed").Inc()
			return
		}
		res.Pruned++
		metrics.Notifications.WithLabelValues("pruned").Inc()
	default:
		res.Failed++
		metrics.Notifications.WithLabelValues("failed").Inc()
		s.log.Warn("push delivery failed",
			zap.String("subscription_id", sub.ID.String()),
			zap.String("user_id", sub.UserID.String()),
			zap.Error(err),
		)
	}
}

func (s *Sweeper) message(r reminders.Reminder) notify.Message {
	title := r.PartnerName + " needs attention"
	if r.Kind == reminders.KindCustom {
		title = r.PartnerName + ": " + r.Title
	}
	return notify.Message{
		Title: title,
		Body:  r.Summary(),
		URL:   s.linkURL,
	}
}

// Recipients returns who should hear about a partner: its owner and every
// user whose linked key person name matches the partner's key person exactly.
// When nobody matches, all admins are notified instead.
func Recipients(p *models.Partner, users []models.User) []models.User {
	var out []models.User
	keyPerson := p.KeyPerson()
	for _, u := range users {
		owner := p.OwnerID != nil && *p.OwnerID == u.ID
		linked := keyPerson != "" && u.LinkedKeyPerson != nil && *u.LinkedKeyPerson == keyPerson
		if owner || linked {
			out = append(out, u)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, u := range users {
		if u.Role == models.RoleAdmin {
			out = append(out, u)
		}
	}
	return out
}
