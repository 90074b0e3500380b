// ABOUTME: Push subscription database operations
// ABOUTME: Browser endpoints upserted by endpoint URL and pruned when the push service rejects them
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/prm/models"
)

// SaveSubscription stores a browser endpoint. Re-registering an endpoint
// moves it to the new user and refreshes its keys.
func (r *Repository) SaveSubscription(ctx context.Context, sub *models.PushSubscription) error {
	if sub.Endpoint == "" || sub.P256dh == "" || sub.Auth == "" {
		return fmt.Errorf("%w: endpoint and keys are required", ErrInvalid)
	}
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	sub.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(endpoint) DO UPDATE SET
			user_id = excluded.user_id,
			p256dh = excluded.p256dh,
			auth = excluded.auth
	`, sub.ID.String(), sub.UserID.String(), sub.Endpoint, sub.P256dh, sub.Auth, sub.CreatedAt)
	if err != nil {
		return err
	}

	return r.db.QueryRowContext(ctx, `SELECT id FROM push_subscriptions WHERE endpoint = ?`, sub.Endpoint).Scan(&sub.ID)
}

// ListSubscriptions returns one user's endpoints.
func (r *Repository) ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]models.PushSubscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, endpoint, p256dh, auth, created_at
		FROM push_subscriptions WHERE user_id = ?
		ORDER BY created_at
	`, userID.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	subs := make([]models.PushSubscription, 0)
	for rows.Next() {
		var s models.PushSubscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.Endpoint, &s.P256dh, &s.Auth, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *Repository) DeleteSubscription(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return expectAffected(result, "subscription", id)
}

// DeleteSubscriptionByEndpoint removes an endpoint owned by userID.
func (r *Repository) DeleteSubscriptionByEndpoint(ctx context.Context, userID uuid.UUID, endpoint string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM push_subscriptions WHERE user_id = ? AND endpoint = ?
	`, userID.String(), endpoint)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("subscription %s: %w", endpoint, ErrNotFound)
	}
	return nil
}
