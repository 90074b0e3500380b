// ABOUTME: Browser push delivery for reminder notifications
// ABOUTME: Sends VAPID-signed web push messages and classifies failures as gone or transient
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/harperreed/prm/models"
	"go.uber.org/zap"
)

var (
	// ErrSubscriptionGone means the push service no longer knows the endpoint
	// and the stored subscription should be deleted.
	ErrSubscriptionGone = errors.New("push subscription expired or unsubscribed")
	// ErrDisabled is returned when no VAPID keys are configured.
	ErrDisabled = errors.New("web push is not configured")
)

// Message is the JSON payload the service worker renders.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// Pusher delivers one message to one subscription.
type Pusher interface {
	Push(ctx context.Context, sub models.PushSubscription, msg Message) error
}

// Options configure WebPush.
type Options struct {
	PublicKey  string
	PrivateKey string
	Subscriber string
	TTL        int
	HTTPClient *http.Client
}

// WebPush sends messages through the browser vendors' push services.
type WebPush struct {
	opts Options
	log  *zap.Logger
}

func NewWebPush(opts Options, log *zap.Logger) *WebPush {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.TTL <= 0 {
		opts.TTL = 86400
	}
	return &WebPush{opts: opts, log: log}
}

// PublicKey is handed to browsers when they subscribe.
func (w *WebPush) PublicKey() string {
	return w.opts.PublicKey
}

func (w *WebPush) Push(ctx context.Context, sub models.PushSubscription, msg Message) error {
	if w.opts.PublicKey == "" || w.opts.PrivateKey == "" {
		return ErrDisabled
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			Auth:   sub.Auth,
			P256dh: sub.P256dh,
		},
	}, &webpush.Options{
		HTTPClient:      w.opts.HTTPClient,
		Subscriber:      w.opts.Subscriber,
		VAPIDPublicKey:  w.opts.PublicKey,
		VAPIDPrivateKey: w.opts.PrivateKey,
		TTL:             w.opts.TTL,
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		return fmt.Errorf("push to %s: %w", sub.Endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return classify(resp)
}

// classify maps a push service response onto the delivery error taxonomy.
func classify(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("push service returned %d: %w", resp.StatusCode, ErrSubscriptionGone)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push service returned %d: %s", resp.StatusCode, string(body))
	}
}

// IsGone reports whether err means the subscription should be deleted.
func IsGone(err error) bool {
	return errors.Is(err, ErrSubscriptionGone)
}

// GenerateKeys returns a fresh VAPID key pair (private, public).
func GenerateKeys() (string, string, error) {
	return webpush.GenerateVAPIDKeys()
}
