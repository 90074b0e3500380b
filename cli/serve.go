// ABOUTME: Server, sweep and key generation CLI commands
// ABOUTME: Assembles the HTTP server, push delivery and the cron sweep from configuration
package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/harperreed/prm/auth"
	"github.com/harperreed/prm/config"
	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/notify"
	"github.com/harperreed/prm/storage"
	"github.com/harperreed/prm/sweep"
	"github.com/harperreed/prm/web"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// newSweeper returns nil when push delivery is not configured.
func newSweeper(cfg *config.Config, repo *db.Repository, log *zap.Logger) (*sweep.Sweeper, notify.Pusher) {
	if !cfg.PushEnabled() {
		return nil, nil
	}
	pusher := notify.NewWebPush(notify.Options{
		PublicKey:  cfg.VAPIDPublicKey,
		PrivateKey: cfg.VAPIDPrivateKey,
		Subscriber: cfg.VAPIDSubscriber,
		TTL:        cfg.PushTTL,
	}, log.Named("push"))
	return sweep.New(repo, pusher, log.Named("sweep"), cfg.BaseURL+"/"), pusher
}

// ServeCommand runs the HTTP server and, when configured, the sweep schedule
// until ctx is cancelled.
func ServeCommand(ctx context.Context, cfg *config.Config, repo *db.Repository, log *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.Addr, "Listen address")
	noSweep := fs.Bool("no-sweep", false, "Disable the in-process sweep schedule")
	_ = fs.Parse(args)

	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	files, err := storage.Open(cfg.FilesPath, cfg.BaseURL, log.Named("storage"))
	if err != nil {
		return err
	}
	defer func() { _ = files.Close() }()

	sweeper, pusher := newSweeper(cfg, repo, log)
	if sweeper == nil {
		log.Warn("push delivery disabled: VAPID keys are not configured")
	}

	srv, err := web.NewServer(web.Deps{
		Repo:    repo,
		Files:   files,
		Issuer:  auth.NewIssuer(cfg.JWTSecret, cfg.SessionTTL),
		Pusher:  pusher,
		Sweeper: sweeper,
		Log:     log.Named("http"),
	}, web.Options{
		Addr:               *addr,
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		UploadMaxBytes:     cfg.UploadMaxBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Production:         cfg.Production,
		PushPublicKey:      cfg.VAPIDPublicKey,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })

	if sweeper != nil && cfg.SweepSchedule != "" && !*noSweep {
		sched, err := sweep.NewScheduler(cfg.SweepSchedule, sweeper, log)
		if err != nil {
			return err
		}
		g.Go(func() error { return sched.Run(gctx) })
	}

	return g.Wait()
}

// SweepCommand runs one reminder sweep and exits. It is the cron entry point.
func SweepCommand(ctx context.Context, cfg *config.Config, repo *db.Repository, log *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	timeout := fs.Duration("timeout", 10*time.Minute, "Abort the sweep after this long")
	_ = fs.Parse(args)

	sweeper, _ := newSweeper(cfg, repo, log)
	if sweeper == nil {
		return fmt.Errorf("push delivery is not configured (set PRM_VAPID_PUBLIC_KEY and PRM_VAPID_PRIVATE_KEY)")
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	res, err := sweeper.Run(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "✓ Sweep finished: %d overdue, %d recipient(s), %d sent, %d failed, %d pruned\n",
		res.Overdue, res.Recipients, res.Sent, res.Failed, res.Pruned)
	return nil
}

// KeysCommand prints a fresh VAPID key pair for the push configuration.
func KeysCommand(args []string) error {
	private, public, err := notify.GenerateKeys()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "PRM_VAPID_PUBLIC_KEY=%s\n", public)
	_, _ = fmt.Fprintf(out, "PRM_VAPID_PRIVATE_KEY=%s\n", private)
	return nil
}
