package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/jpilocastillo/m8bizz-sub004/auth"
	"github.com/jpilocastillo/m8bizz-sub004/internal/config"
	"github.com/jpilocastillo/m8bizz-sub004/internal/metrics"
	"github.com/jpilocastillo/m8bizz-sub004/sessions"
	"github.com/jpilocastillo/m8bizz-sub004/sessions/liveness"
	"github.com/jpilocastillo/m8bizz-sub004/sessions/refresher"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const watchPasswordVar = "M8_PASSWORD"

// watchCmd signs in and prints the liveness countdown the dashboard banner
// shows, refreshing the session whenever the tracker warns.
func watchCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sign in and follow the session expiry countdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv(watchPasswordVar)
			if email == "" || password == "" {
				return fmt.Errorf("--email and %s are required", watchPasswordVar)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watch(ctx, email, password)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	return cmd
}

func watch(ctx context.Context, email, password string) error {
	c, err := config.New()
	if err != nil {
		return err
	}
	authService, err := auth.NewFromConfig(ctx, c)
	if err != nil {
		return fmt.Errorf("auth client: %w", err)
	}

	sess, err := authService.SignIn(ctx, email, password)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	sess.ID = uuid.NewString()

	store := sessions.NewInMemoryRepo()
	if err := store.Upsert(ctx, sess); err != nil {
		return err
	}

	current := func() *sessions.Session {
		s, err := store.Get(ctx, sess.ID)
		if err != nil {
			return nil
		}
		return &s
	}

	ref := refresher.New(authService, store, c, refresher.WithRecorder(metrics.New()))
	tracker := liveness.NewTracker(liveness.SourceFunc(current), c)
	updates, unsubscribe := tracker.Subscribe()
	defer unsubscribe()

	go tracker.Run(ctx)

	var last liveness.State = -1
	for {
		select {
		case <-ctx.Done():
			// A refresh may have replaced the tokens from sign in.
			final := current()
			if final == nil {
				final = &sess
			}
			if err := authService.SignOut(context.WithoutCancel(ctx), *final); err != nil {
				log.Warn().Err(err).Msg("sign out failed")
			}
			return nil
		case status := <-updates:
			if status.State != last || status.Warning() {
				fmt.Printf("%-8s %s\n", status.State, status.Countdown())
			}
			if status.Warning() && status.State != last {
				refreshAndReload(ctx, ref, tracker, current())
			}
			if status.State == liveness.StateExpired {
				return fmt.Errorf("session expired")
			}
			last = status.State
		}
	}
}

func refreshAndReload(ctx context.Context, ref *refresher.Refresher, tracker *liveness.Tracker, sess *sessions.Session) {
	outcome, err := ref.EnsureFresh(ctx, sess)
	if err != nil {
		log.Warn().Err(err).Stringer("outcome", outcome).Msg("refresh failed")
		return
	}
	log.Info().Stringer("outcome", outcome).Msg("session refreshed")
	tracker.Reload()
}
