package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/example/tee-scheduler/internal/booking"
	"github.com/example/tee-scheduler/internal/clock"
	"github.com/example/tee-scheduler/internal/config"
	"github.com/example/tee-scheduler/internal/creds"
	"github.com/example/tee-scheduler/internal/db"
	"github.com/example/tee-scheduler/internal/driver"
	"github.com/example/tee-scheduler/internal/engine"
	"github.com/example/tee-scheduler/internal/migrate"
	"github.com/example/tee-scheduler/internal/store"
)

func newRunCmd() *cobra.Command {
	var (
		todayStr  string
		dryRun    bool
		migrateUp bool
	)

	c := &cobra.Command{
		Use:   "run",
		Short: "Process today's eligible requests against the booking site",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			setLogLevel(cfg.LogLevel)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()
			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}
			if migrateUp {
				if err := migrate.Up(ctx, d); err != nil {
					return err
				}
			}
			st := store.New(d)

			var override time.Time
			if todayStr != "" {
				override, err = time.Parse("2006-01-02", todayStr)
				if err != nil {
					return fmt.Errorf("invalid --today (want YYYY-MM-DD)")
				}
			}
			today := clock.Today(override, cfg.Timezone)

			if dryRun {
				return printPlan(ctx, st, cfg, today)
			}

			credentials, err := loadCredentials(ctx, st, cfg)
			if err != nil {
				return err
			}
			auth, err := driver.Open(cfg.DriverName)
			if err != nil {
				return err
			}

			r := &engine.Runner{
				Auth:  auth,
				Creds: credentials,
				Store: st,
				Diag:  driver.FSDiagnostics{Dir: cfg.DiagnosticsDir},
				Opts: engine.Options{
					Timezone:         cfg.Timezone,
					HorizonDays:      cfg.HorizonDays,
					ReleaseHour:      cfg.ReleaseHour,
					ReleaseMinute:    cfg.ReleaseMinute,
					PartySize:        cfg.PartySize,
					InterceptTimeout: cfg.InterceptTimeout,
					SelectTimeout:    cfg.SelectTimeout,
					ConfirmTimeout:   cfg.ConfirmTimeout,
				},
			}

			sum, err := r.Run(ctx, today)
			if err != nil {
				return err
			}
			for _, req := range sum.Processed {
				line := fmt.Sprintf("request %d  %s  %s  %s", req.ID, req.PlayDate.Format("2006-01-02"), req.Window, req.Status)
				if req.Status == booking.StatusSuccess {
					line += fmt.Sprintf("  booked %s (%s)", req.BookedTime, req.ConfirmationID)
				} else if req.FailureReason != "" {
					line += "  " + req.FailureReason
				}
				fmt.Println(line)
			}
			fmt.Printf("%d of %d booked\n", sum.Successes, len(sum.Processed))
			return nil
		},
	}

	c.Flags().StringVar(&todayStr, "today", "", "override today's date (YYYY-MM-DD)")
	c.Flags().BoolVar(&dryRun, "dry-run", false, "show the eligible requests and release wait without touching the site")
	c.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	return c
}

func printPlan(ctx context.Context, st *store.Store, cfg config.Config, today time.Time) error {
	pending, err := st.Pending(ctx)
	if err != nil {
		return err
	}
	eligible := booking.SelectEligible(today, pending, cfg.HorizonDays)
	farDate := today.AddDate(0, 0, cfg.HorizonDays)
	fmt.Printf("today %s, %d pending, %d eligible\n", today.Format("2006-01-02"), len(pending), len(eligible))
	for i, req := range eligible {
		kind := "near-horizon"
		if booking.SameDate(req.PlayDate, farDate) {
			kind = "far-horizon"
		}
		note := ""
		if i == 0 && kind == "far-horizon" {
			note = fmt.Sprintf("  (waits for %02d:%02d %s)", cfg.ReleaseHour, cfg.ReleaseMinute, cfg.Timezone)
		}
		fmt.Printf("  request %d  %s  %s  %s%s\n", req.ID, req.PlayDate.Format("2006-01-02"), req.Window, kind, note)
	}
	return nil
}

func loadCredentials(ctx context.Context, st *store.Store, cfg config.Config) (driver.Credentials, error) {
	key, err := creds.DeriveKey(cfg.CredPassphrase, cfg.CredSalt)
	if err != nil {
		return driver.Credentials{}, fmt.Errorf("credential key: %w (set TEESCHED_CRED_PASSPHRASE and TEESCHED_CRED_SALT)", err)
	}
	sealer, err := creds.NewSealer(key)
	if err != nil {
		return driver.Credentials{}, err
	}
	sealed, err := st.SealedCredentials(ctx, "default")
	if err != nil {
		if db.IsNotFound(err) {
			return driver.Credentials{}, fmt.Errorf("no stored credentials: run 'teesched creds set' first")
		}
		return driver.Credentials{}, fmt.Errorf("load credentials: %w", err)
	}
	c, err := sealer.Open(sealed)
	if err != nil {
		return driver.Credentials{}, err
	}
	if c.Username == "" || c.Password == "" {
		return driver.Credentials{}, fmt.Errorf("stored credentials are incomplete")
	}
	log.Debug().Str("username", c.Username).Msg("credentials loaded")
	return driver.Credentials{Username: c.Username, Password: c.Password}, nil
}
