package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/tee-scheduler/internal/booking"
	"github.com/example/tee-scheduler/internal/config"
	"github.com/example/tee-scheduler/internal/db"
	"github.com/example/tee-scheduler/internal/migrate"
	"github.com/example/tee-scheduler/internal/store"
)

func newRequestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Manage queued booking requests",
	}
	cmd.AddCommand(newRequestAddCmd())
	cmd.AddCommand(newRequestListCmd())
	return cmd
}

func newRequestAddCmd() *cobra.Command {
	var (
		dateStr string
		start   string
		end     string
	)

	c := &cobra.Command{
		Use:   "add",
		Short: "Queue a booking request for a play date and time window",
		RunE: func(cmd *cobra.Command, args []string) error {
			playDate, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("invalid --date (want YYYY-MM-DD)")
			}
			req := booking.Request{
				PlayDate: booking.DateOf(playDate),
				Window:   booking.TimeRange{Start: start, End: end},
				Status:   booking.StatusPending,
			}
			if err := req.Window.Validate(); err != nil {
				return err
			}

			st, closeDB, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			id, err := st.Add(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Printf("queued request %d: %s %s\n", id, dateStr, req.Window)
			return nil
		},
	}

	c.Flags().StringVar(&dateStr, "date", "", "play date (YYYY-MM-DD)")
	c.Flags().StringVar(&start, "start", "07:00", "earliest acceptable tee time (HH:MM)")
	c.Flags().StringVar(&end, "end", "15:00", "latest acceptable tee time (HH:MM)")
	_ = c.MarkFlagRequired("date")
	return c
}

func newRequestListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued and processed requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeDB, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			reqs, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, r := range reqs {
				line := fmt.Sprintf("%-5d %s  %-13s %-8s", r.ID, r.PlayDate.Format("2006-01-02"), r.Window, r.Status)
				switch {
				case r.Status == booking.StatusSuccess:
					line += fmt.Sprintf(" booked %s (%s)", r.BookedTime, r.ConfirmationID)
				case r.FailureReason != "":
					line += " " + r.FailureReason
				}
				fmt.Println(line)
			}
			fmt.Printf("%d request(s)\n", len(reqs))
			return nil
		},
	}
}

func openStore(ctx context.Context) (*store.Store, func(), error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, nil, err
	}
	setLogLevel(cfg.LogLevel)
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := migrate.Up(ctx, d); err != nil {
		d.Close()
		return nil, nil, err
	}
	return store.New(d), d.Close, nil
}
