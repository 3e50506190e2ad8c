package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	_ "time/tzdata"

	"obligation_reminder_bot/internal/app"
	"obligation_reminder_bot/internal/domain/calendar"
	"obligation_reminder_bot/internal/domain/notification"
	"obligation_reminder_bot/internal/infra/bootstrap"
	"obligation_reminder_bot/internal/infra/config"
	idb "obligation_reminder_bot/internal/infra/database"
	"obligation_reminder_bot/internal/infra/logger"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/telebot.v3"
)

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:   "obligationctl",
	Short: "Operate the obligation reminder store and daily check",
	Long: `obligationctl runs the daily obligation check on demand, inspects stored
obligations and applies database migrations. It reads the same environment
(and .env file) as the bot.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	rootCmd.AddCommand(runCmd(), listCmd(), ownersCmd(), migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg)
	return cfg, nil
}

// setup builds the shared components. The telegram channel gets an offline
// bot: it can send but never polls for updates.
func setup(ctx context.Context, cfg *config.AppConfig) (*bootstrap.Components, error) {
	var bot *telebot.Bot
	if cfg.NotifyChannel == config.NotifyChannelTelegram {
		if cfg.TelegramToken == "" {
			return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
		}
		var err error
		bot, err = telebot.NewBot(telebot.Settings{Token: cfg.TelegramToken, Offline: true})
		if err != nil {
			return nil, fmt.Errorf("create telegram bot: %w", err)
		}
	}
	return bootstrap.New(ctx, cfg, bot, logger.Log)
}

func runCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the daily check once",
		Long:  "Run the daily check once, as the scheduler would. --at overrides the clock, e.g. to replay a missed day.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
				now = parsed
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, cfg.DailyCheckTimeout)
			defer cancel()

			components, err := setup(ctx, cfg)
			if err != nil {
				return err
			}
			defer components.Close()

			report, err := components.DailyCheck.RunDailyCheck(ctx, now)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), report)
			}
			renderReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "instant to resolve today from (RFC3339)")
	return cmd
}

func listCmd() *cobra.Command {
	var ownerTelegramID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an owner's obligations with their deadline state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			telegramID, err := strconv.ParseInt(ownerTelegramID, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid --owner: %w", err)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			ownerRepo := idb.NewPostgresOwnerRepository(db)
			obligationRepo := idb.NewPostgresObligationRepository(db)

			ownr, err := ownerRepo.GetByTelegramID(ctx, telegramID)
			if err != nil {
				return err
			}
			resolver, err := calendar.LoadResolver(cfg.Timezone)
			if err != nil {
				return err
			}
			service := app.NewObligationService(obligationRepo, ownerRepo, resolver, logger.Component("obligationctl"))
			views, err := service.ListForOwner(ctx, ownr.ID)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), views)
			}
			renderObligations(cmd.OutOrStdout(), views)
			return nil
		},
	}
	cmd.Flags().StringVar(&ownerTelegramID, "owner", "", "owner Telegram ID")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func ownersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "owners",
		Short: "List registered owners",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := idb.NewPostgresConnection(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			owners, err := idb.NewPostgresOwnerRepository(db).ListAll(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), owners)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"ID", "Telegram ID", "Name", "Max active"})
			for _, o := range owners {
				tw.AppendRow(table.Row{o.ID, o.TelegramID, o.Name, o.MaxActiveObligations})
			}
			tw.Render()
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := idb.NewPostgresConnection(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := idb.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderReport(w io.Writer, r *notification.Report) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Daily check " + r.Date)
	tw.AppendHeader(table.Row{"Fetched", "Malformed", "Matched", "Notified", "Failed", "Skipped", "Reset"})
	tw.AppendRow(table.Row{r.Fetched, r.Malformed, r.Matched, r.Notified, r.Failed, r.Skipped, r.Reset})
	tw.Render()

	var failed []notification.Result
	for _, res := range r.Results {
		if !res.Success && !res.Skipped {
			failed = append(failed, res)
		}
	}
	if len(failed) == 0 {
		return
	}
	ft := table.NewWriter()
	ft.SetOutputMirror(w)
	ft.SetTitle("Failures")
	ft.AppendHeader(table.Row{"Obligation", "Error"})
	for _, res := range failed {
		ft.AppendRow(table.Row{res.ObligationID, res.Err})
	}
	ft.Render()
}

func renderObligations(w io.Writer, views []app.ObligationView) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"ID", "Title", "Ref", "Trigger", "Deadline", "Frequency", "Status", "State"})
	for _, v := range views {
		o := v.Obligation
		tw.AppendRow(table.Row{o.ID, o.Title, o.Reference, o.TriggerDay, o.DeadlineDay(), o.Frequency, o.Status, v.Grace.String()})
	}
	tw.Render()
}
