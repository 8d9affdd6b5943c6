package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/trendwatch/internal/config"
	"github.com/TobiSchelling/trendwatch/internal/notify"
	"github.com/TobiSchelling/trendwatch/internal/pipeline"
	"github.com/TobiSchelling/trendwatch/internal/server"
	"github.com/TobiSchelling/trendwatch/internal/store"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "trendwatch",
	Short:   "Trending topics monitor",
	Long:    "trendwatch polls trending-topic listings, merges and scores items against a watchlist, and pushes gated reports.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("trendwatch", version)
	},
}

const starterWatchlist = `# One group per block, blank line between groups.
# Bare words are alternatives; +word is required; !word excludes.
AI
ChatGPT
OpenAI

chip
+export

!lottery
crypto
bitcoin
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/trendwatch/",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
		} else {
			if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			fmt.Printf("Created config: %s\n", target)
		}

		words := filepath.Join(config.ConfigDir(), "frequency_words.txt")
		if _, err := os.Stat(words); err == nil {
			fmt.Printf("Watchlist already exists: %s\n", words)
		} else {
			if err := os.WriteFile(words, []byte(starterWatchlist), 0o644); err != nil {
				return fmt.Errorf("writing watchlist: %w", err)
			}
			fmt.Printf("Created watchlist: %s\n", words)
		}

		fmt.Println("Edit the config to pick platforms and set watchlist.file to the watchlist path.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store and push status",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		today := store.TodayKey()
		fmt.Printf("Today (Beijing): %s\n", today)
		fmt.Printf("Mode: %s\n\n", cfg.Report.Mode)

		fmt.Println("Store:")
		fmt.Printf("  Reports retained: %d\n", stats.Reports)
		fmt.Printf("  Push records: %d\n", stats.PushRecords)
		fmt.Printf("  Titles seen today: %d\n", stats.SeenToday)

		fmt.Println("\nPush:")
		if rec, err := st.GetPushRecord(today); err == nil && rec != nil && rec.Pushed {
			fmt.Printf("  Pushed today at %s (%s)\n", rec.PushTime, rec.ReportType)
		} else {
			fmt.Println("  Not pushed today")
		}
		return nil
	},
}

// --- run command ---

var summaryOnly bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one monitoring cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		pipe, err := pipeline.New(cfg, st, buildNotifiers())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var result *pipeline.Result
		if summaryOnly {
			result = pipe.RunDailySummary(ctx)
		} else {
			result = pipe.Run(ctx)
		}
		printSteps(result)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&summaryOnly, "summary", false, "Build and deliver the daily summary instead of a cycle")
}

// --- watch command ---

var (
	watchEvery     time.Duration
	watchSummaryAt string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run cycles on a schedule until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		pipe, err := pipeline.New(cfg, st, buildNotifiers())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c := cron.New(
			cron.WithLocation(store.Location()),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		)

		if _, err := c.AddFunc(fmt.Sprintf("@every %s", watchEvery), func() {
			printSteps(pipe.Run(ctx))
		}); err != nil {
			return fmt.Errorf("scheduling cycles: %w", err)
		}

		summarySpec, err := cronSpecForClock(watchSummaryAt)
		if err != nil {
			return err
		}
		if _, err := c.AddFunc(summarySpec, func() {
			printSteps(pipe.RunDailySummary(ctx))
		}); err != nil {
			return fmt.Errorf("scheduling summary: %w", err)
		}

		log.Printf("Watching every %s, daily summary at %s (Beijing time)", watchEvery, watchSummaryAt)

		// First cycle immediately; cron fires the rest.
		printSteps(pipe.Run(ctx))

		c.Start()
		<-ctx.Done()
		log.Println("Interrupted, stopping...")
		<-c.Stop().Done()
		return nil
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchEvery, "every", 30*time.Minute, "Interval between cycles")
	watchCmd.Flags().StringVar(&watchSummaryAt, "summary-at", "22:00", "Local time (HH:MM, Beijing) for the daily summary")
}

// cronSpecForClock turns "HH:MM" into a daily cron spec.
func cronSpecForClock(clock string) (string, error) {
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil || h > 23 || m > 59 || h < 0 || m < 0 {
		return "", fmt.Errorf("invalid time %q, want HH:MM", clock)
	}
	return fmt.Sprintf("%d %d * * *", m, h), nil
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local report browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(st, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

// --- helpers ---

func openStore() (*store.Store, error) {
	dbPath := filepath.Join(cfg.GetDataDir(), "trendwatch.db")
	st, err := store.Open(dbPath, cfg.Notification.PushWindow.RetentionDays)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return st, nil
}

// buildNotifiers assembles the configured channels. Missing secrets
// skip a channel with a log line instead of failing the run.
func buildNotifiers() []notify.Notifier {
	if !cfg.Notification.Enabled {
		return nil
	}

	var notifiers []notify.Notifier

	tg := cfg.Notification.Telegram
	if token := os.Getenv(tg.TokenEnv); token != "" && tg.ChatID != "" {
		chatID, err := strconv.ParseInt(tg.ChatID, 10, 64)
		if err != nil {
			log.Printf("Skipping telegram: chat_id %q is not numeric", tg.ChatID)
		} else if t, err := notify.NewTelegram(token, chatID); err != nil {
			log.Printf("Skipping telegram: %v", err)
		} else {
			notifiers = append(notifiers, t)
		}
	}

	for _, wh := range cfg.Notification.Webhooks {
		if wh.URL == "" {
			continue
		}
		name := wh.Name
		if name == "" {
			name = "webhook"
		}
		notifiers = append(notifiers, notify.NewWebhook(name, wh.URL))
	}

	if len(notifiers) == 0 {
		log.Printf("Notifications enabled but no channel is configured; reports will only be stored")
	}
	return notifiers
}

func printSteps(result *pipeline.Result) {
	for i, step := range result.Steps {
		fmt.Printf("\nStep %d: %s\n", i+1, step.Name)
		if step.Err != nil {
			fmt.Printf("  Error: %v\n", step.Err)
		} else {
			fmt.Printf("  %s\n", step.Summary)
		}
	}
	fmt.Println()
}
