package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"calguard/internal/classifier"
	"calguard/internal/google"
	"calguard/internal/reconciler"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "calguard",
		Usage: "Keep a fixed set of guests on Calendly-created Google Calendar events.",
		Commands: []*cli.Command{
			authCommand(),
			runCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get an API token.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			config, err := google.GetOAuthConfigForAuthFlow(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"))
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(config, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			fmt.Print("Enter a name for this account (e.g., 'personal', 'work'): ")
			accountName, _ := reader.ReadString('\n')
			accountName = strings.TrimSpace(accountName)
			tokenFile := "token-" + accountName + ".json"

			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run one reconciliation pass over the configured calendar.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Usage: "Log what would be patched without making changes."},
			&cli.IntFlag{Name: "days-back", Value: 7, Usage: "How many days back the event window reaches."},
			&cli.IntFlag{Name: "days-forward", Value: 30, Usage: "How many days forward the event window reaches."},
			&cli.IntFlag{Name: "watch", Usage: "Rerun every N seconds instead of exiting."},
			&cli.StringFlag{Name: "snapshot", Usage: "Write an ICS snapshot of matched events to this file."},
			&cli.BoolFlag{Name: "list-calendars", Usage: "List accessible calendars and exit."},
		},
		Action: func(c *cli.Context) error {
			logLevel := os.Getenv("LOG_LEVEL")
			if logLevel == "" {
				logLevel = "info"
			}
			logger := setupLogger(logLevel)

			client, err := newCalendarClient(c, logger)
			if err != nil {
				return err
			}

			if c.Bool("list-calendars") {
				calendars, err := client.ListCalendars(c.Context)
				if err != nil {
					return fmt.Errorf("failed to list calendars: %w", err)
				}
				for _, cal := range calendars {
					marker := ""
					if cal.Primary {
						marker = " [PRIMARY]"
					}
					fmt.Printf("%s (%s) - %s%s\n", cal.Summary, cal.ID, cal.AccessRole, marker)
				}
				return nil
			}

			calendarID := os.Getenv("CALENDAR_ID")
			if calendarID == "" {
				return fmt.Errorf("CALENDAR_ID environment variable not set")
			}
			targets := splitEmails(os.Getenv("TARGET_EMAILS"))
			if len(targets) == 0 {
				return fmt.Errorf("TARGET_EMAILS environment variable not set")
			}

			if c.Bool("dry-run") {
				logger.Info("Performing a dry run. No changes will be made.")
			}

			r, err := reconciler.New(logger, client, classifier.NewCalendly(), reconciler.Config{
				CalendarID:   calendarID,
				Targets:      targets,
				DaysBack:     c.Int("days-back"),
				DaysForward:  c.Int("days-forward"),
				DryRun:       c.Bool("dry-run"),
				SnapshotPath: c.String("snapshot"),
			})
			if err != nil {
				return fmt.Errorf("failed to create reconciler: %w", err)
			}

			// --watch flag takes precedence over the default single run.
			if c.IsSet("watch") {
				interval := time.Duration(c.Int("watch")) * time.Second
				logger.Info("Starting watcher.", "interval", interval)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for ; true; <-ticker.C {
					if _, err := r.Run(c.Context); err != nil {
						logger.Error("Reconciliation run failed", "error", err)
					}
				}
			} else {
				logger.Info("Running a single reconciliation pass.")
				if _, err := r.Run(c.Context); err != nil {
					return fmt.Errorf("reconciliation run failed: %w", err)
				}
			}

			return nil
		},
	}
}

// newCalendarClient picks the credential mode: service account JSON when
// GOOGLE_CREDENTIALS or GOOGLE_CREDENTIALS_FILE is set, a stored OAuth token
// otherwise.
func newCalendarClient(c *cli.Context, logger *slog.Logger) (*google.CalendarClient, error) {
	if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		return google.NewServiceAccountClient(c.Context, logger, []byte(credsJSON))
	}
	if credsFile := os.Getenv("GOOGLE_CREDENTIALS_FILE"); credsFile != "" {
		data, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("unable to read credentials file %s: %w", credsFile, err)
		}
		return google.NewServiceAccountClient(c.Context, logger, data)
	}

	account := os.Getenv("GOOGLE_ACCOUNT")
	if account == "" {
		accounts, err := google.GetTokenAccounts()
		if err != nil {
			return nil, fmt.Errorf("could not find any google accounts, did you run auth command? %w", err)
		}
		if len(accounts) == 0 {
			return nil, fmt.Errorf("no google accounts found. Run the 'auth' command first")
		}
		account = accounts[0]
	}
	return google.NewClient(c.Context, logger, os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"), account)
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.RFC1123Z,
	}))
}

// splitEmails parses a comma-separated address list, dropping empty entries.
func splitEmails(s string) []string {
	var emails []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			emails = append(emails, part)
		}
	}
	return emails
}
