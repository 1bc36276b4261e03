package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/sharefolio/tracker/internal/api"
	"github.com/sharefolio/tracker/internal/auth"
	"github.com/sharefolio/tracker/internal/config"
	"github.com/sharefolio/tracker/internal/database"
	"github.com/sharefolio/tracker/internal/export"
	"github.com/sharefolio/tracker/internal/gfinance"
	"github.com/sharefolio/tracker/internal/mail"
	"github.com/sharefolio/tracker/internal/market"
	"github.com/sharefolio/tracker/internal/portfolio"
	"github.com/sharefolio/tracker/internal/price"
	"github.com/sharefolio/tracker/internal/valuation"
	"github.com/sharefolio/tracker/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// app bundles everything the commands need after wiring.
type app struct {
	cfg        config.Config
	pool       *pgxpool.Pool
	prices     *price.Service
	markets    *market.Service
	portfolios *portfolio.Service
	auths      *auth.Service
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	root := &cli.App{
		Name:  "tracker",
		Usage: "stock portfolio tracker",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and background workers",
				Action: runServe,
			},
			{
				Name:   "refresh-prices",
				Usage:  "refresh stored prices for all held symbols once and exit",
				Action: runRefreshPrices,
			},
			{
				Name:   "report",
				Usage:  "append one market report to the configured sheet and exit",
				Action: runReport,
			},
		},
		DefaultCommand: "serve",
	}

	if err := root.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// buildApp connects the database, runs migrations, and wires the services.
func buildApp(ctx context.Context) (*app, error) {
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.Migrate(ctx, pool, migrationsSub); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	finance := gfinance.NewClient(cfg.FinanceBaseURL, cfg.ScrapeTimeout)

	priceSvc := price.NewService(finance, price.NewPgObservationRepo(pool),
		cfg.FreshnessWindow, cfg.PrimaryExchange, cfg.FallbackExchange)
	marketSvc := market.NewService(finance)

	portfolioSvc := portfolio.NewService(
		portfolio.NewPgAccountRepo(pool),
		portfolio.NewPgHoldingRepo(pool),
		valuation.NewService(priceSvc),
	)

	var mailer mail.Mailer = mail.LogMailer{}
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort,
			cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFromAddress)
	} else {
		slog.Warn("SMTP_HOST not set, mail goes to the log only")
	}

	authSvc := auth.NewService(
		auth.NewPgUserRepo(pool),
		auth.NewPgTokenRepo(pool),
		auth.NewPgOTPRepo(pool),
		auth.NewPgSessionRepo(pool),
		mailer,
		auth.TTLs{
			Session:     cfg.SessionTTL,
			OTP:         cfg.OTPTTL,
			VerifyToken: cfg.VerifyTokenTTL,
			ResetToken:  cfg.ResetTokenTTL,
		},
		cfg.PublicBaseURL,
	)

	return &app{
		cfg:        cfg,
		pool:       pool,
		prices:     priceSvc,
		markets:    marketSvc,
		portfolios: portfolioSvc,
		auths:      authSvc,
	}, nil
}

func runServe(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.pool.Close()

	priceWorker := worker.NewPriceWorker(a.portfolios, a.prices, a.cfg.PriceWorkerInterval)
	go priceWorker.Run(ctx)

	if sink, err := reportSink(ctx, a.cfg); err != nil {
		slog.Warn("market report disabled", "error", err)
	} else if sink != nil {
		reportWorker := worker.NewReportWorker(a.markets, sink, a.cfg.ReportWorkerInterval)
		go reportWorker.Run(ctx)
	}

	srv := api.NewServer(a.cfg.HTTPPort, a.auths, a.portfolios, a.markets)

	go func() {
		slog.Info("HTTP server listening", "port", a.cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func runRefreshPrices(c *cli.Context) error {
	a, err := buildApp(c.Context)
	if err != nil {
		return err
	}
	defer a.pool.Close()

	symbols, err := a.portfolios.HeldSymbols(c.Context)
	if err != nil {
		return fmt.Errorf("listing held symbols: %w", err)
	}

	updated := a.prices.RefreshAll(c.Context, symbols)
	slog.Info("price refresh complete", "symbols", len(symbols), "updated", updated)
	return nil
}

func runReport(c *cli.Context) error {
	a, err := buildApp(c.Context)
	if err != nil {
		return err
	}
	defer a.pool.Close()

	sink, err := reportSink(c.Context, a.cfg)
	if err != nil {
		return err
	}
	if sink == nil {
		return fmt.Errorf("SHEETS_SPREADSHEET_ID and SHEETS_CREDENTIALS_JSON are required")
	}

	gainers, losers := a.markets.TopMovers(c.Context)
	report := export.MarketReport{
		At:      time.Now().UTC(),
		Nifty50: a.markets.Constituents(c.Context, market.IndexNifty50),
		Sensex:  a.markets.Constituents(c.Context, market.IndexSensex),
		Gainers: gainers,
		Losers:  losers,
	}
	if err := sink.AppendMarketReport(c.Context, report); err != nil {
		return fmt.Errorf("appending market report: %w", err)
	}

	slog.Info("market report appended", "nifty50", len(report.Nifty50), "sensex", len(report.Sensex))
	return nil
}

// reportSink builds the Google Sheets writer, or nil when unconfigured.
func reportSink(ctx context.Context, cfg config.Config) (*export.SheetsWriter, error) {
	if cfg.SheetsSpreadsheetID == "" || cfg.SheetsCredentialsJSON == "" {
		return nil, nil
	}
	return export.NewSheetsWriter(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsCredentialsJSON)
}
