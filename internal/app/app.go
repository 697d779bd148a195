package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"treasury-monitor/internal/alerting"
	"treasury-monitor/internal/config"
	"treasury-monitor/internal/fluid"
	"treasury-monitor/internal/rewards"
	"treasury-monitor/internal/scheduler"
	"treasury-monitor/internal/secrets"
	"treasury-monitor/internal/service"
	"treasury-monitor/internal/solscan"
	"treasury-monitor/internal/storage"
	"treasury-monitor/internal/telemetry"
	"treasury-monitor/internal/transactions"
	"treasury-monitor/internal/version"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	// Out receives rendered tables.
	Out io.Writer

	shutdown telemetry.ShutdownFunc
}

// NewApp constructs a new application handle and installs span export when enabled.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	a := &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger(), Out: os.Stdout}

	shutdown, err := telemetry.Setup(telemetry.Options{
		TraceStdout: cfg.Telemetry.TraceStdout,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		a.Logger.Warn().Err(err).Msg("telemetry disabled")
		shutdown = nil
	}
	a.shutdown = shutdown
	return a
}

// Close flushes telemetry.
func (a *App) Close(ctx context.Context) error {
	if a.shutdown == nil {
		return nil
	}
	return a.shutdown(ctx)
}

func (a *App) newFluid() *fluid.Client {
	return fluid.NewClient(fluid.Options{
		BaseURL:   a.Config.Fluid.BaseURL,
		Timeout:   a.Config.Fluid.RequestTimeout,
		UserAgent: version.UserAgent(),
	}, a.Logger)
}

// newSolscan builds the transfer client. The API key comes from config or
// environment first, then Secret Manager when a project is configured. A
// missing key is not an error here; the client reports it on first use.
func (a *App) newSolscan(ctx context.Context) (*solscan.Client, error) {
	key := a.Config.Solscan.APIKey
	if key == "" && a.Config.Secrets.GCPProject != "" && a.Config.Secrets.SolscanAPIKey != "" {
		sm, err := secrets.NewGCPSecretManager(ctx, a.Config.Secrets.GCPProject, a.Logger)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("secret manager unavailable")
		} else {
			defer sm.Close()
			key = secrets.Resolve(ctx, key, sm, a.Config.Secrets.SolscanAPIKey, a.Logger)
		}
	}

	return solscan.NewClient(solscan.Options{
		BaseURL:           a.Config.Solscan.BaseURL,
		APIKey:            key,
		Address:           a.Config.Treasury.Address,
		Timeout:           a.Config.Solscan.RequestTimeout,
		RequestsPerMinute: a.Config.Solscan.RequestsPerMinute,
		UserAgent:         version.UserAgent(),
	}, a.Logger)
}

func (a *App) newCalculator() (*rewards.Calculator, error) {
	resolver, err := a.Config.Responsibility()
	if err != nil {
		return nil, err
	}
	return rewards.NewCalculator(resolver, a.Config.Rewards.NoiseFloor), nil
}

// newNotifier prefers Telegram; without it alerts go to the log.
func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.RequestTimeout, a.Logger)
	}
	return alerting.NewLogNotifier(a.Logger)
}

func (a *App) serviceOptions() service.Options {
	return service.Options{
		Thresholds:     a.Config.Rewards.Thresholds,
		Rebalance:      a.Config.Rebalance,
		WrappedNative:  a.Config.Pricing.WrappedNative,
		NativeFallback: a.Config.Pricing.NativeFallback,
		AlertsEnabled:  a.Config.Alerting.Enabled,
		MinPriority:    a.Config.MinPriority(),
	}
}

func (a *App) newService(ctx context.Context, opts service.Options, withBalances bool) (*service.Service, error) {
	calc, err := a.newCalculator()
	if err != nil {
		return nil, err
	}
	fc := a.newFluid()

	var balances *service.BalanceReader
	if withBalances {
		sc, err := a.newSolscan(ctx)
		if err != nil {
			return nil, err
		}
		balances = service.NewBalanceReader(service.BalanceOptions{
			PageSize:        a.Config.Solscan.BalancePageSize,
			StableSymbols:   a.Config.Pricing.StableSymbols,
			NativeSymbols:   a.Config.Pricing.NativeSymbols,
			WrappedNative:   a.Config.Pricing.WrappedNative,
			NativeFallback:  a.Config.Pricing.NativeFallback,
			ExcludedSymbols: a.Config.Pricing.ExcludedSymbols,
		}, sc, fc, a.Logger)
	}

	return service.New(opts, fc, calc, a.newNotifier(), balances, a.Logger), nil
}

func (a *App) newCache() *transactions.FileCache {
	return transactions.NewFileCache(a.Config.Transactions.CachePath)
}

func (a *App) newTransactionFetcher(ctx context.Context) (*transactions.Fetcher, error) {
	resolver, err := a.Config.Responsibility()
	if err != nil {
		return nil, err
	}
	sc, err := a.newSolscan(ctx)
	if err != nil {
		return nil, err
	}
	pricer := fluid.NewNativePricer(a.newFluid(), a.Config.Pricing.WrappedNative, a.Config.Pricing.NativeFallback, a.Logger)
	classifier := transactions.NewClassifier(transactions.ClassifierOptions{
		MinValueUSD:   a.Config.Transactions.MinValueUSD,
		StableSymbols: a.Config.Transactions.StableSymbols,
		NativeSymbols: a.Config.Pricing.NativeSymbols,
	}, resolver)

	return transactions.NewFetcher(transactions.FetcherOptions{
		MaxPages: a.Config.Transactions.MaxPages,
		PageSize: a.Config.Transactions.PageSize,
	}, a.newCache(), sc, pricer, classifier, a.Logger), nil
}

func (a *App) newUploader(ctx context.Context) (storage.Uploader, error) {
	cfg := a.Config.Export.ObjectStore
	if !cfg.Enabled {
		return nil, errors.New("export.object_store is not enabled")
	}
	return storage.NewObjectStore(ctx, storage.Options{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		Prefix:    cfg.Prefix,
		Region:    cfg.Region,
		UseSSL:    cfg.UseSSL,
	}, a.Logger)
}

// Watch runs the snapshot on the scheduler until interrupted.
func (a *App) Watch(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, err := a.newService(ctx, a.serviceOptions(), false)
	if err != nil {
		return err
	}
	if !a.Config.Alerting.Enabled {
		a.Logger.Warn().Msg("alerting.enabled is false; watch will only log snapshots")
	}

	sched := scheduler.New(scheduler.Options{
		Interval:      a.Config.Scheduler.Interval,
		AlignToBucket: a.Config.Scheduler.AlignToBucket,
		StartupDelay:  a.Config.Scheduler.StartupDelay,
		RunOnStart:    a.Config.Scheduler.RunOnStart,
	}, a.Logger)

	a.Logger.Info().Dur("interval", a.Config.Scheduler.Interval).Msg("starting watch loop")
	err = sched.Run(ctx, svc.Tick)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("watch terminated with error")
		return fmt.Errorf("watch: %w", err)
	}

	a.Logger.Info().Msg("watch stopped")
	return nil
}

// ReportOptions configure the report command.
type ReportOptions struct {
	// Notify forces the alert dispatch regardless of alerting.enabled.
	Notify bool
}

// TransactionsOptions configure the transactions command.
type TransactionsOptions struct {
	Refresh bool
	Limit   int
	Summary bool
	Filter  transactions.Filter
}

// ExportOptions name the artifacts to write.
type ExportOptions struct {
	VaultCSV        string
	LendingCSV      string
	TransactionsCSV string
	WorkloadPNG     string
	TimelinePNG     string
	Upload          bool
}
