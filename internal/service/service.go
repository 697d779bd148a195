package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"treasury-monitor/internal/alerting"
	"treasury-monitor/internal/fluid"
	"treasury-monitor/internal/logging"
	"treasury-monitor/internal/rewards"
	"treasury-monitor/internal/telemetry"
	"treasury-monitor/internal/valuation"
)

// Options tune snapshot and alerting behaviour.
type Options struct {
	Thresholds     alerting.Thresholds
	Rebalance      alerting.RebalanceOptions
	WrappedNative  string
	NativeFallback decimal.Decimal
	AlertsEnabled  bool
	MinPriority    alerting.Priority
}

// Report is one point-in-time reconciliation of outstanding rewards.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Vaults      []rewards.VaultReward
	Lending     []rewards.LendingReward
	NativePrice valuation.Quote
	Overview    alerting.OverviewTotals
	Workload    []alerting.TeamTotals
	Priorities  []alerting.PriorityItem
	Pending     []alerting.PendingToken
	Notified    bool
}

// Service orchestrates fetching, reward computation, and alerting.
type Service struct {
	snapshots fluid.SnapshotFetcher
	calc      *rewards.Calculator
	notifier  alerting.Notifier
	balances  *BalanceReader
	opts      Options
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// New constructs the reconciliation service. notifier and balances may be nil.
func New(opts Options, snapshots fluid.SnapshotFetcher, calc *rewards.Calculator, notifier alerting.Notifier, balances *BalanceReader, logger zerolog.Logger) *Service {
	if opts.MinPriority == "" {
		opts.MinPriority = alerting.PriorityHigh
	}
	return &Service{
		snapshots: snapshots,
		calc:      calc,
		notifier:  notifier,
		balances:  balances,
		opts:      opts,
		logger:    logger.With().Str("component", "service").Logger(),
		tracer:    telemetry.Tracer("treasury-monitor/service"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Snapshot fetches vaults then lending tokens and derives every report table.
// Any fetch failure aborts the run.
func (s *Service) Snapshot(ctx context.Context) (Report, error) {
	ctx, span := s.tracer.Start(ctx, "snapshot")
	defer span.End()

	logger, runID := logging.WithRun(s.logger)

	vaults, err := s.snapshots.FetchVaults(ctx)
	if err != nil {
		span.RecordError(err)
		return Report{}, fmt.Errorf("fetch vaults: %w", err)
	}
	lending, err := s.snapshots.FetchLending(ctx)
	if err != nil {
		span.RecordError(err)
		return Report{}, fmt.Errorf("fetch lending: %w", err)
	}

	report := Report{
		RunID:       runID,
		GeneratedAt: s.now(),
		Vaults:      s.calc.VaultRewards(vaults),
		Lending:     s.calc.LendingRewards(lending),
		NativePrice: valuation.NativePrice(fluid.SupplyQuotes(vaults), s.opts.WrappedNative, s.opts.NativeFallback),
	}
	report.Overview = alerting.Overview(report.Vaults, report.Lending)
	report.Workload = alerting.TeamWorkload(report.Vaults, report.Lending)
	report.Priorities = alerting.Priorities(report.Vaults, report.Lending, s.opts.Thresholds)
	report.Pending = alerting.PendingRebalance(vaultDeltas(vaults), lendingDeltas(lending), report.NativePrice, s.opts.Rebalance)

	span.SetAttributes(
		attribute.Int("vaults.fetched", len(vaults)),
		attribute.Int("lending.fetched", len(lending)),
		attribute.Int("priorities", len(report.Priorities)),
	)
	logger.Info().
		Int("vaults", len(report.Vaults)).
		Int("lending", len(report.Lending)).
		Int("priorities", len(report.Priorities)).
		Str("total_usd", report.Overview.Total.StringFixed(2)).
		Str("native_price", report.NativePrice.Price.String()).
		Str("native_source", string(report.NativePrice.Source)).
		Msg("snapshot computed")

	if s.opts.AlertsEnabled {
		sent, err := s.notify(ctx, report)
		if err != nil {
			logger.Error().Err(err).Msg("failed to dispatch alert")
		}
		report.Notified = sent
	}

	return report, nil
}

// Tick adapts Snapshot to the scheduler.
func (s *Service) Tick(ctx context.Context, bucket time.Time) error {
	report, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	s.logger.Debug().Time("bucket", bucket).Str("run_id", report.RunID).Bool("notified", report.Notified).Msg("tick complete")
	return nil
}

// Balances values the treasury's token holdings.
func (s *Service) Balances(ctx context.Context) (BalanceReport, error) {
	if s.balances == nil {
		return BalanceReport{}, fmt.Errorf("balance reader not configured")
	}
	ctx, span := s.tracer.Start(ctx, "balances")
	defer span.End()
	return s.balances.Read(ctx)
}

func (s *Service) notify(ctx context.Context, report Report) (bool, error) {
	if s.notifier == nil {
		return false, nil
	}
	items := alerting.FilterPriorities(report.Priorities, s.opts.MinPriority)
	if len(items) == 0 {
		return false, nil
	}
	note := alerting.Notification{
		GeneratedAt: report.GeneratedAt,
		RunID:       report.RunID,
		Items:       items,
		Overview:    report.Overview,
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		return false, err
	}
	return true, nil
}

func vaultDeltas(vaults []fluid.VaultSnapshot) []rewards.VaultDelta {
	out := make([]rewards.VaultDelta, 0, len(vaults))
	for _, v := range vaults {
		out = append(out, rewards.ComputeVaultDelta(v))
	}
	return out
}

func lendingDeltas(tokens []fluid.LendingSnapshot) []rewards.LendingDelta {
	out := make([]rewards.LendingDelta, 0, len(tokens))
	for _, l := range tokens {
		out = append(out, rewards.ComputeLendingDelta(l))
	}
	return out
}
