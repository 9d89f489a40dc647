package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"

	"github.com/cory-johannsen/combatcore/internal/config"
	"github.com/cory-johannsen/combatcore/internal/game/combat"
	"github.com/cory-johannsen/combatcore/internal/game/critical"
)

const meterName = "github.com/cory-johannsen/combatcore/combat"

// MetricsProvider owns the meter provider. When metrics are disabled it
// hands out a no-op meter and Report does nothing.
type MetricsProvider struct {
	provider *sdkmetric.MeterProvider
	reader   *sdkmetric.ManualReader
	interval time.Duration
	logger   *zap.Logger
}

// NewMetricsProvider builds a provider from cfg.
//
// Precondition: logger must be non-nil.
func NewMetricsProvider(cfg config.MetricsConfig, logger *zap.Logger) *MetricsProvider {
	p := &MetricsProvider{interval: cfg.Interval, logger: logger}
	if !cfg.Enabled {
		return p
	}
	p.reader = sdkmetric.NewManualReader()
	p.provider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(p.reader))
	return p
}

// Meter returns the combat meter.
func (p *MetricsProvider) Meter() metric.Meter {
	if p.provider == nil {
		return noop.Meter{}
	}
	return p.provider.Meter(meterName)
}

// Collect returns the current totals of every counter, keyed by
// instrument name and summed across attributes.
func (p *MetricsProvider) Collect(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64)
	if p.reader == nil {
		return out, nil
	}
	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("collecting metrics: %w", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				out[m.Name] += dp.Value
			}
		}
	}
	return out, nil
}

// Run logs the collected totals every interval until ctx is done.
func (p *MetricsProvider) Run(ctx context.Context) {
	if p.reader == nil || p.interval <= 0 {
		<-ctx.Done()
		return
	}
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			totals, err := p.Collect(ctx)
			if err != nil {
				p.logger.Warn("metrics collection failed", zap.Error(err))
				continue
			}
			fields := make([]zap.Field, 0, len(totals))
			for name, v := range totals {
				fields = append(fields, zap.Int64(name, v))
			}
			p.logger.Info("combat metrics", fields...)
		}
	}
}

// Shutdown flushes and stops the provider.
func (p *MetricsProvider) Shutdown(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}

// CombatMetrics records combat events as OpenTelemetry counters. It
// satisfies combat.Recorder.
type CombatMetrics struct {
	attacks   metric.Int64Counter
	hits      metric.Int64Counter
	criticals metric.Int64Counter
	deaths    metric.Int64Counter
	bleed     metric.Int64Counter
}

var _ combat.Recorder = (*CombatMetrics)(nil)

// NewCombatMetrics creates the combat counters on meter.
//
// Postcondition: Returns an error if any instrument cannot be created.
func NewCombatMetrics(meter metric.Meter) (*CombatMetrics, error) {
	var (
		m   CombatMetrics
		err error
	)
	if m.attacks, err = meter.Int64Counter("combat.attacks", metric.WithDescription("Attacks resolved")); err != nil {
		return nil, err
	}
	if m.hits, err = meter.Int64Counter("combat.hits", metric.WithDescription("Attacks that landed")); err != nil {
		return nil, err
	}
	if m.criticals, err = meter.Int64Counter("combat.criticals", metric.WithDescription("Criticals applied with rank > 0")); err != nil {
		return nil, err
	}
	if m.deaths, err = meter.Int64Counter("combat.deaths", metric.WithDescription("Combatants killed")); err != nil {
		return nil, err
	}
	if m.bleed, err = meter.Int64Counter("combat.bleed_damage", metric.WithDescription("Health lost to bleeding"), metric.WithUnit("{hp}")); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *CombatMetrics) Attack(attackerKind combat.Kind, hit bool) {
	attrs := metric.WithAttributes(attribute.String("attacker", attackerKind.String()))
	m.attacks.Add(context.Background(), 1, attrs)
	if hit {
		m.hits.Add(context.Background(), 1, attrs)
	}
}

func (m *CombatMetrics) Critical(part critical.BodyPart, rank int) {
	if rank <= 0 {
		return
	}
	m.criticals.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("location", string(part)),
		attribute.Int("rank", rank),
	))
}

func (m *CombatMetrics) Death(victimKind combat.Kind, cause string) {
	m.deaths.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("victim", victimKind.String()),
		attribute.String("cause", cause),
	))
}

func (m *CombatMetrics) Bleed(amount int) {
	if amount <= 0 {
		return
	}
	m.bleed.Add(context.Background(), int64(amount))
}
