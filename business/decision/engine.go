package decision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockAgent/domain"
	"stockAgent/pkg/logger"
	"stockAgent/pkg/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("stockAgent/business/decision")

// ---- Collaborators ----

type Forecaster interface {
	PredictDemand(ctx context.Context, itemID string, horizonDays int) domain.DemandForecast
}

type SupplierRanker interface {
	RankSuppliers(ctx context.Context, itemID string, urgency domain.Urgency) (domain.SupplierRanking, error)
}

// ---- Repository interfaces ----

type InventoryRepository interface {
	InvoiceItems(ctx context.Context, invoiceID string) ([]domain.ItemSnapshot, error)
	CurrentStock(ctx context.Context, itemID string, asOf time.Time) (int64, error)
	ExpiringBatches(ctx context.Context, from, to time.Time) ([]domain.ExpiringBatch, error)
}

type TaskRepository interface {
	TaskDurations(ctx context.Context, startedSince, now time.Time) ([]domain.TaskDuration, error)
	StuckTasks(ctx context.Context, updatedBefore time.Time) ([]domain.StuckTask, error)
}

// DecisionLog is the single write path of the engine.
type DecisionLog interface {
	Record(ctx context.Context, d domain.Decision) error
}

type StoreHealth interface {
	Ping(ctx context.Context) error
}

// ---- Results ----

type StepFailure struct {
	Step    string `json:"step"`
	Subject string `json:"subject,omitempty"`
	Error   string `json:"error"`
}

type CycleResult struct {
	TraceID   string            `json:"trace_id"`
	Trigger   domain.Trigger    `json:"trigger"`
	Decisions []domain.Decision `json:"decisions"`
	Failures  []StepFailure     `json:"failures,omitempty"`
}

// ---- Engine ----

// Engine runs decision cycles. It keeps no state between cycles; the
// forecaster and ranker it is given own their models.
type Engine struct {
	inventory  InventoryRepository
	tasks      TaskRepository
	forecaster Forecaster
	ranker     SupplierRanker
	decisions  DecisionLog
	health     StoreHealth
	cfg        Config
	now        func() time.Time
}

func NewEngine(
	inventory InventoryRepository,
	tasks TaskRepository,
	forecaster Forecaster,
	ranker SupplierRanker,
	decisions DecisionLog,
	cfg Config,
) *Engine {
	return &Engine{
		inventory:  inventory,
		tasks:      tasks,
		forecaster: forecaster,
		ranker:     ranker,
		decisions:  decisions,
		cfg:        cfg.withDefaults(),
		now:        time.Now,
	}
}

// WithStoreHealth makes every cycle start with a connectivity check.
func (e *Engine) WithStoreHealth(h StoreHealth) *Engine {
	e.health = h
	return e
}

func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// cycle is the per-call working state of RunCycle.
type cycle struct {
	e        *Engine
	ctx      context.Context
	now      time.Time
	traceID  string
	res      *CycleResult
	emitErrs []error
}

// RunCycle evaluates one trigger. SALE evaluates stock health for the items
// of the payload's invoice, CRON runs bottleneck then expiry detection, any
// other trigger is a no-op. Step failures are contained and reported in the
// result; the returned error joins decision emission failures, or reports an
// unreachable store at cycle start.
func (e *Engine) RunCycle(ctx context.Context, trigger domain.Trigger, payload map[string]any) (CycleResult, error) {
	started := time.Now()

	tid := TraceIDFromContext(ctx)
	if tid == "" {
		tid = uuid.NewString()
		ctx = WithTraceID(ctx, tid)
	}

	res := CycleResult{TraceID: tid, Trigger: trigger, Decisions: []domain.Decision{}}
	label := triggerLabel(string(trigger))

	ctx, span := tracer.Start(ctx, "decision.RunCycle")
	defer span.End()
	span.SetAttributes(
		attribute.String("agent.trigger", string(trigger)),
		attribute.String("agent.trace_id", tid),
	)

	logger.Info("decision_engine_start", "trace_id", tid, "trigger", trigger)

	if e.health != nil {
		if err := e.health.Ping(ctx); err != nil {
			CyclesTotal.WithLabelValues(label, "failed").Inc()
			logger.Error("decision_engine_store_unreachable", "trace_id", tid, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "store unreachable")
			return res, fmt.Errorf("store unreachable: %w", err)
		}
	}

	c := &cycle{e: e, ctx: ctx, now: e.now(), traceID: tid, res: &res}

	switch trigger {
	case domain.TriggerSale:
		c.handleSale(payload)
	case domain.TriggerCron:
		c.step("bottleneck_anomaly", "", c.detectDurationAnomalies)
		c.step("bottleneck_stuck", "", c.detectStuckTasks)
		c.step("expiry", "", c.detectExpiry)
	default:
		logger.Debug("decision_engine_trigger_ignored", "trace_id", tid, "trigger", trigger)
	}

	err := errors.Join(c.emitErrs...)

	status := "ok"
	switch {
	case err != nil:
		status = "emit_failed"
	case len(res.Failures) > 0:
		status = "partial"
	}
	CyclesTotal.WithLabelValues(label, status).Inc()
	span.SetAttributes(
		attribute.Int("agent.decisions", len(res.Decisions)),
		attribute.Int("agent.failures", len(res.Failures)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
	}
	metrics.CycleDuration.WithLabelValues(label).Observe(time.Since(started).Seconds())

	logger.Info("decision_engine_done",
		"trace_id", tid,
		"trigger", trigger,
		"decisions", len(res.Decisions),
		"failures", len(res.Failures),
		"status", status,
	)

	return res, err
}

// step runs one detector or per-item evaluation and contains its failure.
func (c *cycle) step(name, subject string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			c.fail(name, subject, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := fn(); err != nil {
		c.fail(name, subject, err)
	}
}

func (c *cycle) fail(step, subject string, err error) {
	StepFailuresTotal.WithLabelValues(step).Inc()
	logger.Error("decision_step_failed",
		"trace_id", c.traceID,
		"step", step,
		"subject", subject,
		"error", err,
	)
	c.res.Failures = append(c.res.Failures, StepFailure{Step: step, Subject: subject, Error: err.Error()})
}

func (c *cycle) handleSale(payload map[string]any) {
	invoiceID := invoiceIDFrom(payload)
	if invoiceID == "" {
		logger.Warn("sale_trigger_missing_invoice", "trace_id", c.traceID)
		return
	}

	items, err := c.e.inventory.InvoiceItems(c.ctx, invoiceID)
	if err != nil {
		c.fail("invoice_items", invoiceID, fmt.Errorf("load invoice items: %w", err))
		return
	}

	for _, item := range items {
		c.step("stock_health", item.ItemID, func() error {
			return c.evaluateStockHealth(item)
		})
	}
}

func invoiceIDFrom(payload map[string]any) string {
	for _, key := range []string{"invoiceId", "invoice_id"} {
		v, ok := payload[key]
		if !ok || v == nil {
			continue
		}
		switch id := v.(type) {
		case string:
			if id != "" {
				return id
			}
		case float64:
			return fmt.Sprintf("%.0f", id)
		default:
			return fmt.Sprint(id)
		}
	}
	return ""
}
