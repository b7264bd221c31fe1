package decision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"stockAgent/domain"

	"github.com/shopspring/decimal"
)

var testNow = time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)

type fakeInventory struct {
	items     map[string][]domain.ItemSnapshot
	stock     map[string]int64
	stockErr  map[string]error
	batches   []domain.ExpiringBatch
	gotFrom   time.Time
	gotTo     time.Time
	itemCalls int
}

func (f *fakeInventory) InvoiceItems(ctx context.Context, invoiceID string) ([]domain.ItemSnapshot, error) {
	f.itemCalls++
	return f.items[invoiceID], nil
}

func (f *fakeInventory) CurrentStock(ctx context.Context, itemID string, asOf time.Time) (int64, error) {
	if err := f.stockErr[itemID]; err != nil {
		return 0, err
	}
	return f.stock[itemID], nil
}

func (f *fakeInventory) ExpiringBatches(ctx context.Context, from, to time.Time) ([]domain.ExpiringBatch, error) {
	f.gotFrom, f.gotTo = from, to
	var out []domain.ExpiringBatch
	for _, b := range f.batches {
		if !b.ExpiryDate.Before(from) && !b.ExpiryDate.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeTasks struct {
	durations     []domain.TaskDuration
	stuck         []domain.StuckTask
	durationErr   error
	durationCalls int
	stuckCalls    int
}

func (f *fakeTasks) TaskDurations(ctx context.Context, since, now time.Time) ([]domain.TaskDuration, error) {
	f.durationCalls++
	return f.durations, f.durationErr
}

func (f *fakeTasks) StuckTasks(ctx context.Context, updatedBefore time.Time) ([]domain.StuckTask, error) {
	f.stuckCalls++
	return f.stuck, nil
}

type fakeForecaster struct {
	demand map[string]float64
}

func (f *fakeForecaster) PredictDemand(ctx context.Context, itemID string, horizonDays int) domain.DemandForecast {
	return domain.DemandForecast{Value: f.demand[itemID], Strategy: domain.ForecastSimpleAverage}
}

type fakeRanker struct {
	suppliers  []domain.RankedSupplier
	err        error
	gotUrgency domain.Urgency
}

func (f *fakeRanker) RankSuppliers(ctx context.Context, itemID string, urgency domain.Urgency) (domain.SupplierRanking, error) {
	f.gotUrgency = urgency
	if f.err != nil {
		return domain.SupplierRanking{}, f.err
	}
	return domain.SupplierRanking{Suppliers: f.suppliers, Strategy: domain.RankingRuleBased}, nil
}

type fakeLog struct {
	records []domain.Decision
	failOn  map[domain.DecisionKind]error
}

func (f *fakeLog) Record(ctx context.Context, d domain.Decision) error {
	if err := f.failOn[d.Kind]; err != nil {
		return err
	}
	f.records = append(f.records, d)
	return nil
}

func (f *fakeLog) kinds() map[domain.DecisionKind]int {
	out := map[domain.DecisionKind]int{}
	for _, d := range f.records {
		out[d.Kind]++
	}
	return out
}

type fakeHealth struct{ err error }

func (f fakeHealth) Ping(ctx context.Context) error { return f.err }

type harness struct {
	inv    *fakeInventory
	tasks  *fakeTasks
	fc     *fakeForecaster
	ranker *fakeRanker
	log    *fakeLog
	engine *Engine
}

func newHarness() *harness {
	h := &harness{
		inv:    &fakeInventory{items: map[string][]domain.ItemSnapshot{}, stock: map[string]int64{}, stockErr: map[string]error{}},
		tasks:  &fakeTasks{},
		fc:     &fakeForecaster{demand: map[string]float64{}},
		ranker: &fakeRanker{},
		log:    &fakeLog{failOn: map[domain.DecisionKind]error{}},
	}
	h.engine = NewEngine(h.inv, h.tasks, h.fc, h.ranker, h.log, DefaultConfig()).
		WithClock(func() time.Time { return testNow })
	return h
}

func rankedSuppliers() []domain.RankedSupplier {
	return []domain.RankedSupplier{
		{SupplierID: "s1", Name: "Cheap Supplier", Score: 81},
		{SupplierID: "s2", Name: "Fast Supplier", Score: 67},
		{SupplierID: "s3", Name: "Reliable Supplier", Score: 32.5},
		{SupplierID: "s4", Name: "Backup Supplier", Score: 10},
	}
}

func (h *harness) withItem(invoice, itemID string, stock int64, reorder int, demand float64) {
	h.inv.items[invoice] = append(h.inv.items[invoice], domain.ItemSnapshot{
		ItemID:       itemID,
		Name:         "Item " + itemID,
		ReorderPoint: reorder,
		CostPrice:    decimal.RequireFromString("2.50"),
	})
	h.inv.stock[itemID] = stock
	h.fc.demand[itemID] = demand
}

func TestSaleShortfallEmitsRestock(t *testing.T) {
	h := newHarness()
	h.withItem("INV-1", "item-1", 5, 10, 8)
	h.ranker.suppliers = rankedSuppliers()

	res, err := h.engine.RunCycle(context.Background(), domain.TriggerSale, map[string]any{"invoiceId": "INV-1"})
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(h.log.records) != 1 || len(res.Decisions) != 1 {
		t.Fatalf("want 1 decision, got log=%d result=%d", len(h.log.records), len(res.Decisions))
	}

	d := h.log.records[0]
	if d.Kind != domain.DecisionRestock {
		t.Fatalf("kind: want=%s got=%s", domain.DecisionRestock, d.Kind)
	}
	want := "Restock Suggestion: Order 51 units of Item item-1 from Cheap Supplier. Score: 81.00"
	if d.Text != want {
		t.Fatalf("text:\nwant=%q\n got=%q", want, d.Text)
	}
	if d.RelatedItemID == nil || *d.RelatedItemID != "item-1" {
		t.Fatalf("related item: want=item-1 got=%v", d.RelatedItemID)
	}
	if !d.CreatedAt.Equal(testNow) {
		t.Fatalf("created_at: want=%s got=%s", testNow, d.CreatedAt)
	}
	if h.ranker.gotUrgency != domain.UrgencyUrgent {
		t.Fatalf("urgency: want=URGENT got=%s", h.ranker.gotUrgency)
	}

	if got := d.Context["qty_needed"]; got != float64(51) {
		t.Fatalf("qty_needed: want=51 got=%v (%T)", got, got)
	}
	if got := d.Context["estimated_cost"]; got != "127.50" {
		t.Fatalf("estimated_cost: want=127.50 got=%v", got)
	}
	top, ok := d.Context["top_candidates"].([]interface{})
	if !ok || len(top) != 3 {
		t.Fatalf("top_candidates: want 3 entries, got=%#v", d.Context["top_candidates"])
	}
	first, ok := top[0].(map[string]interface{})
	if !ok || first["supplier_id"] != "s1" {
		t.Fatalf("top_candidates[0]: want s1, got=%#v", top[0])
	}
}

func TestSaleNoSuppliersEmitsWarning(t *testing.T) {
	h := newHarness()
	h.withItem("INV-1", "item-1", 5, 10, 8)

	if _, err := h.engine.RunCycle(context.Background(), domain.TriggerSale, map[string]any{"invoiceId": "INV-1"}); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(h.log.records) != 1 || h.log.records[0].Kind != domain.DecisionWarning {
		t.Fatalf("want one WARNING, got=%v", h.log.kinds())
	}
	if _, ok := h.log.records[0].Context["top_candidates"]; ok {
		t.Fatalf("warning must not carry supplier data")
	}
}

func TestSaleSufficientStockEmitsNothing(t *testing.T) {
	h := newHarness()
	h.withItem("INV-1", "item-1", 50, 10, 2)
	h.ranker.suppliers = rankedSuppliers()

	if _, err := h.engine.RunCycle(context.Background(), domain.TriggerSale, map[string]any{"invoiceId": "INV-1"}); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(h.log.records) != 0 {
		t.Fatalf("want no decisions, got=%v", h.log.kinds())
	}
}

func TestSaleAcceptsSnakeCaseInvoiceKey(t *testing.T) {
	h := newHarness()
	h.withItem("INV-9", "item-1", 0, 10, 1)
	h.ranker.suppliers = rankedSuppliers()

	if _, err := h.engine.RunCycle(context.Background(), domain.TriggerSale, map[string]any{"invoice_id": "INV-9"}); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(h.log.records) != 1 {
		t.Fatalf("want 1 decision, got=%d", len(h.log.records))
	}
}

func TestSaleMissingInvoiceIsNoop(t *testing.T) {
	h := newHarness()

	res, err := h.engine.RunCycle(context.Background(), domain.TriggerSale, map[string]any{})
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if h.inv.itemCalls != 0 || len(res.Decisions) != 0 {
		t.Fatalf("want no store reads and no decisions")
	}
}

func TestSaleItemFailureIsContained(t *testing.T) {
	h := newHarness()
	h.withItem("INV-1", "broken", 0, 10, 5)
	h.withItem("INV-1", "item-2", 1, 10, 5)
	h.inv.stockErr["broken"] = errors.New("stock query failed")
	h.ranker.suppliers = rankedSuppliers()

	res, err := h.engine.RunCycle(context.Background(), domain.TriggerSale, map[string]any{"invoiceId": "INV-1"})
	if err != nil {
		t.Fatalf("RunCycle: contained failure must not surface, got %v", err)
	}
	if len(h.log.records) != 1 || *h.log.records[0].RelatedItemID != "item-2" {
		t.Fatalf("want the second item evaluated, got=%v", h.log.records)
	}
	if len(res.Failures) != 1 || res.Failures[0].Subject != "broken" {
		t.Fatalf("failures: want one for broken, got=%+v", res.Failures)
	}
}

func TestSaleRankingFailureIsContained(t *testing.T) {
	h := newHarness()
	h.withItem("INV-1", "item-1", 0, 10, 5)
	h.ranker.err = errors.New("supplier query failed")

	res, err := h.engine.RunCycle(context.Background(), domain.TriggerSale, map[string]any{"invoiceId": "INV-1"})
	if err != nil {
		t.Fatalf("RunCycle: ranking failure must not surface, got %v", err)
	}
	if len(res.Failures) != 1 {
		t.Fatalf("failures: want=1 got=%d", len(res.Failures))
	}
}

func normalDurations() []domain.TaskDuration {
	mins := []float64{12, 13, 14, 15, 16, 17, 18, 15, 14, 16, 120, 150}
	staff := "Budi"
	out := make([]domain.TaskDuration, len(mins))
	for i, m := range mins {
		out[i] = domain.TaskDuration{
			TaskID:          fmt.Sprintf("task-%d", i),
			Title:           fmt.Sprintf("Task %d", i),
			Status:          domain.TaskCompleted,
			StaffName:       &staff,
			DurationMinutes: m,
		}
	}
	return out
}

func TestCronFlagsDurationOutliers(t *testing.T) {
	h := newHarness()
	h.tasks.durations = normalDurations()

	if _, err := h.engine.RunCycle(context.Background(), domain.TriggerCron, nil); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	var flagged []string
	for _, d := range h.log.records {
		if d.Kind == domain.DecisionBottleneckAnomaly {
			flagged = append(flagged, d.Context["task_id"].(string))
			if d.RelatedItemID != nil {
				t.Fatalf("bottleneck decisions carry no item")
			}
		}
	}
	if len(flagged) != 2 || flagged[0] != "task-10" || flagged[1] != "task-11" {
		t.Fatalf("flagged: want=[task-10 task-11] got=%v", flagged)
	}
	if h.tasks.stuckCalls != 1 {
		t.Fatalf("staleness check must still run, calls=%d", h.tasks.stuckCalls)
	}
}

func TestCronSkipsAnomalyPathWithFewSamples(t *testing.T) {
	h := newHarness()
	h.tasks.durations = normalDurations()[:9]
	h.tasks.stuck = []domain.StuckTask{
		{TaskID: "t-1", Title: "Pack orders", Status: domain.TaskInProgress, UpdatedAt: testNow.Add(-72 * time.Hour)},
	}

	if _, err := h.engine.RunCycle(context.Background(), domain.TriggerCron, nil); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	kinds := h.log.kinds()
	if kinds[domain.DecisionBottleneckAnomaly] != 0 || kinds[domain.DecisionBottleneckStuck] != 1 {
		t.Fatalf("kinds: want only one BOTTLENECK_STUCK, got=%v", kinds)
	}
	want := "Bottleneck: Task 'Pack orders' is stuck in IN_PROGRESS for > 2 days. Suggested Action: Reassign from Unassigned."
	for _, d := range h.log.records {
		if d.Kind == domain.DecisionBottleneckStuck && d.Text != want {
			t.Fatalf("text:\nwant=%q\n got=%q", want, d.Text)
		}
	}
}

func TestCronAnomalyFailureStillRunsOtherDetectors(t *testing.T) {
	h := newHarness()
	h.tasks.durationErr = errors.New("durations query failed")
	h.inv.batches = []domain.ExpiringBatch{
		{BatchID: "b-1", ItemID: "milk", ItemName: "Milk", Quantity: 4, ExpiryDate: testNow.AddDate(0, 0, 5)},
	}

	res, err := h.engine.RunCycle(context.Background(), domain.TriggerCron, nil)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if h.tasks.stuckCalls != 1 || h.log.kinds()[domain.DecisionExpiry] != 1 {
		t.Fatalf("remaining detectors must run, stuck=%d kinds=%v", h.tasks.stuckCalls, h.log.kinds())
	}
	if len(res.Failures) != 1 || res.Failures[0].Step != "bottleneck_anomaly" {
		t.Fatalf("failures: want bottleneck_anomaly, got=%+v", res.Failures)
	}
}

func TestCronExpiryWindow(t *testing.T) {
	h := newHarness()
	h.inv.batches = []domain.ExpiringBatch{
		{BatchID: "b-1", ItemID: "milk", ItemName: "Milk", Quantity: 4, ExpiryDate: testNow.AddDate(0, 0, 5)},
		{BatchID: "b-2", ItemID: "cheese", ItemName: "Cheese", Quantity: 2, ExpiryDate: testNow.AddDate(0, 0, 10)},
		{BatchID: "b-3", ItemID: "bread", ItemName: "Bread", Quantity: 0, ExpiryDate: testNow.AddDate(0, 0, 1)},
	}

	if _, err := h.engine.RunCycle(context.Background(), domain.TriggerCron, nil); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	var expiry []domain.Decision
	for _, d := range h.log.records {
		if d.Kind == domain.DecisionExpiry {
			expiry = append(expiry, d)
		}
	}
	if len(expiry) != 1 {
		t.Fatalf("want 1 EXPIRY, got=%d", len(expiry))
	}
	want := "Expiry Alert: 4 units of Milk expiring on 2024-06-15. Suggestion: Discount or Bundle."
	if expiry[0].Text != want {
		t.Fatalf("text:\nwant=%q\n got=%q", want, expiry[0].Text)
	}
	if expiry[0].RelatedItemID == nil || *expiry[0].RelatedItemID != "milk" {
		t.Fatalf("related item: want=milk got=%v", expiry[0].RelatedItemID)
	}
	if !h.inv.gotFrom.Equal(testNow) || !h.inv.gotTo.Equal(testNow.AddDate(0, 0, 7)) {
		t.Fatalf("window: got [%s, %s]", h.inv.gotFrom, h.inv.gotTo)
	}
}

func TestManualAndUnknownTriggersAreNoops(t *testing.T) {
	for _, trig := range []domain.Trigger{domain.TriggerManual, "SOMETHING_ELSE"} {
		h := newHarness()
		h.tasks.durations = normalDurations()

		res, err := h.engine.RunCycle(context.Background(), trig, map[string]any{"invoiceId": "INV-1"})
		if err != nil {
			t.Fatalf("%s: RunCycle: %v", trig, err)
		}
		if len(res.Decisions) != 0 || h.tasks.durationCalls != 0 || h.inv.itemCalls != 0 {
			t.Fatalf("%s: want no detectors to run", trig)
		}
	}
}

func TestEmitFailureReturnedAfterCycle(t *testing.T) {
	h := newHarness()
	h.tasks.stuck = []domain.StuckTask{
		{TaskID: "t-1", Title: "A", Status: domain.TaskTodo},
		{TaskID: "t-2", Title: "B", Status: domain.TaskTodo},
	}
	h.inv.batches = []domain.ExpiringBatch{
		{BatchID: "b-1", ItemID: "milk", ItemName: "Milk", Quantity: 4, ExpiryDate: testNow.AddDate(0, 0, 2)},
	}
	h.log.failOn[domain.DecisionBottleneckStuck] = errors.New("insert failed")

	res, err := h.engine.RunCycle(context.Background(), domain.TriggerCron, nil)
	if err == nil {
		t.Fatalf("RunCycle: expected emission error")
	}
	var emitErr *EmitError
	if !errors.As(err, &emitErr) || emitErr.Kind != domain.DecisionBottleneckStuck {
		t.Fatalf("want *EmitError for BOTTLENECK_STUCK, got=%v", err)
	}
	if strings.Count(err.Error(), "insert failed") != 2 {
		t.Fatalf("both stuck tasks must be attempted, err=%v", err)
	}
	if len(res.Decisions) != 1 || res.Decisions[0].Kind != domain.DecisionExpiry {
		t.Fatalf("expiry must still be emitted, got=%+v", res.Decisions)
	}
}

func TestDuplicateDecisionIsSuppressedNotFailed(t *testing.T) {
	h := newHarness()
	h.inv.batches = []domain.ExpiringBatch{
		{BatchID: "b-1", ItemID: "milk", ItemName: "Milk", Quantity: 4, ExpiryDate: testNow.AddDate(0, 0, 2)},
	}
	h.log.failOn[domain.DecisionExpiry] = domain.ErrDuplicateDecision

	res, err := h.engine.RunCycle(context.Background(), domain.TriggerCron, nil)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(res.Decisions) != 0 || len(res.Failures) != 0 {
		t.Fatalf("want suppressed decision, got decisions=%d failures=%d", len(res.Decisions), len(res.Failures))
	}
}

func TestStorePingFailureAbortsCycle(t *testing.T) {
	h := newHarness()
	h.engine.WithStoreHealth(fakeHealth{err: errors.New("connection refused")})
	h.tasks.durations = normalDurations()

	if _, err := h.engine.RunCycle(context.Background(), domain.TriggerCron, nil); err == nil {
		t.Fatalf("RunCycle: expected store error")
	}
	if h.tasks.durationCalls != 0 {
		t.Fatalf("no detector may run after a failed ping")
	}
}

func TestRunCycleKeepsCallerTraceID(t *testing.T) {
	h := newHarness()

	res, err := h.engine.RunCycle(WithTraceID(context.Background(), "trace-123"), domain.TriggerManual, nil)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.TraceID != "trace-123" {
		t.Fatalf("trace id: want=trace-123 got=%s", res.TraceID)
	}
}
