package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stockAgent/business/decision"
	"stockAgent/domain"

	"github.com/labstack/echo/v4"
)

type fakeRunner struct {
	gotTrigger domain.Trigger
	gotPayload map[string]any
	res        decision.CycleResult
	err        error
}

func (f *fakeRunner) RunCycle(ctx context.Context, trigger domain.Trigger, payload map[string]any) (decision.CycleResult, error) {
	f.gotTrigger = trigger
	f.gotPayload = payload
	f.res.Trigger = trigger
	return f.res, f.err
}

type fakeLister struct {
	got domain.DecisionFilter
	out []domain.Decision
	err error
}

func (f *fakeLister) List(ctx context.Context, filter domain.DecisionFilter) ([]domain.Decision, error) {
	f.got = filter
	return f.out, f.err
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func do(h echo.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = h(c)
	return rec
}

func TestRunPassesTriggerAndPayload(t *testing.T) {
	runner := &fakeRunner{res: decision.CycleResult{TraceID: "trace-1"}}
	h := NewAgentHandler(runner)

	rec := do(h.Run, http.MethodPost, "/api/v1/agent/run", `{"trigger":"SALE","payload":{"invoiceId":"inv-9"}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if runner.gotTrigger != domain.TriggerSale {
		t.Fatalf("want SALE got=%s", runner.gotTrigger)
	}
	if runner.gotPayload["invoiceId"] != "inv-9" {
		t.Fatalf("payload not forwarded: %v", runner.gotPayload)
	}
	if !strings.Contains(rec.Body.String(), "trace-1") {
		t.Fatalf("result missing from body: %s", rec.Body.String())
	}
}

func TestRunRequiresTrigger(t *testing.T) {
	runner := &fakeRunner{}
	h := NewAgentHandler(runner)

	rec := do(h.Run, http.MethodPost, "/api/v1/agent/run", `{"payload":{}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400 got=%d", rec.Code)
	}
	if runner.gotTrigger != "" {
		t.Fatalf("engine must not run on invalid request")
	}
}

func TestRunDefaultsPayload(t *testing.T) {
	runner := &fakeRunner{}
	h := NewAgentHandler(runner)

	rec := do(h.Run, http.MethodPost, "/api/v1/agent/run", `{"trigger":"CRON"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got=%d", rec.Code)
	}
	if runner.gotPayload == nil {
		t.Fatalf("payload must default to an empty map")
	}
}

func TestRunReportsEmitErrors(t *testing.T) {
	runner := &fakeRunner{
		err: errors.Join(
			&decision.EmitError{Kind: domain.DecisionRestock, Subject: "milk", Err: errors.New("insert failed")},
			&decision.EmitError{Kind: domain.DecisionExpiry, Subject: "b-1", Err: errors.New("insert failed")},
		),
	}
	h := NewAgentHandler(runner)

	rec := do(h.Run, http.MethodPost, "/api/v1/agent/run", `{"trigger":"CRON"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500 got=%d", rec.Code)
	}

	var body RunFailure
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Errors) != 2 || body.Errors[0].Subject != "milk" {
		t.Fatalf("unexpected emit errors: %+v", body.Errors)
	}
}

func TestRunStoreUnreachable(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("store unreachable: %w", errors.New("dial tcp"))}
	h := NewAgentHandler(runner)

	rec := do(h.Run, http.MethodPost, "/api/v1/agent/run", `{"trigger":"CRON"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503 got=%d", rec.Code)
	}
}

func TestListDecisionsParsesFilter(t *testing.T) {
	lister := &fakeLister{out: []domain.Decision{{ID: "d1", Kind: domain.DecisionRestock}}}
	h := NewDecisionHandler(lister)

	rec := do(h.List, http.MethodGet, "/api/v1/decisions?kind=RESTOCK&item_id=milk&since=2024-03-01T00:00:00Z&limit=20", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 got=%d body=%s", rec.Code, rec.Body.String())
	}

	want := domain.DecisionFilter{
		Kind:   domain.DecisionRestock,
		ItemID: "milk",
		Since:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Limit:  20,
	}
	if lister.got.Kind != want.Kind || lister.got.ItemID != want.ItemID || !lister.got.Since.Equal(want.Since) || lister.got.Limit != want.Limit {
		t.Fatalf("want=%+v got=%+v", want, lister.got)
	}
}

func TestListDecisionsRejectsBadQuery(t *testing.T) {
	h := NewDecisionHandler(&fakeLister{})

	for _, target := range []string{
		"/api/v1/decisions?since=yesterday",
		"/api/v1/decisions?limit=-1",
		"/api/v1/decisions?limit=ten",
	} {
		if rec := do(h.List, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: want 400 got=%d", target, rec.Code)
		}
	}
}

func TestListDecisionsStoreError(t *testing.T) {
	h := NewDecisionHandler(&fakeLister{err: errors.New("db down")})
	if rec := do(h.List, http.MethodGet, "/api/v1/decisions", ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500 got=%d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	rec := do(NewHealthHandler(fakePinger{}).Root, http.MethodGet, "/", "")
	if !strings.Contains(rec.Body.String(), "Agent is Running with Scheduler") {
		t.Fatalf("unexpected root body: %s", rec.Body.String())
	}

	if rec := do(NewHealthHandler(fakePinger{}).Health, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("want 200 got=%d", rec.Code)
	}
	if rec := do(NewHealthHandler(fakePinger{err: errors.New("down")}).Health, http.MethodGet, "/health", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503 got=%d", rec.Code)
	}
}
