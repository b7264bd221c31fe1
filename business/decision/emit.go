package decision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"stockAgent/domain"
	"stockAgent/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EmitError reports a decision that could not be written to the decision log.
type EmitError struct {
	Kind    domain.DecisionKind
	Subject string
	Err     error
}

func (e *EmitError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("emit %s decision: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("emit %s decision for %s: %v", e.Kind, e.Subject, e.Err)
}

func (e *EmitError) Unwrap() error {
	return e.Err
}

// emit writes one decision and records the outcome on the cycle. A failed
// write does not stop the remaining decisions of the step.
func (c *cycle) emit(kind domain.DecisionKind, relatedItemID *string, text string, fields map[string]any) {
	d, err := c.e.logDecision(c.ctx, kind, relatedItemID, text, fields)
	switch {
	case errors.Is(err, domain.ErrDuplicateDecision):
		logger.Info("decision_suppressed", "trace_id", c.traceID, "type", kind, "text", text)
	case err != nil:
		c.emitErrs = append(c.emitErrs, err)
		StepFailuresTotal.WithLabelValues("emit").Inc()
		logger.Error("decision_emit_failed", "trace_id", c.traceID, "type", kind, "error", err)
		c.res.Failures = append(c.res.Failures, StepFailure{Step: "emit", Subject: string(kind), Error: err.Error()})
	default:
		c.res.Decisions = append(c.res.Decisions, d)
	}
}

// logDecision persists one decision with a single Record call.
func (e *Engine) logDecision(ctx context.Context, kind domain.DecisionKind, relatedItemID *string, text string, fields map[string]any) (domain.Decision, error) {
	subject := ""
	if relatedItemID != nil {
		subject = *relatedItemID
	}

	payload, err := normalizeContext(fields)
	if err != nil {
		return domain.Decision{}, &EmitError{Kind: kind, Subject: subject, Err: fmt.Errorf("encode context: %w", err)}
	}

	d := domain.Decision{
		ID:            uuid.NewString(),
		Kind:          kind,
		RelatedItemID: relatedItemID,
		Text:          text,
		Context:       payload,
		CreatedAt:     e.now().UTC(),
	}

	if err := e.decisions.Record(ctx, d); err != nil {
		if errors.Is(err, domain.ErrDuplicateDecision) {
			return d, err
		}
		return d, &EmitError{Kind: kind, Subject: subject, Err: err}
	}

	DecisionsEmittedTotal.WithLabelValues(string(kind)).Inc()
	logger.Info("decision_logged",
		"trace_id", TraceIDFromContext(ctx),
		"decision_id", d.ID,
		"type", kind,
		"text", text,
	)
	return d, nil
}

// normalizeContext round-trips the context through JSON so the stored value
// only holds maps, slices, strings, numbers, bools and nulls.
func normalizeContext(fields map[string]any) (datatypes.JSONMap, error) {
	if len(fields) == 0 {
		return datatypes.JSONMap{}, nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	out := datatypes.JSONMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
