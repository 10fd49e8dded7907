// Package exec implements the transactional policy executor: it evaluates
// a rule set against one node, stages SET writes in memory, and flushes
// them (or rolls back) only after every rule has run.
package exec

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/netfleet/netfleet/internal/datastore"
	"github.com/netfleet/netfleet/internal/fleeterrors"
	"github.com/netfleet/netfleet/internal/model"
	"github.com/netfleet/netfleet/internal/policy/ast"
	"github.com/netfleet/netfleet/internal/policy/eval"
)

// ExecutionOutcome tags what happened when a rule's action was dispatched.
type ExecutionOutcome string

const (
	OutcomeNotApplicable     ExecutionOutcome = "not_applicable"
	OutcomeSuccess           ExecutionOutcome = "success"
	OutcomeComplianceFailure ExecutionOutcome = "compliance_failure"
	OutcomeError             ExecutionOutcome = "error"
)

// PolicyExecutionResult is one rule's outcome within a transaction.
type PolicyExecutionResult struct {
	RuleLine     int
	Outcome      ExecutionOutcome
	Field        string
	Expected     json.RawMessage
	Actual       json.RawMessage
	Message      string
	TemplatePath string
}

// PolicyTransaction describes what a transaction did after all rules ran.
type PolicyTransaction struct {
	NodeID       uuid.UUID
	SetCount     int
	Flushed      bool
	RolledBack   bool
	FlushedError string
}

// ExecContext bundles the dependencies one execution needs: the context
// passed to every store call, and where to read and write the node.
type ExecContext struct {
	Ctx    context.Context
	Store  datastore.DataStore
	NodeID uuid.UUID
}

// ExecuteRulesWithTransaction runs every rule against the node named by
// execCtx.NodeID, in input order. It fails fast (returning an error, no
// results) if the node does not exist; otherwise it evaluates every rule,
// stages any SET writes, and flushes them in one UpdateNodeCustomData call.
// If any rule produced an Error outcome, nothing is written and every
// staged SET result is marked Error. If the flush itself fails, it attempts
// to restore the original custom_data and marks every staged SET result as
// Error.
func ExecuteRulesWithTransaction(rules []ast.PolicyRule, execCtx ExecContext) ([]PolicyExecutionResult, PolicyTransaction, error) {
	txn := PolicyTransaction{NodeID: execCtx.NodeID}

	node, err := execCtx.Store.GetNode(execCtx.Ctx, execCtx.NodeID)
	if err != nil {
		return nil, txn, err
	}
	if node == nil {
		return nil, txn, fleeterrors.Errorf(fleeterrors.KindDataStoreNotFound, "node %s not found", execCtx.NodeID)
	}

	originalCustomData := node.CustomData
	if len(originalCustomData) == 0 {
		originalCustomData = json.RawMessage(`{}`)
	}
	var customData map[string]any
	if err := json.Unmarshal(originalCustomData, &customData); err != nil {
		return nil, txn, fleeterrors.Wrap(err, fleeterrors.KindEvaluation, "decoding node custom_data")
	}

	merged := buildNodeFields(node, customData)
	contextMap := map[string]any{"node": merged}

	results := make([]PolicyExecutionResult, 0, len(rules))
	setIndices := make([]int, 0)

	for _, rule := range rules {
		outcome := eval.EvaluateRule(rule, contextMap)

		switch outcome.Kind {
		case eval.NotSatisfied:
			results = append(results, PolicyExecutionResult{RuleLine: rule.Line, Outcome: OutcomeNotApplicable})
			continue

		case eval.EvalError:
			results = append(results, PolicyExecutionResult{RuleLine: rule.Line, Outcome: OutcomeError, Message: outcome.Message})
			continue
		}

		switch action := outcome.Action.(type) {
		case ast.AssertAction:
			results = append(results, dispatchAssert(rule.Line, action, contextMap))

		case ast.SetAction:
			setIndices = append(setIndices, len(results))
			results = append(results, dispatchSet(rule.Line, action, customData, merged))

		case ast.ApplyTemplateAction:
			results = append(results, PolicyExecutionResult{
				RuleLine:     rule.Line,
				Outcome:      OutcomeSuccess,
				TemplatePath: action.Path,
			})

		default:
			results = append(results, PolicyExecutionResult{RuleLine: rule.Line, Outcome: OutcomeError, Message: "unknown action type"})
		}
	}

	txn.SetCount = len(setIndices)
	if len(setIndices) == 0 {
		return results, txn, nil
	}

	hasError := false
	for _, r := range results {
		if r.Outcome == OutcomeError {
			hasError = true
			break
		}
	}
	if hasError {
		for _, i := range setIndices {
			results[i].Outcome = OutcomeError
			results[i].Message = "transaction aborted: another rule produced an error"
		}
		return results, txn, nil
	}

	patch, err := json.Marshal(customData)
	if err != nil {
		return results, txn, fleeterrors.Wrap(err, fleeterrors.KindEvaluation, "encoding staged custom_data")
	}

	if err := execCtx.Store.UpdateNodeCustomData(execCtx.Ctx, execCtx.NodeID, patch); err != nil {
		txn.FlushedError = err.Error()
		if restoreErr := execCtx.Store.UpdateNodeCustomData(execCtx.Ctx, execCtx.NodeID, originalCustomData); restoreErr == nil {
			txn.RolledBack = true
		}
		for _, i := range setIndices {
			results[i].Outcome = OutcomeError
			results[i].Message = "flush failed: " + err.Error()
		}
		return results, txn, nil
	}

	txn.Flushed = true
	return results, txn, nil
}

func dispatchAssert(line int, action ast.AssertAction, context map[string]any) PolicyExecutionResult {
	actual := eval.ResolveField(context, action.Field.Path)
	expected := eval.ResolveValue(action.Expected, context)

	if eval.IsMissing(actual) {
		return PolicyExecutionResult{
			RuleLine: line,
			Outcome:  OutcomeComplianceFailure,
			Field:    action.Field.String(),
			Expected: marshalAny(expected),
			Actual:   json.RawMessage("null"),
		}
	}
	if !eval.ValuesEqual(actual, expected) {
		return PolicyExecutionResult{
			RuleLine: line,
			Outcome:  OutcomeComplianceFailure,
			Field:    action.Field.String(),
			Expected: marshalAny(expected),
			Actual:   marshalAny(actual),
		}
	}
	return PolicyExecutionResult{RuleLine: line, Outcome: OutcomeSuccess, Field: action.Field.String()}
}

// reservedNodeFields are the static attribute keys buildNodeFields copies
// from model.Node. They're read-only context for policy rules: a SET can't
// target one, because the only thing a SET can persist is custom_data, and
// writing a reserved key there would shadow the real attribute on every
// future read without ever actually changing it.
var reservedNodeFields = map[string]bool{
	"id": true, "name": true, "domain": true, "vendor": true, "model": true,
	"role": true, "lifecycle": true, "management_ip": true, "location_id": true,
}

func dispatchSet(line int, action ast.SetAction, customData, merged map[string]any) PolicyExecutionResult {
	value := eval.ResolveValue(action.Value, map[string]any{"node": merged})

	// A leading "node" element is dropped; the rest of the path is written
	// into custom_data.
	path := action.Field.Path
	if len(path) > 0 && path[0] == "node" {
		path = path[1:]
	}
	if len(path) == 0 {
		return PolicyExecutionResult{RuleLine: line, Outcome: OutcomeError, Message: "SET requires a field path under node"}
	}
	if reservedNodeFields[path[0]] {
		return PolicyExecutionResult{
			RuleLine: line,
			Outcome:  OutcomeError,
			Field:    action.Field.String(),
			Message:  "SET cannot target static node attribute \"" + path[0] + "\"",
		}
	}

	setNested(customData, path, value)
	setNested(merged, path, value)

	return PolicyExecutionResult{RuleLine: line, Outcome: OutcomeSuccess, Field: action.Field.String()}
}

// setNested writes value at path inside m, creating intermediate objects
// as needed so later reads in the same transaction observe it.
func setNested(m map[string]any, path []string, value any) {
	if len(path) == 1 {
		m[path[0]] = value
		return
	}
	next, ok := m[path[0]].(map[string]any)
	if !ok {
		next = make(map[string]any)
		m[path[0]] = next
	}
	setNested(next, path[1:], value)
}

// buildNodeFields produces the context map policy rules read "node.*"
// fields from: the node's static attributes, overlaid with its decoded
// custom_data (custom_data wins key collisions, since that's where
// poller-derived and policy-staged state lives).
func buildNodeFields(node *model.Node, customData map[string]any) map[string]any {
	merged := map[string]any{
		"id":            node.ID.String(),
		"name":          node.Name,
		"domain":        node.Domain,
		"vendor":        string(node.Vendor),
		"model":         node.Model,
		"role":          node.Role,
		"lifecycle":     string(node.Lifecycle),
		"management_ip": node.ManagementIP,
		"location_id":   node.LocationID,
	}
	for k, v := range customData {
		merged[k] = v
	}
	return merged
}

func marshalAny(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}
