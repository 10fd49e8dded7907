// Package datastore defines the DataStore port: the single interface-typed
// seam in this module. Everywhere else, polymorphism is a Go tagged union
// dispatched with a type switch; persistence is the one concern that
// genuinely varies by deployment (in-memory for tests, SQLite for a real
// install), so it alone gets dynamic dispatch.
package datastore

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/netfleet/netfleet/internal/model"
)

// PolicyResult is one rule's outcome against one node, as stored for
// later audit/reporting. It mirrors policy/exec.PolicyExecutionResult's
// shape without importing that package, keeping the port dependency-free
// of the executor that's its main caller.
type PolicyResult struct {
	RuleLine int             `json:"rule_line"`
	Outcome  string          `json:"outcome"` // "success" | "compliance_failure" | "error"
	Field    string          `json:"field,omitempty"`
	Expected json.RawMessage `json:"expected,omitempty"`
	Actual   json.RawMessage `json:"actual,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// DataStore is the persistence port consumed by the poller-derived state
// pipeline and the policy transactional executor. All operations are
// asynchronous (context-bounded) and treated as at-least-once: a duplicate
// StorePolicyResult call with an equal payload is acceptable.
type DataStore interface {
	// GetNode returns the node, or (nil, nil) if it does not exist.
	GetNode(ctx context.Context, id uuid.UUID) (*model.Node, error)

	// UpdateNodeCustomData overwrites a node's custom_data blob.
	// Returns a NotFound-kind error if id does not exist.
	UpdateNodeCustomData(ctx context.Context, id uuid.UUID, customData json.RawMessage) error

	// GetNodesForPolicyEvaluation returns every node a policy run should
	// consider.
	GetNodesForPolicyEvaluation(ctx context.Context) ([]model.Node, error)

	// StorePolicyResult records one rule's outcome against one node.
	StorePolicyResult(ctx context.Context, nodeID uuid.UUID, result PolicyResult) error
}
