package memstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/netfleet/netfleet/internal/datastore"
	"github.com/netfleet/netfleet/internal/fleeterrors"
	"github.com/netfleet/netfleet/internal/model"
)

func TestGetNodeMissingReturnsNilNilNotError(t *testing.T) {
	s := New()
	n, err := s.GetNode(context.Background(), model.New("x", "", model.VendorCisco).ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != nil {
		t.Errorf("expected nil node, got %+v", n)
	}
}

func TestPutAndGetNodeRoundTrip(t *testing.T) {
	s := New()
	n := model.New("core-sw-1", "example.com", model.VendorCisco)
	s.PutNode(*n)

	got, err := s.GetNode(context.Background(), n.ID)
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if got == nil || got.Name != "core-sw-1" {
		t.Fatalf("unexpected node: %+v", got)
	}
}

func TestUpdateNodeCustomDataNotFound(t *testing.T) {
	s := New()
	err := s.UpdateNodeCustomData(context.Background(), model.New("x", "", model.VendorCisco).ID, json.RawMessage(`{}`))
	if fleeterrors.GetKind(err) != fleeterrors.KindDataStoreNotFound {
		t.Fatalf("expected KindDataStoreNotFound, got %v", err)
	}
}

func TestUpdateNodeCustomDataPersists(t *testing.T) {
	s := New()
	n := model.New("core-sw-1", "example.com", model.VendorCisco)
	s.PutNode(*n)

	patch := json.RawMessage(`{"status":"degraded"}`)
	if err := s.UpdateNodeCustomData(context.Background(), n.ID, patch); err != nil {
		t.Fatalf("UpdateNodeCustomData: %v", err)
	}

	got, _ := s.GetNode(context.Background(), n.ID)
	if string(got.CustomData) != string(patch) {
		t.Errorf("CustomData = %s, want %s", got.CustomData, patch)
	}
}

func TestGetNodesForPolicyEvaluationReturnsAll(t *testing.T) {
	s := New()
	s.PutNode(*model.New("a", "", model.VendorCisco))
	s.PutNode(*model.New("b", "", model.VendorJunos))

	nodes, err := s.GetNodesForPolicyEvaluation(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
}

func TestStorePolicyResultRequiresExistingNode(t *testing.T) {
	s := New()
	missing := model.New("x", "", model.VendorCisco).ID
	err := s.StorePolicyResult(context.Background(), missing, datastore.PolicyResult{Outcome: "success"})
	if fleeterrors.GetKind(err) != fleeterrors.KindDataStoreNotFound {
		t.Fatalf("expected KindDataStoreNotFound, got %v", err)
	}
}

func TestStorePolicyResultAndResultsForAppend(t *testing.T) {
	s := New()
	n := model.New("a", "", model.VendorCisco)
	s.PutNode(*n)

	r1 := datastore.PolicyResult{RuleLine: 1, Outcome: "success"}
	r2 := datastore.PolicyResult{RuleLine: 2, Outcome: "compliance_failure"}
	if err := s.StorePolicyResult(context.Background(), n.ID, r1); err != nil {
		t.Fatalf("StorePolicyResult: %v", err)
	}
	if err := s.StorePolicyResult(context.Background(), n.ID, r2); err != nil {
		t.Fatalf("StorePolicyResult: %v", err)
	}

	got := s.ResultsFor(n.ID)
	if len(got) != 2 || got[0].RuleLine != 1 || got[1].RuleLine != 2 {
		t.Fatalf("unexpected results: %+v", got)
	}
}

// DuplicateStorePolicyResultAccepted exercises the at-least-once contract:
// storing an equal payload twice is acceptable, not an error.
func TestDuplicateStorePolicyResultAccepted(t *testing.T) {
	s := New()
	n := model.New("a", "", model.VendorCisco)
	s.PutNode(*n)

	r := datastore.PolicyResult{RuleLine: 1, Outcome: "success"}
	if err := s.StorePolicyResult(context.Background(), n.ID, r); err != nil {
		t.Fatalf("first store: %v", err)
	}
	if err := s.StorePolicyResult(context.Background(), n.ID, r); err != nil {
		t.Fatalf("duplicate store: %v", err)
	}
	if len(s.ResultsFor(n.ID)) != 2 {
		t.Fatalf("expected both stores recorded, got %d", len(s.ResultsFor(n.ID)))
	}
}
