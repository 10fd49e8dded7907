//go:build sqlite

package sqlitestore

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/netfleet/netfleet/internal/datastore"
	"github.com/netfleet/netfleet/internal/fleeterrors"
	"github.com/netfleet/netfleet/internal/model"
	"github.com/netfleet/netfleet/internal/testutil"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	testutil.RequireSQLite(t)
	path := filepath.Join(t.TempDir(), "netfleet.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutAndGetNodeRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	n := model.New("core-sw-1", "example.com", model.VendorCisco)
	if err := s.PutNode(ctx, *n); err != nil {
		t.Fatalf("PutNode: %v", err)
	}

	got, err := s.GetNode(ctx, n.ID)
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if got == nil || got.Name != "core-sw-1" || got.Domain != "example.com" {
		t.Fatalf("unexpected node: %+v", got)
	}
}

func TestGetNodeMissingReturnsNilNil(t *testing.T) {
	s := openTemp(t)
	got, err := s.GetNode(context.Background(), model.New("x", "", model.VendorCisco).ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil node, got %+v", got)
	}
}

func TestUpdateNodeCustomDataNotFound(t *testing.T) {
	s := openTemp(t)
	err := s.UpdateNodeCustomData(context.Background(), model.New("x", "", model.VendorCisco).ID, json.RawMessage(`{}`))
	if fleeterrors.GetKind(err) != fleeterrors.KindDataStoreNotFound {
		t.Fatalf("expected KindDataStoreNotFound, got %v", err)
	}
}

func TestUpdateNodeCustomDataPersists(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	n := model.New("core-sw-1", "example.com", model.VendorCisco)
	if err := s.PutNode(ctx, *n); err != nil {
		t.Fatalf("PutNode: %v", err)
	}

	patch := json.RawMessage(`{"status":"degraded"}`)
	if err := s.UpdateNodeCustomData(ctx, n.ID, patch); err != nil {
		t.Fatalf("UpdateNodeCustomData: %v", err)
	}

	got, _ := s.GetNode(ctx, n.ID)
	if string(got.CustomData) != string(patch) {
		t.Errorf("CustomData = %s, want %s", got.CustomData, patch)
	}
}

func TestStorePolicyResultRequiresExistingNode(t *testing.T) {
	s := openTemp(t)
	missing := model.New("x", "", model.VendorCisco).ID
	err := s.StorePolicyResult(context.Background(), missing, datastore.PolicyResult{Outcome: "success"})
	if fleeterrors.GetKind(err) != fleeterrors.KindDataStoreNotFound {
		t.Fatalf("expected KindDataStoreNotFound, got %v", err)
	}
}

func TestGetNodesForPolicyEvaluationReturnsAll(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	s.PutNode(ctx, *model.New("a", "", model.VendorCisco))
	s.PutNode(ctx, *model.New("b", "", model.VendorJunos))

	nodes, err := s.GetNodesForPolicyEvaluation(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
}
