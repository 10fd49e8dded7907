// Package memstore is the in-memory DataStore reference implementation,
// used by unit tests and the demo binary. It follows the guarded-map
// pattern the teacher uses for its own in-process stores: a single
// sync.RWMutex, readers take the shared lock, writers the exclusive one.
package memstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/netfleet/netfleet/internal/datastore"
	"github.com/netfleet/netfleet/internal/fleeterrors"
	"github.com/netfleet/netfleet/internal/model"
)

// Store is a guarded in-memory implementation of datastore.DataStore.
type Store struct {
	mu      sync.RWMutex
	nodes   map[uuid.UUID]model.Node
	results map[uuid.UUID][]datastore.PolicyResult
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		nodes:   make(map[uuid.UUID]model.Node),
		results: make(map[uuid.UUID][]datastore.PolicyResult),
	}
}

// PutNode inserts or replaces a node. It exists only on the concrete type
// (not the DataStore interface) since seeding test fixtures isn't part of
// the port's contract.
func (s *Store) PutNode(n model.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[n.ID] = n
}

func (s *Store) GetNode(ctx context.Context, id uuid.UUID) (*model.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (s *Store) UpdateNodeCustomData(ctx context.Context, id uuid.UUID, customData json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return fleeterrors.Errorf(fleeterrors.KindDataStoreNotFound, "node %s not found", id)
	}
	n.CustomData = customData
	s.nodes[id] = n
	return nil
}

func (s *Store) GetNodesForPolicyEvaluation(ctx context.Context) ([]model.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	return out, nil
}

func (s *Store) StorePolicyResult(ctx context.Context, nodeID uuid.UUID, result datastore.PolicyResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[nodeID]; !ok {
		return fleeterrors.Errorf(fleeterrors.KindDataStoreNotFound, "node %s not found", nodeID)
	}
	s.results[nodeID] = append(s.results[nodeID], result)
	return nil
}

// ResultsFor returns the policy results recorded for a node, for test
// assertions.
func (s *Store) ResultsFor(nodeID uuid.UUID) []datastore.PolicyResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]datastore.PolicyResult, len(s.results[nodeID]))
	copy(out, s.results[nodeID])
	return out
}

var _ datastore.DataStore = (*Store)(nil)
