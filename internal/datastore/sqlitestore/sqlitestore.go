//go:build sqlite

// Package sqlitestore is the SQLite-backed DataStore implementation, built
// on modernc.org/sqlite's pure-Go driver so the binary stays cgo-free. It
// is gated behind the "sqlite" build tag and the NETFLEET_SQLITE_TEST
// environment variable in tests, the way the teacher gates anything that
// needs a real environment rather than a fake.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/netfleet/netfleet/internal/datastore"
	"github.com/netfleet/netfleet/internal/fleeterrors"
	"github.com/netfleet/netfleet/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	domain        TEXT NOT NULL DEFAULT '',
	vendor        TEXT NOT NULL,
	model         TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL DEFAULT '',
	lifecycle     TEXT NOT NULL,
	management_ip TEXT NOT NULL DEFAULT '',
	location_id   TEXT NOT NULL DEFAULT '',
	custom_data   TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS policy_results (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	node_id   TEXT NOT NULL,
	rule_line INTEGER NOT NULL,
	outcome   TEXT NOT NULL,
	field     TEXT NOT NULL DEFAULT '',
	expected  TEXT NOT NULL DEFAULT '',
	actual    TEXT NOT NULL DEFAULT '',
	message   TEXT NOT NULL DEFAULT ''
);
`

// Store is a database/sql-backed implementation of datastore.DataStore.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database file at path and ensures its
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fleeterrors.Wrap(err, fleeterrors.KindDataStoreConnection, "opening sqlite database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fleeterrors.Wrap(err, fleeterrors.KindDataStoreInternal, "creating schema")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetNode(ctx context.Context, id uuid.UUID) (*model.Node, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, domain, vendor, model, role, lifecycle, management_ip, location_id, custom_data
		FROM nodes WHERE id = ?`, id.String())

	var n model.Node
	var idStr, customData string
	err := row.Scan(&idStr, &n.Name, &n.Domain, &n.Vendor, &n.Model, &n.Role, &n.Lifecycle, &n.ManagementIP, &n.LocationID, &customData)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fleeterrors.Wrap(err, fleeterrors.KindDataStoreInternal, "scanning node row")
	}
	n.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fleeterrors.Wrap(err, fleeterrors.KindDataStoreInternal, "parsing stored node id")
	}
	n.CustomData = json.RawMessage(customData)
	return &n, nil
}

// PutNode inserts or replaces a node. Like memstore.PutNode, this exists
// only on the concrete type for fixture seeding, not on the DataStore port.
func (s *Store) PutNode(ctx context.Context, n model.Node) error {
	customData := n.CustomData
	if customData == nil {
		customData = json.RawMessage(`{}`)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nodes (id, name, domain, vendor, model, role, lifecycle, management_ip, location_id, custom_data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, domain=excluded.domain, vendor=excluded.vendor, model=excluded.model,
			role=excluded.role, lifecycle=excluded.lifecycle, management_ip=excluded.management_ip,
			location_id=excluded.location_id, custom_data=excluded.custom_data`,
		n.ID.String(), n.Name, n.Domain, n.Vendor, n.Model, n.Role, n.Lifecycle, n.ManagementIP, n.LocationID, string(customData))
	if err != nil {
		return fleeterrors.Wrap(err, fleeterrors.KindDataStoreInternal, "upserting node")
	}
	return nil
}

func (s *Store) UpdateNodeCustomData(ctx context.Context, id uuid.UUID, customData json.RawMessage) error {
	res, err := s.db.ExecContext(ctx, `UPDATE nodes SET custom_data = ? WHERE id = ?`, string(customData), id.String())
	if err != nil {
		return fleeterrors.Wrap(err, fleeterrors.KindDataStoreInternal, "updating node custom_data")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fleeterrors.Wrap(err, fleeterrors.KindDataStoreInternal, "checking rows affected")
	}
	if n == 0 {
		return fleeterrors.Errorf(fleeterrors.KindDataStoreNotFound, "node %s not found", id)
	}
	return nil
}

func (s *Store) GetNodesForPolicyEvaluation(ctx context.Context) ([]model.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, domain, vendor, model, role, lifecycle, management_ip, location_id, custom_data
		FROM nodes`)
	if err != nil {
		return nil, fleeterrors.Wrap(err, fleeterrors.KindDataStoreInternal, "querying nodes")
	}
	defer rows.Close()

	var out []model.Node
	for rows.Next() {
		var n model.Node
		var idStr, customData string
		if err := rows.Scan(&idStr, &n.Name, &n.Domain, &n.Vendor, &n.Model, &n.Role, &n.Lifecycle, &n.ManagementIP, &n.LocationID, &customData); err != nil {
			return nil, fleeterrors.Wrap(err, fleeterrors.KindDataStoreInternal, "scanning node row")
		}
		n.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, fleeterrors.Wrap(err, fleeterrors.KindDataStoreInternal, "parsing stored node id")
		}
		n.CustomData = json.RawMessage(customData)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) StorePolicyResult(ctx context.Context, nodeID uuid.UUID, result datastore.PolicyResult) error {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM nodes WHERE id = ?`, nodeID.String()).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return fleeterrors.Errorf(fleeterrors.KindDataStoreNotFound, "node %s not found", nodeID)
		}
		return fleeterrors.Wrap(err, fleeterrors.KindDataStoreInternal, "checking node existence")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO policy_results (node_id, rule_line, outcome, field, expected, actual, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nodeID.String(), result.RuleLine, result.Outcome, result.Field, string(result.Expected), string(result.Actual), result.Message)
	if err != nil {
		return fleeterrors.Wrap(err, fleeterrors.KindDataStoreInternal, "inserting policy result")
	}
	return nil
}

var _ datastore.DataStore = (*Store)(nil)
