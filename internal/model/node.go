// Package model holds the core domain entity persisted through the
// DataStore port: Node. Everything else in this repo (poller, policy
// evaluator/executor) reads and writes Nodes only through that port.
package model

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/netfleet/netfleet/internal/confslicer"
)

// Lifecycle is the operational stage of a Node.
type Lifecycle string

const (
	LifecyclePlanned    Lifecycle = "planned"
	LifecycleImplementing Lifecycle = "implementing"
	LifecycleLive        Lifecycle = "live"
	LifecycleDecommissioned Lifecycle = "decommissioned"
)

// Vendor identifies the device vendor. It is an alias of confslicer.Vendor
// so a Node's parsed configs and its polling behavior always agree on
// dialect — there is exactly one vendor enum in this module, not two
// independently-evolving copies.
type Vendor = confslicer.Vendor

const (
	VendorCisco  = confslicer.VendorCisco
	VendorJunos  = confslicer.VendorJunos
	VendorArista = confslicer.VendorArista

	// VendorUnknown has no confslicer counterpart: a node can exist (and be
	// polled) before its running config has ever been fetched and parsed.
	VendorUnknown Vendor = "unknown"
)

// Node is a managed network device.
type Node struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Domain       string          `json:"domain"`
	Vendor       Vendor          `json:"vendor"`
	Model        string          `json:"model"`
	Role         string          `json:"role"`
	Lifecycle    Lifecycle       `json:"lifecycle"`
	ManagementIP string          `json:"management_ip"`
	LocationID   string          `json:"location_id,omitempty"`
	CustomData   json.RawMessage `json:"custom_data,omitempty"`
}

// FQDN implements the invariant: name + "." + domain, or name alone when
// domain is empty.
func (n Node) FQDN() string {
	if n.Domain == "" {
		return n.Name
	}
	return n.Name + "." + n.Domain
}

// New constructs a Node with a freshly generated ID and an empty JSON
// object for CustomData, so callers never have to special-case nil.
func New(name, domain string, vendor Vendor) *Node {
	return &Node{
		ID:         uuid.New(),
		Name:       name,
		Domain:     domain,
		Vendor:     vendor,
		Lifecycle:  LifecyclePlanned,
		CustomData: json.RawMessage(`{}`),
	}
}
