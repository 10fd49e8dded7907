// Package inventory loads the device-target fleet definition from an HCL
// file, the way the teacher's own internal/config package decodes its
// nftables/interface blocks with hclsimple — one labeled `target` block
// per device, decoded straight into poller.PollingTask seeds.
package inventory

import (
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/netfleet/netfleet/internal/fleeterrors"
	"github.com/netfleet/netfleet/internal/poller"
	"github.com/netfleet/netfleet/internal/snmp"
	"github.com/netfleet/netfleet/internal/validation"
)

// fileConfig is the root of an inventory HCL file: any number of labeled
// `target` blocks.
type fileConfig struct {
	Targets []targetBlock `hcl:"target,block"`
}

// targetBlock is one `target "name" { ... }` device definition.
type targetBlock struct {
	Name string `hcl:",label"`

	Address   string   `hcl:"address"`
	Port      uint16   `hcl:"port,optional"`
	Version   string   `hcl:"version,optional"`
	Community string   `hcl:"community,optional"`
	OIDs      []string `hcl:"oids"`

	IntervalSeconds int `hcl:"interval_seconds,optional"`
	TimeoutSeconds  int `hcl:"timeout_seconds,optional"`
	Retries         int `hcl:"retries,optional"`

	Username       string `hcl:"username,optional"`
	AuthProtocol   string `hcl:"auth_protocol,optional"`
	AuthPassphrase string `hcl:"auth_passphrase,optional"`
	PrivProtocol   string `hcl:"priv_protocol,optional"`
	PrivPassphrase string `hcl:"priv_passphrase,optional"`

	Enabled *bool `hcl:"enabled,optional"`
}

// LoadFile decodes path into polling tasks, one per `target` block.
// Unknown HCL attributes or missing required fields fail the whole load —
// inventory is operator-authored config, not best-effort data.
func LoadFile(path string) ([]poller.PollingTask, error) {
	var cfg fileConfig
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fleeterrors.Wrapf(err, fleeterrors.KindMalformedConfig, "decoding inventory file %s", path)
	}

	tasks := make([]poller.PollingTask, 0, len(cfg.Targets))
	for _, tb := range cfg.Targets {
		task, err := toTask(tb)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func toTask(tb targetBlock) (poller.PollingTask, error) {
	if tb.Address == "" {
		return poller.PollingTask{}, fleeterrors.Errorf(fleeterrors.KindMalformedConfig, "target %q: address is required", tb.Name)
	}
	if err := validation.ValidateTargetAddress(tb.Address); err != nil {
		return poller.PollingTask{}, fleeterrors.Wrapf(err, fleeterrors.KindMalformedConfig, "target %q: invalid address", tb.Name)
	}
	if len(tb.OIDs) == 0 {
		return poller.PollingTask{}, fleeterrors.Errorf(fleeterrors.KindMalformedConfig, "target %q: at least one OID is required", tb.Name)
	}
	for _, oid := range tb.OIDs {
		if err := validation.ValidateOID(oid); err != nil {
			return poller.PollingTask{}, fleeterrors.Wrapf(err, fleeterrors.KindMalformedConfig, "target %q: invalid OID", tb.Name)
		}
	}

	interval := time.Duration(tb.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 60 * time.Second
	}

	creds := snmp.Credentials{Kind: snmp.CredentialCommunity, Community: tb.Community}
	if tb.Version == "3" {
		creds = snmp.Credentials{
			Kind: snmp.CredentialUserBased,
			UserBased: snmp.UserBasedCredentials{
				Username:       tb.Username,
				AuthProtocol:   tb.AuthProtocol,
				AuthPassphrase: tb.AuthPassphrase,
				PrivProtocol:   tb.PrivProtocol,
				PrivPassphrase: tb.PrivPassphrase,
			},
		}
	}

	target := snmp.SessionConfig{
		Target:      tb.Address,
		Port:        tb.Port,
		Version:     tb.Version,
		Credentials: creds,
		Timeout:     time.Duration(tb.TimeoutSeconds) * time.Second,
		Retries:     tb.Retries,
	}

	enabled := true
	if tb.Enabled != nil {
		enabled = *tb.Enabled
	}

	return poller.PollingTask{
		ID:       tb.Name,
		Target:   target,
		OIDs:     tb.OIDs,
		Interval: interval,
		Enabled:  enabled,
	}, nil
}
