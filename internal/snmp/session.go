package snmp

import (
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/netfleet/netfleet/internal/fleeterrors"
)

// CredentialKind selects which half of Credentials is populated.
type CredentialKind int

const (
	CredentialCommunity CredentialKind = iota
	CredentialUserBased
)

// UserBasedCredentials carries SNMPv3 USM parameters.
type UserBasedCredentials struct {
	Username       string
	AuthProtocol   string // "none", "md5", "sha", "sha224", "sha256", "sha384", "sha512"
	AuthPassphrase string
	PrivProtocol   string // "none", "des", "aes", "aes192", "aes256"
	PrivPassphrase string
}

// Credentials is a tagged union over the two SNMP authentication schemes
// this codec supports.
type Credentials struct {
	Kind      CredentialKind
	Community string
	UserBased UserBasedCredentials
}

// SessionConfig describes one target session before it is dialed.
type SessionConfig struct {
	Target      string
	Port        uint16
	Version     string // "1", "2c", "3"
	Credentials Credentials
	Timeout     time.Duration
	Retries     int
}

// Session wraps one live gosnmp connection. gosnmp.GoSNMP is not safe for
// concurrent requests on the same connection, so SessionManager holds a
// per-target mutex for the lifetime of each request on it.
type Session struct {
	Target string
	conn   *gosnmp.GoSNMP
	opened time.Time
}

func mapAuthProtocol(name string) gosnmp.SnmpV3AuthProtocol {
	switch name {
	case "md5":
		return gosnmp.MD5
	case "sha":
		return gosnmp.SHA
	case "sha224":
		return gosnmp.SHA224
	case "sha256":
		return gosnmp.SHA256
	case "sha384":
		return gosnmp.SHA384
	case "sha512":
		return gosnmp.SHA512
	default:
		return gosnmp.NoAuth
	}
}

func mapPrivProtocol(name string) gosnmp.SnmpV3PrivProtocol {
	switch name {
	case "des":
		return gosnmp.DES
	case "aes":
		return gosnmp.AES
	case "aes192":
		return gosnmp.AES192
	case "aes256":
		return gosnmp.AES256
	default:
		return gosnmp.NoPriv
	}
}

// NewSession builds and dials a session from cfg. An unset Port becomes 161,
// and non-positive Timeout/Retries fall back to 2s and 1 retry.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Target == "" {
		return nil, fleeterrors.New(fleeterrors.KindProtocol, "session target is required")
	}

	port := cfg.Port
	if port == 0 {
		port = 161
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = 1
	}

	conn := &gosnmp.GoSNMP{
		Target:    cfg.Target,
		Port:      port,
		Timeout:   timeout,
		Retries:   retries,
		MaxOids:   gosnmp.MaxOids,
		ExponentialTimeout: true,
	}

	switch cfg.Version {
	case "1":
		conn.Version = gosnmp.Version1
		conn.Community = cfg.Credentials.Community
	case "2c", "":
		conn.Version = gosnmp.Version2c
		conn.Community = cfg.Credentials.Community
	case "3":
		conn.Version = gosnmp.Version3
		conn.SecurityModel = gosnmp.UserSecurityModel

		authProto := mapAuthProtocol(cfg.Credentials.UserBased.AuthProtocol)
		privProto := mapPrivProtocol(cfg.Credentials.UserBased.PrivProtocol)

		flags := gosnmp.NoAuthNoPriv
		if authProto != gosnmp.NoAuth {
			flags = gosnmp.AuthNoPriv
		}
		if privProto != gosnmp.NoPriv {
			flags = gosnmp.AuthPriv
		}
		conn.MsgFlags = flags

		conn.SecurityParameters = &gosnmp.UsmSecurityParameters{
			UserName:                 cfg.Credentials.UserBased.Username,
			AuthenticationProtocol:   authProto,
			AuthenticationPassphrase: cfg.Credentials.UserBased.AuthPassphrase,
			PrivacyProtocol:          privProto,
			PrivacyPassphrase:        cfg.Credentials.UserBased.PrivPassphrase,
		}
	default:
		return nil, fleeterrors.Errorf(fleeterrors.KindProtocol, "unsupported SNMP version %q", cfg.Version)
	}

	if err := conn.Connect(); err != nil {
		return nil, fleeterrors.Wrapf(err, fleeterrors.KindProtocol, "connecting to %s:%d", cfg.Target, port)
	}

	return &Session{Target: cfg.Target, conn: conn, opened: timeNow()}, nil
}

// Close releases the underlying connection.
func (s *Session) Close() error {
	if s.conn == nil || s.conn.Conn == nil {
		return nil
	}
	return s.conn.Conn.Close()
}

// Age reports how long ago the session was opened.
func (s *Session) Age() time.Duration {
	return time.Since(s.opened)
}

// timeNow is indirected so tests can fake session age deterministically if
// ever needed; production always uses time.Now.
var timeNow = time.Now
