// Package snmp provides the SNMP session/value codec and the permit-bounded
// connection pool used by the poller to talk to real devices. The wire work
// is delegated to github.com/gosnmp/gosnmp; this package only adapts its
// types to the tagged-union SnmpValue and the session lifecycle the rest of
// the module expects.
package snmp

import (
	"net"

	"github.com/gosnmp/gosnmp"

	"github.com/netfleet/netfleet/internal/fleeterrors"
)

// ValueKind tags the variant held by an SnmpValue.
type ValueKind int

const (
	ValueInteger ValueKind = iota
	ValueOctetString
	ValueNull
	ValueObjectIdentifier
	ValueIPAddress
	ValueCounter32
	ValueGauge32
	ValueTimeTicks
	ValueCounter64
	ValueOpaque
	ValueBoolean
	ValueNoSuchObject
	ValueNoSuchInstance
	ValueEndOfMibView
)

func (k ValueKind) String() string {
	switch k {
	case ValueInteger:
		return "integer"
	case ValueOctetString:
		return "octet_string"
	case ValueNull:
		return "null"
	case ValueObjectIdentifier:
		return "object_identifier"
	case ValueIPAddress:
		return "ip_address"
	case ValueCounter32:
		return "counter32"
	case ValueGauge32:
		return "gauge32"
	case ValueTimeTicks:
		return "time_ticks"
	case ValueCounter64:
		return "counter64"
	case ValueOpaque:
		return "opaque"
	case ValueBoolean:
		return "boolean"
	case ValueNoSuchObject:
		return "no_such_object"
	case ValueNoSuchInstance:
		return "no_such_instance"
	case ValueEndOfMibView:
		return "end_of_mib_view"
	default:
		return "unknown"
	}
}

// SnmpValue is a tagged union over the SNMP value space: exactly one of the
// typed fields is meaningful, selected by Kind. Accessor methods return
// (value, ok) rather than panicking on a Kind mismatch.
type SnmpValue struct {
	Kind   ValueKind
	Int64  int64
	Uint32 uint32
	Uint64 uint64
	Bytes  []byte
	OID    string
	IP     net.IP
}

func (v SnmpValue) AsInt64() (int64, bool) {
	switch v.Kind {
	case ValueInteger, ValueBoolean:
		return v.Int64, true
	default:
		return 0, false
	}
}

func (v SnmpValue) AsUint64() (uint64, bool) {
	switch v.Kind {
	case ValueCounter32, ValueGauge32, ValueTimeTicks:
		return uint64(v.Uint32), true
	case ValueCounter64:
		return v.Uint64, true
	default:
		return 0, false
	}
}

func (v SnmpValue) AsBytes() ([]byte, bool) {
	switch v.Kind {
	case ValueOctetString, ValueOpaque:
		return v.Bytes, true
	default:
		return nil, false
	}
}

func (v SnmpValue) AsOID() (string, bool) {
	if v.Kind != ValueObjectIdentifier {
		return "", false
	}
	return v.OID, true
}

func (v SnmpValue) AsIP() (net.IP, bool) {
	if v.Kind != ValueIPAddress {
		return nil, false
	}
	return v.IP, true
}

// IsExceptional reports whether v is one of the SNMPv2 exception values
// (noSuchObject/noSuchInstance/endOfMibView) rather than real data.
func (v SnmpValue) IsExceptional() bool {
	switch v.Kind {
	case ValueNoSuchObject, ValueNoSuchInstance, ValueEndOfMibView:
		return true
	default:
		return false
	}
}

// FromPDU converts a gosnmp.SnmpPDU into an SnmpValue. It is total over the
// gosnmp.Asn1BER tag space: a tag this codec doesn't recognise decodes as
// ValueNoSuchObject rather than erroring, since exception handling is the
// caller's business, not the codec's.
func FromPDU(pdu gosnmp.SnmpPDU) (SnmpValue, error) {
	switch pdu.Type {
	case gosnmp.Integer:
		n, err := asInt64(pdu.Value)
		if err != nil {
			return SnmpValue{}, fleeterrors.Wrapf(err, fleeterrors.KindProtocol, "decoding INTEGER for %s", pdu.Name)
		}
		return SnmpValue{Kind: ValueInteger, Int64: n}, nil

	case gosnmp.Boolean:
		n, err := asInt64(pdu.Value)
		if err != nil {
			return SnmpValue{}, fleeterrors.Wrapf(err, fleeterrors.KindProtocol, "decoding BOOLEAN for %s", pdu.Name)
		}
		return SnmpValue{Kind: ValueBoolean, Int64: n}, nil

	case gosnmp.OctetString, gosnmp.BitString:
		b, err := asBytes(pdu.Value)
		if err != nil {
			return SnmpValue{}, fleeterrors.Wrapf(err, fleeterrors.KindProtocol, "decoding OCTET STRING for %s", pdu.Name)
		}
		return SnmpValue{Kind: ValueOctetString, Bytes: b}, nil

	case gosnmp.Opaque:
		b, err := asBytes(pdu.Value)
		if err != nil {
			return SnmpValue{}, fleeterrors.Wrapf(err, fleeterrors.KindProtocol, "decoding OPAQUE for %s", pdu.Name)
		}
		return SnmpValue{Kind: ValueOpaque, Bytes: b}, nil

	case gosnmp.Null:
		return SnmpValue{Kind: ValueNull}, nil

	case gosnmp.ObjectIdentifier:
		s, ok := pdu.Value.(string)
		if !ok {
			return SnmpValue{}, fleeterrors.Errorf(fleeterrors.KindProtocol, "decoding OBJECT IDENTIFIER for %s: unexpected value type %T", pdu.Name, pdu.Value)
		}
		return SnmpValue{Kind: ValueObjectIdentifier, OID: s}, nil

	case gosnmp.IPAddress:
		s, ok := pdu.Value.(string)
		if !ok {
			return SnmpValue{}, fleeterrors.Errorf(fleeterrors.KindProtocol, "decoding IpAddress for %s: unexpected value type %T", pdu.Name, pdu.Value)
		}
		ip := net.ParseIP(s)
		if ip == nil {
			return SnmpValue{}, fleeterrors.Errorf(fleeterrors.KindProtocol, "decoding IpAddress for %s: invalid address %q", pdu.Name, s)
		}
		return SnmpValue{Kind: ValueIPAddress, IP: ip}, nil

	case gosnmp.Counter32:
		n, err := asUint32(pdu.Value)
		if err != nil {
			return SnmpValue{}, fleeterrors.Wrapf(err, fleeterrors.KindProtocol, "decoding Counter32 for %s", pdu.Name)
		}
		return SnmpValue{Kind: ValueCounter32, Uint32: n}, nil

	case gosnmp.Gauge32:
		n, err := asUint32(pdu.Value)
		if err != nil {
			return SnmpValue{}, fleeterrors.Wrapf(err, fleeterrors.KindProtocol, "decoding Gauge32 for %s", pdu.Name)
		}
		return SnmpValue{Kind: ValueGauge32, Uint32: n}, nil

	case gosnmp.TimeTicks:
		n, err := asUint32(pdu.Value)
		if err != nil {
			return SnmpValue{}, fleeterrors.Wrapf(err, fleeterrors.KindProtocol, "decoding TimeTicks for %s", pdu.Name)
		}
		return SnmpValue{Kind: ValueTimeTicks, Uint32: n}, nil

	case gosnmp.Counter64:
		n, err := asUint64(pdu.Value)
		if err != nil {
			return SnmpValue{}, fleeterrors.Wrapf(err, fleeterrors.KindProtocol, "decoding Counter64 for %s", pdu.Name)
		}
		return SnmpValue{Kind: ValueCounter64, Uint64: n}, nil

	case gosnmp.NoSuchObject:
		return SnmpValue{Kind: ValueNoSuchObject}, nil
	case gosnmp.NoSuchInstance:
		return SnmpValue{Kind: ValueNoSuchInstance}, nil
	case gosnmp.EndOfMibView:
		return SnmpValue{Kind: ValueEndOfMibView}, nil

	default:
		return SnmpValue{Kind: ValueNoSuchObject}, nil
	}
}

// ToPDU is the inverse of FromPDU, used by tests and by any future write
// path. The oid argument becomes the PDU's Name.
func ToPDU(oid string, v SnmpValue) (gosnmp.SnmpPDU, error) {
	switch v.Kind {
	case ValueInteger:
		return gosnmp.SnmpPDU{Name: oid, Type: gosnmp.Integer, Value: int(v.Int64)}, nil
	case ValueBoolean:
		return gosnmp.SnmpPDU{Name: oid, Type: gosnmp.Boolean, Value: int(v.Int64)}, nil
	case ValueOctetString:
		return gosnmp.SnmpPDU{Name: oid, Type: gosnmp.OctetString, Value: v.Bytes}, nil
	case ValueOpaque:
		return gosnmp.SnmpPDU{Name: oid, Type: gosnmp.Opaque, Value: v.Bytes}, nil
	case ValueNull:
		return gosnmp.SnmpPDU{Name: oid, Type: gosnmp.Null, Value: nil}, nil
	case ValueObjectIdentifier:
		return gosnmp.SnmpPDU{Name: oid, Type: gosnmp.ObjectIdentifier, Value: v.OID}, nil
	case ValueIPAddress:
		return gosnmp.SnmpPDU{Name: oid, Type: gosnmp.IPAddress, Value: v.IP.String()}, nil
	case ValueCounter32:
		return gosnmp.SnmpPDU{Name: oid, Type: gosnmp.Counter32, Value: v.Uint32}, nil
	case ValueGauge32:
		return gosnmp.SnmpPDU{Name: oid, Type: gosnmp.Gauge32, Value: v.Uint32}, nil
	case ValueTimeTicks:
		return gosnmp.SnmpPDU{Name: oid, Type: gosnmp.TimeTicks, Value: v.Uint32}, nil
	case ValueCounter64:
		return gosnmp.SnmpPDU{Name: oid, Type: gosnmp.Counter64, Value: v.Uint64}, nil
	case ValueNoSuchObject:
		return gosnmp.SnmpPDU{Name: oid, Type: gosnmp.NoSuchObject}, nil
	case ValueNoSuchInstance:
		return gosnmp.SnmpPDU{Name: oid, Type: gosnmp.NoSuchInstance}, nil
	case ValueEndOfMibView:
		return gosnmp.SnmpPDU{Name: oid, Type: gosnmp.EndOfMibView}, nil
	default:
		return gosnmp.SnmpPDU{}, fleeterrors.Errorf(fleeterrors.KindProtocol, "encoding PDU for %s: unknown value kind %v", oid, v.Kind)
	}
}

func asInt64(raw any) (int64, error) {
	switch n := raw.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, fleeterrors.Errorf(fleeterrors.KindProtocol, "unexpected integer representation %T", raw)
	}
}

func asUint32(raw any) (uint32, error) {
	switch n := raw.(type) {
	case uint:
		return uint32(n), nil
	case uint32:
		return n, nil
	case int:
		return uint32(n), nil
	default:
		return 0, fleeterrors.Errorf(fleeterrors.KindProtocol, "unexpected uint32 representation %T", raw)
	}
}

func asUint64(raw any) (uint64, error) {
	switch n := raw.(type) {
	case uint64:
		return n, nil
	case uint:
		return uint64(n), nil
	case int64:
		return uint64(n), nil
	default:
		return 0, fleeterrors.Errorf(fleeterrors.KindProtocol, "unexpected uint64 representation %T", raw)
	}
}

func asBytes(raw any) ([]byte, error) {
	switch b := raw.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return nil, fleeterrors.Errorf(fleeterrors.KindProtocol, "unexpected byte-string representation %T", raw)
	}
}
