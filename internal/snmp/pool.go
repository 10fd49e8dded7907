package snmp

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gosnmp/gosnmp"
	"golang.org/x/sync/semaphore"

	"github.com/netfleet/netfleet/internal/fleeterrors"
)

// pooledSession pairs a Session with the mutex that serializes requests on
// it — gosnmp.GoSNMP is not safe for concurrent use on one connection.
type pooledSession struct {
	mu      sync.Mutex
	session *Session
}

// SessionManager is the permit-bounded SNMP connection pool. At most
// maxConnections requests are in flight at any time, regardless of how many
// distinct targets are involved; each target gets its own long-lived
// session, reused across polls.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*pooledSession
	sem      *semaphore.Weighted

	maxConnections  int64
	cleanupInterval time.Duration
	maxSessionAge   time.Duration

	dial func(SessionConfig) (*Session, error)

	permitsInUse atomic.Int64

	totalRequests   atomic.Uint64
	failedRequests  atomic.Uint64
	totalDurationNs atomic.Int64
}

// NewSessionManager constructs a pool with maxConnections in-flight request
// permits. maxSessionAge is the age at which CleanupSessions evicts a
// session; cleanupInterval is stored but not read by the pool.
func NewSessionManager(maxConnections int, cleanupInterval, maxSessionAge time.Duration) *SessionManager {
	if maxConnections <= 0 {
		maxConnections = 1
	}
	return &SessionManager{
		sessions:        make(map[string]*pooledSession),
		sem:             semaphore.NewWeighted(int64(maxConnections)),
		maxConnections:  int64(maxConnections),
		cleanupInterval: cleanupInterval,
		maxSessionAge:   maxSessionAge,
		dial:            NewSession,
	}
}

// OIDValue pairs a resolved object identifier with its decoded value, the
// shape a walk naturally produces.
type OIDValue struct {
	OID   string
	Value SnmpValue
}

// acquire obtains one concurrency permit for a request against target. A
// permit is tried non-blocking first; if the pool is full and target has no
// live session yet, creating one would mean dialing under pressure with no
// guarantee of ever getting a slot, so it fails fast with PoolExhausted
// instead of queuing. A target that already has a live session is allowed to
// queue for a permit — it's reusing a connection, not opening a new one.
func (m *SessionManager) acquire(ctx context.Context, target string) error {
	if m.sem.TryAcquire(1) {
		m.permitsInUse.Add(1)
		return nil
	}
	if !m.hasSession(target) {
		return fleeterrors.Errorf(fleeterrors.KindPoolExhausted, "pool exhausted: max_connections=%d", m.maxConnections)
	}
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return fleeterrors.Wrap(err, fleeterrors.KindPoolExhausted, "no session permit available")
	}
	m.permitsInUse.Add(1)
	return nil
}

func (m *SessionManager) hasSession(target string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[target]
	return ok
}

func (m *SessionManager) release() {
	m.permitsInUse.Add(-1)
	m.sem.Release(1)
}

func (m *SessionManager) sessionFor(cfg SessionConfig) (*pooledSession, error) {
	m.mu.RLock()
	ps, ok := m.sessions[cfg.Target]
	m.mu.RUnlock()
	if ok {
		return ps, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ps, ok = m.sessions[cfg.Target]; ok {
		return ps, nil
	}

	session, err := m.dial(cfg)
	if err != nil {
		return nil, err
	}
	ps = &pooledSession{session: session}
	m.sessions[cfg.Target] = ps
	return ps, nil
}

func (m *SessionManager) record(start time.Time, err error) {
	m.totalRequests.Add(1)
	m.totalDurationNs.Add(int64(time.Since(start)))
	if err != nil {
		m.failedRequests.Add(1)
	}
}

// Get performs an SNMP GET for the given OIDs against cfg.Target, acquiring
// a pool permit and the per-target session lock for the duration of the
// request.
func (m *SessionManager) Get(ctx context.Context, cfg SessionConfig, oids []string) ([]OIDValue, error) {
	if err := m.acquire(ctx, cfg.Target); err != nil {
		return nil, err
	}
	defer m.release()

	ps, err := m.sessionFor(cfg)
	if err != nil {
		m.record(time.Now(), err)
		return nil, err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	start := time.Now()
	packet, err := ps.session.conn.Get(oids)
	if err != nil {
		m.record(start, err)
		return nil, fleeterrors.Wrapf(err, fleeterrors.KindProtocol, "GET against %s", cfg.Target)
	}

	results, err := decodeVariables(packet.Variables)
	m.record(start, err)
	return results, err
}

// GetNext performs an SNMP GETNEXT for the given OIDs.
func (m *SessionManager) GetNext(ctx context.Context, cfg SessionConfig, oids []string) ([]OIDValue, error) {
	if err := m.acquire(ctx, cfg.Target); err != nil {
		return nil, err
	}
	defer m.release()

	ps, err := m.sessionFor(cfg)
	if err != nil {
		m.record(time.Now(), err)
		return nil, err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	start := time.Now()
	packet, err := ps.session.conn.GetNext(oids)
	if err != nil {
		m.record(start, err)
		return nil, fleeterrors.Wrapf(err, fleeterrors.KindProtocol, "GETNEXT against %s", cfg.Target)
	}

	results, err := decodeVariables(packet.Variables)
	m.record(start, err)
	return results, err
}

// WalkBulk walks the subtree rooted at oid using GETBULK, returning every
// leaf encountered in OID order.
func (m *SessionManager) WalkBulk(ctx context.Context, cfg SessionConfig, rootOID string) ([]OIDValue, error) {
	if err := m.acquire(ctx, cfg.Target); err != nil {
		return nil, err
	}
	defer m.release()

	ps, err := m.sessionFor(cfg)
	if err != nil {
		m.record(time.Now(), err)
		return nil, err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	start := time.Now()
	var results []OIDValue
	walkErr := ps.session.conn.BulkWalk(rootOID, func(pdu gosnmp.SnmpPDU) error {
		v, err := FromPDU(pdu)
		if err != nil {
			return err
		}
		results = append(results, OIDValue{OID: pdu.Name, Value: v})
		return nil
	})
	if walkErr != nil {
		m.record(start, walkErr)
		return nil, fleeterrors.Wrapf(walkErr, fleeterrors.KindProtocol, "WALK against %s from %s", cfg.Target, rootOID)
	}
	m.record(start, nil)
	return results, nil
}

func decodeVariables(vars []gosnmp.SnmpPDU) ([]OIDValue, error) {
	out := make([]OIDValue, 0, len(vars))
	for _, pdu := range vars {
		v, err := FromPDU(pdu)
		if err != nil {
			return nil, err
		}
		out = append(out, OIDValue{OID: pdu.Name, Value: v})
	}
	return out, nil
}

// CleanupSessions closes and evicts every session older than maxSessionAge.
// The pool never calls it on its own. It skips sessions currently held by
// an in-flight request, since closing the connection out from under ps.mu
// would corrupt that request.
func (m *SessionManager) CleanupSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for target, ps := range m.sessions {
		if !ps.mu.TryLock() {
			continue
		}
		if ps.session.Age() >= m.maxSessionAge {
			ps.session.Close()
			delete(m.sessions, target)
			evicted++
		}
		ps.mu.Unlock()
	}
	return evicted
}

// Close closes every session in the pool, regardless of age.
func (m *SessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for target, ps := range m.sessions {
		ps.session.Close()
		delete(m.sessions, target)
	}
}

// Stats is a snapshot of the pool's operating counters.
type Stats struct {
	ActiveSessions   int
	AvailablePermits int64
	TotalRequests    uint64
	FailedRequests   uint64
	AvgResponseTime  time.Duration
}

// Stats returns a point-in-time snapshot of pool counters.
func (m *SessionManager) Stats() Stats {
	m.mu.RLock()
	active := len(m.sessions)
	m.mu.RUnlock()

	total := m.totalRequests.Load()
	var avg time.Duration
	if total > 0 {
		avg = time.Duration(m.totalDurationNs.Load() / int64(total))
	}

	return Stats{
		ActiveSessions:   active,
		AvailablePermits: m.maxConnections - m.permitsInUse.Load(),
		TotalRequests:    total,
		FailedRequests:   m.failedRequests.Load(),
		AvgResponseTime:  avg,
	}
}
