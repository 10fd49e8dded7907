// Command fleetpoll wires together inventory loading, the polling
// scheduler, the policy loader/executor, and the Prometheus metrics
// registry into one runnable daemon. It is a thin demo entrypoint, not a
// server: no HTTP or CLI surface, just the wiring (see SPEC_FULL.md §12).
// An operator points it at an HCL inventory file and a directory of
// .policy files; it polls devices on a schedule and evaluates policy
// against the results until interrupted.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/netfleet/netfleet/internal/config"
	"github.com/netfleet/netfleet/internal/datastore"
	"github.com/netfleet/netfleet/internal/datastore/memstore"
	"github.com/netfleet/netfleet/internal/inventory"
	"github.com/netfleet/netfleet/internal/logging"
	"github.com/netfleet/netfleet/internal/metrics"
	"github.com/netfleet/netfleet/internal/model"
	"github.com/netfleet/netfleet/internal/policy/exec"
	"github.com/netfleet/netfleet/internal/policy/loader"
	"github.com/netfleet/netfleet/internal/poller"
	"github.com/netfleet/netfleet/internal/snmp"
)

func main() {
	configPath := flag.String("config", "", "Path to the daemon's own YAML config file")
	inventoryPath := flag.String("inventory", "", "Path to the HCL device inventory file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	log, err := config.BuildLogger(cfg)
	if err != nil {
		slog.Error("building logger", "error", err)
		os.Exit(1)
	}
	logging.SetDefault(log)

	if *inventoryPath == "" {
		*inventoryPath = cfg.InventoryPath
	}
	if *inventoryPath == "" {
		log.Error("no inventory file given (-inventory or config inventory_path)")
		os.Exit(1)
	}

	tasks, err := inventory.LoadFile(*inventoryPath)
	if err != nil {
		log.Error("loading inventory", "path", *inventoryPath, "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	reg := prometheus.NewRegistry()
	m.Register(reg)

	store := memstore.New()
	nodeIDs := seedNodes(store, tasks)

	pool := snmp.NewSessionManager(cfg.Pool.MaxConnections, cfg.Pool.CleanupInterval, cfg.Pool.MaxSessionAge)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	probeReachability(ctx, pool, tasks, log)

	sched := poller.NewScheduler(pool, log, cfg.HealthCheckInterval)
	go sched.Run(ctx)

	for _, task := range tasks {
		if err := sched.AddTask(task); err != nil {
			log.Warn("adding task", "task", task.ID, "error", err)
		}
	}
	m.PollerTasksTotal.Set(float64(len(tasks)))

	polLoader := loader.New(cfg.PolicyCacheTTL)

	log.Info("fleetpoll started", "targets", len(tasks))

	evalInterval := cfg.HealthCheckInterval
	if evalInterval <= 0 {
		evalInterval = time.Minute
	}
	ticker := time.NewTicker(evalInterval)
	defer ticker.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			applyPollResults(sched, store, m, log)
			evaluatePolicies(ctx, cfg.PolicyDirectory, polLoader, store, nodeIDs, m, log)
		case <-stop:
			log.Info("shutting down")
			sched.Shutdown()
			return
		}
	}
}

// probeReachability does one concurrent pass over every target before the
// scheduler starts, so a misconfigured inventory (bad community string,
// unreachable address) is logged immediately rather than silently backing
// off inside the scheduler's first poll cycle.
func probeReachability(ctx context.Context, pool *snmp.SessionManager, tasks []poller.PollingTask, log *logging.Logger) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for _, task := range tasks {
		task := task
		g.Go(func() error {
			if _, err := pool.Get(gctx, task.Target, task.OIDs); err != nil {
				log.Warn("initial reachability probe failed", "task", task.ID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// seedNodes creates one model.Node per polling task and stamps the node's
// ID back onto the task, so a PollingResult carries its node_id without the
// caller having to maintain a separate task-ID-to-node-ID table.
func seedNodes(store *memstore.Store, tasks []poller.PollingTask) map[string]uuid.UUID {
	ids := make(map[string]uuid.UUID, len(tasks))
	for i, task := range tasks {
		node := model.New(task.ID, "", model.VendorUnknown)
		node.ManagementIP = task.Target.Target
		node.Lifecycle = model.LifecycleLive
		store.PutNode(*node)
		tasks[i].NodeID = node.ID
		ids[task.ID] = node.ID
	}
	return ids
}

// applyPollResults copies each task's latest poll into its node's
// custom_data under a "polled" namespace: node.polled.last_error, plus one
// entry per polled value keyed by its OID string. OID keys contain dots,
// so a policy rule's field path cannot name them.
func applyPollResults(sched *poller.Scheduler, store *memstore.Store, m *metrics.Metrics, log *logging.Logger) {
	for _, status := range sched.ListTasks() {
		if status.LastResult == nil {
			continue
		}
		result := status.LastResult
		nodeID := result.NodeID
		m.ObservePollOutcome(status.Task.ID, !result.Success, result.Duration.Seconds())

		node, err := store.GetNode(context.Background(), nodeID)
		if err != nil || node == nil {
			continue
		}

		var customData map[string]any
		if err := json.Unmarshal(node.CustomData, &customData); err != nil || customData == nil {
			customData = make(map[string]any)
		}

		polled := map[string]any{}
		if result.Err != nil {
			polled["last_error"] = result.Err.Error()
		} else {
			polled["last_error"] = nil
		}
		for _, v := range result.Values {
			polled[v.OID] = snmpValueToAny(v.Value)
		}
		customData["polled"] = polled

		patch, err := json.Marshal(customData)
		if err != nil {
			continue
		}
		if err := store.UpdateNodeCustomData(context.Background(), nodeID, patch); err != nil {
			log.Warn("updating node custom_data from poll result", "node", status.Task.ID, "error", err)
		}
	}
}

// evaluatePolicies loads every .policy file in dir and runs it against
// every known node, storing each Error and ComplianceFailure result in the
// store and counting every outcome in m.
func evaluatePolicies(ctx context.Context, dir string, l *loader.Loader, store datastore.DataStore, nodeIDs map[string]uuid.UUID, m *metrics.Metrics, log *logging.Logger) {
	if dir == "" {
		return
	}
	loaded, err := l.LoadFromDirectory(dir)
	if err != nil {
		log.Warn("loading policy directory", "dir", dir, "error", err)
		return
	}
	for _, lf := range loaded.Errors {
		log.Warn("policy file failed to load", "path", lf.Path, "error", lf.Error)
	}

	for _, nodeID := range nodeIDs {
		for _, lf := range loaded.Loaded {
			results, txn, err := exec.ExecuteRulesWithTransaction(lf.Rules, exec.ExecContext{Ctx: ctx, Store: store, NodeID: nodeID})
			if err != nil {
				log.Warn("executing policy", "policy", lf.Path, "node", nodeID, "error", err)
				continue
			}
			for _, r := range results {
				m.ObservePolicyOutcome(string(r.Outcome))
				if r.Outcome == exec.OutcomeError || r.Outcome == exec.OutcomeComplianceFailure {
					_ = store.StorePolicyResult(ctx, nodeID, datastore.PolicyResult{
						RuleLine: r.RuleLine,
						Outcome:  string(r.Outcome),
						Field:    r.Field,
						Expected: r.Expected,
						Actual:   r.Actual,
						Message:  r.Message,
					})
				}
			}
			flushResult := "skipped"
			switch {
			case txn.Flushed:
				flushResult = "flushed"
			case txn.RolledBack:
				flushResult = "rolled_back"
			case txn.FlushedError != "":
				flushResult = "failed"
			}
			m.ObservePolicyFlush(flushResult)
		}
	}
}

func snmpValueToAny(v snmp.SnmpValue) any {
	if n, ok := v.AsInt64(); ok {
		return n
	}
	if n, ok := v.AsUint64(); ok {
		return n
	}
	if b, ok := v.AsBytes(); ok {
		return string(b)
	}
	if oid, ok := v.AsOID(); ok {
		return oid
	}
	if ip, ok := v.AsIP(); ok {
		return ip.String()
	}
	return nil
}
