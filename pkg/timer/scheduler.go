// Package timer implements TimerScheduler (spec §4.5): per-tenant
// periodic routing entries declared by a module's _timer system
// interface, armed on tenant rebuild and on every "timer" event bus
// message, fired only when this process holds cluster leadership.
package timer

import (
	"context"
	"sync"
	"time"

	"github.com/moduleplatform/tenantd/pkg/cache"
	"github.com/moduleplatform/tenantd/pkg/discovery"
	"github.com/moduleplatform/tenantd/pkg/events"
	"github.com/moduleplatform/tenantd/pkg/log"
	"github.com/moduleplatform/tenantd/pkg/metrics"
	"github.com/moduleplatform/tenantd/pkg/proxyclient"
	manager "github.com/moduleplatform/tenantd/pkg/replicatedmap"
	"github.com/moduleplatform/tenantd/pkg/types"
	"github.com/rs/zerolog"
)

// TimerInterface is the well-known system interface id declaring
// periodic routing entries.
const TimerInterface = "_timer"

// Scheduler arms one goroutine per (tenant,module,seq) key the first
// time it is seen, and lets that goroutine re-arm itself forever until
// the tenant or the routing entry disappears. The timers set (armed)
// is process-local, matching spec §4.5: correctness across the cluster
// comes from the leader check at fire time, not from any cross-process
// coordination of the set itself.
type Scheduler struct {
	tenants   manager.Map1[*types.Tenant]
	cache     *cache.Cache
	discovery discovery.DiscoveryManager
	proxy     proxyclient.Proxy
	broker    *events.Broker
	logger    zerolog.Logger

	mu     sync.Mutex
	armed  map[types.TimerKey]struct{}
	stopCh chan struct{}
	unsub  func()
}

// New creates a Scheduler. Start must be called to begin consuming the
// timer topic.
func New(tenants manager.Map1[*types.Tenant], c *cache.Cache, disc discovery.DiscoveryManager, proxy proxyclient.Proxy, broker *events.Broker) *Scheduler {
	return &Scheduler{
		tenants:   tenants,
		cache:     c,
		discovery: disc,
		proxy:     proxy,
		broker:    broker,
		logger:    log.WithComponent(log.Logger, "timer"),
		armed:     make(map[types.TimerKey]struct{}),
		stopCh:    make(chan struct{}),
	}
}

// Start subscribes to the timer topic; every message's payload is a
// tenant id to rebuild.
func (s *Scheduler) Start() {
	s.unsub = s.broker.Consume(events.TopicTimer, func(e events.Event) {
		s.RebuildTenant(e.Payload)
	})
}

// Stop tears down the subscription and lets every armed loop exit on
// its next wake.
func (s *Scheduler) Stop() {
	if s.unsub != nil {
		s.unsub()
	}
	close(s.stopCh)
}

// RebuildTenant enumerates tenantID's enabled modules via the cache and
// arms any _timer routing entry not already armed in this process. It
// is safe to call repeatedly; already-armed keys are left alone.
func (s *Scheduler) RebuildTenant(tenantID string) {
	entry, ok := s.cache.Get(tenantID)
	if !ok {
		return
	}
	for _, md := range entry.Modules {
		iface, ok := md.Provide(TimerInterface)
		if !ok {
			continue
		}
		for i, re := range iface.RoutingEntries {
			seq := i + 1
			if re.DelayMilliseconds <= 0 || re.StaticPath == "" {
				continue
			}
			key := types.TimerKey{TenantID: tenantID, ModuleID: md.ID, RoutingEntrySeq: seq}
			s.arm(key, time.Duration(re.DelayMilliseconds)*time.Millisecond)
		}
	}
}

func (s *Scheduler) arm(key types.TimerKey, delay time.Duration) {
	s.mu.Lock()
	if _, exists := s.armed[key]; exists {
		s.mu.Unlock()
		return
	}
	s.armed[key] = struct{}{}
	s.mu.Unlock()

	metrics.TimersArmed.Inc()
	s.logger.Debug().
		Str("tenant_id", key.TenantID).
		Str("module_id", key.ModuleID).
		Int("seq", key.RoutingEntrySeq).
		Dur("delay", delay).
		Msg("armed timer")

	go s.loop(key, delay)
}

func (s *Scheduler) disarm(key types.TimerKey) {
	s.mu.Lock()
	delete(s.armed, key)
	s.mu.Unlock()
	metrics.TimersArmed.Dec()
}

// loop is the self-re-arming task: sleep(delay); fire(); loop. It exits
// only when fire reports the key no longer resolves, or the scheduler
// is stopped.
func (s *Scheduler) loop(key types.TimerKey, delay time.Duration) {
	t := time.NewTimer(delay)
	defer t.Stop()

	for {
		select {
		case <-s.stopCh:
			s.disarm(key)
			return
		case <-t.C:
		}

		if !s.fire(key) {
			s.disarm(key)
			return
		}
		t.Reset(delay)
	}
}

// fire re-validates the key, dispatches on leadership, and reports
// whether the key is still valid (false means the caller should stop
// re-arming).
func (s *Scheduler) fire(key types.TimerKey) bool {
	tenant, err := s.tenants.Get(key.TenantID)
	if err != nil {
		return false
	}

	entry, ok := s.cache.Get(key.TenantID)
	if !ok {
		return false
	}

	re, ok := resolveRoutingEntry(entry, key)
	if !ok {
		return false
	}

	if s.discovery.IsLeader() {
		s.dispatch(tenant, key, re)
	} else {
		metrics.TimerFiresTotal.WithLabelValues("false").Inc()
	}

	return true
}

func resolveRoutingEntry(entry cache.Entry, key types.TimerKey) (types.RoutingEntry, bool) {
	for _, md := range entry.Modules {
		if md.ID != key.ModuleID {
			continue
		}
		iface, ok := md.Provide(TimerInterface)
		if !ok {
			return types.RoutingEntry{}, false
		}
		idx := key.RoutingEntrySeq - 1
		if idx < 0 || idx >= len(iface.RoutingEntries) {
			return types.RoutingEntry{}, false
		}
		return iface.RoutingEntries[idx], true
	}
	return types.RoutingEntry{}, false
}

func (s *Scheduler) dispatch(tenant *types.Tenant, key types.TimerKey, re types.RoutingEntry) {
	method := "POST"
	if len(re.Methods) > 0 {
		method = re.Methods[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	instance := proxyclient.ModuleInstance{
		Module:       &types.ModuleDescriptor{ID: key.ModuleID},
		RoutingEntry: re,
		Path:         re.StaticPath,
		Method:       method,
		SystemCall:   true,
	}

	metrics.TimerFiresTotal.WithLabelValues("true").Inc()

	if _, err := s.proxy.CallSystemInterface(ctx, tenant, instance, nil, proxyclient.ProxyContext{}); err != nil {
		s.logger.Warn().
			Err(err).
			Str("tenant_id", key.TenantID).
			Str("module_id", key.ModuleID).
			Str("path", re.StaticPath).
			Msg("timer fire failed, re-arming regardless")
	}
}
