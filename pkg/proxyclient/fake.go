package proxyclient

import (
	"context"
	"sync"

	"github.com/moduleplatform/tenantd/pkg/types"
)

// Call records one CallSystemInterface/DoCallSystemInterface invocation
// against a Fake.
type Call struct {
	TenantID string
	ModuleID string
	Path     string
	Method   string
	Body     []byte
}

// Fake is an in-memory Proxy used by hook-invoker and install-engine
// tests. Responses default to 200 with an empty body; a test can
// override per module id via SetStatus/FailWith.
type Fake struct {
	mu       sync.Mutex
	calls    []Call
	deployed map[string]bool
	status   map[string]int
	failWith map[string]error
}

// NewFake creates an empty Fake proxy.
func NewFake() *Fake {
	return &Fake{
		deployed: make(map[string]bool),
		status:   make(map[string]int),
		failWith: make(map[string]error),
	}
}

// Calls returns every recorded call, in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// SetStatus overrides the HTTP status code returned for moduleID.
func (f *Fake) SetStatus(moduleID string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[moduleID] = status
}

// FailWith makes calls to moduleID return err.
func (f *Fake) FailWith(moduleID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith[moduleID] = err
}

// IsDeployed reports whether AutoDeploy was called for moduleID more
// recently than AutoUndeploy.
func (f *Fake) IsDeployed(moduleID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deployed[moduleID]
}

func (f *Fake) CallSystemInterface(ctx context.Context, tenant *types.Tenant, instance ModuleInstance, body []byte, pctx ProxyContext) (*Response, error) {
	return f.DoCallSystemInterface(ctx, pctx.Headers, tenant.ID, pctx.RequestID, instance, pctx.InheritContext, body)
}

func (f *Fake) DoCallSystemInterface(ctx context.Context, headers map[string]string, tenantID, requestID string, instance ModuleInstance, inheritContext bool, body []byte) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	moduleID := instance.Module.ID
	f.calls = append(f.calls, Call{TenantID: tenantID, ModuleID: moduleID, Path: instance.Path, Method: instance.Method, Body: body})

	if err, ok := f.failWith[moduleID]; ok {
		return nil, err
	}
	status, ok := f.status[moduleID]
	if !ok {
		status = 200
	}
	return &Response{StatusCode: status}, nil
}

func (f *Fake) AutoDeploy(ctx context.Context, md *types.ModuleDescriptor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failWith[md.ID]; ok {
		return err
	}
	f.deployed[md.ID] = true
	return nil
}

func (f *Fake) AutoUndeploy(ctx context.Context, md *types.ModuleDescriptor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failWith[md.ID]; ok {
		return err
	}
	f.deployed[md.ID] = false
	return nil
}

var _ Proxy = (*Fake)(nil)
