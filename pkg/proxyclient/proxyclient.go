// Package proxyclient defines the Proxy external collaborator (spec §6)
// and a gRPC reference transport used by integration tests and
// cmd/tenantd serve. This core never serves proxy traffic itself (spec
// §1 non-goals); it only issues the handful of outbound calls the
// lifecycle engine needs: invoking a module's system interfaces and
// asking the module fleet to deploy/undeploy an artifact.
package proxyclient

import (
	"context"

	"github.com/moduleplatform/tenantd/pkg/types"
)

// ModuleInstance aggregates everything needed to address one outbound
// call: the target module, the routing entry selected on it, the
// resolved path and HTTP method, whether this is an internal system
// call, and whether the caller wants the 1.0 fallback's retry
// behavior.
type ModuleInstance struct {
	Module       *types.ModuleDescriptor
	RoutingEntry types.RoutingEntry
	Path         string
	Method       string
	SystemCall   bool
	Retry        bool
}

// ProxyContext carries request-scoped metadata forwarded to the target
// module: trace headers, the originating request id, and whether the
// call should inherit the caller's tracing context.
type ProxyContext struct {
	Headers        map[string]string
	RequestID      string
	InheritContext bool
}

// Response is the minimal shape the hook invoker and install engine
// need from a proxied call.
type Response struct {
	StatusCode int
	Body       []byte
}

// Proxy is the external collaborator that actually talks to module
// instances. This core never implements proxy traffic serving; it only
// consumes these four operations.
type Proxy interface {
	CallSystemInterface(ctx context.Context, tenant *types.Tenant, instance ModuleInstance, body []byte, pctx ProxyContext) (*Response, error)
	DoCallSystemInterface(ctx context.Context, headers map[string]string, tenantID, requestID string, instance ModuleInstance, inheritContext bool, body []byte) (*Response, error)
	AutoDeploy(ctx context.Context, md *types.ModuleDescriptor) error
	AutoUndeploy(ctx context.Context, md *types.ModuleDescriptor) error
}
