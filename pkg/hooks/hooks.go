// Package hooks implements HookInvoker (spec §4.6): dispatch of a
// module's _tenant and _tenantPermissions system interfaces through the
// external Proxy, and the four-phase call ordering the lifecycle façade
// follows for every module change.
package hooks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/moduleplatform/tenantd/pkg/lifecycleerr"
	"github.com/moduleplatform/tenantd/pkg/log"
	"github.com/moduleplatform/tenantd/pkg/metrics"
	"github.com/moduleplatform/tenantd/pkg/proxyclient"
	"github.com/moduleplatform/tenantd/pkg/resolver"
	"github.com/moduleplatform/tenantd/pkg/types"
	"github.com/rs/zerolog"
)

// Well-known system interface ids.
const (
	TenantInterface      = "_tenant"
	PermissionsInterface = "_tenantPermissions"
)

const (
	fallbackTenantPath = "/_/tenant"
	disableTenantPath  = "/_/tenant/disable"
	maxFallbackRetries = 3
)

// Invoker calls a module's system interfaces through a Proxy.
type Invoker struct {
	proxy  proxyclient.Proxy
	logger zerolog.Logger
}

// New creates an Invoker over the given Proxy.
func New(proxy proxyclient.Proxy) *Invoker {
	return &Invoker{proxy: proxy, logger: log.WithComponent(log.Logger, "hooks")}
}

// tenantHookBody is the _tenant wire body (spec §6).
type tenantHookBody struct {
	ModuleTo   *string   `json:"module_to,omitempty"`
	ModuleFrom *string   `json:"module_from,omitempty"`
	Parameters []ParamKV `json:"parameters,omitempty"`
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// InvokeTenantHook resolves hookModule's _tenant interface version and
// makes the corresponding call. hookModule is the target module for
// enable/upgrade, or the old module when purging a disable. Returns nil
// without calling anything if hookModule does not provide _tenant.
func (h *Invoker) InvokeTenantHook(ctx context.Context, tenant *types.Tenant, hookModule *types.ModuleDescriptor, moduleTo, moduleFrom string, purge bool, parameters string) error {
	iface, ok := hookModule.Provide(TenantInterface)
	if !ok {
		return nil
	}

	switch {
	case versionIs(iface.Version, "1.0"):
		return h.invokeV10(ctx, tenant, hookModule, iface.RoutingEntries, moduleTo, moduleFrom, purge)
	case versionIs(iface.Version, "1.1"):
		return h.invokeV1x(ctx, tenant, hookModule, iface.RoutingEntries, moduleTo, moduleFrom, purge, nil)
	case versionIs(iface.Version, "1.2"):
		return h.invokeV1x(ctx, tenant, hookModule, iface.RoutingEntries, moduleTo, moduleFrom, purge, parseParameters(parameters))
	default:
		return lifecycleerr.Userf("_tenant hook: unsupported interface version %q on module %s", iface.Version, hookModule.ID)
	}
}

func versionIs(version, want string) bool {
	code, err := resolver.Compare(version, want)
	if err != nil {
		return false
	}
	return code == resolver.Equal
}

// invokeV10 implements the 1.0 behavior table, including the fallback
// rule resolved by Design Notes §9: the fallback to /_/tenant fires
// only when moduleTo != "" or purge, never on a pure disable
// (moduleTo == "" && !purge).
func (h *Invoker) invokeV10(ctx context.Context, tenant *types.Tenant, hookModule *types.ModuleDescriptor, entries []types.RoutingEntry, moduleTo, moduleFrom string, purge bool) error {
	method := "POST"
	if purge {
		method = "DELETE"
	}

	if re, ok := selectEntryByMethod(entries, method); ok {
		return h.call(ctx, tenant, hookModule, re, method, moduleTo, moduleFrom, nil, false)
	}

	if moduleTo == "" && !purge {
		return nil
	}

	fallback := types.RoutingEntry{Methods: []string{"POST"}, StaticPath: fallbackTenantPath}
	return h.call(ctx, tenant, hookModule, fallback, "POST", moduleTo, moduleFrom, nil, true)
}

// invokeV1x implements 1.1/1.2: a routing entry is required, no
// fallback. /_/tenant/disable is used only for a pure disable
// (moduleTo == ""); DELETE entries are used only when purging.
func (h *Invoker) invokeV1x(ctx context.Context, tenant *types.Tenant, hookModule *types.ModuleDescriptor, entries []types.RoutingEntry, moduleTo, moduleFrom string, purge bool, params []ParamKV) error {
	re, ok := selectEntryV1x(entries, purge, moduleTo)
	if !ok {
		return lifecycleerr.Userf("_tenant hook: no matching routing entry on module %s (purge=%v, moduleTo=%q)", hookModule.ID, purge, moduleTo)
	}

	method := "POST"
	if purge {
		method = "DELETE"
	}
	return h.call(ctx, tenant, hookModule, re, method, moduleTo, moduleFrom, params, false)
}

func selectEntryByMethod(entries []types.RoutingEntry, method string) (types.RoutingEntry, bool) {
	for _, re := range entries {
		if re.AcceptsMethod(method) {
			return re, true
		}
	}
	return types.RoutingEntry{}, false
}

func selectEntryV1x(entries []types.RoutingEntry, purge bool, moduleTo string) (types.RoutingEntry, bool) {
	for _, re := range entries {
		if purge {
			if re.AcceptsMethod("DELETE") {
				return re, true
			}
			continue
		}
		if moduleTo == "" {
			if re.StaticPath == disableTenantPath {
				return re, true
			}
			continue
		}
		if re.StaticPath == disableTenantPath {
			continue
		}
		if re.AcceptsMethod("POST") {
			return re, true
		}
	}
	return types.RoutingEntry{}, false
}

func (h *Invoker) call(ctx context.Context, tenant *types.Tenant, hookModule *types.ModuleDescriptor, re types.RoutingEntry, method, moduleTo, moduleFrom string, params []ParamKV, retry bool) error {
	body, err := json.Marshal(tenantHookBody{
		ModuleTo:   nilIfEmpty(moduleTo),
		ModuleFrom: nilIfEmpty(moduleFrom),
		Parameters: params,
	})
	if err != nil {
		return lifecycleerr.Internalf(err, "_tenant hook: encoding body for module %s", hookModule.ID)
	}

	instance := proxyclient.ModuleInstance{
		Module:       hookModule,
		RoutingEntry: re,
		Path:         re.StaticPath,
		Method:       method,
		SystemCall:   true,
		Retry:        retry,
	}

	timer := metrics.NewTimer()
	var callErr error
	if retry {
		callErr = h.callWithRetry(ctx, tenant, instance, body)
	} else {
		_, callErr = h.proxy.CallSystemInterface(ctx, tenant, instance, body, proxyclient.ProxyContext{})
	}
	timer.ObserveDurationVec(metrics.HookCallDuration, "tenant")

	outcome := "success"
	if callErr != nil {
		outcome = "failure"
	}
	metrics.HookCallsTotal.WithLabelValues("tenant", outcome).Inc()

	if callErr != nil {
		log.WithModuleID(h.logger, hookModule.ID).Warn().Err(callErr).Str("path", re.StaticPath).Msg("_tenant hook call failed")
		return lifecycleerr.Internalf(callErr, "_tenant hook call to module %s failed", hookModule.ID)
	}
	// 2xx bodies/status are ignored per spec §7; only transport errors matter.
	return nil
}

func (h *Invoker) callWithRetry(ctx context.Context, tenant *types.Tenant, instance proxyclient.ModuleInstance, body []byte) error {
	backoff := 50 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt < maxFallbackRetries; attempt++ {
		_, err := h.proxy.CallSystemInterface(ctx, tenant, instance, body, proxyclient.ProxyContext{})
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < maxFallbackRetries-1 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}
	}
	return lastErr
}
