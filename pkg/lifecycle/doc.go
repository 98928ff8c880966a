/*
Package lifecycle implements TenantLifecycleManager (spec §4.8), the
façade a CLI or HTTP surface actually calls: init, insert,
updateDescriptor, get/list/delete, enableAndDisableModule,
listInterfaces, listModulesFromInterface, getModuleUser and
upgradeOkapiModule.

Facade wires together the collaborators built by every package below
it in the dependency order: pkg/replicatedmap for the tenant map,
pkg/store for durable persistence, pkg/cache for the per-tenant
enabled-module view, pkg/timer for periodic routing entries,
pkg/hooks for module-change invocation, and pkg/install for
multi-module job orchestration. EnableAndDisableModule reimplements
install's single-item sequence directly rather than going through a
job, since a convenience call for one module has no need for
InstallEngine's plan/JobStore machinery.

httpapi.go exposes a minimal admin HTTP surface over net/http in the
teacher's handler-per-route style.
*/
package lifecycle
