/*
Package modulemanager implements the ModuleManager external
collaborator named in spec §6: get, getLatest, getModulesWithFilter.

InMemory is a reference registry good enough to drive the install
engine and the façade in tests and in cmd/tenantd without a real
module-marketplace service behind it — this core never owns module
artifacts or their metadata, per spec §1's non-goals.
*/
package modulemanager
