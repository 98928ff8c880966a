package lifecycle

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/moduleplatform/tenantd/pkg/lifecycleerr"
	"github.com/moduleplatform/tenantd/pkg/metrics"
	"github.com/moduleplatform/tenantd/pkg/types"
)

// HTTPAPI is the admin HTTP surface over Facade: tenant CRUD, the
// single-module convenience path, and install/upgrade job submission
// and polling. It never serves proxy traffic — that is explicitly out
// of scope (spec §1 non-goals) and handled by the external Proxy.
type HTTPAPI struct {
	facade *Facade
	mux    *http.ServeMux
}

// NewHTTPAPI builds the admin HTTP surface over facade.
func NewHTTPAPI(facade *Facade) *HTTPAPI {
	a := &HTTPAPI{facade: facade, mux: http.NewServeMux()}

	a.mux.HandleFunc("POST /tenants", a.withMetrics("POST /tenants", a.createTenant))
	a.mux.HandleFunc("GET /tenants/{id}", a.withMetrics("GET /tenants/{id}", a.getTenant))
	a.mux.HandleFunc("POST /tenants/{id}/modules", a.withMetrics("POST /tenants/{id}/modules", a.enableAndDisableModule))
	a.mux.HandleFunc("POST /tenants/{id}/jobs", a.withMetrics("POST /tenants/{id}/jobs", a.createJob))
	a.mux.HandleFunc("GET /tenants/{id}/jobs/{jobId}", a.withMetrics("GET /tenants/{id}/jobs/{jobId}", a.getJob))
	a.mux.Handle("GET /metrics", metrics.Handler())

	return a
}

// GetHandler returns the HTTP handler for embedding in a larger server.
func (a *HTTPAPI) GetHandler() http.Handler {
	return a.mux
}

// withMetrics wraps handler with the admin API's request counters.
func (a *HTTPAPI) withMetrics(route string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.NewTimer()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		handler(sw, r)
		timer.ObserveDurationVec(metrics.APIRequestDuration, route)
		metrics.APIRequestsTotal.WithLabelValues(route, http.StatusText(sw.status)).Inc()
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if t, ok := lifecycleerr.TypeOf(err); ok {
		switch t {
		case lifecycleerr.TypeUser:
			status = http.StatusBadRequest
		case lifecycleerr.TypeNotFound:
			status = http.StatusNotFound
		case lifecycleerr.TypeInternal:
			status = http.StatusInternalServerError
		}
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (a *HTTPAPI) createTenant(w http.ResponseWriter, r *http.Request) {
	var td types.TenantDescriptor
	if err := json.NewDecoder(r.Body).Decode(&td); err != nil {
		writeError(w, lifecycleerr.Userf("decoding request body: %v", err))
		return
	}

	tenant := &types.Tenant{ID: td.ID, Descriptor: td, EnabledModules: map[string]time.Time{}}
	id, err := a.facade.Insert(tenant)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (a *HTTPAPI) getTenant(w http.ResponseWriter, r *http.Request) {
	tenant, err := a.facade.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

type enableAndDisableModuleRequest struct {
	ModuleFrom string                        `json:"moduleFrom,omitempty"`
	ModuleTo   *types.TenantModuleDescriptor `json:"moduleTo,omitempty"`
	Options    types.InstallOptions          `json:"options,omitempty"`
}

func (a *HTTPAPI) enableAndDisableModule(w http.ResponseWriter, r *http.Request) {
	var req enableAndDisableModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, lifecycleerr.Userf("decoding request body: %v", err))
		return
	}

	id, err := a.facade.EnableAndDisableModule(r.Context(), r.PathValue("id"), req.Options, req.ModuleFrom, req.ModuleTo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"moduleId": id})
}

type createJobRequest struct {
	Options types.InstallOptions            `json:"options,omitempty"`
	Plan    []*types.TenantModuleDescriptor `json:"plan,omitempty"`
}

func (a *HTTPAPI) createJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, lifecycleerr.Userf("decoding request body: %v", err))
		return
	}

	job, err := a.facade.Install().InstallUpgradeCreate(r.Context(), r.PathValue("id"), "", req.Options, req.Plan)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (a *HTTPAPI) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := a.facade.GetJob(r.PathValue("id"), r.PathValue("jobId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
