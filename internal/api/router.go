package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
)

func Router(h *Handler) http.Handler {
	r := mux.NewRouter()

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	v1.HandleFunc("/webhooks/zapi", h.Webhook).Methods(http.MethodPost)
	v1.HandleFunc("/messages/send", h.Send).Methods(http.MethodPost)
	v1.HandleFunc("/integrations/disconnect", h.Disconnect).Methods(http.MethodPost)

	tenant := v1.PathPrefix("/tenants/{tenantId}").Subrouter()
	tenant.HandleFunc("/integration", h.GetIntegration).Methods(http.MethodGet)
	tenant.HandleFunc("/integration", h.SaveIntegration).Methods(http.MethodPut)
	tenant.HandleFunc("/residents/{residentId}/messages", h.Thread).Methods(http.MethodGet)
	tenant.HandleFunc("/conversations", h.Conversations).Methods(http.MethodGet)

	v1.HandleFunc("/scheduler/status", h.SchedulerStatus).Methods(http.MethodGet)
	v1.HandleFunc("/scheduler/start", h.SchedulerStart).Methods(http.MethodPost)
	v1.HandleFunc("/scheduler/stop", h.SchedulerStop).Methods(http.MethodPost)

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("condo-messaging"))
	}).Methods(http.MethodGet)

	return alice.New(requestLog, cors, recoverer).Then(r)
}
