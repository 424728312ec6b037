package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/LeventeLantos/condo-messaging/internal/scheduler"
	"github.com/LeventeLantos/condo-messaging/internal/service"
)

const unhandledError = "Unhandled error"

// maxBody caps request bodies; provider webhooks are small JSON documents.
const maxBody = 1 << 20

type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

type Services struct {
	Ingestor     *service.Ingestor
	Sender       *service.Sender
	Disconnector *service.Disconnector
	Inbox        *service.Inbox
}

type Handler struct {
	svc          Services
	sched        *scheduler.Scheduler
	webhookToken string
}

// NewHandler builds the HTTP handlers. An empty webhookToken rejects every
// webhook call.
func NewHandler(svc Services, s *scheduler.Scheduler, webhookToken string) *Handler {
	return &Handler{svc: svc, sched: s, webhookToken: webhookToken}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	if !h.webhookAuthorized(r.URL.Query().Get("token")) {
		log.Warn().Str("remote", r.RemoteAddr).Msg("webhook rejected, bad token")
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
		return
	}

	var body any
	if err := readJSON(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid JSON"})
		return
	}
	payload, ok := body.(map[string]any)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid JSON"})
		return
	}

	res, err := h.svc.Ingestor.Ingest(r.Context(), payload)
	if err != nil {
		log.Error().Err(err).Msg("webhook ingest failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: unhandledError})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":                 true,
		"inserted":           res.Inserted,
		"updatedIntegration": res.UpdatedIntegration,
	})
}

func (h *Handler) webhookAuthorized(token string) bool {
	if h.webhookToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.webhookToken)) == 1
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req service.SendRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.svc.Sender.Send(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	var req service.DisconnectRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.Disconnector.Disconnect(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) GetIntegration(w http.ResponseWriter, r *http.Request) {
	in, err := h.svc.Inbox.Integration(r.Context(), mux.Vars(r)["tenantId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (h *Handler) SaveIntegration(w http.ResponseWriter, r *http.Request) {
	var req service.SaveIntegrationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.TenantID = mux.Vars(r)["tenantId"]

	in, err := h.svc.Inbox.SaveIntegration(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (h *Handler) Thread(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	offset := parseInt(r.URL.Query().Get("offset"), 0)

	items, err := h.svc.Inbox.Thread(r.Context(), vars["tenantId"], vars["residentId"], limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) Conversations(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 50)

	items, err := h.svc.Inbox.Conversations(r.Context(), mux.Vars(r)["tenantId"], limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sched.Status())
}

func (h *Handler) SchedulerStart(w http.ResponseWriter, r *http.Request) {
	h.sched.Start()
	writeJSON(w, http.StatusOK, h.sched.Status())
}

func (h *Handler) SchedulerStop(w http.ResponseWriter, r *http.Request) {
	h.sched.Stop()
	writeJSON(w, http.StatusOK, h.sched.Status())
}

// readJSON decodes the whole body into dst. Trailing data after the first
// JSON value is rejected.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := readJSON(w, r, dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid payload", Details: err.Error()})
		return false
	}
	return true
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindConfig:
		return http.StatusInternalServerError
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	var se *service.Error
	if !errors.As(err, &se) {
		log.Error().Err(err).Msg("unclassified handler error")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: unhandledError})
		return
	}
	if se.Kind == service.KindInternal && se.Err != nil {
		log.Error().Err(se.Err).Msg(se.Msg)
	}
	writeJSON(w, statusFor(se.Kind), errorBody{Error: se.Msg, Details: se.Details})
}

func parseInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
