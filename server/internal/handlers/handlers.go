package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/zhaobenny/babylog/internal/aggregator"
	"github.com/zhaobenny/babylog/internal/model"
	"github.com/zhaobenny/babylog/internal/parser"
	"github.com/zhaobenny/babylog/server/internal/auth"
	"github.com/zhaobenny/babylog/server/internal/store"
)

// maxSyncBody caps the size of an uploaded log
const maxSyncBody = 10 << 20

// Handler holds dependencies for HTTP handlers
type Handler struct {
	store      *store.Store
	sessionMgr *scs.SessionManager
	templates  *template.Template
	publisher  *PublishDebouncer
	now        func() time.Time
}

// New creates a new Handler. publisher may be nil when MQTT is not configured.
func New(s *store.Store, sessionMgr *scs.SessionManager, templates *template.Template, publisher *PublishDebouncer) *Handler {
	return &Handler{
		store:      s,
		sessionMgr: sessionMgr,
		templates:  templates,
		publisher:  publisher,
		now:        time.Now,
	}
}

// Index shows the dashboard, or the login form without a session
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	userID := h.sessionMgr.GetString(r.Context(), auth.SessionUserKey)
	if userID == "" {
		h.render(w, "index.html", map[string]any{"Content": "auth"})
		return
	}

	user := h.store.GetUserByID(userID)
	if user == nil {
		h.sessionMgr.Destroy(r.Context())
		h.render(w, "index.html", map[string]any{"Content": "auth"})
		return
	}

	opts, err := rangeFromQuery(r)
	data := h.dashboardData(user, opts)
	data["Content"] = "dashboard"
	if err != nil {
		data["Error"] = err.Error()
	}
	h.render(w, "index.html", data)
}

// Login handles user login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, "Invalid form data")
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if username == "" || password == "" {
		h.renderLoginError(w, "Username and password are required")
		return
	}

	user := h.store.GetUserByUsername(username)
	if user == nil || !auth.CheckPassword(password, user.PasswordHash) {
		h.renderLoginError(w, "Invalid username or password")
		return
	}

	if err := h.sessionMgr.RenewToken(r.Context()); err != nil {
		h.renderLoginError(w, "An error occurred")
		return
	}
	h.sessionMgr.Put(r.Context(), auth.SessionUserKey, user.ID)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles user logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionMgr.Destroy(r.Context()); err != nil {
		log.Printf("[auth] destroying session: %v", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// PartialDailyTable returns the daily table fragment for the requested range
func (h *Handler) PartialDailyTable(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	opts, err := rangeFromQuery(r)
	if err != nil {
		h.render(w, "error", map[string]any{"Error": err.Error()})
		return
	}

	h.render(w, "daily-table", h.dashboardData(user, opts))
}

// SyncRequest represents the incoming sync data
type SyncRequest struct {
	ClientID   string      `json:"client_id"`
	ClientName string      `json:"client_name"`
	Rows       []model.Row `json:"rows"`
}

// SyncResponse represents the sync API response
type SyncResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	AcceptedEvents int    `json:"accepted_events"`
	SkippedRows    int    `json:"skipped_rows"`
	RejectedTokens int    `json:"rejected_tokens"`
}

// APISync replaces the user's log with the uploaded rows
func (h *Handler) APISync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user := auth.GetUser(r.Context())
	if user == nil {
		h.jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req SyncRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSyncBody)).Decode(&req); err != nil {
		h.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.ClientID == "" {
		h.jsonError(w, "client_id is required", http.StatusBadRequest)
		return
	}

	res, err := parser.BuildConcurrent(r.Context(), req.Rows, runtime.GOMAXPROCS(0))
	if err != nil {
		h.jsonError(w, "Sync cancelled", http.StatusServiceUnavailable)
		return
	}

	report := aggregator.ByDay(res.EventLog)
	h.store.PutSnapshot(user.ID, req.ClientID, req.ClientName, &store.Snapshot{
		SyncedAt:    h.now(),
		Rows:        len(req.Rows),
		Log:         res.EventLog,
		Report:      report,
		SkippedRows: res.SkippedRows,
		Rejected:    res.Rejected,
	})

	if h.publisher != nil {
		h.publisher.Schedule(user.Username, report)
	}

	log.Printf("[sync] %s/%s: %d rows, %d events, %d skipped, %d rejected",
		user.Username, req.ClientID, len(req.Rows), res.EventCount(), res.SkippedRows, len(res.Rejected))

	h.writeJSON(w, SyncResponse{
		Success:        true,
		Message:        fmt.Sprintf("Synced %d days", len(report.Counts)),
		AcceptedEvents: res.EventCount(),
		SkippedRows:    res.SkippedRows,
		RejectedTokens: len(res.Rejected),
	})
}

// SyncStatusResponse represents the sync status response
type SyncStatusResponse struct {
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
}

// APISyncStatus returns the sync status for a client
func (h *Handler) APISyncStatus(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		h.jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		h.jsonError(w, "client_id is required", http.StatusBadRequest)
		return
	}

	h.writeJSON(w, SyncStatusResponse{
		LastSyncAt: h.store.GetClientSyncStatus(user.ID, clientID),
	})
}

// SummaryResponse is the body of GET /api/summary
type SummaryResponse struct {
	SyncedAt *time.Time           `json:"synced_at,omitempty"`
	Days     []model.DailySummary `json:"days"`
	Total    aggregator.Total     `json:"total"`
	Weights  []model.WeightSample `json:"weights"`
}

// APISummary returns the daily summaries of the user's latest upload
func (h *Handler) APISummary(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		h.jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	opts, err := rangeFromQuery(r)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := SummaryResponse{
		Days:    []model.DailySummary{},
		Weights: []model.WeightSample{},
	}
	if snap := h.store.Snapshot(user.ID); snap != nil {
		filtered := aggregator.FilterLog(snap.Log, opts)
		report := aggregator.ByDay(filtered)
		synced := snap.SyncedAt
		resp.SyncedAt = &synced
		resp.Days = report.Summaries()
		resp.Total = aggregator.CalculateTotal(report)
		resp.Weights = aggregator.Weights(filtered)
	}

	h.writeJSON(w, resp)
}

// Health handles the health check endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]any{"status": "healthy", "users": h.store.UserCount()})
}

func (h *Handler) dashboardData(user *store.User, opts aggregator.Options) map[string]any {
	data := map[string]any{
		"User":    user,
		"Clients": h.store.Clients(user.ID),
		"Since":   dateParam(opts.Since),
		"Until":   dateParam(opts.Until),
	}

	snap := h.store.Snapshot(user.ID)
	if snap == nil {
		return data
	}

	filtered := aggregator.FilterLog(snap.Log, opts)
	report := aggregator.ByDay(filtered)
	data["Snapshot"] = snap
	data["Days"] = report.Summaries()
	data["Total"] = aggregator.CalculateTotal(report)
	data["Weights"] = aggregator.Weights(filtered)
	return data
}

func dateParam(d model.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

// rangeFromQuery reads the since/until query parameters
func rangeFromQuery(r *http.Request) (aggregator.Options, error) {
	var opts aggregator.Options
	q := r.URL.Query()
	if s := q.Get("since"); s != "" {
		d, err := model.ParseDate(s)
		if err != nil {
			return aggregator.Options{}, fmt.Errorf("invalid since date (use YYYY-MM-DD)")
		}
		opts.Since = d
	}
	if s := q.Get("until"); s != "" {
		d, err := model.ParseDate(s)
		if err != nil {
			return aggregator.Options{}, fmt.Errorf("invalid until date (use YYYY-MM-DD)")
		}
		opts.Until = d
	}
	return opts, nil
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("[http] rendering %s: %v", name, err)
	}
}

func (h *Handler) renderLoginError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	h.render(w, "index.html", map[string]any{
		"Content": "auth",
		"Error":   message,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
