package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nidhogg/taskforce/internal/agent"
	"github.com/nidhogg/taskforce/internal/dataset"
	"github.com/nidhogg/taskforce/internal/notify"
	"github.com/nidhogg/taskforce/internal/orchestrator"
	"github.com/nidhogg/taskforce/internal/proposal"
	"go.uber.org/zap"
)

// maxUploadBytes bounds request bodies, uploaded CSV files included.
const maxUploadBytes = 10 << 20

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	orch        *orchestrator.Orchestrator
	broadcaster *notify.Broadcaster
	logger      *zap.Logger
}

// NewHandler creates a new API handler. broadcaster may be nil.
func NewHandler(orch *orchestrator.Orchestrator, broadcaster *notify.Broadcaster, logger *zap.Logger) *Handler {
	return &Handler{
		orch:        orch,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)
		r.Get("/roles", h.listRoles)

		r.Post("/proposals", h.createProposal)
		r.Post("/proposals/upload", h.uploadProposal)
		r.Post("/agents/{role}/run", h.runAgent)

		r.Get("/notifications", h.listNotifications)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "taskforce"})
}

type roleInfo struct {
	ID      agent.Role `json:"id"`
	Name    string     `json:"name"`
	Section string     `json:"section"`
	Enabled bool       `json:"enabled"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	enabled := h.orch.DefaultRoles()
	out := make([]roleInfo, 0, len(agent.Roles()))
	for _, role := range agent.Roles() {
		out = append(out, roleInfo{
			ID:      role,
			Name:    role.DisplayName(),
			Section: proposal.SectionTitle(role),
			Enabled: enabled.Has(role),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type proposalRequest struct {
	Location string `json:"location"`
	// Roles omitted runs the configured roles; an empty list runs none.
	Roles  *[]string `json:"roles,omitempty"`
	CSV    string    `json:"csv,omitempty"`
	Demo   bool      `json:"demo,omitempty"`
	Notify bool      `json:"notify,omitempty"`
	// Optional topic overrides.
	NewsTopic       string `json:"news_topic,omitempty"`
	InnovationTopic string `json:"innovation_topic,omitempty"`
}

type proposalResponse struct {
	Proposal    *proposal.Proposal `json:"proposal"`
	Markdown    string             `json:"markdown"`
	Notified    []string           `json:"notified,omitempty"`
	NotifyError string             `json:"notify_error,omitempty"`
}

func (h *Handler) createProposal(w http.ResponseWriter, r *http.Request) {
	var req proposalRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	roles := h.orch.DefaultRoles()
	if req.Roles != nil {
		set, err := agent.ParseRoles(*req.Roles)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		roles = set
	}

	ds, err := loadDataset(req.CSV, req.Demo, req.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p := h.orch.Run(r.Context(), orchestrator.TeamRequest{
		Location:        req.Location,
		Dataset:         ds,
		Roles:           roles,
		NewsTopic:       req.NewsTopic,
		InnovationTopic: req.InnovationTopic,
	})
	h.respondProposal(w, r, p, req.Notify)
}

func (h *Handler) uploadProposal(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse multipart form: %w", err))
		return
	}

	location := r.FormValue("location")
	roles := h.orch.DefaultRoles()
	if vals, ok := r.MultipartForm.Value["roles"]; ok {
		var names []string
		for _, v := range vals {
			names = append(names, strings.Split(v, ",")...)
		}
		set, err := agent.ParseRoles(names)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		roles = set
	}

	var ds *dataset.Dataset
	file, _, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		ds, err = dataset.ReadCSV(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	case errors.Is(err, http.ErrMissingFile):
		if r.FormValue("demo") == "true" {
			ds = dataset.Demo(location)
		}
	default:
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p := h.orch.RunTeam(r.Context(), location, ds, roles)
	h.respondProposal(w, r, p, r.FormValue("notify") == "true")
}

func (h *Handler) respondProposal(w http.ResponseWriter, r *http.Request, p *proposal.Proposal, send bool) {
	resp := proposalResponse{Proposal: p, Markdown: proposal.Markdown(p)}
	if send {
		if h.broadcaster == nil || !h.broadcaster.Enabled() {
			resp.NotifyError = "no notification channels configured"
		} else {
			rec, err := h.broadcaster.Send(r.Context(), notify.FromProposal(p))
			if err != nil {
				h.logger.Warn("proposal notification failed", zap.String("run", p.RunID), zap.Error(err))
				resp.NotifyError = err.Error()
			}
			resp.Notified = rec.Targets
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type agentRequest struct {
	Topic    string `json:"topic,omitempty"`
	Location string `json:"location,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	CSV      string `json:"csv,omitempty"`
	Demo     bool   `json:"demo,omitempty"`
}

func (h *Handler) runAgent(w http.ResponseWriter, r *http.Request) {
	role, err := agent.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req agentRequest
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Limit < 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("limit must not be negative"))
		return
	}

	ds, err := loadDataset(req.CSV, req.Demo, req.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.orch.RunSingle(r.Context(), role, orchestrator.Input{
		Topic:    req.Topic,
		Location: req.Location,
		Dataset:  ds,
		Limit:    req.Limit,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	if h.broadcaster == nil {
		writeJSON(w, http.StatusOK, []notify.Record{})
		return
	}
	writeJSON(w, http.StatusOK, h.broadcaster.History(20))
}

// loadDataset parses inline CSV, or returns the demo dataset when asked.
// It returns nil when neither is given.
func loadDataset(csv string, demo bool, location string) (*dataset.Dataset, error) {
	if strings.TrimSpace(csv) != "" {
		ds, err := dataset.ReadCSV(strings.NewReader(csv))
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		return ds, nil
	}
	if demo {
		return dataset.Demo(location), nil
	}
	return nil, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
