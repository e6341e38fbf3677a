// Package handlers exposes the bridge operations over HTTP for the platform
// event-routing layer: catalog search, the request modal lifecycle, and the
// App Home refresh.
package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/providentiaww/iga-slack-bridge/cmd/iga-service/auth"
	"github.com/providentiaww/iga-slack-bridge/internal/flows"
	"github.com/providentiaww/iga-slack-bridge/internal/models"
)

// Service routes trigger requests to the flow layer.
type Service struct {
	flow    *flows.Flow
	catalog flows.CatalogClient
}

// NewService creates the handler service.
func NewService(flow *flows.Flow, catalog flows.CatalogClient) *Service {
	return &Service{flow: flow, catalog: catalog}
}

// Routes registers all endpoints on the mux.
func (s *Service) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/catalog/search", s.handleSearch)
	mux.HandleFunc("POST /v1/modal/open", s.handleModalOpen)
	mux.HandleFunc("POST /v1/modal/refresh", s.handleModalRefresh)
	mux.HandleFunc("POST /v1/modal/submit", s.handleModalSubmit)
	mux.HandleFunc("POST /v1/home/render", s.handleHomeRender)
}

type searchRequest struct {
	Query     string `json:"query"`
	RequestID string `json:"request_id"`
}

func (s *Service) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse(models.ErrCodeInvalidRequest, err.Error(), ""))
		return
	}

	items := s.catalog.SearchCatalog(r.Context(), req.Query)
	writeJSON(w, http.StatusOK, models.SuccessResponse(map[string]any{"items": items}, req.RequestID))
}

type modalOpenRequest struct {
	UserID     string `json:"user_id"`
	TriggerID  string `json:"trigger_id"`
	SearchTerm string `json:"search_term"`
	RequestID  string `json:"request_id"`
}

func (s *Service) handleModalOpen(w http.ResponseWriter, r *http.Request) {
	var req modalOpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse(models.ErrCodeInvalidRequest, err.Error(), ""))
		return
	}

	userID := resolveUser(r, req.UserID)
	if userID == "" || req.TriggerID == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse(models.ErrCodeInvalidRequest, "missing user_id or trigger_id", req.RequestID))
		return
	}

	if err := s.flow.OpenRequestModal(r.Context(), userID, req.TriggerID, req.SearchTerm); err != nil {
		log.Printf("Error: modal open failed for %s: %v", userID, err)
		writeJSON(w, http.StatusBadGateway, models.ErrorResponse(models.ErrCodeAPIError, err.Error(), req.RequestID))
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse(map[string]string{"status": "opened"}, req.RequestID))
}

type modalRefreshRequest struct {
	ViewID      string         `json:"view_id"`
	Hash        string         `json:"hash"`
	ActionID    string         `json:"action_id"`
	ActionValue string         `json:"action_value"`
	State       map[string]any `json:"state"`
	RequestID   string         `json:"request_id"`
}

func (s *Service) handleModalRefresh(w http.ResponseWriter, r *http.Request) {
	var req modalRefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse(models.ErrCodeInvalidRequest, err.Error(), ""))
		return
	}

	if req.ViewID == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse(models.ErrCodeInvalidRequest, "missing view_id", req.RequestID))
		return
	}

	err := s.flow.RefreshModal(r.Context(), flows.ModalEvent{
		ViewID:      req.ViewID,
		Hash:        req.Hash,
		ActionID:    req.ActionID,
		ActionValue: req.ActionValue,
		State:       req.State,
	})
	if err != nil {
		log.Printf("Error: modal refresh failed for view %s: %v", req.ViewID, err)
		writeJSON(w, http.StatusBadGateway, models.ErrorResponse(models.ErrCodeAPIError, err.Error(), req.RequestID))
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse(map[string]string{"status": "updated"}, req.RequestID))
}

type modalSubmitRequest struct {
	UserID    string         `json:"user_id"`
	State     map[string]any `json:"state"`
	RequestID string         `json:"request_id"`
}

// submitOutcome mirrors the platform's view-submission contract: "errors"
// keeps the modal open with inline messages, "clear" closes it.
type submitOutcome struct {
	ResponseAction string            `json:"response_action"`
	Errors         map[string]string `json:"errors,omitempty"`
	IgaRequestID   string            `json:"iga_request_id,omitempty"`
}

func (s *Service) handleModalSubmit(w http.ResponseWriter, r *http.Request) {
	var req modalSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse(models.ErrCodeInvalidRequest, err.Error(), ""))
		return
	}

	userID := resolveUser(r, req.UserID)
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse(models.ErrCodeInvalidRequest, "missing user_id", req.RequestID))
		return
	}

	result, err := s.flow.SubmitRequest(r.Context(), userID, req.State)
	if err != nil {
		log.Printf("Error: modal submit failed for %s: %v", userID, err)
		writeJSON(w, http.StatusBadGateway, models.ErrorResponse(models.ErrCodeAPIError, err.Error(), req.RequestID))
		return
	}

	outcome := submitOutcome{ResponseAction: "clear", IgaRequestID: result.RequestID}
	if len(result.FieldErrors) > 0 {
		outcome = submitOutcome{ResponseAction: "errors", Errors: result.FieldErrors}
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse(outcome, req.RequestID))
}

type homeRenderRequest struct {
	UserID    string `json:"user_id"`
	RequestID string `json:"request_id"`
}

func (s *Service) handleHomeRender(w http.ResponseWriter, r *http.Request) {
	var req homeRenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse(models.ErrCodeInvalidRequest, err.Error(), ""))
		return
	}

	userID := resolveUser(r, req.UserID)
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse(models.ErrCodeInvalidRequest, "missing user_id", req.RequestID))
		return
	}

	if err := s.flow.RenderHome(r.Context(), userID); err != nil {
		log.Printf("Error: home render failed for %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse(models.ErrCodeAPIError, err.Error(), req.RequestID))
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse(map[string]string{"status": "published"}, req.RequestID))
}

// resolveUser prefers the verified token subject over the body field so a
// compromised caller cannot act for another user.
func resolveUser(r *http.Request, bodyUserID string) string {
	if userCtx := auth.FromContext(r.Context()); userCtx != nil {
		return userCtx.UserID
	}
	return bodyUserID
}

func writeJSON(w http.ResponseWriter, status int, body models.BridgeResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error: unable to encode response: %v", err)
	}
}
