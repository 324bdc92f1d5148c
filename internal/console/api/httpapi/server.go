// Package httpapi exposes the persistence service over HTTP and provides
// the matching client.
//
// Record operations carry "#" in their ids, so the API keys requests with
// query parameters and JSON bodies instead of path segments.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/festfun/console/internal/console/domain/invitation"
	"github.com/festfun/console/internal/console/storage"
)

// Server serves the event item persistence contract over HTTP.
type Server struct {
	service storage.EventItemService
}

// NewServer builds an HTTP server over the persistence service.
func NewServer(service storage.EventItemService) *Server {
	return &Server{service: service}
}

// RegisterRoutes attaches the API routes to the mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/items", s.handleGetItems)
	mux.HandleFunc("POST /v1/items", s.handleCreateItem)
	mux.HandleFunc("PUT /v1/items", s.handleSaveItem)
	mux.HandleFunc("POST /v1/invitations", s.handleCreateInvitations)
	mux.HandleFunc("POST /v1/invitations/update", s.handleUpdateInvitations)
	mux.HandleFunc("POST /v1/invitations/send", s.handleSendInvitations)
}

// Handler returns a ready-to-serve handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

func (s *Server) handleGetItems(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("eventId")
	operation := r.URL.Query().Get("operation")
	if eventID == "" {
		writeError(w, http.StatusBadRequest, "eventId is required")
		return
	}

	if operation == "" {
		records, err := s.service.ListByEventID(r.Context(), eventID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if records == nil {
			records = []storage.Record{}
		}
		writeJSON(w, http.StatusOK, records)
		return
	}

	record, err := s.service.Read(r.Context(), eventID, operation)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var record storage.Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeError(w, http.StatusBadRequest, "invalid record body")
		return
	}
	created, err := s.service.Create(r.Context(), record)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleSaveItem(w http.ResponseWriter, r *http.Request) {
	var record storage.Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeError(w, http.StatusBadRequest, "invalid record body")
		return
	}
	saved, err := s.service.Save(r.Context(), record)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

type createInvitationsRequest struct {
	EventID  string               `json:"eventId"`
	Contacts []invitation.Contact `json:"contacts"`
	Template invitation.Template  `json:"template"`
}

type createInvitationsResponse struct {
	Response string `json:"response"`
}

func (s *Server) handleCreateInvitations(w http.ResponseWriter, r *http.Request) {
	var request createInvitationsRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid create invitations body")
		return
	}
	response, err := s.service.CreateInvitations(r.Context(), request.EventID, request.Contacts, request.Template)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createInvitationsResponse{Response: response})
}

type updateInvitationsRequest struct {
	EventID    string            `json:"eventId"`
	IDs        []string          `json:"ids"`
	TemplateID string            `json:"templateId"`
	Fields     map[string]string `json:"fields"`
	Status     invitation.Status `json:"status"`
}

func (s *Server) handleUpdateInvitations(w http.ResponseWriter, r *http.Request) {
	var request updateInvitationsRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid update invitations body")
		return
	}
	if err := s.service.UpdateInvitations(r.Context(), request.EventID, request.IDs, request.TemplateID, request.Fields, request.Status); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sendInvitationsRequest struct {
	EventID string   `json:"eventId"`
	IDs     []string `json:"ids"`
}

func (s *Server) handleSendInvitations(w http.ResponseWriter, r *http.Request) {
	var request sendInvitationsRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid send invitations body")
		return
	}
	if err := s.service.SendInvitations(r.Context(), request.EventID, request.IDs); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("encode response: %v", err)
	}
}
