package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/darwkzm/sopo/live"
	"github.com/darwkzm/sopo/services"
)

// DataHandler serves the single /api/data resource: GET returns the whole
// document, POST appends one record, PUT replaces one collection.
type DataHandler struct {
	roster services.RosterService
	hub    *live.Hub
}

func NewDataHandler(roster services.RosterService, hub *live.Hub) *DataHandler {
	return &DataHandler{
		roster: roster,
		hub:    hub,
	}
}

// envelope is the request body shape shared by POST and PUT.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (h *DataHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.roster.GetDocument(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, doc, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DataHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var input envelope
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Type == "" || len(input.Payload) == 0 {
		badRequestResponse(w, r, errors.New("type and payload are required"))
		return
	}

	doc, err := h.roster.AppendRecord(r.Context(), input.Type, input.Payload)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastDocument(doc)
	}

	response := jsonResponse{"success": true, "db": doc}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DataHandler) ReplaceCollection(w http.ResponseWriter, r *http.Request) {
	var input envelope
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Type == "" || len(input.Payload) == 0 {
		badRequestResponse(w, r, errors.New("type and payload are required"))
		return
	}

	doc, err := h.roster.ReplaceCollection(r.Context(), input.Type, input.Payload)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastDocument(doc)
	}

	response := jsonResponse{"success": true, "db": doc}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MethodNotAllowed advertises the verb set the resource supports.
func (h *DataHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "GET, POST, PUT")
	errorResponse(w, r, http.StatusMethodNotAllowed, "method "+r.Method+" is not allowed")
}
