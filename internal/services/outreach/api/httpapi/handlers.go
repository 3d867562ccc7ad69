package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/louisbranch/outreach/internal/services/outreach/analytics"
	"github.com/louisbranch/outreach/internal/services/outreach/campaign"
	"github.com/louisbranch/outreach/internal/services/outreach/segment"
)

type materializeResponse struct {
	Segment    segment.Segment    `json:"segment"`
	Statistics segment.Statistics `json:"statistics"`
}

type launchRequest struct {
	AsOf string `json:"as_of"`
}

type outcomeRequest struct {
	CustomerID string `json:"customer_id"`
	Event      string `json:"event"`
	Timestamp  string `json:"timestamp"`
}

func (h *handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.ListCustomers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *handler) listSegments(w http.ResponseWriter, r *http.Request) {
	definitions, err := h.segments.ListDefinitions(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, definitions)
}

func (h *handler) createSegment(w http.ResponseWriter, r *http.Request) {
	var input segment.DefinitionInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	definition, err := h.segments.CreateDefinition(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, definition)
}

func (h *handler) getSegment(w http.ResponseWriter, r *http.Request) {
	definition, err := h.segments.GetDefinition(r.Context(), chi.URLParam(r, "segmentID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, definition)
}

func (h *handler) updateSegment(w http.ResponseWriter, r *http.Request) {
	var input segment.DefinitionInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	definition, err := h.segments.UpdateDefinition(r.Context(), chi.URLParam(r, "segmentID"), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, definition)
}

func (h *handler) deleteSegment(w http.ResponseWriter, r *http.Request) {
	if err := h.segments.DeleteDefinition(r.Context(), chi.URLParam(r, "segmentID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) materializeSegment(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseTime("as_of", r.URL.Query().Get("as_of"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	seg, customers, err := h.segments.MaterializeByID(r.Context(), chi.URLParam(r, "segmentID"), asOf)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, materializeResponse{
		Segment:    seg,
		Statistics: segment.Summarize(seg, customers, h.activeWindow),
	})
}

func (h *handler) listCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.campaigns.ListCampaigns(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, campaigns)
}

func (h *handler) createCampaign(w http.ResponseWriter, r *http.Request) {
	var input campaign.CreateInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.campaigns.CreateCampaign(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *handler) getCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.GetCampaign(r.Context(), chi.URLParam(r, "campaignID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handler) launchCampaign(w http.ResponseWriter, r *http.Request) {
	var req launchRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	asOf, err := parseTime("as_of", req.AsOf)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.campaigns.LaunchCampaign(r.Context(), chi.URLParam(r, "campaignID"), asOf)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handler) cancelCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.CancelCampaign(r.Context(), chi.URLParam(r, "campaignID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handler) recordOutcome(w http.ResponseWriter, r *http.Request) {
	var req outcomeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	at, err := parseTime("timestamp", req.Timestamp)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	event, err := campaign.ParseEvent(req.Event)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.campaigns.RecordOutcome(r.Context(), chi.URLParam(r, "campaignID"), req.CustomerID, event, at); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) simulateEngagement(w http.ResponseWriter, r *http.Request) {
	if h.simulator == nil {
		h.writeError(w, r, invalidRequest("engagement simulation is only available with the simulated delivery strategy"))
		return
	}
	var req launchRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	at, err := parseTime("as_of", req.AsOf)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.simulator.Simulate(r.Context(), chi.URLParam(r, "campaignID"), at)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) summarize(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	granularity, err := analytics.ParseGranularity(query.Get("granularity"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	report, err := h.analytics.SummarizeByIDs(r.Context(), query["campaign_id"], granularity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
