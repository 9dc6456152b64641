package http

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-editorial/internal/content"
	"github.com/goliatone/go-editorial/internal/domain"
	"github.com/goliatone/go-editorial/internal/identity"
	"github.com/goliatone/go-editorial/internal/workflow"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

type createPayload struct {
	Title string     `json:"title"`
	Slug  string     `json:"slug,omitempty"`
	Kind  string     `json:"kind,omitempty"`
	Owner *uuid.UUID `json:"owner,omitempty"`
}

type transitionPayload struct {
	Action          string `json:"action"`
	ObservedVersion *int   `json:"observedVersion"`
	Comment         string `json:"comment,omitempty"`
}

type actionsResponse struct {
	ContentID uuid.UUID                   `json:"id"`
	State     domain.ContentState         `json:"state"`
	Version   int                         `json:"version"`
	Actions   []workflow.ActionDescriptor `json:"actions"`
}

type dashboardResponse struct {
	Counts map[domain.ContentState]int `json:"counts"`
	Total  int                         `json:"total"`
}

func (api *API) handleCreate(w http.ResponseWriter, r *http.Request, _ httprouter.Params, actor identity.Context) error {
	var payload createPayload
	if err := decodeJSON(r, &payload); err != nil {
		return err
	}
	req := workflow.CreateItemRequest{
		Title: payload.Title,
		Slug:  payload.Slug,
		Kind:  domain.ContentKind(strings.TrimSpace(payload.Kind)),
		Actor: actor,
	}
	if payload.Owner != nil {
		req.Owner = *payload.Owner
	}
	item, err := api.service.Create(r.Context(), req)
	if err != nil {
		return err
	}
	w.Header().Set("Location", r.URL.Path+"/"+item.ID.String())
	writeJSON(w, http.StatusCreated, item)
	return nil
}

func (api *API) handleList(w http.ResponseWriter, r *http.Request, _ httprouter.Params, _ identity.Context) error {
	query := r.URL.Query()
	opts := content.ListOptions{}
	if raw := strings.TrimSpace(query.Get("state")); raw != "" {
		state, ok := domain.ParseState(raw)
		if !ok {
			return badRequest("state is not recognised", nil).
				WithMetadata(map[string]any{"field": "state", "value": raw})
		}
		opts.State = state
	}
	if raw := strings.TrimSpace(query.Get("owner")); raw != "" {
		owner, err := parseUUID(raw, "owner")
		if err != nil {
			return err
		}
		opts.Owner = owner
	}
	var err error
	if opts.Limit, err = parseIntQuery(query.Get("limit"), "limit"); err != nil {
		return err
	}
	if opts.Offset, err = parseIntQuery(query.Get("offset"), "offset"); err != nil {
		return err
	}

	page, err := api.service.List(r.Context(), opts)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, page)
	return nil
}

func (api *API) handleGet(w http.ResponseWriter, r *http.Request, params httprouter.Params, _ identity.Context) error {
	id, err := parseUUID(params.ByName("id"), "id")
	if err != nil {
		return err
	}
	item, err := api.service.Get(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, item)
	return nil
}

func (api *API) handleTransition(w http.ResponseWriter, r *http.Request, params httprouter.Params, actor identity.Context) error {
	id, err := parseUUID(params.ByName("id"), "id")
	if err != nil {
		return err
	}
	var payload transitionPayload
	if err := decodeJSON(r, &payload); err != nil {
		return err
	}
	if payload.ObservedVersion == nil {
		verr := goerrors.NewValidation("invalid transition request", goerrors.FieldError{
			Field:   "observedVersion",
			Message: "observedVersion is required",
		})
		verr.Source = workflow.ErrValidationFailed
		return verr.WithTextCode(workflow.TextCodeValidationFailed)
	}

	action, ok := domain.ParseAction(payload.Action)
	if !ok {
		action = domain.Action(payload.Action)
	}
	result, err := api.service.RequestTransition(r.Context(), workflow.TransitionRequest{
		ContentID:       id,
		Action:          action,
		Actor:           actor,
		ObservedVersion: *payload.ObservedVersion,
		Comment:         payload.Comment,
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, result)
	return nil
}

func (api *API) handleHistory(w http.ResponseWriter, r *http.Request, params httprouter.Params, _ identity.Context) error {
	id, err := parseUUID(params.ByName("id"), "id")
	if err != nil {
		return err
	}
	entries, err := api.service.History(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, entries)
	return nil
}

func (api *API) handleActions(w http.ResponseWriter, r *http.Request, params httprouter.Params, actor identity.Context) error {
	id, err := parseUUID(params.ByName("id"), "id")
	if err != nil {
		return err
	}
	item, err := api.service.Get(r.Context(), id)
	if err != nil {
		return err
	}
	actions, err := api.service.AvailableActions(r.Context(), id, actor)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, actionsResponse{
		ContentID: item.ID,
		State:     item.State,
		Version:   item.Version,
		Actions:   actions,
	})
	return nil
}

func (api *API) handleDashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params, _ identity.Context) error {
	counts, err := api.service.CountByState(r.Context())
	if err != nil {
		return err
	}
	resp := dashboardResponse{Counts: make(map[domain.ContentState]int, len(domain.States()))}
	for _, state := range domain.States() {
		resp.Counts[state] = counts[state]
		resp.Total += counts[state]
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}
