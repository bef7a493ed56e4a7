package handler

import (
	"net/http"

	"github.com/bcnelson/qr-template-studio/internal/domain"
	"github.com/bcnelson/qr-template-studio/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// TemplateHandler handles template, tag and subtag endpoints.
type TemplateHandler struct {
	svc    *service.TemplateService
	logger logrus.FieldLogger
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(svc *service.TemplateService, logger logrus.FieldLogger) *TemplateHandler {
	return &TemplateHandler{svc: svc, logger: logger}
}

// ListJourneys lists the journey types.
func (h *TemplateHandler) ListJourneys(w http.ResponseWriter, r *http.Request) {
	journeys, err := h.svc.ListJourneyTypes(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, journeys)
}

// List lists all templates.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.svc.ListTemplates(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, templates)
}

// Create creates a new template.
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	t, err := h.svc.CreateTemplate(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	SetTemplateETag(w, t)
	respondJSON(w, http.StatusCreated, t)
}

// Get gets a template by id.
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	t, err := h.svc.GetTemplate(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	SetTemplateETag(w, t)
	respondJSON(w, http.StatusOK, t)
}

// Update changes a template's name or journey.
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	version, err := expectedVersion(r, id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var req domain.UpdateTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	t, err := h.svc.UpdateTemplate(r.Context(), id, version, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	SetTemplateETag(w, t)
	respondJSON(w, http.StatusOK, t)
}

// Delete deletes a template.
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	if err := h.svc.DeleteTemplate(r.Context(), id); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddTag appends a tag to a template.
func (h *TemplateHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	version, err := expectedVersion(r, id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var req domain.CreateTagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	tag, newVersion, err := h.svc.AddTag(r.Context(), id, version, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	setVersionETag(w, id, newVersion)
	respondJSON(w, http.StatusCreated, tag)
}

// AddSubtag attaches a subtag to a tag, or to a subtag when the route
// carries a parent sequence.
func (h *TemplateHandler) AddSubtag(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	tagID, err := int64Param(r, "tagId")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	var parent *int64
	if chi.URLParam(r, "sequence") != "" {
		seq, err := int64Param(r, "sequence")
		if err != nil {
			handleError(w, h.logger, err)
			return
		}
		parent = &seq
	}
	version, err := expectedVersion(r, id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var req domain.CreateSubtagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	sub, newVersion, err := h.svc.AddSubtag(r.Context(), id, int(tagID), parent, version, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	setVersionETag(w, id, newVersion)
	respondJSON(w, http.StatusCreated, sub)
}

// Sample returns the generated sample payload of a template.
func (h *TemplateHandler) Sample(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	sample, err := h.svc.Sample(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, sample)
}

// TLV returns the TLV tree of a template's sample payload.
func (h *TemplateHandler) TLV(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	nodes, err := h.svc.TemplateTLV(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
}
