package service

import (
	"context"
	"fmt"

	"github.com/bcnelson/qr-template-studio/internal/domain"
	"github.com/bcnelson/qr-template-studio/internal/generator"
	"github.com/bcnelson/qr-template-studio/internal/payload"
	"github.com/bcnelson/qr-template-studio/internal/storage"
	"github.com/bcnelson/qr-template-studio/internal/tlv"
	"github.com/bcnelson/qr-template-studio/internal/validation"
	"github.com/sirupsen/logrus"
)

// Sample is a generated sample payload and its indented JSON text.
type Sample struct {
	Payload *payload.Object `json:"payload"`
	JSON    string          `json:"json"`
}

// TemplateService validates author requests, applies them to the store and
// derives sample payloads and TLV views from stored templates.
type TemplateService struct {
	store  storage.Storage
	logger logrus.FieldLogger
}

// NewTemplateService creates a new TemplateService.
func NewTemplateService(store storage.Storage, logger logrus.FieldLogger) *TemplateService {
	return &TemplateService{store: store, logger: logger}
}

// ListJourneyTypes returns the journey types templates may belong to.
func (s *TemplateService) ListJourneyTypes(ctx context.Context) ([]domain.JourneyType, error) {
	return s.store.ListJourneyTypes(ctx)
}

// ListTemplates returns every template with its tag tree.
func (s *TemplateService) ListTemplates(ctx context.Context) ([]*domain.Template, error) {
	return s.store.ListTemplates(ctx)
}

// GetTemplate returns one template.
func (s *TemplateService) GetTemplate(ctx context.Context, id int64) (*domain.Template, error) {
	return s.store.GetTemplate(ctx, id)
}

// CreateTemplate creates an empty template.
func (s *TemplateService) CreateTemplate(ctx context.Context, req *domain.CreateTemplateRequest) (*domain.Template, error) {
	if err := validation.ValidateCreateTemplate(req); err != nil {
		return nil, err
	}
	t := &domain.Template{Name: req.Name, JourneyID: req.JourneyID}
	if err := s.store.CreateTemplate(ctx, t); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"template_id": t.ID, "journey": t.JourneyID}).Info("Template created")
	return t, nil
}

// UpdateTemplate changes a template's name or journey.
func (s *TemplateService) UpdateTemplate(ctx context.Context, id int64, expectedVersion int, req *domain.UpdateTemplateRequest) (*domain.Template, error) {
	if err := validation.ValidateUpdateTemplate(req); err != nil {
		return nil, err
	}
	current, err := s.store.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.JourneyID != nil {
		current.JourneyID = *req.JourneyID
	}
	if err := s.store.UpdateTemplate(ctx, current, expectedVersion); err != nil {
		return nil, err
	}
	return current, nil
}

// DeleteTemplate removes a template and its tags.
func (s *TemplateService) DeleteTemplate(ctx context.Context, id int64) error {
	if err := s.store.DeleteTemplate(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("template_id", id).Info("Template deleted")
	return nil
}

// AddTag appends a tag to a template and returns it with the template
// version the write produced.
func (s *TemplateService) AddTag(ctx context.Context, templateID int64, expectedVersion int, req *domain.CreateTagRequest) (*domain.Tag, int, error) {
	if err := validation.ValidateCreateTag(req); err != nil {
		return nil, 0, err
	}
	tag := &domain.Tag{
		TagID:     req.TagID,
		TagGroup:  req.TagGroup,
		IsStatic:  req.IsStatic,
		IsDynamic: req.IsDynamic,
		TagFields: fieldsFromRequest(req.ContentDesc, req.JSONKey, req.ContentValue, req.Format,
			req.MinLength, req.MaxLength, req.Required, req.Usage, req.Valid, req.VerifyJSON, req.HasChild),
	}
	version, err := s.store.AddTag(ctx, templateID, expectedVersion, tag)
	if err != nil {
		return nil, 0, err
	}
	return tag, version, nil
}

// AddSubtag attaches a subtag to a tag, or to the subtag with
// parentSequence when it is non-nil.
func (s *TemplateService) AddSubtag(ctx context.Context, templateID int64, parentTagID int, parentSequence *int64, expectedVersion int, req *domain.CreateSubtagRequest) (*domain.Subtag, int, error) {
	if err := validation.ValidateCreateSubtag(req); err != nil {
		return nil, 0, err
	}
	sub := &domain.Subtag{
		SubTagID: req.SubTagID,
		TagFields: fieldsFromRequest(req.ContentDesc, req.JSONKey, req.ContentValue, req.Format,
			req.MinLength, req.MaxLength, req.Required, req.Usage, req.Valid, req.VerifyJSON, req.HasChild),
	}
	version, err := s.store.AddSubtag(ctx, templateID, parentTagID, parentSequence, expectedVersion, sub)
	if err != nil {
		return nil, 0, err
	}
	return sub, version, nil
}

func fieldsFromRequest(desc, key, value string, format domain.Format, minLen, maxLen int,
	required domain.Flag, usage string, valid *domain.Flag, verifyJSON, hasChild domain.Flag) domain.TagFields {
	if format == "" {
		format = domain.FormatString
	}
	isValid := domain.Flag(true)
	if valid != nil {
		isValid = *valid
	}
	return domain.TagFields{
		MinLength:    minLen,
		MaxLength:    maxLen,
		ContentDesc:  desc,
		JSONKey:      key,
		ContentValue: value,
		Format:       format,
		Required:     required,
		Usage:        usage,
		Valid:        isValid,
		VerifyJSON:   verifyJSON,
		HasChild:     hasChild,
	}
}

// Sample generates the sample payload of a template.
func (s *TemplateService) Sample(ctx context.Context, id int64) (*Sample, error) {
	t, err := s.store.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	obj, err := generator.Generate(t)
	if err != nil {
		return nil, fmt.Errorf("template %d: %w", id, err)
	}
	return &Sample{Payload: obj, JSON: obj.IndentJSON()}, nil
}

// TemplateTLV returns the TLV view of a template's sample payload.
func (s *TemplateService) TemplateTLV(ctx context.Context, id int64) ([]tlv.Node, error) {
	sample, err := s.Sample(ctx, id)
	if err != nil {
		return nil, err
	}
	return tlv.Build(sample.Payload), nil
}

// ParseTLV structures a raw payload string. It never fails: unstructured
// input yields the fallback example tree.
func (s *TemplateService) ParseTLV(raw string) tlv.Result {
	res := tlv.Parse(raw)
	if res.Fallback {
		s.logger.WithField("length", len(raw)).Debug("Payload is not JSON, showing example TLV tree")
	}
	return res
}
