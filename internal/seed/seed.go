// Package seed loads initial templates from YAML or JSON documents.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/bcnelson/qr-template-studio/internal/domain"
	"github.com/bcnelson/qr-template-studio/internal/validation"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultSeed []byte

// File is the seed document layout.
type File struct {
	Templates []Template `json:"templates"`
}

// Template is one seeded template.
type Template struct {
	Name      string `json:"name"`
	JourneyID string `json:"journeyId"`
	Tags      []Tag  `json:"tags"`
}

// Tag is a seeded tag with its subtag tree.
type Tag struct {
	domain.CreateTagRequest
	Subtags []Subtag `json:"subtags"`
}

// Subtag is a seeded subtag with its children.
type Subtag struct {
	domain.CreateSubtagRequest
	Subtags []Subtag `json:"subtags"`
}

// Templates is the write side of the template service used to apply seeds.
type Templates interface {
	ListTemplates(ctx context.Context) ([]*domain.Template, error)
	CreateTemplate(ctx context.Context, req *domain.CreateTemplateRequest) (*domain.Template, error)
	AddTag(ctx context.Context, templateID int64, expectedVersion int, req *domain.CreateTagRequest) (*domain.Tag, int, error)
	AddSubtag(ctx context.Context, templateID int64, parentTagID int, parentSequence *int64, expectedVersion int, req *domain.CreateSubtagRequest) (*domain.Subtag, int, error)
}

// Parse decodes a seed document. JSON is accepted as a subset of YAML.
//
// The document passes through YAML into JSON so that the domain flag
// decoding ("0"/"1", booleans, numbers) applies to both formats.
func Parse(data []byte) (*File, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parsing seed: %v", domain.ErrInvalidInput, err)
	}
	if raw == nil {
		return &File{}, nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: seed is not representable as JSON: %v", domain.ErrInvalidInput, err)
	}
	var f File
	if err := json.Unmarshal(encoded, &f); err != nil {
		return nil, fmt.Errorf("%w: decoding seed: %v", domain.ErrInvalidInput, err)
	}
	for i, t := range f.Templates {
		if err := validation.ValidateJourney(t.JourneyID); err != nil {
			return nil, fmt.Errorf("seed template %d (%q): %w", i+1, t.Name, err)
		}
	}
	return &f, nil
}

// Load reads and parses a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in seed: the "Basic Payment QR" template.
func Default() *File {
	f, err := Parse(defaultSeed)
	if err != nil {
		panic(fmt.Sprintf("built-in seed is invalid: %v", err))
	}
	return f
}

// Apply creates the seeded templates when the store holds none. It reports
// how many templates were created.
func Apply(ctx context.Context, svc Templates, f *File, logger logrus.FieldLogger) (int, error) {
	existing, err := svc.ListTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing templates: %w", err)
	}
	if len(existing) > 0 {
		logger.WithField("templates", len(existing)).Info("Store already populated, skipping seed")
		return 0, nil
	}

	for i := range f.Templates {
		st := &f.Templates[i]
		t, err := svc.CreateTemplate(ctx, &domain.CreateTemplateRequest{Name: st.Name, JourneyID: st.JourneyID})
		if err != nil {
			return i, fmt.Errorf("seeding template %q: %w", st.Name, err)
		}
		for j := range st.Tags {
			if err := addTag(ctx, svc, t.ID, &st.Tags[j]); err != nil {
				return i, fmt.Errorf("seeding template %q: %w", st.Name, err)
			}
		}
		logger.WithFields(logrus.Fields{
			"template_id": t.ID,
			"name":        t.Name,
			"tags":        len(st.Tags),
		}).Info("Seeded template")
	}
	return len(f.Templates), nil
}

func addTag(ctx context.Context, svc Templates, templateID int64, st *Tag) error {
	tag, _, err := svc.AddTag(ctx, templateID, 0, &st.CreateTagRequest)
	if err != nil {
		return fmt.Errorf("tag %q: %w", st.JSONKey, err)
	}
	return addSubtags(ctx, svc, templateID, tag.TagID, nil, st.Subtags)
}

func addSubtags(ctx context.Context, svc Templates, templateID int64, tagID int, parent *int64, subtags []Subtag) error {
	for i := range subtags {
		ss := &subtags[i]
		sub, _, err := svc.AddSubtag(ctx, templateID, tagID, parent, 0, &ss.CreateSubtagRequest)
		if err != nil {
			return fmt.Errorf("subtag %q: %w", ss.JSONKey, err)
		}
		seq := sub.SubTagSequence
		if err := addSubtags(ctx, svc, templateID, tagID, &seq, ss.Subtags); err != nil {
			return err
		}
	}
	return nil
}
