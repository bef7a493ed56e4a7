// Package generator builds sample payloads from template schemas.
//
// A sample is a pure function of the template: every tag with a JSON key
// contributes one field, holding either its static content value, a
// format-dependent placeholder, or a nested object built from its subtags.
package generator

import (
	"fmt"

	"github.com/bcnelson/qr-template-studio/internal/domain"
	"github.com/bcnelson/qr-template-studio/internal/payload"
)

// Placeholders substituted when a node has no static content value.
const (
	PlaceholderNumeric      = "123456"
	PlaceholderAlphanumeric = "ABC123"
	PlaceholderDefault      = "Sample"
)

// Placeholder returns the sample value for a format code.
func Placeholder(f domain.Format) string {
	switch f {
	case domain.FormatNumeric:
		return PlaceholderNumeric
	case domain.FormatAlphanumeric:
		return PlaceholderAlphanumeric
	default:
		return PlaceholderDefault
	}
}

// Generate returns the sample payload for t. Tags and subtags without a JSON
// key are skipped. A subtag that appears inside its own subtree yields
// domain.ErrCyclicTemplate.
func Generate(t *domain.Template) (*payload.Object, error) {
	out := payload.NewObject()
	if t == nil {
		return out, nil
	}
	for _, tag := range t.Tags {
		if tag == nil || tag.JSONKey == "" {
			continue
		}
		v, err := nodeValue(tag.TagFields, tag.Subtags, map[*domain.Subtag]bool{})
		if err != nil {
			return nil, fmt.Errorf("tag %d (%s): %w", tag.TagID, tag.JSONKey, err)
		}
		out.Set(tag.JSONKey, v)
	}
	return out, nil
}

// GenerateText returns the sample payload indented with two spaces.
func GenerateText(t *domain.Template) (string, error) {
	obj, err := Generate(t)
	if err != nil {
		return "", err
	}
	return obj.IndentJSON(), nil
}

func nodeValue(fields domain.TagFields, children []*domain.Subtag, path map[*domain.Subtag]bool) (payload.Value, error) {
	if fields.HasChild && len(children) > 0 {
		obj, err := subtagObject(children, path)
		if err != nil {
			return payload.Value{}, err
		}
		return payload.Nested(obj), nil
	}
	if fields.ContentValue != "" {
		return payload.String(fields.ContentValue), nil
	}
	return payload.String(Placeholder(fields.Format)), nil
}

// subtagObject builds the nested object for one subtag sequence. path holds
// the subtags on the current branch.
func subtagObject(subtags []*domain.Subtag, path map[*domain.Subtag]bool) (*payload.Object, error) {
	obj := payload.NewObject()
	for _, sub := range subtags {
		if sub == nil {
			continue
		}
		if path[sub] {
			return nil, fmt.Errorf("%w: subtag %d is its own ancestor", domain.ErrCyclicTemplate, sub.SubTagSequence)
		}
		if sub.JSONKey == "" {
			continue
		}
		path[sub] = true
		v, err := nodeValue(sub.TagFields, sub.Subtags, path)
		delete(path, sub)
		if err != nil {
			return nil, err
		}
		obj.Set(sub.JSONKey, v)
	}
	return obj, nil
}
