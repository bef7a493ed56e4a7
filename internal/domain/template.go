package domain

import "time"

// Template is a named payload schema: an ordered list of tags, each of which
// may own a tree of subtags.
type Template struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	JourneyID string    `json:"journeyId" db:"journey_id"`
	Tags      []*Tag    `json:"tags" db:"-"`
	Version   int       `json:"version" db:"version"` // Incremented on every mutation
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// FindTag returns the tag with the given tag id, or nil.
func (t *Template) FindTag(tagID int) *Tag {
	for _, tag := range t.Tags {
		if tag.TagID == tagID {
			return tag
		}
	}
	return nil
}

// Clone returns a deep copy of the template. The template must be acyclic.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	out := *t
	out.Tags = make([]*Tag, len(t.Tags))
	for i, tag := range t.Tags {
		out.Tags[i] = tag.Clone()
	}
	return &out
}

// CreateTemplateRequest is the request body for creating a template.
type CreateTemplateRequest struct {
	Name      string `json:"name" validate:"required,notblank"`
	JourneyID string `json:"journeyId" validate:"required,journey"`
}

// UpdateTemplateRequest is the request body for updating template metadata.
type UpdateTemplateRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,notblank"`
	JourneyID *string `json:"journeyId,omitempty" validate:"omitempty,journey"`
}
