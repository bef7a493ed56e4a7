package domain

import "time"

// Format selects the placeholder used for a tag without a static value.
type Format string

const (
	FormatString       Format = "S"
	FormatNumeric      Format = "N"
	FormatAlphanumeric Format = "A"
)

// TagFields holds the attributes shared by tags and subtags.
type TagFields struct {
	TemplateID   int64     `json:"templateId" db:"template_id"`
	JourneyID    string    `json:"journeyId" db:"journey_id"`
	MinLength    int       `json:"minLength" db:"min_length"` // Advisory only
	MaxLength    int       `json:"maxLength" db:"max_length"` // Advisory only
	ContentDesc  string    `json:"contentDesc" db:"content_desc"`
	JSONKey      string    `json:"jsonKey" db:"json_key"` // Property name in generated payloads
	ContentValue string    `json:"contentValue" db:"content_value"`
	Format       Format    `json:"format" db:"format"`
	Required     Flag      `json:"required" db:"required"`
	Usage        string    `json:"usage" db:"usage"`
	Valid        Flag      `json:"valid" db:"valid"`
	VerifyJSON   Flag      `json:"verifyJson" db:"verify_json"`
	HasChild     Flag      `json:"hasChild" db:"has_child"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Tag is a depth-1 node of a template.
type Tag struct {
	TagID     int    `json:"tagId" db:"tag_id"`
	TagGroup  string `json:"tagGroup" db:"tag_group"`
	IsStatic  Flag   `json:"isStatic" db:"is_static"`
	IsDynamic Flag   `json:"isDynamic" db:"is_dynamic"`
	TagFields
	Subtags []*Subtag `json:"subtags,omitempty" db:"-"`
}

// Clone returns a deep copy of the tag and its subtags.
func (t *Tag) Clone() *Tag {
	out := *t
	out.Subtags = cloneSubtags(t.Subtags)
	return &out
}

// FindSubtag searches the tag's subtree for the subtag with the given
// sequence.
func (t *Tag) FindSubtag(sequence int64) *Subtag {
	return findSubtag(t.Subtags, sequence)
}

// Subtag is a node at depth two or more. Parent links are plain ids used for
// lookup; ownership runs through the Subtags slices only.
type Subtag struct {
	SubTagSequence      int64  `json:"subTagSequence" db:"sub_tag_sequence"` // Process-unique
	SubTagID            int64  `json:"subTagId" db:"sub_tag_id"`
	ParentTemplateTagID int    `json:"parentTemplateTagId" db:"parent_template_tag_id"`
	ParentSubTagID      *int64 `json:"parentSubTagId" db:"parent_sub_tag_id"` // nil when the parent is the tag
	TagFields
	Subtags []*Subtag `json:"subtags,omitempty" db:"-"`
}

// Clone returns a deep copy of the subtag and its descendants.
func (s *Subtag) Clone() *Subtag {
	out := *s
	if s.ParentSubTagID != nil {
		parent := *s.ParentSubTagID
		out.ParentSubTagID = &parent
	}
	out.Subtags = cloneSubtags(s.Subtags)
	return &out
}

func cloneSubtags(in []*Subtag) []*Subtag {
	if in == nil {
		return nil
	}
	out := make([]*Subtag, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

func findSubtag(subtags []*Subtag, sequence int64) *Subtag {
	for _, s := range subtags {
		if s.SubTagSequence == sequence {
			return s
		}
		if found := findSubtag(s.Subtags, sequence); found != nil {
			return found
		}
	}
	return nil
}

// CreateTagRequest is the request body for adding a tag to a template.
type CreateTagRequest struct {
	TagID        int    `json:"tagId" validate:"gte=0"`
	TagGroup     string `json:"tagGroup" validate:"required,notblank"`
	ContentDesc  string `json:"contentDesc" validate:"required,notblank"`
	JSONKey      string `json:"jsonKey" validate:"required,notblank"`
	ContentValue string `json:"contentValue"`
	Format       Format `json:"format" validate:"omitempty,oneof=S N A"`
	MinLength    int    `json:"minLength" validate:"gte=0"`
	MaxLength    int    `json:"maxLength" validate:"omitempty,gte=0,gtefield=MinLength"`
	IsStatic     Flag   `json:"isStatic"`
	IsDynamic    Flag   `json:"isDynamic"`
	Required     Flag   `json:"required"`
	Usage        string `json:"usage"`
	Valid        *Flag  `json:"valid,omitempty"`
	VerifyJSON   Flag   `json:"verifyJson"`
	HasChild     Flag   `json:"hasChild"`
}

// CreateSubtagRequest is the request body for adding a subtag under a tag or
// another subtag.
type CreateSubtagRequest struct {
	SubTagID     int64  `json:"subTagId" validate:"gte=0"`
	ContentDesc  string `json:"contentDesc" validate:"required,notblank"`
	JSONKey      string `json:"jsonKey" validate:"required,notblank"`
	ContentValue string `json:"contentValue"`
	Format       Format `json:"format" validate:"omitempty,oneof=S N A"`
	MinLength    int    `json:"minLength" validate:"gte=0"`
	MaxLength    int    `json:"maxLength" validate:"omitempty,gte=0,gtefield=MinLength"`
	Required     Flag   `json:"required"`
	Usage        string `json:"usage"`
	Valid        *Flag  `json:"valid,omitempty"`
	VerifyJSON   Flag   `json:"verifyJson"`
	HasChild     Flag   `json:"hasChild"`
}
