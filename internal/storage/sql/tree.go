package sql

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/bcnelson/qr-template-studio/internal/domain"
)

var (
	templateColumns = []string{"id", "name", "journey_id", "version", "created_at", "updated_at"}

	fieldColumns = []string{
		"template_id", "journey_id", "min_length", "max_length", "content_desc", "json_key",
		"content_value", "format", "required", "usage", "valid", "verify_json", "has_child",
		"created_at", "updated_at",
	}

	tagColumns    = append([]string{"tag_id", "tag_group", "is_static", "is_dynamic"}, fieldColumns...)
	subtagColumns = append([]string{"sub_tag_sequence", "sub_tag_id", "parent_template_tag_id", "parent_sub_tag_id"}, fieldColumns...)
)

// loadTemplates reads the templates matching where (all when nil) together
// with their tag trees.
func loadTemplates(ctx context.Context, db dbInterface, where sq.Sqlizer) ([]*domain.Template, error) {
	builder := sq.Select(templateColumns...).From("templates").OrderBy("id").PlaceholderFormat(sq.Dollar)
	if where != nil {
		builder = builder.Where(where)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building template query: %w", err)
	}
	templates := []*domain.Template{}
	if err := db.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	if len(templates) == 0 {
		return templates, nil
	}

	ids := make([]int64, len(templates))
	for i, t := range templates {
		ids[i] = t.ID
	}

	query, args, err = sq.Select(tagColumns...).
		From("template_tags").
		Where(sq.Eq{"template_id": ids}).
		OrderBy("template_id", "position").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building tag query: %w", err)
	}
	var tags []*domain.Tag
	if err := db.SelectContext(ctx, &tags, query, args...); err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	query, args, err = sq.Select(subtagColumns...).
		From("template_subtags").
		Where(sq.Eq{"template_id": ids}).
		OrderBy("sub_tag_sequence").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building subtag query: %w", err)
	}
	var subtags []*domain.Subtag
	if err := db.SelectContext(ctx, &subtags, query, args...); err != nil {
		return nil, fmt.Errorf("listing subtags: %w", err)
	}

	if err := assemble(templates, tags, subtags); err != nil {
		return nil, err
	}
	return templates, nil
}

type tagKey struct {
	templateID int64
	tagID      int
}

// assemble links flat rows into trees. Rows are keyed by id and attached to
// their parent in sequence order, which is insertion order. Any subtag that
// is not reachable from a tag afterwards belongs to a cycle or references a
// missing parent.
func assemble(templates []*domain.Template, tags []*domain.Tag, subtags []*domain.Subtag) error {
	byID := make(map[int64]*domain.Template, len(templates))
	for _, t := range templates {
		t.Tags = []*domain.Tag{}
		byID[t.ID] = t
	}

	byKey := make(map[tagKey]*domain.Tag, len(tags))
	for _, tag := range tags {
		t, ok := byID[tag.TemplateID]
		if !ok {
			continue
		}
		t.Tags = append(t.Tags, tag)
		byKey[tagKey{tag.TemplateID, tag.TagID}] = tag
	}

	bySeq := make(map[int64]*domain.Subtag, len(subtags))
	for _, sub := range subtags {
		bySeq[sub.SubTagSequence] = sub
	}

	for _, sub := range subtags {
		if sub.ParentSubTagID == nil {
			if tag, ok := byKey[tagKey{sub.TemplateID, sub.ParentTemplateTagID}]; ok {
				tag.Subtags = append(tag.Subtags, sub)
			}
			continue
		}
		if parent, ok := bySeq[*sub.ParentSubTagID]; ok && parent.TemplateID == sub.TemplateID && parent != sub {
			parent.Subtags = append(parent.Subtags, sub)
		}
	}

	reached := 0
	var stack []*domain.Subtag
	for _, tag := range tags {
		stack = append(stack, tag.Subtags...)
	}
	for len(stack) > 0 {
		sub := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reached++
		stack = append(stack, sub.Subtags...)
	}
	if reached != len(subtags) {
		return fmt.Errorf("%w: %d of %d subtags are not reachable from a tag", domain.ErrCyclicTemplate, len(subtags)-reached, len(subtags))
	}
	return nil
}
