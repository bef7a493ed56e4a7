package storage

import (
	"context"

	"github.com/bcnelson/qr-template-studio/internal/domain"
)

// Storage defines the interface for the template store.
// Implementations must be safe for concurrent use.
//
// Templates returned by the read methods are deep copies; callers may treat
// them as immutable snapshots. Mutating methods take an expectedVersion: when
// it is non-zero and differs from the stored template version the call fails
// with domain.ErrPreconditionFailed. Every successful mutation increments the
// template version.
type Storage interface {
	// Close closes the storage connection.
	Close() error

	// Journey types
	ListJourneyTypes(ctx context.Context) ([]domain.JourneyType, error)

	// Templates
	ListTemplates(ctx context.Context) ([]*domain.Template, error)
	GetTemplate(ctx context.Context, id int64) (*domain.Template, error)
	// CreateTemplate assigns ID, Version and timestamps on t.
	CreateTemplate(ctx context.Context, t *domain.Template) error
	// UpdateTemplate replaces name and journey of the template with t.ID.
	// Tags are left untouched apart from their journey id.
	UpdateTemplate(ctx context.Context, t *domain.Template, expectedVersion int) error
	DeleteTemplate(ctx context.Context, id int64) error

	// Tags and subtags. A zero tag.TagID is replaced with the next free id;
	// a non-zero id already used in the template yields
	// domain.ErrAlreadyExists. AddSubtag attaches to the tag when
	// parentSequence is nil and to the subtag with that sequence otherwise,
	// and sets hasChild on the parent. Both return the template version
	// their write produced.
	AddTag(ctx context.Context, templateID int64, expectedVersion int, tag *domain.Tag) (int, error)
	AddSubtag(ctx context.Context, templateID int64, parentTagID int, parentSequence *int64, expectedVersion int, sub *domain.Subtag) (int, error)
}
