package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bcnelson/qr-template-studio/internal/domain"
	"github.com/bcnelson/qr-template-studio/internal/storage"
)

var _ storage.Storage = (*Store)(nil)

// Store is an in-memory implementation of the storage interface.
type Store struct {
	mu sync.RWMutex

	templates      map[int64]*domain.Template
	nextTemplateID int64
	nextSequence   int64 // last issued subTagSequence

	now func() time.Time
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		templates: make(map[int64]*domain.Template),
		now:       time.Now,
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) ListJourneyTypes(ctx context.Context) ([]domain.JourneyType, error) {
	return domain.JourneyTypes(), nil
}

// ============================================
// Templates
// ============================================

func (s *Store) ListTemplates(ctx context.Context) ([]*domain.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	templates := make([]*domain.Template, 0, len(s.templates))
	for _, t := range s.templates {
		templates = append(templates, t.Clone())
	}
	sort.Slice(templates, func(i, j int) bool {
		return templates[i].ID < templates[j].ID
	})
	return templates, nil
}

func (s *Store) GetTemplate(ctx context.Context, id int64) (*domain.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, exists := s.templates[id]
	if !exists {
		return nil, fmt.Errorf("template %d: %w", id, domain.ErrNotFound)
	}
	return t.Clone(), nil
}

func (s *Store) CreateTemplate(ctx context.Context, t *domain.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTemplateID++
	now := s.now()
	t.ID = s.nextTemplateID
	t.Version = 1
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Tags == nil {
		t.Tags = []*domain.Tag{}
	}
	s.templates[t.ID] = t.Clone()
	return nil
}

func (s *Store) UpdateTemplate(ctx context.Context, t *domain.Template, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, err := s.lockedTemplate(t.ID, expectedVersion)
	if err != nil {
		return err
	}
	stored.Name = t.Name
	if stored.JourneyID != t.JourneyID {
		stored.JourneyID = t.JourneyID
		for _, tag := range stored.Tags {
			tag.JourneyID = t.JourneyID
			setSubtagJourney(tag.Subtags, t.JourneyID)
		}
	}
	s.touch(stored)
	*t = *stored.Clone()
	return nil
}

func setSubtagJourney(subtags []*domain.Subtag, journeyID string) {
	for _, sub := range subtags {
		sub.JourneyID = journeyID
		setSubtagJourney(sub.Subtags, journeyID)
	}
}

func (s *Store) DeleteTemplate(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.templates[id]; !exists {
		return fmt.Errorf("template %d: %w", id, domain.ErrNotFound)
	}
	delete(s.templates, id)
	return nil
}

// ============================================
// Tags
// ============================================

func (s *Store) AddTag(ctx context.Context, templateID int64, expectedVersion int, tag *domain.Tag) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.lockedTemplate(templateID, expectedVersion)
	if err != nil {
		return 0, err
	}

	if tag.TagID == 0 {
		for _, existing := range t.Tags {
			if existing.TagID > tag.TagID {
				tag.TagID = existing.TagID
			}
		}
		tag.TagID++
	} else if t.FindTag(tag.TagID) != nil {
		return 0, fmt.Errorf("tag %d in template %d: %w", tag.TagID, templateID, domain.ErrAlreadyExists)
	}

	now := s.now()
	tag.TemplateID = templateID
	tag.JourneyID = t.JourneyID
	tag.CreatedAt = now
	tag.UpdatedAt = now
	tag.Subtags = nil
	t.Tags = append(t.Tags, tag.Clone())
	s.touch(t)
	return t.Version, nil
}

func (s *Store) AddSubtag(ctx context.Context, templateID int64, parentTagID int, parentSequence *int64, expectedVersion int, sub *domain.Subtag) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.lockedTemplate(templateID, expectedVersion)
	if err != nil {
		return 0, err
	}

	parentTag := t.FindTag(parentTagID)
	if parentTag == nil {
		return 0, fmt.Errorf("parent tag %d: %w", parentTagID, domain.ErrNotFound)
	}

	var parentSub *domain.Subtag
	if parentSequence != nil {
		parentSub = parentTag.FindSubtag(*parentSequence)
		if parentSub == nil {
			return 0, fmt.Errorf("parent subtag %d: %w", *parentSequence, domain.ErrNotFound)
		}
	}

	now := s.now()
	s.nextSequence++
	sub.SubTagSequence = s.nextSequence
	if sub.SubTagID == 0 {
		sub.SubTagID = sub.SubTagSequence
	}
	sub.TemplateID = templateID
	sub.JourneyID = t.JourneyID
	sub.ParentTemplateTagID = parentTagID
	sub.ParentSubTagID = nil
	sub.CreatedAt = now
	sub.UpdatedAt = now
	sub.Subtags = nil

	if parentSub == nil {
		parentTag.Subtags = append(parentTag.Subtags, sub.Clone())
		parentTag.HasChild = true
		parentTag.UpdatedAt = now
	} else {
		seq := parentSub.SubTagSequence
		sub.ParentSubTagID = &seq
		parentSub.Subtags = append(parentSub.Subtags, sub.Clone())
		parentSub.HasChild = true
		parentSub.UpdatedAt = now
	}
	s.touch(t)
	return t.Version, nil
}

// lockedTemplate returns the stored template after checking expectedVersion.
// Callers must hold s.mu.
func (s *Store) lockedTemplate(id int64, expectedVersion int) (*domain.Template, error) {
	t, exists := s.templates[id]
	if !exists {
		return nil, fmt.Errorf("template %d: %w", id, domain.ErrNotFound)
	}
	if expectedVersion != 0 && expectedVersion != t.Version {
		return nil, fmt.Errorf("template %d is at version %d, not %d: %w", id, t.Version, expectedVersion, domain.ErrPreconditionFailed)
	}
	return t, nil
}

func (s *Store) touch(t *domain.Template) {
	t.Version++
	t.UpdatedAt = s.now()
}
