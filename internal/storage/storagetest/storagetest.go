// Package storagetest holds the behaviour tests every storage.Storage
// implementation must pass.
package storagetest

import (
	"context"
	"sync"
	"testing"

	"github.com/bcnelson/qr-template-studio/internal/domain"
	"github.com/bcnelson/qr-template-studio/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run executes the suite. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Storage) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Storage)
	}{
		{"JourneyTypes", testJourneyTypes},
		{"TemplateLifecycle", testTemplateLifecycle},
		{"UnknownTemplate", testUnknownTemplate},
		{"TagIDs", testTagIDs},
		{"SubtagTree", testSubtagTree},
		{"SubtagParentsNotFound", testSubtagParentsNotFound},
		{"VersionChecks", testVersionChecks},
		{"JourneyPropagates", testJourneyPropagates},
		{"SnapshotsAreIsolated", testSnapshotsAreIsolated},
		{"ConcurrentSubtags", testConcurrentSubtags},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func newTemplate(t *testing.T, s storage.Storage, name string) *domain.Template {
	t.Helper()
	tmpl := &domain.Template{Name: name, JourneyID: domain.JourneyPayment}
	require.NoError(t, s.CreateTemplate(context.Background(), tmpl))
	return tmpl
}

// errOf drops the version returned by AddTag and AddSubtag.
func errOf(_ int, err error) error {
	return err
}

func newTag(key string) *domain.Tag {
	return &domain.Tag{
		TagGroup: "Group",
		TagFields: domain.TagFields{
			ContentDesc: "desc " + key,
			JSONKey:     key,
			Format:      domain.FormatString,
			Valid:       true,
		},
	}
}

func newSubtag(key, value string) *domain.Subtag {
	return &domain.Subtag{
		TagFields: domain.TagFields{
			ContentDesc:  "desc " + key,
			JSONKey:      key,
			ContentValue: value,
			Format:       domain.FormatNumeric,
		},
	}
}

func testJourneyTypes(t *testing.T, s storage.Storage) {
	journeys, err := s.ListJourneyTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.JourneyTypes(), journeys)
}

func testTemplateLifecycle(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	first := newTemplate(t, s, "First")
	second := newTemplate(t, s, "Second")
	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)
	assert.Equal(t, 1, first.Version)
	assert.False(t, first.CreatedAt.IsZero())

	list, err := s.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "First", list[0].Name)
	assert.Equal(t, "Second", list[1].Name)
	assert.NotNil(t, list[0].Tags)

	update := &domain.Template{ID: first.ID, Name: "Renamed", JourneyID: domain.JourneyTicket}
	require.NoError(t, s.UpdateTemplate(ctx, update, 0))
	assert.Equal(t, 2, update.Version)

	got, err := s.GetTemplate(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, domain.JourneyTicket, got.JourneyID)
	assert.Equal(t, 2, got.Version)

	require.NoError(t, s.DeleteTemplate(ctx, first.ID))
	_, err = s.GetTemplate(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	third := newTemplate(t, s, "Third")
	assert.Greater(t, third.ID, second.ID, "template ids are never reused")
}

func testUnknownTemplate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	_, err := s.GetTemplate(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTemplate(ctx, 999), domain.ErrNotFound)
	assert.ErrorIs(t, s.UpdateTemplate(ctx, &domain.Template{ID: 999, Name: "x", JourneyID: domain.JourneyPayment}, 0), domain.ErrNotFound)
	assert.ErrorIs(t, errOf(s.AddTag(ctx, 999, 0, newTag("a"))), domain.ErrNotFound)
	assert.ErrorIs(t, errOf(s.AddSubtag(ctx, 999, 1, nil, 0, newSubtag("a", ""))), domain.ErrNotFound)
}

func testTagIDs(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	tmpl := newTemplate(t, s, "Tags")

	first := newTag("first")
	require.NoError(t, errOf(s.AddTag(ctx, tmpl.ID, 0, first)))
	assert.Equal(t, 1, first.TagID)
	assert.Equal(t, tmpl.ID, first.TemplateID)
	assert.Equal(t, domain.JourneyPayment, first.JourneyID)

	explicit := newTag("explicit")
	explicit.TagID = 26
	require.NoError(t, errOf(s.AddTag(ctx, tmpl.ID, 0, explicit)))
	assert.Equal(t, 26, explicit.TagID)

	next := newTag("next")
	require.NoError(t, errOf(s.AddTag(ctx, tmpl.ID, 0, next)))
	assert.Equal(t, 27, next.TagID)

	dup := newTag("dup")
	dup.TagID = 26
	assert.ErrorIs(t, errOf(s.AddTag(ctx, tmpl.ID, 0, dup)), domain.ErrAlreadyExists)

	got, err := s.GetTemplate(ctx, tmpl.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 3)
	keys := []string{got.Tags[0].JSONKey, got.Tags[1].JSONKey, got.Tags[2].JSONKey}
	assert.Equal(t, []string{"first", "explicit", "next"}, keys)
	assert.Equal(t, domain.Flag(true), got.Tags[0].Valid)
	assert.Equal(t, "Group", got.Tags[0].TagGroup)
	assert.Equal(t, 4, got.Version)
}

func testSubtagTree(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	tmpl := newTemplate(t, s, "Tree")
	tag := newTag("header")
	require.NoError(t, errOf(s.AddTag(ctx, tmpl.ID, 0, tag)))

	version := newSubtag("version", "01")
	require.NoError(t, errOf(s.AddSubtag(ctx, tmpl.ID, tag.TagID, nil, 0, version)))
	assert.NotZero(t, version.SubTagSequence)
	assert.Equal(t, version.SubTagSequence, version.SubTagID, "subTagId defaults to the sequence")
	assert.Nil(t, version.ParentSubTagID)
	assert.Equal(t, tag.TagID, version.ParentTemplateTagID)

	merchant := newSubtag("merchant", "")
	merchant.SubTagID = 7
	require.NoError(t, errOf(s.AddSubtag(ctx, tmpl.ID, tag.TagID, nil, 0, merchant)))
	assert.EqualValues(t, 7, merchant.SubTagID)
	assert.Greater(t, merchant.SubTagSequence, version.SubTagSequence)

	city := newSubtag("city", "Jakarta")
	require.NoError(t, errOf(s.AddSubtag(ctx, tmpl.ID, tag.TagID, &merchant.SubTagSequence, 0, city)))
	require.NotNil(t, city.ParentSubTagID)
	assert.Equal(t, merchant.SubTagSequence, *city.ParentSubTagID)

	postal := newSubtag("postal", "")
	require.NoError(t, errOf(s.AddSubtag(ctx, tmpl.ID, tag.TagID, &merchant.SubTagSequence, 0, postal)))
	street := newSubtag("street", "")
	require.NoError(t, errOf(s.AddSubtag(ctx, tmpl.ID, tag.TagID, &city.SubTagSequence, 0, street)))

	got, err := s.GetTemplate(ctx, tmpl.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	header := got.Tags[0]
	assert.Equal(t, domain.Flag(true), header.HasChild)
	require.Len(t, header.Subtags, 2)
	assert.Equal(t, "version", header.Subtags[0].JSONKey)
	assert.Equal(t, domain.Flag(false), header.Subtags[0].HasChild)

	m := header.Subtags[1]
	assert.Equal(t, "merchant", m.JSONKey)
	assert.Equal(t, domain.Flag(true), m.HasChild)
	require.Len(t, m.Subtags, 2)
	assert.Equal(t, "city", m.Subtags[0].JSONKey)
	assert.Equal(t, "postal", m.Subtags[1].JSONKey)
	require.Len(t, m.Subtags[0].Subtags, 1)
	assert.Equal(t, "street", m.Subtags[0].Subtags[0].JSONKey)
	assert.Equal(t, domain.Flag(true), m.Subtags[0].HasChild)

	assert.Same(t, got.Tags[0].FindSubtag(street.SubTagSequence), m.Subtags[0].Subtags[0])
	assert.Equal(t, 7, got.Version)
}

func testSubtagParentsNotFound(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	tmpl := newTemplate(t, s, "Parents")
	tag := newTag("a")
	require.NoError(t, errOf(s.AddTag(ctx, tmpl.ID, 0, tag)))

	_, err := s.AddSubtag(ctx, tmpl.ID, 42, nil, 0, newSubtag("x", ""))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "parent tag")

	missing := int64(999999)
	_, err = s.AddSubtag(ctx, tmpl.ID, tag.TagID, &missing, 0, newSubtag("x", ""))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "parent subtag")

	// A subtag of another tag is not a valid parent.
	other := newTag("b")
	require.NoError(t, errOf(s.AddTag(ctx, tmpl.ID, 0, other)))
	child := newSubtag("child", "")
	require.NoError(t, errOf(s.AddSubtag(ctx, tmpl.ID, other.TagID, nil, 0, child)))
	_, err = s.AddSubtag(ctx, tmpl.ID, tag.TagID, &child.SubTagSequence, 0, newSubtag("x", ""))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := s.GetTemplate(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Flag(false), got.Tags[0].HasChild)
	assert.Empty(t, got.Tags[0].Subtags)
}

func testVersionChecks(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	tmpl := newTemplate(t, s, "Versions")

	tag := newTag("a")
	version, err := s.AddTag(ctx, tmpl.ID, 1, tag)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	stale := newTag("b")
	assert.ErrorIs(t, errOf(s.AddTag(ctx, tmpl.ID, 1, stale)), domain.ErrPreconditionFailed)
	assert.ErrorIs(t, errOf(s.AddSubtag(ctx, tmpl.ID, tag.TagID, nil, 1, newSubtag("x", ""))), domain.ErrPreconditionFailed)
	assert.ErrorIs(t, s.UpdateTemplate(ctx, &domain.Template{ID: tmpl.ID, Name: "x", JourneyID: domain.JourneyPayment}, 1), domain.ErrPreconditionFailed)

	version, err = s.AddSubtag(ctx, tmpl.ID, tag.TagID, nil, 2, newSubtag("x", ""))
	require.NoError(t, err)
	assert.Equal(t, 3, version)
	got, err := s.GetTemplate(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Version)
	assert.Len(t, got.Tags, 1)
}

func testJourneyPropagates(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	tmpl := newTemplate(t, s, "Journey")
	tag := newTag("a")
	require.NoError(t, errOf(s.AddTag(ctx, tmpl.ID, 0, tag)))
	require.NoError(t, errOf(s.AddSubtag(ctx, tmpl.ID, tag.TagID, nil, 0, newSubtag("x", ""))))

	require.NoError(t, s.UpdateTemplate(ctx, &domain.Template{ID: tmpl.ID, Name: "Journey", JourneyID: domain.JourneyIdentity}, 0))

	got, err := s.GetTemplate(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JourneyIdentity, got.Tags[0].JourneyID)
	assert.Equal(t, domain.JourneyIdentity, got.Tags[0].Subtags[0].JourneyID)
}

func testSnapshotsAreIsolated(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	tmpl := newTemplate(t, s, "Snapshot")
	tag := newTag("a")
	require.NoError(t, errOf(s.AddTag(ctx, tmpl.ID, 0, tag)))

	snapshot, err := s.GetTemplate(ctx, tmpl.ID)
	require.NoError(t, err)
	snapshot.Name = "mutated"
	snapshot.Tags[0].JSONKey = "mutated"
	tag.JSONKey = "mutated"

	got, err := s.GetTemplate(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Snapshot", got.Name)
	assert.Equal(t, "a", got.Tags[0].JSONKey)
}

func testConcurrentSubtags(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	tmpl := newTemplate(t, s, "Concurrent")
	tag := newTag("a")
	require.NoError(t, errOf(s.AddTag(ctx, tmpl.ID, 0, tag)))

	const n = 20
	var wg sync.WaitGroup
	seqs := make([]int64, n)
	versions := make([]int, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub := newSubtag("k", "")
			versions[i], errs[i] = s.AddSubtag(ctx, tmpl.ID, tag.TagID, nil, 0, sub)
			seqs[i] = sub.SubTagSequence
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	seenVersions := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[seqs[i]], "sequence %d issued twice", seqs[i])
		seen[seqs[i]] = true
		// Each writer learns the version its own write produced.
		assert.False(t, seenVersions[versions[i]], "version %d returned twice", versions[i])
		assert.True(t, versions[i] >= 3 && versions[i] <= 2+n, "version %d out of range", versions[i])
		seenVersions[versions[i]] = true
	}

	got, err := s.GetTemplate(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Len(t, got.Tags[0].Subtags, n)
	assert.Equal(t, 2+n, got.Version)
}
