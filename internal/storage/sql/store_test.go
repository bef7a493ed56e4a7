package sql

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bcnelson/qr-template-studio/internal/domain"
	"github.com/bcnelson/qr-template-studio/internal/storage"
	"github.com/bcnelson/qr-template-studio/internal/storage/storagetest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	logger, _ := test.NewNullLogger()
	s, err := New(DriverSQLite, filepath.Join(t.TempDir(), "templates.db"), logger)
	require.NoError(t, err)
	return s
}

func TestSQLiteStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		return newSQLiteStore(t)
	})
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New("mysql", "", logrus.New())
	assert.Error(t, err)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "templates.db")
	logger, _ := test.NewNullLogger()

	first, err := New(DriverSQLite, dsn, logger)
	require.NoError(t, err)
	tmpl := &domain.Template{Name: "Persisted", JourneyID: domain.JourneyTicket}
	require.NoError(t, first.CreateTemplate(context.Background(), tmpl))
	require.NoError(t, first.Close())

	second, err := New(DriverSQLite, dsn, logger)
	require.NoError(t, err)
	defer second.Close()
	got, err := second.GetTemplate(context.Background(), tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Persisted", got.Name)
}

func TestCorruptTreeIsReported(t *testing.T) {
	s := newSQLiteStore(t)
	defer s.Close()
	ctx := context.Background()

	tmpl := &domain.Template{Name: "Cyclic", JourneyID: domain.JourneyPayment}
	require.NoError(t, s.CreateTemplate(ctx, tmpl))
	tag := &domain.Tag{TagFields: domain.TagFields{JSONKey: "root"}}
	_, err := s.AddTag(ctx, tmpl.ID, 0, tag)
	require.NoError(t, err)
	a := &domain.Subtag{TagFields: domain.TagFields{JSONKey: "a"}}
	_, err = s.AddSubtag(ctx, tmpl.ID, tag.TagID, nil, 0, a)
	require.NoError(t, err)
	b := &domain.Subtag{TagFields: domain.TagFields{JSONKey: "b"}}
	_, err = s.AddSubtag(ctx, tmpl.ID, tag.TagID, &a.SubTagSequence, 0, b)
	require.NoError(t, err)

	// Point a at b, closing a loop that no API call can produce.
	_, err = s.db.ExecContext(ctx,
		`UPDATE template_subtags SET parent_sub_tag_id = $1 WHERE sub_tag_sequence = $2`,
		b.SubTagSequence, a.SubTagSequence)
	require.NoError(t, err)

	_, err = s.GetTemplate(ctx, tmpl.ID)
	assert.ErrorIs(t, err, domain.ErrCyclicTemplate)
}

func TestAssemble(t *testing.T) {
	parent := int64(10)
	templates := []*domain.Template{{ID: 1}}
	tags := []*domain.Tag{
		{TagID: 1, TagFields: domain.TagFields{TemplateID: 1, JSONKey: "first"}},
		{TagID: 2, TagFields: domain.TagFields{TemplateID: 1, JSONKey: "second"}},
	}
	subtags := []*domain.Subtag{
		{SubTagSequence: 10, ParentTemplateTagID: 2, TagFields: domain.TagFields{TemplateID: 1, JSONKey: "x"}},
		{SubTagSequence: 11, ParentTemplateTagID: 2, ParentSubTagID: &parent, TagFields: domain.TagFields{TemplateID: 1, JSONKey: "y"}},
		{SubTagSequence: 12, ParentTemplateTagID: 2, TagFields: domain.TagFields{TemplateID: 1, JSONKey: "z"}},
	}

	require.NoError(t, assemble(templates, tags, subtags))
	got := templates[0]
	require.Len(t, got.Tags, 2)
	assert.Empty(t, got.Tags[0].Subtags)
	require.Len(t, got.Tags[1].Subtags, 2)
	assert.Equal(t, "x", got.Tags[1].Subtags[0].JSONKey)
	assert.Equal(t, "z", got.Tags[1].Subtags[1].JSONKey)
	require.Len(t, got.Tags[1].Subtags[0].Subtags, 1)
	assert.Equal(t, "y", got.Tags[1].Subtags[0].Subtags[0].JSONKey)
}

func TestAssembleDanglingParent(t *testing.T) {
	missing := int64(99)
	err := assemble(
		[]*domain.Template{{ID: 1}},
		[]*domain.Tag{{TagID: 1, TagFields: domain.TagFields{TemplateID: 1}}},
		[]*domain.Subtag{{SubTagSequence: 5, ParentTemplateTagID: 1, ParentSubTagID: &missing, TagFields: domain.TagFields{TemplateID: 1}}},
	)
	assert.ErrorIs(t, err, domain.ErrCyclicTemplate)
}
