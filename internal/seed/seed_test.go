package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bcnelson/qr-template-studio/internal/domain"
	"github.com/bcnelson/qr-template-studio/internal/service"
	"github.com/bcnelson/qr-template-studio/internal/storage/memory"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSeed(t *testing.T) {
	f := Default()
	require.Len(t, f.Templates, 1)
	tmpl := f.Templates[0]
	assert.Equal(t, "Basic Payment QR", tmpl.Name)
	assert.Equal(t, domain.JourneyPayment, tmpl.JourneyID)
	require.Len(t, tmpl.Tags, 2)
	assert.True(t, bool(tmpl.Tags[0].IsStatic))
	assert.True(t, bool(tmpl.Tags[1].IsDynamic))
	require.Len(t, tmpl.Tags[0].Subtags, 1)
	assert.Equal(t, int64(101), tmpl.Tags[0].Subtags[0].SubTagID)
}

func TestApplyDefault(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := service.NewTemplateService(memory.New(), logger)
	ctx := context.Background()

	n, err := Apply(ctx, svc, Default(), logger)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	templates, err := svc.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 1)

	sample, err := svc.Sample(ctx, templates[0].ID)
	require.NoError(t, err)
	assert.Equal(t, `{"format":{"version":"01"},"amount":"123456"}`, sample.Payload.CompactJSON())

	header := templates[0].FindTag(1)
	require.NotNil(t, header)
	assert.True(t, bool(header.HasChild))

	n, err = Apply(ctx, svc, Default(), logger)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestParseNestedSubtagsAndJSON(t *testing.T) {
	doc := `{"templates":[{"name":"Nested","journeyId":"IDENTITY","tags":[
		{"tagGroup":"G","contentDesc":"Person","jsonKey":"person","required":true,"subtags":[
			{"contentDesc":"Name","jsonKey":"name","hasChild":1,"subtags":[
				{"contentDesc":"First","jsonKey":"first","contentValue":"Ada"}]}]}]}]}`

	f, err := Parse([]byte(doc))
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	svc := service.NewTemplateService(memory.New(), logger)
	ctx := context.Background()
	_, err = Apply(ctx, svc, f, logger)
	require.NoError(t, err)

	templates, err := svc.ListTemplates(ctx)
	require.NoError(t, err)
	sample, err := svc.Sample(ctx, templates[0].ID)
	require.NoError(t, err)
	assert.Equal(t, `{"person":{"name":{"first":"Ada"}}}`, sample.Payload.CompactJSON())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("templates: [unclosed"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Parse([]byte(`templates: [{tags: [{required: "yes"}]}]`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Parse([]byte("templates:\n  - name: Ok\n    journeyId: PAYMENT\n  - name: Typo\n    journeyId: PAYMNET\n"))
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), `seed template 2 ("Typo")`)
	assert.Contains(t, err.Error(), "journeyId")

	f, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, f.Templates)
}

func TestApplyRejectsInvalidTemplate(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := service.NewTemplateService(memory.New(), logger)
	f := &File{Templates: []Template{{Name: "Bad", JourneyID: "NOPE"}}}

	_, err := Apply(context.Background(), svc, f, logger)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("templates:\n  - name: Empty\n    journeyId: TICKET\n"), 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	require.Len(t, f.Templates, 1)
	assert.Equal(t, "Empty", f.Templates[0].Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
