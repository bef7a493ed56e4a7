package service

import (
	"context"
	"testing"

	"github.com/bcnelson/qr-template-studio/internal/domain"
	"github.com/bcnelson/qr-template-studio/internal/storage/memory"
	"github.com/bcnelson/qr-template-studio/internal/validation"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTemplateService(t *testing.T) (*TemplateService, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewTemplateService(memory.New(), logger), hook
}

func TestCreateTemplateValidates(t *testing.T) {
	svc, _ := newTemplateService(t)

	_, err := svc.CreateTemplate(context.Background(), &domain.CreateTemplateRequest{Name: " ", JourneyID: "BOGUS"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	var verrs validation.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)
}

func TestTemplateSampleAndTLV(t *testing.T) {
	svc, _ := newTemplateService(t)
	ctx := context.Background()

	tmpl, err := svc.CreateTemplate(ctx, &domain.CreateTemplateRequest{Name: "Pay", JourneyID: domain.JourneyPayment})
	require.NoError(t, err)

	header, version, err := svc.AddTag(ctx, tmpl.ID, 0, &domain.CreateTagRequest{
		TagGroup: "Header", ContentDesc: "Format", JSONKey: "format", ContentValue: "QRPS", IsStatic: true,
	})
	require.NoError(t, err)
	assert.Equal(t, tmpl.Version+1, version)
	assert.Equal(t, 1, header.TagID)
	assert.Equal(t, domain.FormatString, header.Format)
	assert.True(t, bool(header.Valid))

	_, version, err = svc.AddSubtag(ctx, tmpl.ID, header.TagID, nil, version, &domain.CreateSubtagRequest{
		SubTagID: 101, ContentDesc: "Version", JSONKey: "version", ContentValue: "01", Format: domain.FormatNumeric,
	})
	require.NoError(t, err)
	assert.Equal(t, tmpl.Version+2, version)

	_, _, err = svc.AddTag(ctx, tmpl.ID, 0, &domain.CreateTagRequest{
		TagGroup: "Data", ContentDesc: "Amount", JSONKey: "amount", Format: domain.FormatNumeric, IsDynamic: true,
	})
	require.NoError(t, err)

	sample, err := svc.Sample(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, `{"format":{"version":"01"},"amount":"123456"}`, sample.Payload.CompactJSON())
	assert.Equal(t, "{\n  \"format\": {\n    \"version\": \"01\"\n  },\n  \"amount\": \"123456\"\n}", sample.JSON)

	nodes, err := svc.TemplateTLV(ctx, tmpl.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "01", nodes[0].Tag)
	require.Len(t, nodes[0].Children, 1)
	assert.Equal(t, "01", nodes[0].Children[0].Value)
	assert.Equal(t, "02", nodes[1].Tag)
	assert.Equal(t, "123456", nodes[1].Value)
	assert.Equal(t, 6, nodes[1].Length)
}

func TestAddTagRejectsStaticAndDynamic(t *testing.T) {
	svc, _ := newTemplateService(t)
	ctx := context.Background()
	tmpl, err := svc.CreateTemplate(ctx, &domain.CreateTemplateRequest{Name: "T", JourneyID: domain.JourneyTicket})
	require.NoError(t, err)

	_, _, err = svc.AddTag(ctx, tmpl.ID, 0, &domain.CreateTagRequest{
		TagGroup: "G", ContentDesc: "D", JSONKey: "k", IsStatic: true, IsDynamic: true,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateTemplate(t *testing.T) {
	svc, _ := newTemplateService(t)
	ctx := context.Background()
	tmpl, err := svc.CreateTemplate(ctx, &domain.CreateTemplateRequest{Name: "Old", JourneyID: domain.JourneyPayment})
	require.NoError(t, err)

	name := "New"
	updated, err := svc.UpdateTemplate(ctx, tmpl.ID, tmpl.Version, &domain.UpdateTemplateRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, domain.JourneyPayment, updated.JourneyID)
	assert.Equal(t, tmpl.Version+1, updated.Version)

	_, err = svc.UpdateTemplate(ctx, tmpl.ID, tmpl.Version, &domain.UpdateTemplateRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	_, err = svc.UpdateTemplate(ctx, tmpl.ID, 0, &domain.UpdateTemplateRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDeleteTemplate(t *testing.T) {
	svc, _ := newTemplateService(t)
	ctx := context.Background()
	tmpl, err := svc.CreateTemplate(ctx, &domain.CreateTemplateRequest{Name: "Gone", JourneyID: domain.JourneyIdentity})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTemplate(ctx, tmpl.ID))
	_, err = svc.Sample(ctx, tmpl.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteTemplate(ctx, tmpl.ID), domain.ErrNotFound)
}

func TestParseTLVLogsFallback(t *testing.T) {
	svc, hook := newTemplateService(t)

	res := svc.ParseTLV(`{"a":"1"}`)
	assert.False(t, res.Fallback)
	assert.Empty(t, hook.AllEntries())

	res = svc.ParseTLV("000201")
	assert.True(t, res.Fallback)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
}
