package validation

import (
	"errors"
	"testing"

	"github.com/bcnelson/qr-template-studio/internal/domain"
)

func strPtr(s string) *string { return &s }

func validTag() domain.CreateTagRequest {
	return domain.CreateTagRequest{
		TagGroup:    "Header",
		ContentDesc: "Payload format indicator",
		JSONKey:     "format",
		Format:      domain.FormatString,
	}
}

func validSubtag() domain.CreateSubtagRequest {
	return domain.CreateSubtagRequest{
		ContentDesc: "Version",
		JSONKey:     "version",
		Format:      domain.FormatNumeric,
	}
}

func fields(err error) []string {
	var errs ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidateCreateTemplate(t *testing.T) {
	tests := []struct {
		name      string
		req       domain.CreateTemplateRequest
		wantField string
	}{
		{"valid payment", domain.CreateTemplateRequest{Name: "Basic", JourneyID: "PAYMENT"}, ""},
		{"valid identity", domain.CreateTemplateRequest{Name: "ID card", JourneyID: "IDENTITY"}, ""},
		{"missing name", domain.CreateTemplateRequest{JourneyID: "TICKET"}, "name"},
		{"blank name", domain.CreateTemplateRequest{Name: "   ", JourneyID: "TICKET"}, "name"},
		{"missing journey", domain.CreateTemplateRequest{Name: "Basic"}, "journeyId"},
		{"unknown journey", domain.CreateTemplateRequest{Name: "Basic", JourneyID: "payment"}, "journeyId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCreateTemplate(&tt.req)
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("ValidateCreateTemplate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("error %v should match ErrInvalidInput", err)
			}
			got := fields(err)
			if len(got) != 1 || got[0] != tt.wantField {
				t.Errorf("error fields = %v, want [%s]", got, tt.wantField)
			}
		})
	}
}

func TestValidateUpdateTemplate(t *testing.T) {
	tests := []struct {
		name    string
		req     domain.UpdateTemplateRequest
		wantErr bool
	}{
		{"name only", domain.UpdateTemplateRequest{Name: strPtr("Renamed")}, false},
		{"journey only", domain.UpdateTemplateRequest{JourneyID: strPtr("TICKET")}, false},
		{"empty request", domain.UpdateTemplateRequest{}, true},
		{"blank name", domain.UpdateTemplateRequest{Name: strPtr(" ")}, true},
		{"bad journey", domain.UpdateTemplateRequest{JourneyID: strPtr("BUS")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpdateTemplate(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUpdateTemplate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCreateTag(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*domain.CreateTagRequest)
		wantField string
	}{
		{"valid", func(*domain.CreateTagRequest) {}, ""},
		{"empty format allowed", func(r *domain.CreateTagRequest) { r.Format = "" }, ""},
		{"static only", func(r *domain.CreateTagRequest) { r.IsStatic = true }, ""},
		{"dynamic only", func(r *domain.CreateTagRequest) { r.IsDynamic = true }, ""},
		{"static and dynamic", func(r *domain.CreateTagRequest) { r.IsStatic, r.IsDynamic = true, true }, "isDynamic"},
		{"missing group", func(r *domain.CreateTagRequest) { r.TagGroup = "" }, "tagGroup"},
		{"missing description", func(r *domain.CreateTagRequest) { r.ContentDesc = "" }, "contentDesc"},
		{"missing json key", func(r *domain.CreateTagRequest) { r.JSONKey = "" }, "jsonKey"},
		{"unknown format", func(r *domain.CreateTagRequest) { r.Format = "X" }, "format"},
		{"negative tag id", func(r *domain.CreateTagRequest) { r.TagID = -1 }, "tagId"},
		{"negative min length", func(r *domain.CreateTagRequest) { r.MinLength = -1 }, "minLength"},
		{"max below min", func(r *domain.CreateTagRequest) { r.MinLength, r.MaxLength = 10, 5 }, "maxLength"},
		{"max unset", func(r *domain.CreateTagRequest) { r.MinLength, r.MaxLength = 10, 0 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validTag()
			tt.mutate(&req)
			err := ValidateCreateTag(&req)
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("ValidateCreateTag() error = %v, want nil", err)
				}
				return
			}
			got := fields(err)
			if len(got) != 1 || got[0] != tt.wantField {
				t.Errorf("error fields = %v, want [%s]", got, tt.wantField)
			}
		})
	}
}

func TestValidateCreateSubtag(t *testing.T) {
	req := validSubtag()
	if err := ValidateCreateSubtag(&req); err != nil {
		t.Fatalf("ValidateCreateSubtag() error = %v", err)
	}

	req.JSONKey = ""
	req.ContentDesc = ""
	err := ValidateCreateSubtag(&req)
	got := fields(err)
	if len(got) != 2 {
		t.Fatalf("error fields = %v, want contentDesc and jsonKey", got)
	}
	var errs ValidationErrors
	errors.As(err, &errs)
	if errs[0].Message != "is required" {
		t.Errorf("message = %q, want %q", errs[0].Message, "is required")
	}
}

func TestValidateQRRequests(t *testing.T) {
	if err := ValidateStruct(&domain.VerifyQRCodeRequest{}); err == nil {
		t.Error("verify request without qrString should fail")
	}
	if err := ValidateStruct(&domain.VerifyQRCodeRequest{QRString: "0002"}); err != nil {
		t.Errorf("verify request error = %v", err)
	}
	if err := ValidateStruct(&domain.PaymentCallbackRequest{ReferenceNumber: "REF"}); err == nil {
		t.Error("callback without paymentRef should fail")
	}
	if err := ValidateStruct(&domain.GenerateQRCodeRequest{TemplateID: 1, ResponseFormat: "gif"}); err == nil {
		t.Error("unknown response format should fail")
	}
}

func TestValidateJourney(t *testing.T) {
	for _, j := range domain.JourneyTypes() {
		if err := ValidateJourney(j.ID); err != nil {
			t.Errorf("ValidateJourney(%q) error = %v", j.ID, err)
		}
	}
	err := ValidateJourney("SHOPPING")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("ValidateJourney error = %v, want ErrInvalidInput", err)
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.HasErrors() || errs.Err() != nil {
		t.Fatal("empty collection should have no errors")
	}
	errs.Add("a", "1", "bad")
	errs.Add("b", "2", "worse")
	if got := errs.Error(); got != "a: bad (and 1 more errors)" {
		t.Errorf("Error() = %q", got)
	}
}
