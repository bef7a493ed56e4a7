package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bcnelson/qr-template-studio/internal/domain"
	"github.com/bcnelson/qr-template-studio/internal/validation"
)

// GenerateETag returns the ETag of a template.
// Format: "template-<id>-v<version>"
func GenerateETag(t *domain.Template) string {
	return versionETag(t.ID, t.Version)
}

func versionETag(id int64, version int) string {
	return fmt.Sprintf(`"template-%d-v%d"`, id, version)
}

// SetTemplateETag sets the ETag header for a template.
func SetTemplateETag(w http.ResponseWriter, t *domain.Template) {
	w.Header().Set("ETag", GenerateETag(t))
}

// setVersionETag sets the ETag header for the template version a tag or
// subtag write produced.
func setVersionETag(w http.ResponseWriter, id int64, version int) {
	w.Header().Set("ETag", versionETag(id, version))
}

// expectedVersion extracts the template version named by the If-Match
// header. It returns 0 when the header is absent or "*", which makes the
// write unconditional.
func expectedVersion(r *http.Request, templateID int64) (int, error) {
	ifMatch := strings.TrimSpace(r.Header.Get("If-Match"))
	if ifMatch == "" || ifMatch == "*" {
		return 0, nil
	}

	prefix := fmt.Sprintf(`"template-%d-v`, templateID)
	tag := strings.TrimPrefix(ifMatch, "W/")
	if !strings.HasPrefix(tag, prefix) || !strings.HasSuffix(tag, `"`) {
		// An ETag for some other resource can never match.
		return -1, nil
	}
	v, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(tag, prefix), `"`))
	if err != nil || v <= 0 {
		return 0, validation.NewValidationError("If-Match", ifMatch, "is not a template ETag")
	}
	return v, nil
}
