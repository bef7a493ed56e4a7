package api

import (
	"net/http"

	"github.com/bcnelson/qr-template-studio/internal/api/handler"
	"github.com/bcnelson/qr-template-studio/internal/api/middleware"
	"github.com/bcnelson/qr-template-studio/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(templates *service.TemplateService, qr *service.QRService, logger logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(logger.WithField("reporter", "http")))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ContentType)

		templateHandler := handler.NewTemplateHandler(templates, logger.WithField("reporter", "template-handler"))
		r.Get("/journeys", templateHandler.ListJourneys)
		r.Get("/templates", templateHandler.List)
		r.Post("/templates", templateHandler.Create)

		r.Route("/templates/{id}", func(r chi.Router) {
			r.Get("/", templateHandler.Get)
			r.Put("/", templateHandler.Update)
			r.Delete("/", templateHandler.Delete)

			r.Post("/tags", templateHandler.AddTag)
			r.Post("/tags/{tagId}/subtags", templateHandler.AddSubtag)
			r.Post("/tags/{tagId}/subtags/{sequence}/subtags", templateHandler.AddSubtag)

			r.Get("/sample", templateHandler.Sample)
			r.Get("/tlv", templateHandler.TLV)
		})

		tlvHandler := handler.NewTLVHandler(templates, logger.WithField("reporter", "tlv-handler"))
		r.Post("/tlv/parse", tlvHandler.Parse)

		qrHandler := handler.NewQRHandler(qr, logger.WithField("reporter", "qr-handler"))
		r.Route("/qr", func(r chi.Router) {
			r.Post("/generate-static", qrHandler.GenerateStatic)
			r.Post("/generate-dynamic", qrHandler.GenerateDynamic)
			r.Post("/verify", qrHandler.Verify)
			r.Post("/payment-callback", qrHandler.PaymentCallback)
		})
	})

	return r
}
