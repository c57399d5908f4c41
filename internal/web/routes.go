package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-recognizer/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	optionsHandler := handlers.NewOptionsHandler(s.recognizer)
	recognizeHandler := handlers.NewRecognizeHandler(s.recognizer, s.jobManager)
	peopleHandler := handlers.NewPeopleHandler(s.recognizer)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)

		// Options
		r.Get("/options", optionsHandler.Get)
		r.Put("/options", optionsHandler.Update)

		// Recognition
		r.Post("/recognize", recognizeHandler.Recognize)
		r.Post("/recognize/batch", recognizeHandler.StartBatch)
		r.Get("/recognize/batch/{jobId}", recognizeHandler.BatchStatus)
		r.Get("/recognize/batch/{jobId}/events", recognizeHandler.BatchEvents)
		r.Delete("/recognize/batch/{jobId}", recognizeHandler.CancelBatch)

		// People
		r.Get("/people", peopleHandler.List)
		r.Post("/people", peopleHandler.CreateOrUpdate)
		r.Get("/people/{id}", peopleHandler.Get)
		r.Patch("/people/{id}", peopleHandler.Update)
		r.Delete("/people/{id}", peopleHandler.Delete)
		r.Get("/people/{id}/thumbnail", peopleHandler.Thumbnail)
		r.Post("/people/{id}/faces", peopleHandler.AssignFace)
		r.Delete("/people/{id}/faces/{faceId}", peopleHandler.UnassignFace)
	})
}
