package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/vidscribe/internal/api/middleware"
)

// RouterConfig holds the handlers mounted by NewRouter.
type RouterConfig struct {
	Videos *VideoHandler
	Tags   *TagHandler
	Chat   *ChatHandler
	Logger *slog.Logger
}

// NewRouter creates the application router with all routes and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/process", cfg.Videos.Process)
		r.Get("/status/{id}", cfg.Videos.GetStatus)

		r.Get("/projects", cfg.Videos.ListProjects)
		r.Get("/projects/{id}", cfg.Videos.GetProject)
		r.Patch("/projects/{id}", cfg.Videos.UpdateProject)
		r.Delete("/projects/{id}", cfg.Videos.DeleteProject)
		r.Post("/classify-all", cfg.Videos.ClassifyAll)

		r.Get("/tags", cfg.Tags.ListTags)
		r.Post("/tags", cfg.Tags.AddTag)
		r.Delete("/tags", cfg.Tags.DeleteTag)

		r.Post("/chat", cfg.Chat.Chat)
	})

	r.Get("/health", Health)

	return r
}
