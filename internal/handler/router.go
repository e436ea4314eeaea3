package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/service"
)

type Services struct {
	Tasks  *service.TaskService
	Lists  *service.ListService
	Labels *service.LabelService
}

func NewRouter(s Services, logger *zap.Logger) http.Handler {
	r := chi.NewRouter() // Создаем роутер
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(RequireOwner)
		r.Route("/tasks", NewTaskHandler(s.Tasks, logger).Routes)
		r.Route("/lists", NewListHandler(s.Lists, logger).Routes)
		r.Route("/labels", NewLabelHandler(s.Labels, logger).Routes)
	})

	return r
}
