package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/service"
	"github.com/BuzzLyutic/tasklist/pkg/respond"
)

type ListHandler struct {
	service *service.ListService
	logger  *zap.Logger
}

func NewListHandler(srv *service.ListService, logger *zap.Logger) *ListHandler {
	return &ListHandler{service: srv, logger: logger}
}

func (h *ListHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ListInput
	if !decode(w, r, &req) {
		return
	}

	list, err := h.service.Create(r.Context(), OwnerFrom(r.Context()), req)
	if err != nil {
		handleErrors(h.logger, w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/lists/%s", list.ID))
	respond.JSON(w, r, http.StatusCreated, list)
}

func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), OwnerFrom(r.Context()))
	if err != nil {
		handleErrors(h.logger, w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, list)
}

func (h *ListHandler) List(w http.ResponseWriter, r *http.Request) {
	q := model.ListQuery{
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "pageSize"),
	}
	if fav, err := strconv.ParseBool(r.URL.Query().Get("favorite")); err == nil {
		q.Favorite = &fav
	}

	lists, total, err := h.service.List(r.Context(), OwnerFrom(r.Context()), q)
	if err != nil {
		handleErrors(h.logger, w, r, err)
		return
	}
	page, size := service.NormalizePage(q.Page, q.PageSize)
	respond.Paginated(w, r, lists, respond.NewPagination(page, size, total))
}

func (h *ListHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.ListPatch
	if !decode(w, r, &req) {
		return
	}

	list, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req, OwnerFrom(r.Context()))
	if err != nil {
		handleErrors(h.logger, w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, list)
}

func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), OwnerFrom(r.Context())); err != nil {
		handleErrors(h.logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
