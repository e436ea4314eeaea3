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

type LabelHandler struct {
	service *service.LabelService
	logger  *zap.Logger
}

func NewLabelHandler(srv *service.LabelService, logger *zap.Logger) *LabelHandler {
	return &LabelHandler{service: srv, logger: logger}
}

func (h *LabelHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

func (h *LabelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.LabelInput
	if !decode(w, r, &req) {
		return
	}

	label, err := h.service.Create(r.Context(), OwnerFrom(r.Context()), req)
	if err != nil {
		handleErrors(h.logger, w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/labels/%s", label.ID))
	respond.JSON(w, r, http.StatusCreated, label)
}

func (h *LabelHandler) Get(w http.ResponseWriter, r *http.Request) {
	label, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), OwnerFrom(r.Context()))
	if err != nil {
		handleErrors(h.logger, w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, label)
}

func (h *LabelHandler) List(w http.ResponseWriter, r *http.Request) {
	q := model.LabelQuery{
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "pageSize"),
	}

	labels, total, err := h.service.List(r.Context(), OwnerFrom(r.Context()), q)
	if err != nil {
		handleErrors(h.logger, w, r, err)
		return
	}
	page, size := service.NormalizePage(q.Page, q.PageSize)
	respond.Paginated(w, r, labels, respond.NewPagination(page, size, total))
}

func (h *LabelHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.LabelPatch
	if !decode(w, r, &req) {
		return
	}

	label, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req, OwnerFrom(r.Context()))
	if err != nil {
		handleErrors(h.logger, w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, label)
}

func (h *LabelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), OwnerFrom(r.Context()), force); err != nil {
		handleErrors(h.logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
