package restaurants

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/restinspect/platform/pkg/common/logger"
	"github.com/restinspect/platform/pkg/store"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/restaurants/{id}", h.handleGet).Methods(http.MethodGet)
	router.HandleFunc("/restaurants/by-inspection/{inspection_id}", h.handleByInspection).Methods(http.MethodGet)
	router.HandleFunc("/restaurants/all-by-inspection/{inspection_id}", h.handleCanonical).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid restaurant id", http.StatusBadRequest)
		return
	}

	rest, err := h.service.Get(r.Context(), id)
	respond(w, rest, err, "restaurant not found")
}

func (h *HTTPHandler) handleByInspection(w http.ResponseWriter, r *http.Request) {
	rest, err := h.service.ByInspection(r.Context(), mux.Vars(r)["inspection_id"])
	respond(w, rest, err, "inspection not found")
}

func (h *HTTPHandler) handleCanonical(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Canonical(r.Context(), mux.Vars(r)["inspection_id"])
	respond(w, view, err, "inspection not found")
}

func respond(w http.ResponseWriter, body interface{}, err error, notFoundMsg string) {
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, notFoundMsg, http.StatusNotFound)
			return
		}
		logger.Get().WithError(err).Error("failed to fetch restaurant")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}
