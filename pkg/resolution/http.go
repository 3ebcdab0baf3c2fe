package resolution

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/restinspect/platform/pkg/common/logger"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/clean", h.handleClean).Methods(http.MethodPost, http.MethodGet)
	router.HandleFunc("/clean/runs/{id}", h.handleRun).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleClean(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Run(r.Context())
	if err != nil {
		if errors.Is(err, ErrPassInProgress) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		logger.Get().WithError(err).Error("resolution pass failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

func (h *HTTPHandler) handleRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	run, err := h.service.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrRunNotFound) {
			http.Error(w, "resolution run not found", http.StatusNotFound)
			return
		}
		logger.Get().WithError(err).Error("failed to fetch resolution run")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run)
}
