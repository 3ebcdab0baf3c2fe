package tweets

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/restinspect/platform/pkg/common/logger"
	"github.com/restinspect/platform/pkg/common/models"
	"github.com/restinspect/platform/pkg/common/validation"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/tweet", h.handleTweet).Methods(http.MethodPost)
	router.HandleFunc("/tweets/{restaurant_id}", h.handleRestaurantTweets).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleTweet(w http.ResponseWriter, r *http.Request) {
	var tweet models.Tweet
	if err := json.NewDecoder(r.Body).Decode(&tweet); err != nil {
		logger.Get().WithError(err).Warn("invalid tweet payload")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Process(r.Context(), tweet)
	if err != nil {
		if validation.IsValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Get().WithError(err).Error("failed to process tweet")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}

func (h *HTTPHandler) handleRestaurantTweets(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["restaurant_id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid restaurant id", http.StatusBadRequest)
		return
	}

	assocs, err := h.service.ForRestaurant(r.Context(), id)
	if err != nil {
		logger.Get().WithError(err).Error("failed to list restaurant tweets")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(assocs)
}
