package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/pushrequest/relay/internal/models"
	"github.com/pushrequest/relay/internal/services"
)

type UserHandler struct {
	service *services.UserService
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Create registers a device for a github account, creating the user on
// first registration. API callers are trusted collaborators; the github id
// in the body is not independently verified here.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		GithubID     int64              `json:"github_id"`
		DeviceTokens []string           `json:"device_tokens"`
		AllowedTypes []models.EventType `json:"allowed_types"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Println("handle POST user:", err.Error())
		http.Error(w, "failed to decode request body", http.StatusBadRequest)
		return
	}

	if len(body.DeviceTokens) == 0 {
		http.Error(w, "device_tokens must contain at least one token", http.StatusBadRequest)
		return
	}

	created, err := h.service.RegisterDevice(r.Context(), body.GithubID, body.DeviceTokens[0], body.AllowedTypes)
	if err != nil {
		log.Println("handle POST user:", err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if created {
		w.WriteHeader(http.StatusCreated)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	githubID, err := githubIDFromHeader(r)
	if err != nil {
		log.Println("handle GET user:", err.Error())
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.service.GetUser(r.Context(), githubID)
	if errors.Is(err, services.ErrUserNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		log.Println("handle GET user:", err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, user)
}

// Update patches the user's subscription allow-list; other fields are
// immutable through this endpoint.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	githubID, err := githubIDFromHeader(r)
	if err != nil {
		log.Println("handle PATCH user:", err.Error())
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body struct {
		AllowedTypes []models.EventType `json:"allowed_types,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Println("handle PATCH user:", err.Error())
		http.Error(w, "failed to decode request body", http.StatusBadRequest)
		return
	}

	if body.AllowedTypes == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	if _, err := h.service.UpdateAllowedTypes(r.Context(), githubID, body.AllowedTypes); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Println("handle PATCH user:", err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// githubIDFromHeader reads the caller's github id from the Authorization
// header, matching the collaborating client's convention.
func githubIDFromHeader(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.Header.Get("Authorization"), 10, 64)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("failed to write response:", err.Error())
	}
}
