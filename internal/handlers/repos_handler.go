package handlers

import (
	"log"
	"net/http"

	"github.com/pushrequest/relay/internal/models"
	"github.com/pushrequest/relay/internal/services"
)

type ReposHandler struct {
	service *services.UserService
}

func NewReposHandler(service *services.UserService) *ReposHandler {
	return &ReposHandler{service: service}
}

// List returns every repository the caller's installations grant access to.
func (h *ReposHandler) List(w http.ResponseWriter, r *http.Request) {
	githubID, err := githubIDFromHeader(r)
	if err != nil {
		log.Println("handle GET authorized repos:", err.Error())
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	repos, err := h.service.AuthorizedRepos(r.Context(), githubID)
	if err != nil {
		log.Println("handle GET authorized repos:", err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if repos == nil {
		repos = []models.Repository{}
	}

	writeJSON(w, repos)
}
