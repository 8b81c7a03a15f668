package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/pushrequest/relay/internal/services"
)

type WebhookHandler struct {
	service *services.WebhookService
}

func NewWebhookHandler(service *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// Handle maps one webhook delivery onto the pipeline and translates its
// terminal outcome into a distinct status. Non-2xx responses cause GitHub
// to redeliver, so only genuine failures return errors.
//
//	delivered              -> 200
//	installation created   -> 201
//	ignored / filtered     -> 202 (told apart by the status body)
//	installation/user miss -> 404
//	malformed payload,
//	store or push failure  -> 500
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Println("handle webhook error:", err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer r.Body.Close()

	delivery := services.Delivery{
		ID:       r.Header.Get("X-GitHub-Delivery"),
		Category: r.Header.Get("X-GitHub-Event"),
		Payload:  body,
	}

	log.Printf("webhook %s received: %s", delivery.ID, delivery.Category)

	outcome, err := h.service.HandleDelivery(r.Context(), delivery)
	if err != nil {
		log.Println("handle webhook error:", err.Error())

		if errors.Is(err, services.ErrInstallationNotFound) || errors.Is(err, services.ErrUserNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	switch outcome {
	case services.OutcomeInstallationCreated:
		writeStatus(w, http.StatusCreated, "created")
	case services.OutcomeIgnored:
		writeStatus(w, http.StatusAccepted, "ignored")
	case services.OutcomeFiltered:
		writeStatus(w, http.StatusAccepted, "filtered")
	case services.OutcomeDelivered:
		writeStatus(w, http.StatusOK, "delivered")
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
