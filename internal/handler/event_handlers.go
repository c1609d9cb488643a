package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"biblio/internal/models"
	"biblio/internal/store"
)

// CreateEventRequest - данные для создания мероприятия
type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Time        string    `json:"time"`
	Location    string    `json:"location"`
}

// CreateEvent - создание мероприятия, только для библиотекаря
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireLibrarian(w, r); err != nil {
		return
	}

	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Title == "" {
		sendError(w, http.StatusBadRequest, "Title is required")
		return
	}

	event := models.Event{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Location:    req.Location,
		Attendees:   []string{},
	}

	if err := h.Store.CreateEvent(&event); err != nil {
		log.Printf("Ошибка создания мероприятия: %v", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	log.Printf("Создано мероприятие: %s (%s)", event.Title, event.ID)
	sendJSON(w, http.StatusOK, event)
}

// ListEvents - список мероприятий, доступен без авторизации
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Store.ListEvents()
	if err != nil {
		log.Printf("Ошибка получения мероприятий: %v", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	sendJSON(w, http.StatusOK, events)
}

// GetEvent - мероприятие по id, доступно без авторизации
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.Store.GetEvent(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sendError(w, http.StatusNotFound, "Event not found")
			return
		}
		log.Printf("Ошибка получения мероприятия: %v", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	sendJSON(w, http.StatusOK, event)
}

// UpdateEvent - частичное обновление мероприятия, только для библиотекаря
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireLibrarian(w, r); err != nil {
		return
	}

	var patch models.EventPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	event, err := h.Store.UpdateEvent(mux.Vars(r)["id"], patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sendError(w, http.StatusNotFound, "Event not found")
			return
		}
		log.Printf("Ошибка обновления мероприятия: %v", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	sendJSON(w, http.StatusOK, event)
}

// DeleteEvent - удаление мероприятия, только для библиотекаря
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireLibrarian(w, r); err != nil {
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.Store.DeleteEvent(id); err != nil {
		log.Printf("Ошибка удаления мероприятия %s: %v", id, err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	log.Printf("Удалено мероприятие: %s", id)
	sendJSON(w, http.StatusOK, map[string]string{"message": "Event deleted"})
}

// RegisterForEvent - запись авторизованного пользователя на мероприятие
func (h *Handler) RegisterForEvent(w http.ResponseWriter, r *http.Request) {
	claims, err := h.requireAuth(w, r)
	if err != nil {
		return
	}

	event, err := h.Store.AddAttendee(mux.Vars(r)["id"], claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			sendError(w, http.StatusNotFound, "Event not found")
		case errors.Is(err, store.ErrAlreadyRegistered):
			sendError(w, http.StatusBadRequest, "Already registered")
		default:
			log.Printf("Ошибка записи на мероприятие: %v", err)
			sendError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	sendJSON(w, http.StatusOK, event)
}

// CancelEventRegistration - отмена записи на мероприятие
func (h *Handler) CancelEventRegistration(w http.ResponseWriter, r *http.Request) {
	claims, err := h.requireAuth(w, r)
	if err != nil {
		return
	}

	if err := h.Store.RemoveAttendee(mux.Vars(r)["id"], claims.UserID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			sendError(w, http.StatusNotFound, "Event not found")
		case errors.Is(err, store.ErrNotRegistered):
			sendError(w, http.StatusBadRequest, "Not registered for this event")
		default:
			log.Printf("Ошибка отмены записи: %v", err)
			sendError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	sendJSON(w, http.StatusOK, map[string]string{"message": "Registration canceled"})
}
