package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"biblio/internal/store"
)

// ReserveBook - бронь книги, у которой сейчас нет свободных экземпляров.
// Бронь не дает приоритета при следующей выдаче, это просто запись о желании.
func (h *Handler) ReserveBook(w http.ResponseWriter, r *http.Request) {
	claims, err := h.requireAuth(w, r)
	if err != nil {
		return
	}

	reservation, err := h.Store.Reserve(mux.Vars(r)["id"], claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrBookStillAvailable):
			sendError(w, http.StatusBadRequest, "Book is currently available or does not exist")
		case errors.Is(err, store.ErrAlreadyReserved):
			sendError(w, http.StatusBadRequest, "Already reserved")
		default:
			log.Printf("Ошибка оформления брони: %v", err)
			sendError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	log.Printf("Оформлена бронь на книгу %s пользователем %s", reservation.BookID, claims.Username)
	sendJSON(w, http.StatusOK, reservation)
}

// CancelReservation - снятие брони. Идемпотентна: отсутствие брони не ошибка.
func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	claims, err := h.requireAuth(w, r)
	if err != nil {
		return
	}

	if err := h.Store.CancelReservations(mux.Vars(r)["id"], claims.UserID); err != nil {
		log.Printf("Ошибка снятия брони: %v", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	sendJSON(w, http.StatusOK, map[string]string{"message": "Reservation canceled"})
}
