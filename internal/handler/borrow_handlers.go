package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"biblio/internal/store"
)

// BorrowBook - выдача книги авторизованному пользователю на 14 дней
func (h *Handler) BorrowBook(w http.ResponseWriter, r *http.Request) {
	claims, err := h.requireAuth(w, r)
	if err != nil {
		return
	}

	borrowing, err := h.Store.Borrow(mux.Vars(r)["id"], claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrBookNotAvailable) {
			sendError(w, http.StatusBadRequest, "Book not available")
			return
		}
		log.Printf("Ошибка выдачи книги: %v", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	log.Printf("Выдана книга %s пользователю %s", borrowing.BookID, claims.Username)
	sendJSON(w, http.StatusOK, borrowing)
}

// ReturnBook - возврат книги. Активная выдача ищется по паре
// (книга, пользователь), id выдачи клиент не передает.
func (h *Handler) ReturnBook(w http.ResponseWriter, r *http.Request) {
	claims, err := h.requireAuth(w, r)
	if err != nil {
		return
	}

	borrowing, err := h.Store.Return(mux.Vars(r)["id"], claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNoActiveBorrowing) {
			sendError(w, http.StatusBadRequest, "No active borrowing found for this book")
			return
		}
		log.Printf("Ошибка возврата книги: %v", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	log.Printf("Возвращена книга %s пользователем %s", borrowing.BookID, claims.Username)
	sendJSON(w, http.StatusOK, borrowing)
}
