package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"biblio/internal/models"
	"biblio/internal/store"
)

// CreateBookRequest - данные для добавления книги. Если available не передан,
// считаем, что все экземпляры на полке.
type CreateBookRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Year        int    `json:"year"`
	ISBN        string `json:"isbn"`
	Quantity    int    `json:"quantity"`
	Available   *int   `json:"available"`
}

// ListBooks - каталог книг, доступен без авторизации.
// Фильтры: ?title= и ?author= (подстрока), ?year= (точно), ?available=
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := models.BookFilter{
		Title:  q.Get("title"),
		Author: q.Get("author"),
	}
	if v := q.Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			sendError(w, http.StatusBadRequest, "Invalid year")
			return
		}
		filter.Year = &year
	}
	if v := q.Get("available"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			sendError(w, http.StatusBadRequest, "Invalid available flag")
			return
		}
		filter.Available = &available
	}

	books, err := h.Store.ListBooks(filter)
	if err != nil {
		log.Printf("Ошибка получения книг: %v", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	sendJSON(w, http.StatusOK, books)
}

// GetBook - книга по id, доступна без авторизации
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.Store.GetBook(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sendError(w, http.StatusNotFound, "Book not found")
			return
		}
		log.Printf("Ошибка получения книги: %v", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	sendJSON(w, http.StatusOK, book)
}

// CreateBook - добавление книги, только для библиотекаря
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireLibrarian(w, r); err != nil {
		return
	}

	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Title == "" || req.Author == "" {
		sendError(w, http.StatusBadRequest, "Title and author are required")
		return
	}

	book := models.Book{
		Title:       req.Title,
		Description: req.Description,
		Author:      req.Author,
		Year:        req.Year,
		ISBN:        req.ISBN,
		Quantity:    req.Quantity,
		Available:   req.Quantity,
	}
	if req.Available != nil {
		book.Available = *req.Available
	}

	if err := h.Store.CreateBook(&book); err != nil {
		log.Printf("Ошибка создания книги: %v", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	log.Printf("Добавлена книга: %s (%s)", book.Title, book.ID)
	sendJSON(w, http.StatusOK, book)
}

// UpdateBook - частичное обновление книги, только для библиотекаря.
// Меняются только переданные поля, явный ноль отличим от отсутствия поля.
func (h *Handler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireLibrarian(w, r); err != nil {
		return
	}

	var patch models.BookPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	book, err := h.Store.UpdateBook(mux.Vars(r)["id"], patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sendError(w, http.StatusNotFound, "Book not found")
			return
		}
		log.Printf("Ошибка обновления книги: %v", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	sendJSON(w, http.StatusOK, book)
}

// DeleteBook - удаление книги, только для библиотекаря
func (h *Handler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireLibrarian(w, r); err != nil {
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.Store.DeleteBook(id); err != nil {
		log.Printf("Ошибка удаления книги %s: %v", id, err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	log.Printf("Удалена книга: %s", id)
	sendJSON(w, http.StatusOK, map[string]string{"message": "Book deleted"})
}
