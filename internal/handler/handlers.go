package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"

	"biblio/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Handler содержит зависимости
type Handler struct {
	Store store.Store
}

// NewHandler создает новый экземпляр Handler
func NewHandler(s store.Store) *Handler {
	return &Handler{Store: s}
}

// Routes настраивает маршруты API
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(loggingMiddleware)

	// Пользователи
	r.HandleFunc("/users/register", h.RegisterUser).Methods(http.MethodPost)
	r.HandleFunc("/users/login", h.LoginUser).Methods(http.MethodPost)
	r.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", h.GetUser).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/history", h.BorrowingHistory).Methods(http.MethodGet)

	// Книги
	r.HandleFunc("/books", h.ListBooks).Methods(http.MethodGet)
	r.HandleFunc("/books", h.CreateBook).Methods(http.MethodPost)
	r.HandleFunc("/books/{id}", h.GetBook).Methods(http.MethodGet)
	r.HandleFunc("/books/{id}", h.UpdateBook).Methods(http.MethodPatch)
	r.HandleFunc("/books/{id}", h.DeleteBook).Methods(http.MethodDelete)

	// Выдачи
	r.HandleFunc("/books/{id}/borrow", h.BorrowBook).Methods(http.MethodPost)
	r.HandleFunc("/books/{id}/return", h.ReturnBook).Methods(http.MethodPost)

	// Брони
	r.HandleFunc("/books/{id}/reserve", h.ReserveBook).Methods(http.MethodPost)
	r.HandleFunc("/books/{id}/reserve", h.CancelReservation).Methods(http.MethodDelete)

	// Мероприятия
	r.HandleFunc("/events", h.CreateEvent).Methods(http.MethodPost)
	r.HandleFunc("/events", h.ListEvents).Methods(http.MethodGet)
	r.HandleFunc("/events/{id}", h.GetEvent).Methods(http.MethodGet)
	r.HandleFunc("/events/{id}", h.UpdateEvent).Methods(http.MethodPatch)
	r.HandleFunc("/events/{id}", h.DeleteEvent).Methods(http.MethodDelete)
	r.HandleFunc("/events/{id}/register", h.RegisterForEvent).Methods(http.MethodPost)
	r.HandleFunc("/events/{id}/register", h.CancelEventRegistration).Methods(http.MethodDelete)

	return r
}

// sendJSON отправляет ответ в формате JSON
func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Ошибка кодирования ответа: %v", err)
	}
}

// sendError отправляет ошибку в формате {"detail": "..."}
func sendError(w http.ResponseWriter, status int, detail string) {
	sendJSON(w, status, map[string]string{"detail": detail})
}

// statusWriter запоминает код ответа для логирования
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware логирует каждый запрос
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		log.Printf("%s %s -> %d (%s)", r.Method, r.URL.Path, sw.status, time.Since(start))
	})
}
