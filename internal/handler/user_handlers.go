package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"biblio/internal/auth"
	"biblio/internal/models"
	"biblio/internal/store"
)

// RegisterRequest - данные для регистрации
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// LoginRequest - данные для входа
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse - ответ на успешный вход
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterUser - регистрация нового пользователя
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	// Валидация
	if req.Username == "" || req.Password == "" || req.Email == "" {
		sendError(w, http.StatusBadRequest, "Username, password and email are required")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if req.Role != models.RoleUser && req.Role != models.RoleLibrarian {
		sendError(w, http.StatusBadRequest, "Role must be 'user' or 'librarian'")
		return
	}

	// Хэшируем пароль
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Ошибка хэширования пароля: %v", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Email:        req.Email,
		FullName:     req.FullName,
		Role:         req.Role,
	}

	if err := h.Store.CreateUser(&user); err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			sendError(w, http.StatusBadRequest, "Username already exists")
			return
		}
		log.Printf("Ошибка создания пользователя: %v", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	log.Printf("Зарегистрирован пользователь: %s (роль: %s)", user.Username, user.Role)
	sendJSON(w, http.StatusOK, user)
}

// LoginUser - вход по логину и паролю, выдает JWT токен
func (h *Handler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	user, err := h.Store.GetUserByUsername(req.Username)
	if err != nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		sendError(w, http.StatusBadRequest, "Invalid username or password")
		return
	}

	token, err := auth.GenerateToken(user.Username, user.Role, user.ID)
	if err != nil {
		log.Printf("Ошибка создания токена: %v", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	sendJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// ListUsers - список пользователей, только для библиотекаря.
// Поддерживает точный фильтр по роли через ?role=
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireLibrarian(w, r); err != nil {
		return
	}

	users, err := h.Store.ListUsers(r.URL.Query().Get("role"))
	if err != nil {
		log.Printf("Ошибка получения пользователей: %v", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	sendJSON(w, http.StatusOK, users)
}

// GetUser - пользователь по id, доступен любому авторизованному
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireAuth(w, r); err != nil {
		return
	}

	user, err := h.Store.GetUser(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sendError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("Ошибка получения пользователя: %v", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	sendJSON(w, http.StatusOK, user)
}

// BorrowingHistory - история выдач пользователя. Доступна самому
// пользователю и любому библиотекарю.
func (h *Handler) BorrowingHistory(w http.ResponseWriter, r *http.Request) {
	claims, err := h.requireAuth(w, r)
	if err != nil {
		return
	}

	userID := mux.Vars(r)["id"]
	if claims.UserID != userID && claims.Role != models.RoleLibrarian {
		sendError(w, http.StatusForbidden, "Not authorized")
		return
	}

	borrowings, err := h.Store.ListBorrowings(userID)
	if err != nil {
		log.Printf("Ошибка получения истории выдач: %v", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	sendJSON(w, http.StatusOK, borrowings)
}
