package handler

import (
	"errors"
	"net/http"

	"biblio/internal/auth"
	"biblio/internal/models"
)

// requireAuth - проверка авторизации по заголовку Authorization.
// При ошибке ответ уже отправлен, обработчику достаточно выйти.
func (h *Handler) requireAuth(w http.ResponseWriter, r *http.Request) (*auth.Claims, error) {
	token := auth.GetTokenFromRequest(r)
	if token == "" {
		sendError(w, http.StatusUnauthorized, "Invalid authentication credentials")
		return nil, errors.New("не авторизован")
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		sendError(w, http.StatusUnauthorized, "Invalid authentication credentials")
		return nil, err
	}

	return claims, nil
}

// requireLibrarian - проверка авторизации и роли библиотекаря
func (h *Handler) requireLibrarian(w http.ResponseWriter, r *http.Request) (*auth.Claims, error) {
	claims, err := h.requireAuth(w, r)
	if err != nil {
		return nil, err
	}

	if claims.Role != models.RoleLibrarian {
		sendError(w, http.StatusForbidden, "Not authorized")
		return nil, errors.New("нет прав библиотекаря")
	}

	return claims, nil
}
