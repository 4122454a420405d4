package handlers

import (
	"net/http"

	"github.com/futbolmvp/booking-system/services"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) PINRegister(w http.ResponseWriter, r *http.Request) {
	var input services.PINRegisterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.authService.RegisterWithPIN(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result, nil)
}

func (h *AuthHandler) PINLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Phone string `json:"phone"`
		PIN   string `json:"pin"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.authService.LoginWithPIN(r.Context(), input.Phone, input.PIN)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result, nil)
}
