package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"taskminder/internal/service"
	"taskminder/internal/validation"
)

// respondJSON writes v as a JSON response body with the given status
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse is the JSON body sent for every error status
type errorResponse struct {
	Error            string `json:"error"`
	Field            string `json:"field,omitempty"`
	SecondsRemaining int    `json:"secondsRemaining,omitempty"`
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// respondServiceError maps service-layer errors onto HTTP statuses
func respondServiceError(w http.ResponseWriter, err error) {
	var cooldown *service.CooldownError
	if errors.As(err, &cooldown) {
		respondJSON(w, http.StatusTooManyRequests, errorResponse{
			Error:            cooldown.Error(),
			SecondsRemaining: cooldown.SecondsRemaining,
		})
		return
	}

	var ve validation.ValidationError
	if errors.As(err, &ve) {
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error: ve.Message,
			Field: ve.Field,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrAlreadyExists):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrOtpNotFound):
		respondError(w, http.StatusNotFound, "No active verification code found")
	case errors.Is(err, service.ErrOtpExpired):
		respondError(w, http.StatusBadRequest, "Verification code has expired")
	case errors.Is(err, service.ErrOtpMismatch):
		respondError(w, http.StatusBadRequest, "Incorrect verification code")
	case errors.Is(err, service.ErrGrantInvalid):
		respondError(w, http.StatusBadRequest, "Reset token is invalid or has expired")
	case errors.Is(err, service.ErrWeakPassword):
		respondError(w, http.StatusBadRequest, "Password must be at least 6 characters")
	case errors.Is(err, service.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrTaskNotFound):
		respondError(w, http.StatusNotFound, "Task not found")
	case errors.Is(err, service.ErrDeliveryFailed):
		log.Printf("Email delivery failure: %v", err)
		respondError(w, http.StatusBadGateway, "Could not send verification email, please try again")
	default:
		log.Printf("Internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
