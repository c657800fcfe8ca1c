package dto

import "github.com/hfiuc/uc-reservation-api/internal/models"

// LoginRequest authenticates an admin by email and password.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the session token and the authenticated identity.
type LoginResponse struct {
	Token string       `json:"token"`
	Admin models.Admin `json:"admin"`
}

// CreateAdminRequest registers a staff identity.
type CreateAdminRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// UpdateAdminRequest changes profile fields; empty password keeps the
// current one.
type UpdateAdminRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}
