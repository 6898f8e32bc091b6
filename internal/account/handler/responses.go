package handler

import (
	"time"

	"credvault/internal/account/models"
)

// AccountResponse is the public view of an account. It never carries the password hash.
type AccountResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            string     `json:"role"`
	WalletID        string     `json:"walletId"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
	LastLoginDevice string     `json:"lastLoginDevice,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type SessionResponse struct {
	Message string           `json:"message"`
	Token   string           `json:"token"`
	Account *AccountResponse `json:"account"`
}

type MeResponse struct {
	Account *AccountResponse `json:"account"`
}

type VerifyUserResponse struct {
	Success bool   `json:"success"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

func toAccountResponse(a *models.Account) *AccountResponse {
	return &AccountResponse{
		ID:              a.ID.String(),
		Name:            a.Name,
		Email:           a.Email,
		Role:            string(a.Role),
		WalletID:        a.WalletID,
		LastLogin:       a.LastLogin,
		LastLoginDevice: a.LastLoginDevice,
		CreatedAt:       a.CreatedAt,
	}
}
