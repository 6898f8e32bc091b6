package jwttoken

import (
	"credvault/pkg/platform/middleware/auth"
)

// JWTServiceAdapter exposes JWTService as the auth middleware's TokenValidator.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*auth.Claims, error) {
	claims, err := a.service.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &auth.Claims{AccountID: claims.AccountID, Role: claims.Role}, nil
}
