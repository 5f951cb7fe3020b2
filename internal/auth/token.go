package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"campuschat/internal/domain"
	"campuschat/pkg/apperrors"
)

// AccessClaims is the token shape issued by the platform's identity service.
// This service only verifies and reads tokens; it never mints them.
type AccessClaims struct {
	UserID   string `json:"user_id"`
	SchoolID string `json:"school_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenParser verifies HMAC-signed access tokens and resolves them into an
// acting principal.
type TokenParser struct {
	secret []byte
}

func NewTokenParser(secret string) *TokenParser {
	return &TokenParser{secret: []byte(secret)}
}

func (p *TokenParser) Parse(tokenString string) (domain.Actor, error) {
	if tokenString == "" {
		return domain.Actor{}, apperrors.ErrAuthentication
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrAuthentication
		}
		return p.secret, nil
	})
	if err != nil || !parsed.Valid {
		return domain.Actor{}, apperrors.ErrAuthentication
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok {
		return domain.Actor{}, apperrors.ErrAuthentication
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return domain.Actor{}, apperrors.ErrAuthentication
	}
	schoolID, err := uuid.Parse(claims.SchoolID)
	if err != nil {
		return domain.Actor{}, apperrors.ErrAuthentication
	}
	role := domain.PlatformRole(claims.Role)
	if !role.Valid() {
		return domain.Actor{}, apperrors.ErrAuthentication
	}

	return domain.Actor{UserID: userID, SchoolID: schoolID, PlatformRole: role}, nil
}
