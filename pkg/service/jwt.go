package service

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	apperrors "sales-crm/pkg/errors"
)

type JwtCustomClaim struct {
	UserID         int64  `json:"userId"`
	Role           string `json:"role"`
	SessionID      string `json:"sid,omitempty"`
	IsRefreshToken bool   `json:"refresh"`
	jwt.RegisteredClaims
}

type JWTService interface {
	GenerateTokens(userID int64, role, sessionID string) (string, string, error)
	ValidateToken(tokenString string) (*JwtCustomClaim, error)
	ValidateAccessToken(tokenString string) (*JwtCustomClaim, error)
	ValidateRefreshToken(tokenString string) (*JwtCustomClaim, error)
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
}

type jwtService struct {
	secretKey       string
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
	now             func() time.Time
}

func NewJWTService(secretKey string, accessTokenExp, refreshTokenExp time.Duration) JWTService {
	return &jwtService{
		secretKey:       secretKey,
		accessTokenExp:  accessTokenExp,
		refreshTokenExp: refreshTokenExp,
		now:             time.Now,
	}
}

// GenerateTokens signs an access/refresh pair. Only the refresh token carries
// the session id, so revoking the session invalidates refreshes but not
// already issued access tokens.
func (s *jwtService) GenerateTokens(userID int64, role, sessionID string) (string, string, error) {
	now := s.now()

	access := &JwtCustomClaim{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenExp)),
		},
	}
	refresh := &JwtCustomClaim{
		UserID:         userID,
		Role:           role,
		SessionID:      sessionID,
		IsRefreshToken: true,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTokenExp)),
		},
	}

	accessString, err := jwt.NewWithClaims(jwt.SigningMethodHS512, access).SignedString([]byte(s.secretKey))
	if err != nil {
		return "", "", err
	}
	refreshString, err := jwt.NewWithClaims(jwt.SigningMethodHS512, refresh).SignedString([]byte(s.secretKey))
	if err != nil {
		return "", "", err
	}
	return accessString, refreshString, nil
}

func (s *jwtService) GetAccessTokenTTL() time.Duration {
	return s.accessTokenExp
}

func (s *jwtService) GetRefreshTokenTTL() time.Duration {
	return s.refreshTokenExp
}

func (s *jwtService) ValidateToken(tokenString string) (*JwtCustomClaim, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JwtCustomClaim{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrInvalidSigningMethod
		}
		return []byte(s.secretKey), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, apperrors.ErrTokenExpired
		case errors.Is(err, apperrors.ErrInvalidSigningMethod):
			return nil, apperrors.ErrInvalidSigningMethod
		default:
			return nil, apperrors.ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*JwtCustomClaim)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

func (s *jwtService) ValidateAccessToken(tokenString string) (*JwtCustomClaim, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.IsRefreshToken {
		return nil, apperrors.ErrTokenIsNotAccess
	}
	return claims, nil
}

func (s *jwtService) ValidateRefreshToken(tokenString string) (*JwtCustomClaim, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken || claims.SessionID == "" {
		return nil, apperrors.ErrTokenIsNotRefresh
	}
	return claims, nil
}
