package auth

import (
	"errors"
	"fmt"
	"gw-teller-ledger/internal/custom_err"
	"gw-teller-ledger/internal/models"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenValidator проверяет HS256 токены сервиса идентификации
type TokenValidator interface {
	ValidateToken(tokenString string) (*models.OperatorClaims, error)
}

type JWTValidator struct {
	secret []byte
	issuer string
}

func NewJWTValidator(secret, issuer string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret), issuer: issuer}
}

func (v *JWTValidator) ValidateToken(tokenString string) (*models.OperatorClaims, error) {
	claims := &models.OperatorClaims{}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, custom_err.ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, custom_err.ErrTokenNotActive
		}
		return nil, custom_err.ErrInvalidToken
	}

	if !token.Valid {
		return nil, custom_err.ErrInvalidToken
	}
	if claims.OperatorID == "" || claims.BranchID == "" {
		return nil, custom_err.ErrInvalidToken
	}
	switch claims.Role {
	case "", models.RoleTeller, models.RoleSupervisor, models.RoleAdmin:
	default:
		return nil, custom_err.ErrInvalidToken
	}

	return claims, nil
}

// IssueToken подписывает токен оператора. Используется ledgerctl и тестами,
// в проде токены выпускает сервис идентификации.
func IssueToken(secret, issuer string, operator models.Operator, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := models.OperatorClaims{
		OperatorID: operator.ID,
		BranchID:   operator.BranchID,
		Role:       operator.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   operator.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
