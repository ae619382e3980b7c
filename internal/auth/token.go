// ABOUTME: Signed claims token issuance and verification using HS256 JWTs
// ABOUTME: Claims carry the account id and role; expiry is fixed at 24h

package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/controldesk/controldesk/internal/store"
)

// TokenTTL is the fixed lifetime of every issued token. There is no refresh
// mechanism; callers log in again after expiry.
const TokenTTL = 24 * time.Hour

// ErrInvalidToken is returned for any token failure. Structural, signature,
// and expiry failures all collapse to this one value so the caller never
// learns which check failed.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the decoded payload of a verified token.
type Claims struct {
	AccountID int64
	Role      store.Role
}

// TokenService issues and verifies HS256 signed claims tokens with a single
// symmetric secret.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a token service with the given signing secret.
func NewTokenService(secret []byte) *TokenService {
	return &TokenService{secret: secret}
}

// Issue builds and signs a token for the account: subject = account id,
// role claim, expiry = now + TokenTTL.
func (t *TokenService) Issue(accountID int64, role store.Role) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(accountID, 10),
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(TokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses the token, checks the signature and expiry, and returns the
// claims. Every failure maps to ErrInvalidToken.
func (t *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, err := mapClaims.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrInvalidToken
	}
	accountID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	roleStr, ok := mapClaims["role"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	role, err := store.ParseRole(roleStr)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Claims{AccountID: accountID, Role: role}, nil
}
