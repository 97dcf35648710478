package utils // package utils provides helper functions for token issuing and hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// refreshTokenType tags refresh tokens in the "typ" claim. Access and
// refresh tokens are signed with different secrets, but the tag makes the
// distinction explicit even if the secrets are ever misconfigured to the
// same value: a refresh token can never be presented where an access token
// is required.
const refreshTokenType = "refresh"

// Sentinel verification errors. Callers map these onto HTTP responses:
// expired and invalid tokens are both 401s but carry different messages.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenPayload = errors.New("invalid token payload")
)

// Identity is the verified {user id, email, role} tuple encoded in every
// token and attached to authenticated requests.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// TokenData bundles a serialized JWT with its expiration time. Access
// tokens are short-lived and sent in the Authorization header; refresh
// tokens are long-lived and exchanged for new pairs.
type TokenData struct {
	Token     string    // the serialized JWT string
	ExpiresAt time.Time // the UTC expiration time
}

// TokenPair is the result of a successful register, login or refresh.
type TokenPair struct {
	Access  TokenData
	Refresh TokenData
}

// NewAccessToken builds and signs an HS256 JWT for the given identity.
// The claims are: subject (sub), email, role, expiration (exp) and issued
// at (iat).
func NewAccessToken(secret string, id Identity, ttl time.Duration) (TokenData, error) {
	return signToken(secret, id, ttl, false)
}

// NewRefreshToken is like NewAccessToken but signs with the refresh secret
// and adds the "typ" claim marking the token as a refresh token.
func NewRefreshToken(secret string, id Identity, ttl time.Duration) (TokenData, error) {
	return signToken(secret, id, ttl, true)
}

// IssueTokenPair signs an access and a refresh token for the identity.
// It has no side effects; persisting the refresh token digest on the user
// row is the caller's job.
func IssueTokenPair(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, id Identity) (TokenPair, error) {
	access, err := NewAccessToken(accessSecret, id, accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := NewRefreshToken(refreshSecret, id, refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func signToken(secret string, id Identity, ttl time.Duration, refresh bool) (TokenData, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":   id.UserID,
		"email": id.Email,
		"role":  id.Role,
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	}
	if refresh {
		claims["typ"] = refreshTokenType
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return TokenData{}, err
	}
	return TokenData{Token: signed, ExpiresAt: exp}, nil
}

// VerifyAccessToken checks the signature and expiry of an access token and
// returns the identity it carries. A token signed with a different secret,
// with a non-HMAC method, or tagged as a refresh token is rejected with
// ErrTokenInvalid. Expired tokens fail with ErrTokenExpired; tokens missing
// any of sub/email/role fail with ErrTokenPayload.
func VerifyAccessToken(secret, raw string) (Identity, error) {
	return verifyToken(secret, raw, false)
}

// VerifyRefreshToken is like VerifyAccessToken but verifies against the
// refresh secret and additionally requires the refresh "typ" tag.
func VerifyRefreshToken(secret, raw string) (Identity, error) {
	return verifyToken(secret, raw, true)
}

func verifyToken(secret, raw string, wantRefresh bool) (Identity, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens that were not signed with HMAC, e.g. alg=none.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}
	if !tok.Valid {
		return Identity{}, ErrTokenInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrTokenInvalid
	}

	typ, _ := claims["typ"].(string)
	if wantRefresh && typ != refreshTokenType {
		return Identity{}, ErrTokenInvalid
	}
	if !wantRefresh && typ == refreshTokenType {
		return Identity{}, ErrTokenInvalid
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || email == "" || role == "" {
		return Identity{}, ErrTokenPayload
	}
	return Identity{UserID: sub, Email: email, Role: role}, nil
}

// HashRefreshRaw returns the SHA-256 hash of the raw refresh token as a hex
// string. Only the hash is stored in the database, so stolen rows cannot be
// used to refresh sessions.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
