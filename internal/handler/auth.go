package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Romanticus/TRexpress/internal/config"
	"github.com/Romanticus/TRexpress/internal/model"
	"github.com/Romanticus/TRexpress/internal/queue"
	"github.com/Romanticus/TRexpress/internal/repository"
	queue_publisher "github.com/Romanticus/TRexpress/internal/service"
	"github.com/Romanticus/TRexpress/internal/utils"
)

// publishFunc publishes an account event. It is a field rather than a
// direct call so tests can run without a broker.
type publishFunc func(ctx context.Context, ev queue.AccountEvent) error

// AuthHandler bundles dependencies for the register/login/refresh endpoints.
type AuthHandler struct {
	Cfg     config.Config
	Users   repository.UserStore
	Publish publishFunc
}

func NewAuthHandler(cfg config.Config, users repository.UserStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Publish: queue_publisher.PublishAccountEvent}
}

type authResp struct {
	User         model.PublicUser `json:"user"`
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
}

// Register creates a user and returns tokens immediately. Duplicate emails
// are detected by the store's unique constraint, not a pre-check, so two
// concurrent registrations with the same email can never both succeed.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	birthDate, errs := req.validate()
	if len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "errors": errs})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}

	id := uuid.NewString()
	pair, err := utils.IssueTokenPair(h.Cfg.AccessSecret, h.Cfg.RefreshSecret,
		h.Cfg.AccessTTL(), h.Cfg.RefreshTTL(),
		utils.Identity{UserID: id, Email: req.Email, Role: model.RoleUser})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u := model.User{
		ID:               id,
		FullName:         req.FullName,
		BirthDate:        birthDate,
		Email:            req.Email,
		PasswordHash:     hash,
		Role:             model.RoleUser,
		IsActive:         true,
		RefreshTokenHash: utils.HashRefreshRaw(pair.Refresh.Token),
	}
	if err := h.Users.Create(ctx, &u); err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "user with this email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	// Re-fetch for the store-maintained timestamps.
	created, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	publishEvent(ctx, h.Publish, queue.EventUserRegistered, created)

	return c.JSON(http.StatusCreated, authResp{
		User:         created.Public(),
		AccessToken:  pair.Access.Token,
		RefreshToken: pair.Refresh.Token,
	})
}

// Login verifies credentials and rotates the session. Unknown emails are a
// 404, wrong passwords a 401, blocked accounts a 403; the wrong-password
// response never reveals more about the account than the 404 already did.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if errs := req.validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account is blocked"})
	}

	pair, err := h.issueAndStore(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:         u.Public(),
		AccessToken:  pair.Access.Token,
		RefreshToken: pair.Refresh.Token,
	})
}

// Refresh exchanges a valid refresh token for a fresh pair. The presented
// token must verify against the refresh secret AND match the digest stored
// on the user row, so a login or refresh on another device supersedes it.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refreshToken required"})
	}

	ident, err := utils.VerifyRefreshToken(h.Cfg.RefreshSecret, req.RefreshToken)
	switch err {
	case nil:
	case utils.ErrTokenExpired:
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token expired"})
	default:
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, ident.UserID)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account is blocked"})
	}
	if u.Email != ident.Email {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	// Only the most recently issued refresh token is honored.
	if u.RefreshTokenHash == "" || u.RefreshTokenHash != utils.HashRefreshRaw(req.RefreshToken) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	pair, err := h.issueAndStore(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:         u.Public(),
		AccessToken:  pair.Access.Token,
		RefreshToken: pair.Refresh.Token,
	})
}

// issueAndStore signs a new token pair for the user and persists the new
// refresh digest, overwriting any previous one (single active session).
func (h *AuthHandler) issueAndStore(ctx context.Context, u model.User) (utils.TokenPair, error) {
	pair, err := utils.IssueTokenPair(h.Cfg.AccessSecret, h.Cfg.RefreshSecret,
		h.Cfg.AccessTTL(), h.Cfg.RefreshTTL(),
		utils.Identity{UserID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return utils.TokenPair{}, err
	}
	if err := h.Users.UpdateRefreshHash(ctx, u.ID, utils.HashRefreshRaw(pair.Refresh.Token)); err != nil {
		return utils.TokenPair{}, err
	}
	return pair, nil
}

// publishEvent fires an account event, ignoring failures: event delivery is
// best-effort and must never fail the request that triggered it.
func publishEvent(ctx context.Context, publish publishFunc, eventType string, u model.User) {
	if publish == nil {
		return
	}
	_ = publish(ctx, queue.AccountEvent{
		EventType:  eventType,
		UserID:     u.ID,
		Email:      u.Email,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}
