package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Romanticus/TRexpress/internal/model"
	"github.com/Romanticus/TRexpress/internal/queue"
	"github.com/Romanticus/TRexpress/internal/repository"
	queue_publisher "github.com/Romanticus/TRexpress/internal/service"
)

// UserHandler serves lookup, listing and block/unblock. Authentication and
// role checks happen in the middleware chain; by the time these handlers
// run the caller is known and authorized.
type UserHandler struct {
	Users   repository.UserStore
	Publish publishFunc
}

func NewUserHandler(users repository.UserStore) *UserHandler {
	return &UserHandler{Users: users, Publish: queue_publisher.PublishAccountEvent}
}

type listResp struct {
	Data       []model.PublicUser `json:"data"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"totalPages"`
}

// GetByID returns a single sanitized user.
func (h *UserHandler) GetByID(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, u.Public())
}

// List returns one page of users with pagination metadata (admin only).
func (h *UserHandler) List(c echo.Context) error {
	page, limit, errs := parsePagination(c)
	if len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, total, err := h.Users.List(ctx, page, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	data := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		data = append(data, u.Public())
	}
	return c.JSON(http.StatusOK, listResp{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	})
}

// Block deactivates an account. Tokens issued before the block stop working
// on the next request because the auth middleware re-fetches the account.
func (h *UserHandler) Block(c echo.Context) error {
	return h.setActive(c, false, queue.EventUserBlocked)
}

// Unblock reactivates an account (admin only).
func (h *UserHandler) Unblock(c echo.Context) error {
	return h.setActive(c, true, queue.EventUserUnblocked)
}

func (h *UserHandler) setActive(c echo.Context, active bool, eventType string) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id := c.Param("id")
	if _, err := h.Users.GetByID(ctx, id); err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Users.UpdateActive(ctx, id, active); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	publishEvent(ctx, h.Publish, eventType, u)

	return c.JSON(http.StatusOK, u.Public())
}
