package handler

// Request DTOs and their validation. Each request type carries a validate
// method that normalizes fields in place and returns the full, flat list of
// problems instead of stopping at the first one, so clients see every
// validation failure in a single 400 response.

import (
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// birthDateLayout matches the DATE wire format (YYYY-MM-DD).
const birthDateLayout = "2006-01-02"

// bcrypt operates on at most 72 bytes of input; longer passwords would be
// silently truncated by some implementations and rejected by ours, so the
// limit is enforced up front as a validation error.
const maxPasswordLen = 72

type registerReq struct {
	FullName  string `json:"fullName"`
	BirthDate string `json:"birthDate"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// validate normalizes the request and returns the parsed birth date along
// with all validation messages.
func (r *registerReq) validate() (time.Time, []string) {
	var errs []string

	r.FullName = strings.TrimSpace(r.FullName)
	if r.FullName == "" {
		errs = append(errs, "fullName is required")
	}

	var birthDate time.Time
	if r.BirthDate == "" {
		errs = append(errs, "birthDate is required")
	} else {
		d, err := time.Parse(birthDateLayout, r.BirthDate)
		if err != nil {
			errs = append(errs, "birthDate must be a date in YYYY-MM-DD format")
		} else {
			birthDate = d
		}
	}

	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if !validEmail(r.Email) {
		errs = append(errs, "email must be a valid email address")
	}

	if len(r.Password) < 6 {
		errs = append(errs, "password must be at least 6 characters")
	} else if len(r.Password) > maxPasswordLen {
		errs = append(errs, "password must be at most 72 characters")
	}

	return birthDate, errs
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *loginReq) validate() []string {
	var errs []string
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if !validEmail(r.Email) {
		errs = append(errs, "email must be a valid email address")
	}
	if r.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

// validEmail checks basic address syntax. mail.ParseAddress accepts the
// "Name <addr>" form too, so reject anything that does not round-trip to
// the bare address.
func validEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// parsePagination reads page/limit query parameters with defaults 1/10.
// Values below 1 or non-numeric are reported as validation errors.
func parsePagination(c echo.Context) (page, limit int, errs []string) {
	page, limit = 1, 10
	if s := c.QueryParam("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			errs = append(errs, "page must be a positive integer")
		} else {
			page = n
		}
	}
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			errs = append(errs, "limit must be a positive integer")
		} else {
			limit = n
		}
	}
	return page, limit, errs
}
