package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resolvenow/internal/model"
	"github.com/iliyamo/resolvenow/internal/repository"
	"github.com/iliyamo/resolvenow/internal/utils"
	"github.com/iliyamo/resolvenow/internal/validation"
)

// UserStore is the persistence used by AuthHandler.  *repository.UserRepo
// satisfies it.
type UserStore interface {
	Create(ctx context.Context, name, email, password, role string, cost int) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// AuthConfig carries the token and hashing settings of AuthHandler.
type AuthConfig struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg   AuthConfig
	Users UserStore
	Log   *slog.Logger
}

func NewAuthHandler(cfg AuthConfig, users UserStore, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{Cfg: cfg, Users: users, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResp struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	User    *model.User `json:"user"`
}

// Register handles POST /auth/register.  New accounts always get the user
// role; a role field in the body is ignored.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return respondMessage(c, http.StatusBadRequest, MsgInvalidBody)
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.Struct(req); err != nil {
		return respondMessage(c, http.StatusBadRequest, err.Error())
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, model.RoleUser, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return respondMessage(c, http.StatusBadRequest, MsgUserExists)
		}
		return serverError(c, h.Log, "register user", err)
	}
	return h.issue(c, http.StatusCreated, u)
}

// Login handles POST /auth/login.  An unknown email and a wrong password get
// the same answer.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return respondMessage(c, http.StatusBadRequest, MsgInvalidBody)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.Struct(req); err != nil {
		return respondMessage(c, http.StatusBadRequest, err.Error())
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return respondMessage(c, http.StatusUnauthorized, MsgInvalidCredentials)
		}
		return serverError(c, h.Log, "login lookup", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return respondMessage(c, http.StatusUnauthorized, MsgInvalidCredentials)
	}
	return h.issue(c, http.StatusOK, u)
}

// Me handles GET /auth/me for the authenticated caller.
func (h *AuthHandler) Me(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return unauthorized(c)
		}
		return serverError(c, h.Log, "load user", err)
	}
	return respondData(c, http.StatusOK, u)
}

func (h *AuthHandler) issue(c echo.Context, status int, u *model.User) error {
	tok, err := utils.NewAccessToken(h.Cfg.Secret, u.ID, h.Cfg.TokenTTL)
	if err != nil {
		return serverError(c, h.Log, "issue token", err)
	}
	return c.JSON(status, authResp{Success: true, Token: tok.Token, User: u})
}
