package handler

import (
	"context"  // per-request timeouts for store calls
	"net/http" // HTTP status codes
	"strings"  // input normalisation
	"time"     // token expiry

	"github.com/cockroachdb/errors" // sentinel matching and wrapping
	"github.com/labstack/echo/v4"   // Echo web framework
	"go.uber.org/zap"               // structured logging

	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/service"
	"github.com/iliyamo/restaurant-reservation/internal/utils"
	"github.com/iliyamo/restaurant-reservation/internal/validation"
)

// Users is the account store used by the auth endpoints.
type Users interface {
	Create(ctx context.Context, name, email, password, role string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Tokens stores hashed refresh tokens.
type Tokens interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	Rotate(ctx context.Context, oldHash, newHash string, exp time.Time) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for the /v1/auth endpoints. Access tokens
// are stateless JWTs; refresh tokens are random strings whose SHA-256 hash is
// stored so that a session can be rotated or revoked. Every store call runs
// under authTimeout so a slow database cannot pin a request goroutine.
type AuthHandler struct {
	cfg      config.JWTConfig      // signing secret, token lifetimes and bcrypt cost
	users    Users                 // account lookups and registration
	tokens   Tokens                // hashed refresh tokens
	audit    *service.Auditor      // register and login trail
	validate *validation.Validator // request struct validation
	log      *zap.Logger
}

// NewAuthHandler wires the auth endpoints to their stores.
func NewAuthHandler(cfg config.JWTConfig, u Users, t Tokens, audit *service.Auditor, v *validation.Validator, log *zap.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, users: u, tokens: t, audit: audit, validate: v, log: log}
}

const authTimeout = 5 * time.Second

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user owner admin"` // defaults to user
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User    model.UserSummary `json:"user"`
	Token   string            `json:"token"` // same as Access.Token, kept for older clients
	Access  tokenPart         `json:"access"`
	Refresh tokenPart         `json:"refresh"`
}

// Register handles POST /v1/auth/register. It validates the body, stores the
// account with a bcrypt hash and returns 201 with a fresh token pair so the
// client is signed in straight away. A taken email answers 400.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, h.log, err)
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	uid, err := h.users.Create(ctx, req.Name, req.Email, req.Password, req.Role, h.cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return badRequest(c, "Email already registered")
		}
		return respondError(c, h.log, errors.Wrap(err, "create user"))
	}
	h.audit.Record(model.NewActivity("register", "user", uid, uid, map[string]any{"email": req.Email, "role": req.Role}))

	user := model.UserSummary{ID: uid, Name: req.Name, Email: req.Email, Role: req.Role}
	resp, err := h.issue(ctx, user)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login handles POST /v1/auth/login. Unknown emails and wrong passwords both
// answer 401 with the same message, so the endpoint does not reveal which
// accounts exist. On success a new token pair is issued.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, h.log, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	u, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return respondError(c, h.log, err)
	}
	if err != nil || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid email or password"})
	}
	h.audit.Record(model.NewActivity("login", "user", u.ID, u.ID, map[string]any{"email": u.Email}))

	resp, err := h.issue(ctx, model.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh handles POST /v1/auth/refresh. The presented refresh token is
// revoked and replaced in one step, and a new pair is returned. A revoked,
// expired or unknown token answers 401.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw, ok := h.bindRefresh(c)
	if !ok {
		return badRequest(c, "refreshToken required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	next, err := utils.NewRefreshToken(h.cfg.RefreshTTLDays)
	if err != nil {
		return respondError(c, h.log, err)
	}
	uid, err := h.tokens.Rotate(ctx, utils.HashRefreshRaw(raw), utils.HashRefreshRaw(next.Raw), next.Exp)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidRefresh) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return respondError(c, h.log, err)
	}
	u, err := h.users.GetByID(ctx, uid)
	if err != nil {
		return respondError(c, h.log, err)
	}
	access, err := utils.NewAccessToken(h.cfg.Secret, u.ID, u.Role, h.cfg.AccessTTLMin)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, authResp{
		User:    model.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role},
		Token:   access.Token,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: next.Raw, Expires: next.Exp},
	})
}

// RefreshAccess handles POST /v1/auth/refresh-access. It returns a new access
// token and leaves the refresh token untouched.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	raw, ok := h.bindRefresh(c)
	if !ok {
		return badRequest(c, "refreshToken required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	uid, err := h.tokens.ValidateRefresh(ctx, utils.HashRefreshRaw(raw))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidRefresh) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return respondError(c, h.log, err)
	}
	u, err := h.users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return respondError(c, h.log, err)
	}
	access, err := utils.NewAccessToken(h.cfg.Secret, u.ID, u.Role, h.cfg.AccessTTLMin)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"token":  access.Token,
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout handles POST /v1/auth/logout. It revokes one session when a refresh
// token is posted, or every session of the bearer when only an access token
// is given. Answers 204 on success and 400 when neither is present.
func (h *AuthHandler) Logout(c echo.Context) error {
	var uid uint64
	if raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer "); ok {
		if claims, err := utils.ParseAccessToken(h.cfg.Secret, strings.TrimSpace(raw)); err == nil {
			uid = claims.UserID
		}
	}
	refresh, _ := h.bindRefresh(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	switch {
	case refresh != "":
		hash := utils.HashRefreshRaw(refresh)
		if _, err := h.tokens.ValidateRefresh(ctx, hash); err != nil {
			if errors.Is(err, repository.ErrInvalidRefresh) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
			}
			return respondError(c, h.log, err)
		}
		if err := h.tokens.RevokeByHash(ctx, hash); err != nil {
			return respondError(c, h.log, err)
		}
	case uid != 0:
		if err := h.tokens.RevokeAllForUser(ctx, uid); err != nil {
			return respondError(c, h.log, err)
		}
	default:
		return badRequest(c, "provide Authorization header or refreshToken")
	}
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /v1/auth/me and returns the caller's profile. The route sits
// behind JWT middleware, so the user ID always comes from a verified token.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok, err := requireUser(c)
	if !ok {
		return err
	}
	u, err := h.users.GetByID(c.Request().Context(), uid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
		}
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, u)
}

// bindRefresh reads refreshToken from the body. Missing or blank counts as
// absent.
func (h *AuthHandler) bindRefresh(c echo.Context) (string, bool) {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return "", false
	}
	raw := strings.TrimSpace(req.RefreshToken)
	return raw, raw != ""
}

// issue signs an access token and stores a fresh refresh token for user.
func (h *AuthHandler) issue(ctx context.Context, user model.UserSummary) (authResp, error) {
	access, err := utils.NewAccessToken(h.cfg.Secret, user.ID, user.Role, h.cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, errors.Wrap(err, "issue access token")
	}
	refresh, err := utils.NewRefreshToken(h.cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, errors.Wrap(err, "issue refresh token")
	}
	if err := h.tokens.StoreRefresh(ctx, user.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    user,
		Token:   access.Token,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}
