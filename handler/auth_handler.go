package handler

import (
	"context"
	"jwt-auth-api/common"
	"jwt-auth-api/config"
	"jwt-auth-api/model"
	"jwt-auth-api/service"
	"net/http"
	"strings"
	"time"
)

// TokenService is the lifecycle API the auth endpoints drive.
type TokenService interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error)
	Logout(ctx context.Context, refreshToken string)
}

type AuthHandler struct {
	tokens TokenService
	cookie config.CookieConfig
	now    func() time.Time
}

func NewAuthHandler(tokens TokenService, cookie config.CookieConfig) *AuthHandler {
	return &AuthHandler{tokens: tokens, cookie: cookie, now: time.Now}
}

// Login godoc
// @Summary      Log in
// @Description  Verifies credentials, returns the access token in the Authorization header and sets the refresh cookie
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body      model.LoginRequest  true  "Login credentials"
// @Success      200          {object}  model.APIResponse{data=model.UserSummary}
// @Failure      400          {object}  model.APIResponse
// @Failure      401          {object}  model.APIResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if appErr := common.ValidateAndDecode(w, r, &req); appErr != nil {
		return appErr
	}

	result, err := h.tokens.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return mapAuthError(err)
	}

	h.writeTokens(w, result.Tokens)
	common.WriteJSON(w, http.StatusOK, model.APIResponse{Message: "login_ok", Data: result.User})
	return nil
}

// Refresh godoc
// @Summary      Rotate tokens
// @Description  Consumes the refresh cookie and issues a new access token and refresh cookie
// @Tags         auth
// @Produce      json
// @Success      200  {object}  model.APIResponse
// @Failure      401  {object}  model.APIResponse
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	pair, err := h.tokens.Refresh(r.Context(), h.refreshCookie(r))
	if err != nil {
		return mapAuthError(err)
	}

	h.writeTokens(w, *pair)
	common.WriteJSON(w, http.StatusOK, model.APIResponse{Message: "refresh_ok"})
	return nil
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes the refresh token if known and clears the refresh cookie. Always succeeds.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  model.APIResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	h.tokens.Logout(r.Context(), h.refreshCookie(r))

	http.SetCookie(w, h.newCookie("", -1))
	common.WriteJSON(w, http.StatusOK, model.APIResponse{Message: "logout_ok"})
	return nil
}

// Me godoc
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.APIResponse{data=model.Identity}
// @Failure      401  {object}  model.APIResponse
// @Router       /api/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) *common.AppError {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "unauthorized", nil)
	}
	common.WriteJSON(w, http.StatusOK, model.APIResponse{Message: "me_ok", Data: identity})
	return nil
}

// AdminPing godoc
// @Summary      Admin only ping
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.APIResponse
// @Failure      401  {object}  model.APIResponse
// @Failure      403  {object}  model.APIResponse
// @Router       /api/admin/ping [get]
func (h *AuthHandler) AdminPing(w http.ResponseWriter, r *http.Request) *common.AppError {
	common.WriteJSON(w, http.StatusOK, model.APIResponse{Message: "admin_ok", Data: "pong"})
	return nil
}

func (h *AuthHandler) writeTokens(w http.ResponseWriter, pair service.TokenPair) {
	w.Header().Set("Authorization", "Bearer "+pair.AccessToken)

	maxAge := int(pair.RefreshExpiresAt.Sub(h.now()).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	http.SetCookie(w, h.newCookie(pair.RefreshToken, maxAge))
}

func (h *AuthHandler) refreshCookie(r *http.Request) string {
	c, err := r.Cookie(h.cookie.RefreshName)
	if err != nil {
		return ""
	}
	return c.Value
}

// newCookie builds the refresh cookie. A negative maxAge clears it.
func (h *AuthHandler) newCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.RefreshName,
		Value:    value,
		Path:     h.cookie.Path,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: sameSite(h.cookie.SameSite),
	}
}

func sameSite(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
