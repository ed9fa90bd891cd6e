package handler

import (
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/car-marketplace/internal/middleware"
    "github.com/iliyamo/car-marketplace/internal/model"
    "github.com/iliyamo/car-marketplace/internal/service"
)

// AuthHandler serves /api/auth.
type AuthHandler struct {
    Auth   *service.AuthService
    Tokens *service.TokenService
}

func NewAuthHandler(auth *service.AuthService, tokens *service.TokenService) *AuthHandler {
    return &AuthHandler{Auth: auth, Tokens: tokens}
}

type refreshReq struct {
    RefreshToken string `json:"refreshToken"`
}

type profile struct {
    ID    uint64     `json:"id"`
    Email string     `json:"email"`
    Role  model.Role `json:"role"`
    Name  string     `json:"name,omitempty"`
    Phone string     `json:"phone,omitempty"`
}

// Register creates an owner account and returns a token pair.
func (h *AuthHandler) Register(c echo.Context) error {
    var in model.RegisterInput
    if err := bind(c, &in); err != nil {
        return err
    }
    res, err := h.Auth.Register(c.Request().Context(), in)
    if err != nil {
        return err
    }
    return created(c, res)
}

func (h *AuthHandler) Login(c echo.Context) error {
    var in model.LoginInput
    if err := bind(c, &in); err != nil {
        return err
    }
    res, err := h.Auth.Login(c.Request().Context(), in)
    if err != nil {
        return err
    }
    return ok(c, res)
}

// Refresh rotates the token pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := bind(c, &req); err != nil {
        return err
    }
    pair, err := h.Tokens.Refresh(c.Request().Context(), strings.TrimSpace(req.RefreshToken))
    if err != nil {
        return err
    }
    return ok(c, pair)
}

func (h *AuthHandler) Logout(c echo.Context) error {
    u, err := middleware.MustCaller(c)
    if err != nil {
        return err
    }
    if err := h.Tokens.Logout(c.Request().Context(), u.ID); err != nil {
        return err
    }
    return ok(c, echo.Map{"success": true})
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c echo.Context) error {
    u, err := middleware.MustCaller(c)
    if err != nil {
        return err
    }
    usr, err := h.Auth.Me(c.Request().Context(), u.ID)
    if err != nil {
        return err
    }
    return ok(c, profile{ID: usr.ID, Email: usr.Email, Role: usr.Role, Name: usr.Name, Phone: usr.Phone})
}
