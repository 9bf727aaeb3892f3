package handler

import (
	"context"
	"net"
	"net/http"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
)

type AuthService interface {
	Login(ctx context.Context, in core.LoginInput) (core.LoginResult, error)
	Register(ctx context.Context, in core.RegisterInput) (model.User, error)
}

type AuthHandler struct {
	Service AuthService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Captcha  string `json:"captcha"`
}

type registerRequest struct {
	Name     string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Success bool        `json:"success"`
	Msg     string      `json:"msg"`
	Token   string      `json:"token,omitempty"`
	User    *model.User `json:"user,omitempty"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.Service.Login(r.Context(), core.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Captcha:  req.Captcha,
		RemoteIP: remoteIP(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Success: true,
		Msg:     "Inicio de sesión exitoso",
		Token:   res.Token,
		User:    &res.User,
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if _, err := h.Service.Register(r.Context(), core.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{Success: true, Msg: "Usuario registrado correctamente"})
}

func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	failWith(w, r, err, authResponse{Success: false, Msg: messageFor(err)})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
