package users

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/rapidfit/internal/auth"
	"github.com/2beens/rapidfit/internal/middleware"
	"github.com/2beens/rapidfit/internal/telemetry/tracing"
	"github.com/2beens/rapidfit/pkg"

	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

type userResponse struct {
	User *User `json:"user"`
}

// decodeRequest reads a JSON body into req, and writes the 400 response itself on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, req interface{ Validate() error }) bool {
	if !pkg.IsJSONRequest(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		log.Tracef("decode request [%s]: %s", r.URL.Path, err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.register")
	defer span.End()

	var req RegisterRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	res, err := h.service.Register(ctx, req)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			http.Error(w, "email already registered", http.StatusBadRequest)
			return
		}
		log.Errorf("register user: %s", err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}

	log.Debugf("new user registered: %s", res.User.ID)
	pkg.WriteJSON(w, res, http.StatusCreated)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.login")
	defer span.End()

	var req LoginRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	res, err := h.service.Login(ctx, req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			http.Error(w, "invalid email or password", http.StatusBadRequest)
			return
		}
		log.Errorf("login user: %s", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, res, http.StatusOK)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.logout")
	defer span.End()

	token, ok := middleware.TokenFromContext(ctx)
	if !ok {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}

	if err := h.service.Logout(ctx, token); err != nil {
		log.Errorf("logout: %s", err)
		http.Error(w, "logout failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONMessage(w, "logged out", http.StatusOK)
}

func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.get")
	defer span.End()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}

	user, err := h.service.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		log.Errorf("get user %s: %s", userID, err)
		http.Error(w, "get user failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, userResponse{User: user}, http.StatusOK)
}

func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.updateprofile")
	defer span.End()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	user, err := h.service.UpdateProfile(ctx, userID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			http.Error(w, "email already registered", http.StatusBadRequest)
		case errors.Is(err, ErrUserNotFound):
			http.Error(w, "user not found", http.StatusNotFound)
		default:
			log.Errorf("update profile %s: %s", userID, err)
			http.Error(w, "update profile failed", http.StatusInternalServerError)
		}
		return
	}

	pkg.WriteJSON(w, userResponse{User: user}, http.StatusOK)
}

// HandleForgotPassword answers 200 for any well formed request, so it does not reveal which emails are registered.
func (h *Handler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.forgotpassword")
	defer span.End()

	var req ForgotPasswordRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.service.ForgotPassword(ctx, req.Email); err != nil {
		log.Errorf("forgot password: %s", err)
	}

	pkg.WriteJSONMessage(w, "if the email is registered, a reset link has been sent", http.StatusOK)
}

func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.resetpassword")
	defer span.End()

	var req ResetPasswordRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.service.ResetPassword(ctx, req); err != nil {
		if errors.Is(err, auth.ErrInvalidResetToken) {
			http.Error(w, "invalid or expired reset token", http.StatusBadRequest)
			return
		}
		log.Errorf("reset password: %s", err)
		http.Error(w, "reset password failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONMessage(w, "password updated", http.StatusOK)
}
