package users

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/2beens/rapidfit/internal/auth"
	"github.com/2beens/rapidfit/internal/mail"
	"github.com/2beens/rapidfit/internal/telemetry/metrics"
	"github.com/2beens/rapidfit/internal/telemetry/tracing"
	"github.com/2beens/rapidfit/pkg"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=users_test

var ErrInvalidCredentials = errors.New("invalid credentials")

type usersRepo interface {
	Add(ctx context.Context, user *User) error
	Get(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, id, name, email string, updatedAt time.Time) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
}

type sessionStore interface {
	Login(ctx context.Context, userID string, createdAt time.Time) (string, error)
	Logout(ctx context.Context, token string) (bool, error)
}

type resetTokenStore interface {
	Issue(ctx context.Context, userID string) (string, error)
	Consume(ctx context.Context, token string) (string, error)
}

type mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

type NewServiceParams struct {
	Repo             usersRepo
	Sessions         sessionStore
	ResetTokens      resetTokenStore
	Mailer           mailer
	PasswordResetURL string
	MetricsManager   *metrics.Manager
}

type Service struct {
	repo             usersRepo
	sessions         sessionStore
	resetTokens      resetTokenStore
	mailer           mailer
	passwordResetURL string
	metricsManager   *metrics.Manager

	// injectable for tests, bcrypt with the production cost is slow
	HashPasswordFunc  func(password string) (string, error)
	CheckPasswordFunc func(password, hash string) bool
	NowFunc           func() time.Time
}

func NewService(params NewServiceParams) *Service {
	return &Service{
		repo:              params.Repo,
		sessions:          params.Sessions,
		resetTokens:       params.ResetTokens,
		mailer:            params.Mailer,
		passwordResetURL:  params.PasswordResetURL,
		metricsManager:    params.MetricsManager,
		HashPasswordFunc:  pkg.HashPassword,
		CheckPasswordFunc: pkg.CheckPasswordHash,
		NowFunc:           time.Now,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (_ *AuthResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.register")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	passwordHash, err := s.HashPasswordFunc(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.NowFunc()
	user := &User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        NormalizeEmail(req.Email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Add(ctx, user); err != nil {
		return nil, fmt.Errorf("add user: %w", err)
	}

	token, err := s.sessions.Login(ctx, user.ID, now)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.metricsManager.CounterRegistrations.Inc()
	return &AuthResult{Token: token, User: user}, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (_ *AuthResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.login")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.metricsManager.CounterLogins.WithLabelValues("failure").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !s.CheckPasswordFunc(req.Password, user.PasswordHash) {
		s.metricsManager.CounterLogins.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	token, err := s.sessions.Login(ctx, user.ID, s.NowFunc())
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.metricsManager.CounterLogins.WithLabelValues("success").Inc()
	return &AuthResult{Token: token, User: user}, nil
}

func (s *Service) Logout(ctx context.Context, token string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.logout")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	existed, err := s.sessions.Logout(ctx, token)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if !existed {
		log.Tracef("logout: session already gone")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.get")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return s.repo.Get(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.updateprofile")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return s.repo.UpdateProfile(ctx, id, req.Name, NormalizeEmail(req.Email), s.NowFunc())
}

// ForgotPassword mails a reset link when the email is registered. Unknown emails are not an error.
func (s *Service) ForgotPassword(ctx context.Context, email string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.forgotpassword")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			log.Tracef("forgot password: no user for the given email")
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}

	token, err := s.resetTokens.Issue(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	if err := s.mailer.Send(ctx, mail.Message{
		To:      user.Email,
		Subject: "RapidFit password reset",
		Body:    s.resetMailBody(user.Name, token),
	}); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}

	s.metricsManager.CounterPasswordResets.WithLabelValues("requested").Inc()
	return nil
}

func (s *Service) resetMailBody(name, token string) string {
	link := s.passwordResetURL + "?token=" + url.QueryEscape(token)
	return fmt.Sprintf(
		"Hi %s,\n\nsomeone asked to reset the password of your RapidFit account.\n"+
			"Open the link below to choose a new one:\n\n%s\n\n"+
			"The link is valid for a limited time and can be used once.\n"+
			"If the request was not yours, ignore this message.\n",
		name, link,
	)
}

func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.resetpassword")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	// hash first, a failure here must not burn the one-time token
	passwordHash, err := s.HashPasswordFunc(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userID, err := s.resetTokens.Consume(ctx, req.Token)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePassword(ctx, userID, passwordHash, s.NowFunc()); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return auth.ErrInvalidResetToken
		}
		return fmt.Errorf("update password: %w", err)
	}

	s.metricsManager.CounterPasswordResets.WithLabelValues("completed").Inc()
	return nil
}
