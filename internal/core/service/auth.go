package service

import (
	"context"

	"github.com/yndnr/payauth-go/internal/cli/connection"
	"github.com/yndnr/payauth-go/internal/core/domain"
)

// Backend auth endpoints.
const (
	pathRegister       = "/auth/register"
	pathLogin          = "/auth/login"
	pathProfile        = "/auth/profile"
	pathRefresh        = "/auth/refresh"
	pathForgotPassword = "/auth/forgot-password"
)

// AuthService talks to the backend authentication endpoints.
type AuthService struct {
	client Requester
}

// NewAuthService creates a new AuthService.
func NewAuthService(client Requester) *AuthService {
	return &AuthService{client: client}
}

// registerPayload is the backend's registration body. The backend names
// the full name field "nome" and wants a digits-only CEP.
type registerPayload struct {
	Nome     string `json:"nome"`
	Email    string `json:"email"`
	Password string `json:"password"`
	CEP      string `json:"cep"`
	Numero   string `json:"numero"`
}

// Register creates an account.
func (s *AuthService) Register(ctx context.Context, data domain.RegisterData) (*domain.AuthResponse, error) {
	if err := checkNewPassword(data.Password, data.ConfirmPassword,
		domain.ErrPasswordMismatch, domain.ErrPasswordTooShort); err != nil {
		return nil, err
	}

	payload := registerPayload{
		Nome:     data.FullName,
		Email:    data.Email,
		Password: data.Password,
		CEP:      onlyDigits(data.Address.CEP),
		Numero:   data.Address.Number,
	}
	return s.authenticate(ctx, pathRegister, payload)
}

// Login exchanges credentials for a token.
func (s *AuthService) Login(ctx context.Context, data domain.LoginData) (*domain.AuthResponse, error) {
	return s.authenticate(ctx, pathLogin, data)
}

// Refresh exchanges the current token for a new one.
func (s *AuthService) Refresh(ctx context.Context) (*domain.AuthResponse, error) {
	return s.authenticate(ctx, pathRefresh, nil)
}

func (s *AuthService) authenticate(ctx context.Context, path string, body any) (*domain.AuthResponse, error) {
	var resp domain.AuthResponse
	if err := s.client.Post(ctx, path, body, &resp); err != nil {
		return nil, s.translate(err)
	}
	if resp.AccessToken == "" {
		return nil, domain.ErrMissingAccessToken
	}
	return &resp, nil
}

// Profile fetches the current user with the persisted token.
func (s *AuthService) Profile(ctx context.Context) (*domain.User, error) {
	return s.profile(ctx)
}

// ProfileWithToken fetches the user that token belongs to. The persisted
// token is neither read nor changed.
func (s *AuthService) ProfileWithToken(ctx context.Context, token string) (*domain.User, error) {
	return s.profile(ctx, connection.WithBearer(token))
}

func (s *AuthService) profile(ctx context.Context, opts ...connection.RequestOption) (*domain.User, error) {
	var user domain.User
	if err := s.client.Get(ctx, pathProfile, &user, opts...); err != nil {
		return nil, s.translate(err)
	}
	return &user, nil
}

// UpdateProfile changes the current user's profile and returns the
// updated user.
func (s *AuthService) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.User, error) {
	var user domain.User
	if err := s.client.Patch(ctx, pathProfile, update, &user); err != nil {
		return nil, s.translate(err)
	}
	return &user, nil
}

// ForgotPassword asks the backend to send a reset email.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*domain.ForgotPasswordResponse, error) {
	var resp domain.ForgotPasswordResponse
	body := map[string]string{"email": email}
	if err := s.client.Post(ctx, pathForgotPassword, body, &resp); err != nil {
		return nil, s.translate(err)
	}
	return &resp, nil
}

func (s *AuthService) translate(err error) error {
	return translate(err, domain.ErrAuthRejected, domain.ErrAuthUnreachable)
}
