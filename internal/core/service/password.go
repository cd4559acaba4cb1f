package service

import (
	"context"
	"errors"
	"net/url"

	"github.com/yndnr/payauth-go/internal/cli/connection"
	"github.com/yndnr/payauth-go/internal/core/domain"
)

const (
	pathVerifyResetToken = "/auth/verify-reset-token"
	pathResetPassword    = "/auth/reset-password"
)

// PasswordRecoveryService drives the forgot/reset password flow.
type PasswordRecoveryService struct {
	client Requester
}

// NewPasswordRecoveryService creates a new PasswordRecoveryService.
func NewPasswordRecoveryService(client Requester) *PasswordRecoveryService {
	return &PasswordRecoveryService{client: client}
}

// SendRecoveryEmail asks the backend to email a reset link.
func (s *PasswordRecoveryService) SendRecoveryEmail(ctx context.Context, email string) (*domain.ForgotPasswordResponse, error) {
	var resp domain.ForgotPasswordResponse
	body := map[string]string{"email": email}
	if err := s.client.Post(ctx, pathForgotPassword, body, &resp); err != nil {
		return nil, s.translate(err)
	}
	return &resp, nil
}

// VerifyResetToken reports whether token is still valid.
//
// A 4xx answer means the token is invalid or expired and is not an error.
// A network failure or a 5xx answer is returned as an error, since the
// token's validity is unknown.
func (s *PasswordRecoveryService) VerifyResetToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	path := pathVerifyResetToken + "?token=" + url.QueryEscape(token)
	err := s.client.Get(ctx, path, nil)
	if err == nil {
		return true, nil
	}

	var apiErr *connection.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		return false, nil
	}
	if errors.As(err, &apiErr) {
		return false, domain.ErrRecoveryUnreachable.Remote("", apiErr.StatusCode, err)
	}
	return false, domain.ErrRecoveryUnreachable.WithCause(err)
}

// resetPayload is the reset-password body.
type resetPayload struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ResetPassword consumes a reset token and sets a new password.
func (s *PasswordRecoveryService) ResetPassword(ctx context.Context, data domain.ResetPasswordData) error {
	if err := checkNewPassword(data.NewPassword, data.ConfirmPassword,
		domain.ErrResetPasswordMismatch, domain.ErrResetPasswordTooShort); err != nil {
		return err
	}
	if data.Token == "" {
		return domain.ErrResetTokenMissing
	}

	payload := resetPayload{
		Token:           data.Token,
		NewPassword:     data.NewPassword,
		ConfirmPassword: data.ConfirmPassword,
	}
	if err := s.client.Post(ctx, pathResetPassword, payload, nil); err != nil {
		return s.translate(err)
	}
	return nil
}

func (s *PasswordRecoveryService) translate(err error) error {
	return translate(err, domain.ErrRecoveryRejected, domain.ErrRecoveryUnreachable)
}
