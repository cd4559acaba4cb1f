package service

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/yndnr/payauth-go/internal/cli/connection"
	"github.com/yndnr/payauth-go/internal/core/domain"
)

// Requester is the subset of connection.HTTPClient the services use.
type Requester interface {
	Get(ctx context.Context, path string, out any, opts ...connection.RequestOption) error
	Post(ctx context.Context, path string, body, out any, opts ...connection.RequestOption) error
	Patch(ctx context.Context, path string, body, out any, opts ...connection.RequestOption) error
	Delete(ctx context.Context, path string, out any, opts ...connection.RequestOption) error
}

// translate maps a client error onto the service's error kind.
//
// APIError keeps the backend message and status. TransportError becomes
// the kind's "unreachable" error. The original error stays reachable
// through errors.As.
func translate(err error, rejected, unreachable *domain.DomainError) error {
	if err == nil {
		return nil
	}

	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}

	var apiErr *connection.APIError
	if errors.As(err, &apiErr) {
		return rejected.Remote(apiErr.Message, apiErr.StatusCode, err)
	}

	var transportErr *connection.TransportError
	if errors.As(err, &transportErr) {
		return unreachable.WithCause(err)
	}

	return rejected.WithCause(err)
}

func onlyDigits(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

// checkNewPassword runs the local password rules shared by registration
// and reset.
func checkNewPassword(password, confirm string, mismatch, tooShort *domain.DomainError) error {
	if password != confirm {
		return mismatch
	}
	if utf8.RuneCountInString(password) < domain.MinPasswordLength {
		return tooShort
	}
	return nil
}
