// Package service provides the domain services of payauth-cli.
//
// Each service shapes a backend request, calls the HTTP client and
// translates failures into a *domain.DomainError of its own kind:
//
//   - AuthService: register, login, profile, refresh (KindAuth)
//   - PasswordRecoveryService: forgot/verify/reset (KindPasswordRecovery)
//   - UsersService: listing and search (KindUsers)
//   - AddressService: postal code lookup against ViaCEP (KindCEP)
//
// Input that can be rejected locally (mismatched passwords, short
// passwords, malformed CEP) fails before any network call.
//
// Services hold no mutable state and are safe for concurrent use.
package service
