// Package domain defines the core domain models for PayAuth.
//
// Domain models are pure value objects without any IO dependencies
// or framework coupling. This package contains:
//
//   - User, UserProfile, Address: values fetched from the backend
//   - Session: the client's authentication state
//   - Request payloads for the auth and recovery flows
//   - DomainError: coded errors shared by all domain services
package domain
