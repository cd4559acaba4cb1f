// Package connection provides the backend HTTP client for payauth-cli.
//
//   - http.go: JSON request/response client with bearer injection
//   - errors.go: APIError and TransportError, the two failure shapes
//
// The client is stateless apart from its TokenSource, which is consulted
// on every request so a login or logout takes effect immediately.
package connection
