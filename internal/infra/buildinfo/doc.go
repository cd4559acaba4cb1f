// Package buildinfo exposes build-time information injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/payauth-go/internal/infra/buildinfo.Version=v1.0.0"
//
// The User-Agent sent to the backend and to the address service is
// derived from it.
package buildinfo
