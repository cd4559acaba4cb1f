package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/yndnr/payauth-go/internal/core/domain"
	"github.com/yndnr/payauth-go/internal/telemetry/logger"
	"github.com/yndnr/payauth-go/internal/telemetry/metric"
)

// DefaultCEPEndpoint is the ViaCEP base URL.
const DefaultCEPEndpoint = "https://viacep.com.br/ws"

// cepLength is the number of digits in a Brazilian postal code.
const cepLength = 8

// ValidateCEP reports whether s holds exactly 8 digits once
// non-digits are removed.
func ValidateCEP(s string) bool {
	return len(onlyDigits(s)) == cepLength
}

// FormatCEP strips non-digits and inserts a hyphen after the fifth digit
// when at least 8 digits remain: "01310930" becomes "01310-930".
func FormatCEP(s string) string {
	digits := onlyDigits(s)
	if len(digits) < cepLength {
		return digits
	}
	return digits[:5] + "-" + digits[5:]
}

// viaCEPResponse is the ViaCEP record. Erro is present only for unknown
// postal codes.
type viaCEPResponse struct {
	CEP         string          `json:"cep"`
	Logradouro  string          `json:"logradouro"`
	Complemento string          `json:"complemento"`
	Bairro      string          `json:"bairro"`
	Localidade  string          `json:"localidade"`
	UF          string          `json:"uf"`
	Erro        json.RawMessage `json:"erro,omitempty"`
}

// AddressService resolves postal codes through ViaCEP.
type AddressService struct {
	httpClient *http.Client
	endpoint   string
	limiter    *rate.Limiter
	userAgent  string
	metrics    *metric.Registry
	logger     logger.Logger
}

// AddressOption configures an AddressService.
type AddressOption func(*AddressService)

// WithEndpoint replaces the ViaCEP base URL.
func WithEndpoint(endpoint string) AddressOption {
	return func(s *AddressService) {
		if endpoint != "" {
			s.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// WithRateLimit paces outbound lookups to r per second with the given
// burst. A non-positive r disables pacing.
func WithRateLimit(r float64, burst int) AddressOption {
	return func(s *AddressService) {
		if r <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// WithAddressHTTPClient replaces the HTTP client.
func WithAddressHTTPClient(hc *http.Client) AddressOption {
	return func(s *AddressService) {
		s.httpClient = hc
	}
}

// WithAddressMetrics counts lookups by outcome.
func WithAddressMetrics(m *metric.Registry) AddressOption {
	return func(s *AddressService) {
		s.metrics = m
	}
}

// WithAddressLogger sets the logger.
func WithAddressLogger(l logger.Logger) AddressOption {
	return func(s *AddressService) {
		s.logger = l
	}
}

// WithAddressUserAgent sets the User-Agent header.
func WithAddressUserAgent(ua string) AddressOption {
	return func(s *AddressService) {
		s.userAgent = ua
	}
}

// NewAddressService creates an AddressService with a 2 req/s limit.
func NewAddressService(opts ...AddressOption) *AddressService {
	s := &AddressService{
		httpClient: &http.Client{},
		endpoint:   DefaultCEPEndpoint,
		limiter:    rate.NewLimiter(2, 1),
		userAgent:  "payauth-cli/dev",
		logger:     logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup resolves cep to an address. Invalid input fails without a
// network call. An unknown CEP yields domain.ErrCEPNotFound.
func (s *AddressService) Lookup(ctx context.Context, cep string) (*domain.Address, error) {
	digits := onlyDigits(cep)
	if len(digits) != cepLength {
		s.observe("invalid")
		return nil, domain.ErrCEPInvalid
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			s.observe("unreachable")
			return nil, domain.ErrCEPUnreachable.WithCause(err)
		}
	}

	reqURL := fmt.Sprintf("%s/%s/json/", s.endpoint, digits)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		s.observe("unreachable")
		return nil, domain.ErrCEPUnreachable.WithCause(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("cep lookup failed", "cep", digits, "error", err)
		s.observe("unreachable")
		return nil, domain.ErrCEPUnreachable.WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("cep lookup returned error status", "cep", digits, "http_status", resp.StatusCode)
		s.observe("error")
		return nil, domain.ErrCEPLookupFailed.WithStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.observe("unreachable")
		return nil, domain.ErrCEPUnreachable.WithCause(err)
	}

	var data viaCEPResponse
	if err := json.Unmarshal(body, &data); err != nil {
		s.logger.Warn("cep lookup returned malformed body", "cep", digits, "error", err)
		s.observe("unreachable")
		return nil, domain.ErrCEPUnreachable.WithCause(err)
	}

	if data.Erro != nil {
		s.observe("not_found")
		return nil, domain.ErrCEPNotFound
	}

	s.observe("ok")
	return &domain.Address{
		Street:       data.Logradouro,
		Neighborhood: data.Bairro,
		City:         data.Localidade,
		State:        data.UF,
		CEP:          FormatCEP(digits),
	}, nil
}

func (s *AddressService) observe(result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.AddressLookups.WithLabelValues(result).Inc()
}
