package metric

import (
	"testing"

	"github.com/yndnr/payauth-go/internal/core/domain"
)

func findSample(samples []Sample, name, labels string) (Sample, bool) {
	for _, s := range samples {
		if s.Name == name && s.Labels == labels {
			return s, true
		}
	}
	return Sample{}, false
}

func TestRegistry_Snapshot(t *testing.T) {
	r := NewRegistry()

	r.ClientRequests.WithLabelValues("GET", "200").Inc()
	r.ClientRequests.WithLabelValues("GET", "200").Inc()
	r.ClientRequests.WithLabelValues("POST", "transport").Inc()
	r.ClientDuration.WithLabelValues("GET").Observe(0.25)
	r.SessionTransitions.WithLabelValues("anonymous").Inc()

	samples, err := r.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	s, ok := findSample(samples, "payauth_http_client_requests_total", "code=200,method=GET")
	if !ok || s.Value != 2 {
		t.Errorf("GET 200 sample = %+v, found %v", s, ok)
	}
	if _, ok := findSample(samples, "payauth_http_client_requests_total", "code=transport,method=POST"); !ok {
		t.Error("missing transport sample")
	}
	s, ok = findSample(samples, "payauth_http_client_request_duration_seconds_count", "method=GET")
	if !ok || s.Value != 1 {
		t.Errorf("histogram count = %+v, found %v", s, ok)
	}
	s, ok = findSample(samples, "payauth_http_client_request_duration_seconds_sum", "method=GET")
	if !ok || s.Value != 0.25 {
		t.Errorf("histogram sum = %+v, found %v", s, ok)
	}

	for i := 1; i < len(samples); i++ {
		if samples[i-1].Name > samples[i].Name {
			t.Fatalf("samples not sorted at %d: %q > %q", i, samples[i-1].Name, samples[i].Name)
		}
	}
}

func TestSessionCollector(t *testing.T) {
	r := NewRegistry()
	current := domain.InitialSession()
	r.MustRegister(NewSessionCollector(func() domain.Session { return current }))

	samples, err := r.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if s, _ := findSample(samples, "payauth_session_loading", ""); s.Value != 1 {
		t.Errorf("loading = %v, want 1", s.Value)
	}

	current = domain.Authenticated(domain.User{ID: "1"})
	samples, _ = r.Snapshot()
	if s, _ := findSample(samples, "payauth_session_authenticated", ""); s.Value != 1 {
		t.Errorf("authenticated = %v, want 1", s.Value)
	}
	if s, _ := findSample(samples, "payauth_session_loading", ""); s.Value != 0 {
		t.Errorf("loading = %v, want 0", s.Value)
	}
}
