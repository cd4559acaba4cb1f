package tlsroots

import (
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeServerCA(t *testing.T, server *httptest.Server) string {
	t.Helper()
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: server.Certificate().Raw})
	path := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewPool(t *testing.T) {
	if NewPool().Pool() == nil {
		t.Fatal("Pool() returned nil")
	}
	if NewEmptyPool().Pool() == nil {
		t.Fatal("Pool() returned nil")
	}
}

func TestAddCertPEM_NoCerts(t *testing.T) {
	pool := NewEmptyPool()

	for _, data := range [][]byte{nil, []byte("not a certificate"),
		pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte("x")})} {
		if err := pool.AddCertPEM(data); !errors.Is(err, ErrNoCertsFound) {
			t.Errorf("AddCertPEM(%q) error = %v, want ErrNoCertsFound", data, err)
		}
	}
}

func TestAddCertPEM_InvalidCert(t *testing.T) {
	pool := NewEmptyPool()
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("garbage")})
	if err := pool.AddCertPEM(data); err == nil {
		t.Error("expected a parse error")
	}
}

func TestAddCertFile_Missing(t *testing.T) {
	if err := NewEmptyPool().AddCertFile(filepath.Join(t.TempDir(), "none.pem")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestHTTPClient_TrustsCAFile(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	plain, err := HTTPClient("")
	if err != nil {
		t.Fatalf("HTTPClient(\"\") error = %v", err)
	}
	if _, err := plain.Get(server.URL); err == nil {
		t.Error("a self-signed backend should be rejected without the CA")
	}

	client, err := HTTPClient(writeServerCA(t, server))
	if err != nil {
		t.Fatalf("HTTPClient() error = %v", err)
	}
	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestHTTPClient_BadBundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.pem")
	os.WriteFile(path, []byte("nothing here"), 0o600)

	if _, err := HTTPClient(path); !errors.Is(err, ErrNoCertsFound) {
		t.Errorf("error = %v, want ErrNoCertsFound", err)
	}
}
