package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// account is a user known to the fake backend.
type account struct {
	ID       string
	Name     string
	Email    string
	Password string
	CEP      string
	Number   string
	City     string
}

// backend is an in-memory authentication API plus a ViaCEP endpoint
// under /ws/.
type backend struct {
	*httptest.Server

	mu          sync.Mutex
	accounts    map[string]*account // by email
	tokens      map[string]string   // token -> email
	resetTokens map[string]string   // reset token -> email
	hits        map[string]int      // "METHOD /path" -> count
	bodies      map[string][]byte   // last body per "METHOD /path"
	nextToken   int
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{
		accounts:    make(map[string]*account),
		tokens:      make(map[string]string),
		resetTokens: make(map[string]string),
		hits:        make(map[string]int),
		bodies:      make(map[string][]byte),
	}
	b.addAccount(&account{ID: "u1", Name: "Ana Souza", Email: "ana@example.com", Password: "secret1", City: "Recife"})
	b.addAccount(&account{ID: "u2", Name: "Bruno Lima", Email: "bruno@example.com", Password: "secret2", City: "Natal"})

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", b.login)
	mux.HandleFunc("/auth/register", b.register)
	mux.HandleFunc("/auth/profile", b.profile)
	mux.HandleFunc("/auth/refresh", b.refresh)
	mux.HandleFunc("/auth/forgot-password", b.forgotPassword)
	mux.HandleFunc("/auth/verify-reset-token", b.verifyResetToken)
	mux.HandleFunc("/auth/reset-password", b.resetPassword)
	mux.HandleFunc("/users", b.listUsers)
	mux.HandleFunc("/users/search", b.searchUsers)
	mux.HandleFunc("/ws/", b.viaCEP)

	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)
		r.Body.Close()

		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.hits[key]++
		b.bodies[key] = body.Bytes()
		b.mu.Unlock()

		r.Body = readCloser{bytes.NewReader(body.Bytes())}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.Close)
	return b
}

type readCloser struct{ *bytes.Reader }

func (readCloser) Close() error { return nil }

func (b *backend) addAccount(a *account) {
	b.accounts[a.Email] = a
}

func (b *backend) hitCount(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[key]
}

func (b *backend) lastBody(key string) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	var m map[string]any
	json.Unmarshal(b.bodies[key], &m)
	return m
}

// revokeAll invalidates every issued token.
func (b *backend) revokeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = make(map[string]string)
}

func (b *backend) issueToken(email string) string {
	b.nextToken++
	token := fmt.Sprintf("token-%d", b.nextToken)
	b.tokens[token] = email
	return token
}

func (b *backend) caller(r *http.Request) *account {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if email, ok := b.tokens[token]; ok {
		return b.accounts[email]
	}
	return nil
}

func (a *account) wire() map[string]any {
	return map[string]any{
		"_id":       a.ID,
		"nome":      a.Name,
		"email":     a.Email,
		"createdAt": "2024-03-01T10:00:00Z",
	}
}

func (a *account) profile() map[string]any {
	p := a.wire()
	if a.City != "" {
		p["address"] = map[string]any{"city": a.City, "state": "PE", "cep": a.CEP}
	}
	return p
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]any{"message": message, "statusCode": status})
}

func decode(r *http.Request) map[string]string {
	var m map[string]string
	json.NewDecoder(r.Body).Decode(&m)
	return m
}

func (b *backend) login(w http.ResponseWriter, r *http.Request) {
	in := decode(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[in["email"]]
	if !ok || a.Password != in["password"] {
		errorResponse(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"user": a.wire(), "access_token": b.issueToken(a.Email)})
}

func (b *backend) register(w http.ResponseWriter, r *http.Request) {
	in := decode(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.accounts[in["email"]]; exists {
		errorResponse(w, http.StatusConflict, "Email already registered")
		return
	}
	a := &account{
		ID:       fmt.Sprintf("u%d", len(b.accounts)+1),
		Name:     in["nome"],
		Email:    in["email"],
		Password: in["password"],
		CEP:      in["cep"],
		Number:   in["numero"],
	}
	b.addAccount(a)
	jsonResponse(w, http.StatusCreated, map[string]any{"user": a.wire(), "access_token": b.issueToken(a.Email)})
}

func (b *backend) profile(w http.ResponseWriter, r *http.Request) {
	a := b.caller(r)
	if a == nil {
		errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if r.Method == http.MethodPatch {
		in := decode(r)
		b.mu.Lock()
		if v := in["fullName"]; v != "" {
			a.Name = v
		}
		if v := in["email"]; v != "" {
			delete(b.accounts, a.Email)
			a.Email = v
			b.accounts[v] = a
		}
		b.mu.Unlock()
	}
	jsonResponse(w, http.StatusOK, a.wire())
}

func (b *backend) refresh(w http.ResponseWriter, r *http.Request) {
	a := b.caller(r)
	if a == nil {
		errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	old := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	delete(b.tokens, old)
	jsonResponse(w, http.StatusOK, map[string]any{"user": a.wire(), "access_token": b.issueToken(a.Email)})
}

func (b *backend) forgotPassword(w http.ResponseWriter, r *http.Request) {
	in := decode(r)
	b.mu.Lock()
	b.resetTokens["reset-"+in["email"]] = in["email"]
	b.mu.Unlock()
	jsonResponse(w, http.StatusOK, map[string]any{"message": "Recovery email sent", "success": true})
}

func (b *backend) verifyResetToken(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	_, ok := b.resetTokens[r.URL.Query().Get("token")]
	b.mu.Unlock()
	if !ok {
		errorResponse(w, http.StatusBadRequest, "Invalid or expired token")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"valid": true})
}

func (b *backend) resetPassword(w http.ResponseWriter, r *http.Request) {
	in := decode(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	email, ok := b.resetTokens[in["token"]]
	if !ok {
		errorResponse(w, http.StatusBadRequest, "Invalid or expired token")
		return
	}
	b.accounts[email].Password = in["newPassword"]
	delete(b.resetTokens, in["token"])
	w.WriteHeader(http.StatusNoContent)
}

func (b *backend) listUsers(w http.ResponseWriter, r *http.Request) {
	if b.caller(r) == nil {
		errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	b.writeUsers(w, r, func(*account) bool { return true })
}

func (b *backend) searchUsers(w http.ResponseWriter, r *http.Request) {
	if b.caller(r) == nil {
		errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	q := strings.ToLower(r.URL.Query().Get("q"))
	b.writeUsers(w, r, func(a *account) bool {
		return strings.Contains(strings.ToLower(a.Name), q)
	})
}

func (b *backend) writeUsers(w http.ResponseWriter, r *http.Request, keep func(*account) bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	users := []map[string]any{}
	for _, email := range []string{"ana@example.com", "bruno@example.com"} {
		if a, ok := b.accounts[email]; ok && keep(a) {
			users = append(users, a.profile())
		}
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"users": users,
		"total": len(users),
		"page":  1,
		"limit": 10,
	})
}

func (b *backend) viaCEP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ws/01310930/json/":
		jsonResponse(w, http.StatusOK, map[string]any{
			"cep":        "01310-930",
			"logradouro": "Avenida Paulista",
			"bairro":     "Bela Vista",
			"localidade": "São Paulo",
			"uf":         "SP",
		})
	default:
		jsonResponse(w, http.StatusOK, map[string]any{"erro": true})
	}
}

// testEnv runs the CLI against a fake backend with its own state directory.
type testEnv struct {
	backend *backend
	dir     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	b := newBackend(t)
	t.Setenv("PAYAUTH_ADDRESS_ENDPOINT", b.URL+"/ws")
	return &testEnv{backend: b, dir: t.TempDir()}
}

func (e *testEnv) configPath() string {
	return filepath.Join(e.dir, "cli.yaml")
}

func (e *testEnv) dataDir() string {
	return filepath.Join(e.dir, "data")
}

// run executes one CLI invocation, as a separate process would.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	app := App()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	app.Reader = strings.NewReader(stdin)

	full := []string{"payauth-cli",
		"--config", e.configPath(),
		"--server", e.backend.URL,
		"--data-dir", e.dataDir(),
	}
	err = app.Run(append(full, args...))
	return out.String(), errOut.String(), err
}

// mustRun is run that fails the test on error.
func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := e.run(t, "", args...)
	if err != nil {
		t.Fatalf("%v: error = %v\nstderr: %s", args, err, errOut)
	}
	return out
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	e.mustRun(t, "login", "--email", "ana@example.com", "--password", "secret1")
}
