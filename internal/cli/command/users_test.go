package command

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestUsersList(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	out := env.mustRun(t, "users", "list")
	for _, want := range []string{"NAME", "Ana Souza", "Bruno Lima", "Recife/PE", "page 1 of 1 (2 users)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if env.backend.hitCount("GET /users") != 1 {
		t.Errorf("list requests = %d", env.backend.hitCount("GET /users"))
	}
}

func TestUsersList_FilterAndJSON(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	out := env.mustRun(t, "-o", "json", "users", "list", "--filter", "BRUNO")
	var page struct {
		Users []struct {
			FullName string `json:"fullName"`
		} `json:"users"`
	}
	if err := json.Unmarshal([]byte(out), &page); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(page.Users) != 1 || page.Users[0].FullName != "Bruno Lima" {
		t.Errorf("users = %+v", page.Users)
	}
}

func TestUsersList_WideShowsIDs(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	out := env.mustRun(t, "--wide", "users", "list", "--page", "1", "--limit", "5")
	if !strings.Contains(out, "ID") || !strings.Contains(out, "u2") {
		t.Errorf("wide output:\n%s", out)
	}
}

func TestUsersList_RequiresLogin(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "", "--ephemeral", "users", "list")
	if err == nil || err.Error() != "Unauthorized" {
		t.Errorf("error = %v, want backend message", err)
	}
}

func TestUsersSearch(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	out := env.mustRun(t, "users", "search", "ana souza")
	if !strings.Contains(out, "Ana Souza") || strings.Contains(out, "Bruno") {
		t.Errorf("output:\n%s", out)
	}

	_, _, err := env.run(t, "", "users", "search")
	if err == nil || err.Error() != "search query is required" {
		t.Errorf("missing query error = %v", err)
	}
}
