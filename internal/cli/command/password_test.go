package command

import (
	"strings"
	"testing"
)

func TestPasswordRecoveryFlow(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "--ephemeral", "password", "forgot", "--email", "ana@example.com")
	if strings.TrimSpace(out) != "Recovery email sent" {
		t.Errorf("forgot output = %q", out)
	}

	out = env.mustRun(t, "--ephemeral", "password", "verify-token", "reset-ana@example.com")
	if strings.TrimSpace(out) != "Reset token is valid." {
		t.Errorf("verify output = %q", out)
	}

	out = env.mustRun(t, "--ephemeral", "password", "reset", "--token", "reset-ana@example.com",
		"--new-password", "newsecret", "--confirm-password", "newsecret")
	if strings.TrimSpace(out) != "Password changed. You can now log in." {
		t.Errorf("reset output = %q", out)
	}

	// The token is single use and the new password works.
	if _, _, err := env.run(t, "", "--ephemeral", "password", "verify-token", "reset-ana@example.com"); err != errResetTokenInvalid {
		t.Errorf("verify after reset error = %v", err)
	}
	env.mustRun(t, "--ephemeral", "login", "--email", "ana@example.com", "--password", "newsecret")
}

func TestPasswordVerifyToken_Invalid(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "", "--ephemeral", "password", "verify-token", "--token", "bogus")
	if err != errResetTokenInvalid {
		t.Errorf("error = %v, want %v", err, errResetTokenInvalid)
	}
}

func TestPasswordVerifyToken_Unreachable(t *testing.T) {
	env := newTestEnv(t)
	env.backend.Close()

	_, _, err := env.run(t, "", "--ephemeral", "password", "verify-token", "abc")
	if err == nil || err.Error() != "password recovery service unreachable" {
		t.Errorf("error = %v", err)
	}
}

func TestPasswordReset_Preflight(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"mismatch", []string{"--token", "t", "--new-password", "abcdef", "--confirm-password", "abcdeg"}, "passwords do not match"},
		{"too short", []string{"--token", "t", "--new-password", "abc", "--confirm-password", "abc"}, "password must be at least 6 characters"},
		{"no token", []string{"--new-password", "abcdef", "--confirm-password", "abcdef"}, "invalid reset token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			_, _, err := env.run(t, "", append([]string{"--ephemeral", "password", "reset"}, tt.args...)...)
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
			if env.backend.hitCount("POST /auth/reset-password") != 0 {
				t.Error("preflight failure should not reach the backend")
			}
		})
	}
}

func TestPasswordReset_Rejected(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "", "--ephemeral", "password", "reset", "expired",
		"--new-password", "abcdef", "--confirm-password", "abcdef")
	if err == nil || err.Error() != "Invalid or expired token" {
		t.Errorf("error = %v", err)
	}
}
