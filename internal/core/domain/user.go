package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// MinPasswordLength is the shortest password accepted before contacting the backend.
const MinPasswordLength = 6

// User is the authenticated account as seen by the client.
//
// It is replaced wholesale whenever the backend returns a newer copy.
type User struct {
	ID        string `json:"id" yaml:"id"`
	Email     string `json:"email" yaml:"email"`
	FullName  string `json:"fullName" yaml:"full_name"`
	CreatedAt string `json:"createdAt" yaml:"created_at"`
}

// rawUser is the backend's user shape. Older deployments use "_id" and the
// Portuguese "nome" field.
type rawUser struct {
	ID        json.RawMessage `json:"id"`
	MongoID   json.RawMessage `json:"_id"`
	Email     string          `json:"email"`
	Nome      string          `json:"nome"`
	FullName  string          `json:"fullName"`
	CreatedAt string          `json:"createdAt"`
}

// UnmarshalJSON decodes both the backend shape and the client shape.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw rawUser
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	u.ID = opaqueID(raw.ID)
	if u.ID == "" {
		u.ID = opaqueID(raw.MongoID)
	}
	u.Email = raw.Email
	u.FullName = raw.Nome
	if u.FullName == "" {
		u.FullName = raw.FullName
	}
	u.CreatedAt = raw.CreatedAt
	return nil
}

// opaqueID renders a JSON id of any scalar type as a string. Strings are
// unquoted, numbers keep their literal text, null and absent become "".
func opaqueID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Initials returns up to two upper-case initials of the full name.
func (u User) Initials() string {
	var initials []rune
	for _, word := range strings.Fields(u.FullName) {
		initials = append(initials, []rune(strings.ToUpper(word))[0])
		if len(initials) == 2 {
			break
		}
	}
	if len(initials) == 0 {
		return "U"
	}
	return string(initials)
}

// Address is a postal address. Number is only set for user-entered addresses.
type Address struct {
	Street       string `json:"street" yaml:"street"`
	Neighborhood string `json:"neighborhood" yaml:"neighborhood"`
	Number       string `json:"number,omitempty" yaml:"number,omitempty"`
	City         string `json:"city" yaml:"city"`
	State        string `json:"state" yaml:"state"`
	CEP          string `json:"cep" yaml:"cep"`
}

// UserProfile is a user as returned by the user listing endpoints.
type UserProfile struct {
	User    `yaml:",inline"`
	Address *Address `json:"address,omitempty" yaml:"address,omitempty"`
}

// UnmarshalJSON keeps the embedded User decoder from swallowing Address.
func (p *UserProfile) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &p.User); err != nil {
		return err
	}
	var extra struct {
		Address *Address `json:"address"`
	}
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}
	p.Address = extra.Address
	return nil
}

// UserPage is one page of the user listing.
type UserPage struct {
	Users []UserProfile `json:"users" yaml:"users"`
	Total int           `json:"total" yaml:"total"`
	Page  int           `json:"page" yaml:"page"`
	Limit int           `json:"limit" yaml:"limit"`
}

// LoginData holds login credentials.
type LoginData struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterData holds the registration form.
type RegisterData struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
	Address         Address
}

// ProfileUpdate carries the profile fields a user may change.
// Empty fields are left out of the request.
type ProfileUpdate struct {
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
}

// AuthResponse is returned by login, register and refresh.
type AuthResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"access_token"`
}

// ResetPasswordData holds the reset form.
type ResetPasswordData struct {
	Token           string
	NewPassword     string
	ConfirmPassword string
}

// ForgotPasswordResponse is the backend acknowledgement of a recovery request.
type ForgotPasswordResponse struct {
	Message string `json:"message" yaml:"message"`
	Success bool   `json:"success" yaml:"success"`
}
