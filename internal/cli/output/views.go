package output

import (
	"strconv"

	"github.com/yndnr/payauth-go/internal/core/domain"
)

// Profile renders a single user as FIELD/VALUE pairs.
type Profile domain.User

// Table implements Tabular.
func (p Profile) Table(wide bool) *Table {
	t := NewTable("FIELD", "VALUE")
	if wide {
		t.AddRow("id", orDash(p.ID))
	}
	t.AddRow("name", orDash(p.FullName))
	t.AddRow("initials", domain.User(p).Initials())
	t.AddRow("email", orDash(p.Email))
	t.AddRow("created_at", orDash(p.CreatedAt))
	return t
}

// UserList renders user profiles one per row.
type UserList []domain.UserProfile

// Table implements Tabular.
func (l UserList) Table(wide bool) *Table {
	t := NewTable("NAME", "EMAIL", "CITY")
	if wide {
		t.Headers = append([]string{"ID"}, append(t.Headers, "CEP", "CREATED")...)
	}
	for _, u := range l {
		city, cep := "-", "-"
		if u.Address != nil {
			city = orDash(u.Address.City)
			if u.Address.State != "" {
				city += "/" + u.Address.State
			}
			cep = orDash(u.Address.CEP)
		}
		row := []string{orDash(u.FullName), orDash(u.Email), city}
		if wide {
			row = append([]string{orDash(u.ID)}, append(row, cep, orDash(u.CreatedAt))...)
		}
		t.AddRow(row...)
	}
	return t
}

// Page renders a listing page followed by its position.
type Page domain.UserPage

// Table implements Tabular.
func (p Page) Table(wide bool) *Table {
	t := UserList(p.Users).Table(wide)
	if p.Total > 0 {
		footer := make([]string, len(t.Headers))
		footer[0] = "page " + strconv.Itoa(p.Page) + " of " + strconv.Itoa(pages(p.Total, p.Limit)) +
			" (" + strconv.Itoa(p.Total) + " users)"
		t.AddRow(footer...)
	}
	return t
}

// AddressView renders a postal address.
type AddressView domain.Address

// Table implements Tabular.
func (a AddressView) Table(bool) *Table {
	t := NewTable("FIELD", "VALUE")
	t.AddRow("cep", orDash(a.CEP))
	t.AddRow("street", orDash(a.Street))
	if a.Number != "" {
		t.AddRow("number", a.Number)
	}
	t.AddRow("neighborhood", orDash(a.Neighborhood))
	t.AddRow("city", orDash(a.City))
	t.AddRow("state", orDash(a.State))
	return t
}

func pages(total, limit int) int {
	if limit <= 0 {
		return 1
	}
	return (total + limit - 1) / limit
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
