package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/yndnr/payauth-go/internal/core/domain"
)

func render(t *testing.T, f *TableFormatter, data any) string {
	t.Helper()
	var buf bytes.Buffer
	if err := f.Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	return buf.String()
}

func TestTable_Render(t *testing.T) {
	table := NewTable("NAME", "EMAIL")
	table.AddRow("Ana", "ana@example.com")
	table.AddRow("Bartolomeu", "bart@example.com")

	lines := strings.Split(strings.TrimRight(render(t, &TableFormatter{}, table), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3: %q", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "NAME") {
		t.Errorf("header = %q", lines[0])
	}
	// Columns are aligned: EMAIL starts at the same offset on every line.
	col := strings.Index(lines[0], "EMAIL")
	if strings.Index(lines[1], "ana@") != col || strings.Index(lines[2], "bart@") != col {
		t.Errorf("columns not aligned:\n%s", strings.Join(lines, "\n"))
	}
}

func TestTable_NoHeaders(t *testing.T) {
	table := Table{Headers: []string{"H"}, Rows: [][]string{{"v"}}}
	out := render(t, &TableFormatter{NoHeaders: true}, table)
	if strings.Contains(out, "H") {
		t.Errorf("headers printed: %q", out)
	}
}

func TestTableFormatter_Nil(t *testing.T) {
	if out := render(t, &TableFormatter{}, nil); out != "" {
		t.Errorf("nil rendered as %q", out)
	}
}

func TestTableFormatter_String(t *testing.T) {
	if out := render(t, &TableFormatter{}, "Logged out"); out != "Logged out\n" {
		t.Errorf("string rendered as %q", out)
	}
}

func TestTableFormatter_Struct(t *testing.T) {
	type status struct {
		State   domain.State `yaml:"state"`
		BaseURL string       `yaml:"base_url"`
		Token   bool         `yaml:"token_stored"`
		Secret  string       `table:"-"`
	}

	out := render(t, &TableFormatter{}, status{State: domain.StateAnonymous, Token: false, Secret: "x"})
	for _, want := range []string{"FIELD", "state", "anonymous", "base_url", "-", "token_stored", "false"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Secret") {
		t.Error("table:\"-\" field should be hidden")
	}
}

func TestTableFormatter_SliceWideColumns(t *testing.T) {
	type row struct {
		Name string `json:"name"`
		ID   string `json:"id" table:"wide"`
	}
	data := []row{{Name: "a", ID: "1"}, {Name: "b", ID: "2"}}

	narrow := render(t, &TableFormatter{}, data)
	if strings.Contains(narrow, "ID") {
		t.Errorf("wide column shown in narrow mode:\n%s", narrow)
	}
	wide := render(t, &TableFormatter{Wide: true}, data)
	if !strings.Contains(wide, "ID") || !strings.Contains(wide, "2") {
		t.Errorf("wide column missing:\n%s", wide)
	}
}

func TestProfile_Table(t *testing.T) {
	p := Profile{ID: "u1", FullName: "Ana Souza", Email: "ana@example.com"}

	out := render(t, &TableFormatter{}, p)
	if !strings.Contains(out, "AS") || !strings.Contains(out, "ana@example.com") {
		t.Errorf("output:\n%s", out)
	}
	if strings.Contains(out, "u1") {
		t.Error("id should only be shown in wide mode")
	}
	if !strings.Contains(render(t, &TableFormatter{Wide: true}, p), "u1") {
		t.Error("wide mode should show id")
	}
}

func TestPage_Table(t *testing.T) {
	page := Page{
		Users: []domain.UserProfile{
			{User: domain.User{FullName: "Ana", Email: "ana@example.com"}, Address: &domain.Address{City: "Recife", State: "PE"}},
			{User: domain.User{FullName: "Bia", Email: "bia@example.com"}},
		},
		Total: 25, Page: 2, Limit: 10,
	}

	out := render(t, &TableFormatter{}, page)
	if !strings.Contains(out, "Recife/PE") {
		t.Errorf("city column missing:\n%s", out)
	}
	if !strings.Contains(out, "page 2 of 3 (25 users)") {
		t.Errorf("footer missing:\n%s", out)
	}
}

func TestUserList_Empty(t *testing.T) {
	out := render(t, &TableFormatter{}, UserList(nil))
	if strings.TrimSpace(out) != "NAME  EMAIL  CITY" {
		t.Errorf("empty list = %q", out)
	}
}

func TestAddressView_Table(t *testing.T) {
	out := render(t, &TableFormatter{}, AddressView{Street: "Avenida Paulista", City: "São Paulo", State: "SP", CEP: "01310-930"})
	for _, want := range []string{"Avenida Paulista", "São Paulo", "01310-930"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "number") {
		t.Error("empty number should be omitted")
	}
}
