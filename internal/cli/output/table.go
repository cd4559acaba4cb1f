package output

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"text/tabwriter"
)

// Tabular is implemented by values that know how to lay themselves out.
type Tabular interface {
	Table(wide bool) *Table
}

// TableFormatter formats data as an aligned text table.
type TableFormatter struct {
	Wide      bool
	NoHeaders bool
}

// Format renders data. Accepted: *Table, Table, Tabular, a struct, a
// slice of structs, or a map. Other values are printed with %v.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case nil:
		return nil
	case *Table:
		return v.Render(w, f.NoHeaders)
	case Table:
		return v.Render(w, f.NoHeaders)
	case Tabular:
		return v.Table(f.Wide).Render(w, f.NoHeaders)
	case string:
		_, err := fmt.Fprintln(w, v)
		return err
	}

	t := reflectTable(reflect.ValueOf(data), f.Wide)
	if t == nil {
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}
	return t.Render(w, f.NoHeaders)
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// NewTable creates a table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{Headers: headers}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Render writes the table, aligned on two-space gutters.
func (t *Table) Render(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// reflectTable lays out structs as FIELD/VALUE, slices of structs as one
// row per element and maps as KEY/VALUE. It returns nil for anything else.
func reflectTable(v reflect.Value, wide bool) *Table {
	v = indirect(v)
	if !v.IsValid() {
		return nil
	}

	switch v.Kind() {
	case reflect.Struct:
		t := NewTable("FIELD", "VALUE")
		for _, c := range columns(v.Type(), true) {
			t.AddRow(c.name, cell(v.FieldByIndex(c.index)))
		}
		return t

	case reflect.Slice, reflect.Array:
		elemType := v.Type().Elem()
		for elemType.Kind() == reflect.Ptr {
			elemType = elemType.Elem()
		}
		if elemType.Kind() != reflect.Struct {
			t := NewTable("VALUE")
			for i := 0; i < v.Len(); i++ {
				t.AddRow(cell(v.Index(i)))
			}
			return t
		}
		cols := columns(elemType, wide)
		t := &Table{}
		for _, c := range cols {
			t.Headers = append(t.Headers, strings.ToUpper(c.name))
		}
		for i := 0; i < v.Len(); i++ {
			elem := indirect(v.Index(i))
			row := make([]string, len(cols))
			for j, c := range cols {
				if elem.IsValid() {
					row[j] = cell(elem.FieldByIndex(c.index))
				}
			}
			t.Rows = append(t.Rows, row)
		}
		return t

	case reflect.Map:
		t := NewTable("KEY", "VALUE")
		iter := v.MapRange()
		for iter.Next() {
			t.AddRow(cell(iter.Key()), cell(iter.Value()))
		}
		return t
	}
	return nil
}

type column struct {
	name  string
	index []int
}

// columns lists the exported fields of t, flattening embedded structs.
// A `table:"-"` tag hides a field; `table:"wide"` shows it only when wide.
func columns(t reflect.Type, wide bool) []column {
	var cols []column
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		tag := f.Tag.Get("table")
		if tag == "-" || (tag == "wide" && !wide) {
			continue
		}
		cols = append(cols, column{name: fieldName(f), index: f.Index})
	}
	return cols
}

func fieldName(f reflect.StructField) string {
	for _, key := range []string{"yaml", "json"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// cell formats a single value. Empty values print as "-".
func cell(v reflect.Value) string {
	v = indirect(v)
	if !v.IsValid() {
		return "-"
	}

	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}

	switch v.Kind() {
	case reflect.String:
		if v.Len() == 0 {
			return "-"
		}
		return v.String()
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%g", v.Float())
	case reflect.Slice, reflect.Array, reflect.Map:
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Struct:
		return "{...}"
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}
