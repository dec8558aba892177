package output

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"
)

type backupRow struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size" table:"bytes"`
	LastModified time.Time         `json:"last_modified"`
	Metadata     map[string]string `json:"metadata" table:"wide"`
	internal     string
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestTableFormatter_Slice(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []backupRow{
		{Key: "message-backups/backup-b.json.zst", Size: 2048, LastModified: at},
		{Key: "message-backups/backup-a.json.zst", Size: 512, LastModified: at.Add(-time.Hour), internal: "x"},
	}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, rows); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	got := lines(buf.String())
	if len(got) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows:\n%s", len(got), buf.String())
	}
	if fields := strings.Fields(got[0]); strings.Join(fields, " ") != "KEY SIZE LAST_MODIFIED" {
		t.Errorf("header = %q", got[0])
	}
	if !strings.Contains(got[1], "2.0 KiB") || !strings.Contains(got[1], "2024-03-01 12:00:00Z") {
		t.Errorf("row = %q, want size and time formatted", got[1])
	}
	if !strings.Contains(got[2], "512 B") {
		t.Errorf("row = %q, want 512 B", got[2])
	}
}

func TestTableFormatter_Wide(t *testing.T) {
	rows := []backupRow{{Key: "k", Metadata: map[string]string{"a": "1", "b": "2"}}}

	var buf bytes.Buffer
	if err := (&TableFormatter{Wide: true}).Format(&buf, rows); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "METADATA") || !strings.Contains(out, "{2 keys}") {
		t.Errorf("wide output missing metadata column:\n%s", out)
	}
}

func TestTableFormatter_EmptyAndNil(t *testing.T) {
	var buf bytes.Buffer
	f := &TableFormatter{}

	if err := f.Format(&buf, []backupRow{}); err != nil {
		t.Fatalf("Format(empty) error = %v", err)
	}
	if err := f.Format(&buf, nil); err != nil {
		t.Fatalf("Format(nil) error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("output = %q, want nothing", buf.String())
	}
}

func TestTableFormatter_MapSorted(t *testing.T) {
	data := map[string]string{"raw_size": "10", "compressed_size": "4", "message_count": "2"}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	got := lines(buf.String())
	want := []string{"compressed_size", "message_count", "raw_size"}
	for i, k := range want {
		if !strings.HasPrefix(got[i+1], k) {
			t.Errorf("row %d = %q, want key %q", i, got[i+1], k)
		}
	}
}

func TestTableFormatter_Struct(t *testing.T) {
	data := struct {
		Key      string `json:"key"`
		Size     int64  `json:"size" table:"bytes"`
		Hidden   string `table:"-"`
		Duration time.Duration
	}{Key: "k", Size: 3 << 20, Hidden: "secret", Duration: 1500 * time.Millisecond}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, &data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "secret") {
		t.Error("table:\"-\" field rendered")
	}
	for _, want := range []string{"FIELD", "3.0 MiB", "1.5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTableFormatter_Table(t *testing.T) {
	tbl := &Table{}
	tbl.SetHeaders("A", "B")
	tbl.AddRow("1", "2")

	var buf bytes.Buffer
	if err := (&TableFormatter{NoHeaders: true}).Format(&buf, tbl); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.Contains(buf.String(), "A") {
		t.Errorf("NoHeaders output = %q", buf.String())
	}
}

func TestTableFormatter_FallbackToJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, 42); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "42" {
		t.Errorf("output = %q, want JSON fallback", buf.String())
	}
}

func TestFormatValue(t *testing.T) {
	var nilPtr *string
	tests := []struct {
		name  string
		input reflect.Value
		want  string
	}{
		{"string", reflect.ValueOf("hello"), "hello"},
		{"empty string", reflect.ValueOf(""), "-"},
		{"int", reflect.ValueOf(42), "42"},
		{"uint", reflect.ValueOf(uint(7)), "7"},
		{"float", reflect.ValueOf(10.0), "10.00"},
		{"bool", reflect.ValueOf(true), "true"},
		{"slice", reflect.ValueOf([]int{1, 2}), "[2 items]"},
		{"empty slice", reflect.ValueOf([]int{}), "-"},
		{"zero time", reflect.ValueOf(time.Time{}), "-"},
		{"local time in UTC", reflect.ValueOf(time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))), "2024-01-02 02:04:05Z"},
		{"nil pointer", reflect.ValueOf(nilPtr), ""},
		{"invalid", reflect.Value{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue(tt.input); got != tt.want {
				t.Errorf("formatValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 30, "5.0 GiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("LastModified"); got != "Last_Modified" {
		t.Errorf("toSnakeCase() = %q", got)
	}
	if got := toSnakeCase("last_modified"); got != "last_modified" {
		t.Errorf("toSnakeCase() = %q", got)
	}
}
