package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestTableRender(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable("ID", "STATUS")
	tbl.writer = &buf
	tbl.AddRow("1", "completed")
	tbl.AddRow("22", "pending")
	tbl.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[0], "STATUS") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "--") {
		t.Errorf("expected separator, got %q", lines[1])
	}
	if !strings.Contains(lines[3], "pending") {
		t.Errorf("unexpected row %q", lines[3])
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a longer description", 10, "a longe..."},
		{"abcdef", 3, "abc"},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestFormatTokens(t *testing.T) {
	tests := map[int64]string{
		10:   "+10",
		0:    "0",
		-350: "-350",
	}
	for in, want := range tests {
		if got := formatTokens(in); got != want {
			t.Errorf("formatTokens(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	if got := formatTime(nil); got != "-" {
		t.Errorf("nil time = %q", got)
	}
	var zero time.Time
	if got := formatTime(&zero); got != "-" {
		t.Errorf("zero time = %q", got)
	}
	ts := time.Date(2026, 3, 1, 12, 30, 0, 0, time.Local)
	if got := formatTime(&ts); got != "2026-03-01 12:30" {
		t.Errorf("formatTime = %q", got)
	}
}

func TestFormatStatus(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{"completed", "[+] completed"},
		{"premium-active", "[+] premium-active"},
		{"burned", "[-] burned"},
		{"trial-expired", "[-] trial-expired"},
		{"pending", "[*] pending"},
		{"free", "free"},
	}

	for _, tt := range tests {
		if got := formatStatus(tt.status); got != tt.want {
			t.Errorf("formatStatus(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID("42"); err != nil || id != 42 {
		t.Errorf("parseID(42) = %d, %v", id, err)
	}
	for _, bad := range []string{"", "0", "-1", "abc"} {
		if _, err := parseID(bad); err == nil {
			t.Errorf("parseID(%q) should fail", bad)
		}
	}
}

func TestRootCommandTree(t *testing.T) {
	root := rootCmd
	for _, path := range [][]string{
		{"balance"},
		{"transfers", "cancel"},
		{"subscription", "premium"},
		{"nft", "burn"},
		{"pool", "distributions"},
		{"admin", "jobs", "run"},
		{"config", "set"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd.Name() != path[len(path)-1] {
			t.Errorf("command %v not registered: %v", path, err)
		}
	}
}

func TestTableRenderEmptyAndShortRows(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable("ID", "RANK", "TOKENS")
	tbl.writer = &buf
	tbl.Render()
	if got := strings.TrimSpace(buf.String()); got != "No results." {
		t.Errorf("empty table = %q", got)
	}

	buf.Reset()
	tbl.AddRow("1")
	tbl.Render()
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 || strings.Count(lines[2], "-") != 2 {
		t.Errorf("short row not padded: %q", buf.String())
	}
}
