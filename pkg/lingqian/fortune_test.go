package lingqian

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testRanges = "0-10,11-20,21-30,31-40,41-50,51-60,61-70,71-80,81-90,91-100"

func writeJrrpHistory(t *testing.T, jrrp string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fortune_history.json")

	// The companion plugin writes the file with a UTF-8 BOM.
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{"u1": {"2026-08-29": {"jrrp": `+jrrp+`}}}`)...)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write jrrp history: %v", err)
	}
	return path
}

func newTestGate(t *testing.T, required bool, jrrp string) *FortuneGate {
	t.Helper()
	g := NewFortuneGate(required, writeJrrpHistory(t, jrrp), testRanges,
		"-20, -10, -5, -1, 0, 1, 3, 5, 10, 10",
		"-1, -3, -5, -10, 0, 1, 5, 10, 20, 20")
	g.now = func() time.Time {
		return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	}
	return g
}

func TestCheckedToday_GateOff(t *testing.T) {
	g := NewFortuneGate(false, "", "", "", "")
	if !g.CheckedToday("anyone") {
		t.Fatal("gate off should always pass")
	}
}

func TestCheckedToday_Required(t *testing.T) {
	g := newTestGate(t, true, "55")

	if !g.CheckedToday("u1") {
		t.Fatal("u1 checked today, should pass")
	}
	if g.CheckedToday("u2") {
		t.Fatal("u2 never checked, should be blocked")
	}
}

func TestCheckedToday_MissingFile(t *testing.T) {
	g := NewFortuneGate(true, filepath.Join(t.TempDir(), "missing.json"), testRanges, "", "")
	if g.CheckedToday("u1") {
		t.Fatal("required gate with no data should block")
	}
}

func TestBiasFor(t *testing.T) {
	g := newTestGate(t, true, "55")

	bias := g.BiasFor("u1")
	if bias == nil {
		t.Fatal("expected bias for jrrp 55")
	}
	// jrrp 55 falls in the sixth range (51-60).
	if bias.ShangRate != 1 || bias.ZhongRate != 1 {
		t.Fatalf("bias = %+v, want {1 1}", bias)
	}

	if g.BiasFor("u2") != nil {
		t.Fatal("no jrrp record should yield no bias")
	}
}

func TestBiasFor_LowJrrp(t *testing.T) {
	g := newTestGate(t, true, "3")

	bias := g.BiasFor("u1")
	if bias == nil {
		t.Fatal("expected bias for jrrp 3")
	}
	if bias.ShangRate != -20 || bias.ZhongRate != -1 {
		t.Fatalf("bias = %+v, want {-20 -1}", bias)
	}
}

func TestRangeIndex(t *testing.T) {
	tests := []struct {
		jrrp   int
		ranges string
		want   int
	}{
		{5, testRanges, 0},
		{10, testRanges, 0},
		{11, testRanges, 1},
		{100, testRanges, 9},
		{101, testRanges, -1},
		{7, "7,8,9", 0},
		{9, "7,8,9", 2},
		{5, "", -1},
	}
	for _, tt := range tests {
		if got := rangeIndex(tt.jrrp, tt.ranges); got != tt.want {
			t.Fatalf("rangeIndex(%d, %q) = %d, want %d", tt.jrrp, tt.ranges, got, tt.want)
		}
	}
}

func TestParseRates(t *testing.T) {
	rates := parseRates("-20, -10, 0, 1.5")
	if len(rates) != 4 {
		t.Fatalf("len = %d, want 4", len(rates))
	}
	if rates[0] != -20 || rates[3] != 1.5 {
		t.Fatalf("rates = %v", rates)
	}

	if parseRates("1, x, 3") != nil {
		t.Fatal("malformed list should yield nil")
	}
	if parseRates("") != nil {
		t.Fatal("empty list should yield nil")
	}
}
