package lingqian

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	sortJSON := `[
		{"签序": 1, "吉凶": "上签"},
		{"签序": 2, "吉凶": "中签"},
		{"签序": 3, "吉凶": "下签"}
	]`
	if err := os.WriteFile(filepath.Join(dir, "sort.json"), []byte(sortJSON), 0644); err != nil {
		t.Fatalf("write sort.json: %v", err)
	}

	slipJSON := `{"内容": "观音灵签 第一签: 钟离成道\n诗曰: 开天辟地作良缘\n宫位：子宫\n解曰: 急速兆速"}`
	if err := os.WriteFile(filepath.Join(dir, "1.json"), []byte(slipJSON), 0644); err != nil {
		t.Fatalf("write 1.json: %v", err)
	}

	return dir
}

func TestLoadCatalog(t *testing.T) {
	c := LoadCatalog(writeTestCatalog(t))

	slip := c.Get(1)
	if slip.Title != "钟离成道" {
		t.Fatalf("title = %q, want %q", slip.Title, "钟离成道")
	}
	if slip.Tier != TierShang {
		t.Fatalf("tier = %q, want %q", slip.Tier, TierShang)
	}
	if slip.Palace != "子宫" {
		t.Fatalf("palace = %q, want %q", slip.Palace, "子宫")
	}
	if slip.ChineseNumber != "一" {
		t.Fatalf("chinese number = %q, want %q", slip.ChineseNumber, "一")
	}
}

func TestLoadCatalog_MissingFileDegrades(t *testing.T) {
	c := LoadCatalog(writeTestCatalog(t))

	slip := c.Get(2)
	if slip.Title != "未知" {
		t.Fatalf("title = %q, want 未知", slip.Title)
	}
	if slip.Tier != TierZhong {
		t.Fatalf("tier = %q, want %q (from sort table)", slip.Tier, TierZhong)
	}
	if slip.Palace != "未知" {
		t.Fatalf("palace = %q, want 未知", slip.Palace)
	}
}

func TestLoadCatalog_EmptyDir(t *testing.T) {
	c := LoadCatalog(t.TempDir())

	if c.HasOrder() {
		t.Fatal("empty dir should have no tier order")
	}
	slip := c.Get(50)
	if slip.Tier != TierUnknown || slip.Title != "未知" {
		t.Fatalf("slip = %+v, want fully degraded", slip)
	}
}

func TestCatalogPriority(t *testing.T) {
	c := LoadCatalog(writeTestCatalog(t))

	if got := c.Priority(1); got != 0 {
		t.Fatalf("Priority(1) = %d, want 0", got)
	}
	if got := c.Priority(3); got != 2 {
		t.Fatalf("Priority(3) = %d, want 2", got)
	}
	if got := c.Priority(99); got != TotalSlips {
		t.Fatalf("Priority(99) = %d, want %d for unranked slip", got, TotalSlips)
	}
}

func TestCatalogGet_SynthesizesOutOfRange(t *testing.T) {
	c := LoadCatalog(writeTestCatalog(t))

	slip := c.Get(101)
	if slip.Number != 101 || slip.Tier != TierUnknown {
		t.Fatalf("slip = %+v, want synthesized unknown slip", slip)
	}
}

func TestChineseNumber(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "一"},
		{9, "九"},
		{10, "十"},
		{11, "十一"},
		{19, "十九"},
		{20, "二十"},
		{21, "二十一"},
		{99, "九十九"},
		{100, "一百"},
		{101, "101"},
	}
	for _, tt := range tests {
		if got := ChineseNumber(tt.n); got != tt.want {
			t.Fatalf("ChineseNumber(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestImagePath(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "7.png"), []byte("img"), 0644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	p, ok := ImagePath(dir, 7)
	if !ok {
		t.Fatal("expected image to be found")
	}
	if filepath.Base(p) != "7.png" {
		t.Fatalf("path = %q, want 7.png", p)
	}

	if _, ok := ImagePath(dir, 8); ok {
		t.Fatal("expected no image for slip 8")
	}
}
