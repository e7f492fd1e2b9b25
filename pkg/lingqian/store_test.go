package lingqian

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dataDir := t.TempDir()
	catalog := LoadCatalog(writeTestCatalog(t))
	s := NewStore(dataDir, catalog)
	s.now = func() time.Time {
		return time.Date(2026, 8, 29, 12, 30, 0, 0, time.UTC)
	}
	return s, dataDir
}

func TestDrawOrGet_Idempotent(t *testing.T) {
	s, _ := newTestStore(t)

	first, err := s.DrawOrGet("u1", nil)
	if err != nil {
		t.Fatalf("DrawOrGet() error = %v", err)
	}
	if first.Qianxu < 1 || first.Qianxu > TotalSlips {
		t.Fatalf("qianxu = %d, want 1..%d", first.Qianxu, TotalSlips)
	}
	if first.DrawnAt != "2026-08-29 12:30:00" {
		t.Fatalf("drawn_at = %q", first.DrawnAt)
	}

	second, err := s.DrawOrGet("u1", nil)
	if err != nil {
		t.Fatalf("DrawOrGet() second call error = %v", err)
	}
	if second != first {
		t.Fatalf("second draw = %+v, want same as first %+v", second, first)
	}
}

func TestDrawOrGet_DistinctUsers(t *testing.T) {
	s, _ := newTestStore(t)

	if _, err := s.DrawOrGet("u1", nil); err != nil {
		t.Fatalf("DrawOrGet(u1) error = %v", err)
	}
	if _, err := s.DrawOrGet("u2", nil); err != nil {
		t.Fatalf("DrawOrGet(u2) error = %v", err)
	}

	if _, ok := s.GetToday("u1"); !ok {
		t.Fatal("u1 record missing")
	}
	if _, ok := s.GetToday("u2"); !ok {
		t.Fatal("u2 record missing")
	}
}

func TestGetToday_LegacyUpgrade(t *testing.T) {
	s, dataDir := newTestStore(t)

	raw := `{"u1": {"2026-08-29": 1, "2026-08-28": 2}}`
	if err := os.WriteFile(filepath.Join(dataDir, "lingqian_history.json"), []byte(raw), 0644); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	rec, ok := s.GetToday("u1")
	if !ok {
		t.Fatal("expected today's record")
	}
	if rec.Qianxu != 1 {
		t.Fatalf("qianxu = %d, want 1", rec.Qianxu)
	}
	if rec.Qianming != "钟离成道" {
		t.Fatalf("qianming = %q, want resolved from catalog", rec.Qianming)
	}
	if rec.QianxuChinese != "一" {
		t.Fatalf("qianxu_chinese = %q, want 一", rec.QianxuChinese)
	}

	// The legacy entry must be rewritten as a full record on disk.
	data, err := os.ReadFile(filepath.Join(dataDir, "lingqian_history.json"))
	if err != nil {
		t.Fatalf("read history: %v", err)
	}
	var h map[string]map[string]map[string]interface{}
	if err := json.Unmarshal(data, &h); err != nil {
		t.Fatalf("upgraded file should hold record objects: %v", err)
	}
	if got := h["u1"]["2026-08-29"]["qianming"]; got != "钟离成道" {
		t.Fatalf("stored qianming = %v, want 钟离成道", got)
	}
}

func TestHistory_NewestFirstAndLimit(t *testing.T) {
	s, dataDir := newTestStore(t)

	raw := `{"u1": {
		"2026-08-27": {"qianxu": 1},
		"2026-08-28": {"qianxu": 2},
		"2026-08-29": {"qianxu": 3}
	}}`
	if err := os.WriteFile(filepath.Join(dataDir, "lingqian_history.json"), []byte(raw), 0644); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	records := s.History("u1", 2)
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2", len(records))
	}
	if records[0].Date != "2026-08-29" || records[1].Date != "2026-08-28" {
		t.Fatalf("dates = %s, %s, want newest first", records[0].Date, records[1].Date)
	}
}

func TestStats(t *testing.T) {
	s, dataDir := newTestStore(t)

	raw := `{"u1": {
		"2026-08-27": {"qianxu": 1},
		"2026-08-28": {"qianxu": 2},
		"2026-08-29": {"qianxu": 50}
	}}`
	if err := os.WriteFile(filepath.Join(dataDir, "lingqian_history.json"), []byte(raw), 0644); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	stats := s.Stats("u1")
	if stats.Total != 3 {
		t.Fatalf("total = %d, want 3", stats.Total)
	}
	if stats.ShangTotal != 1 || stats.ZhongTotal != 1 {
		t.Fatalf("stats = %+v, want one shang and one zhong", stats)
	}
	// Slip 50 is not in the tier table, so it counts in no tier.
	if stats.XiaTotal != 0 {
		t.Fatalf("xia total = %d, want 0", stats.XiaTotal)
	}
}

func TestDeleteExceptToday(t *testing.T) {
	s, dataDir := newTestStore(t)

	raw := `{"u1": {
		"2026-08-27": {"qianxu": 1},
		"2026-08-29": {"qianxu": 3}
	}}`
	if err := os.WriteFile(filepath.Join(dataDir, "lingqian_history.json"), []byte(raw), 0644); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	if err := s.DeleteExceptToday("u1"); err != nil {
		t.Fatalf("DeleteExceptToday() error = %v", err)
	}

	records := s.History("u1", 0)
	if len(records) != 1 || records[0].Date != "2026-08-29" {
		t.Fatalf("records = %+v, want only today", records)
	}
}

func TestClearToday(t *testing.T) {
	s, _ := newTestStore(t)

	if _, err := s.DrawOrGet("u1", nil); err != nil {
		t.Fatalf("DrawOrGet() error = %v", err)
	}
	if err := s.ClearToday("u1"); err != nil {
		t.Fatalf("ClearToday() error = %v", err)
	}
	if _, ok := s.GetToday("u1"); ok {
		t.Fatal("today's record should be gone")
	}
	if len(s.History("u1", 0)) != 0 {
		t.Fatal("user with no records should disappear")
	}
}

func TestResetAll(t *testing.T) {
	s, dataDir := newTestStore(t)

	if _, err := s.DrawOrGet("u1", nil); err != nil {
		t.Fatalf("DrawOrGet() error = %v", err)
	}
	if err := s.ResetAll(); err != nil {
		t.Fatalf("ResetAll() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "lingqian_history.json")); !os.IsNotExist(err) {
		t.Fatal("history file should be removed")
	}
	// Resetting again is a no-op, not an error.
	if err := s.ResetAll(); err != nil {
		t.Fatalf("second ResetAll() error = %v", err)
	}
}

func TestDeleteOlderThan(t *testing.T) {
	s, dataDir := newTestStore(t)

	raw := `{
		"u1": {"2026-05-01": {"qianxu": 1}, "2026-08-29": {"qianxu": 2}},
		"u2": {"2026-04-01": {"qianxu": 3}}
	}`
	if err := os.WriteFile(filepath.Join(dataDir, "lingqian_history.json"), []byte(raw), 0644); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	removed, err := s.DeleteOlderThan("2026-06-01")
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	if len(s.History("u2", 0)) != 0 {
		t.Fatal("u2 should be fully pruned")
	}
	if len(s.History("u1", 0)) != 1 {
		t.Fatal("u1 should keep today's record")
	}
}

func TestPickNumber_BiasFavorsShang(t *testing.T) {
	s, _ := newTestStore(t)

	rng := rand.New(rand.NewSource(1))
	bias := &Bias{ShangRate: 100, ZhongRate: -100}

	shang := map[int]bool{}
	for _, n := range s.catalog.Numbers(TierShang) {
		shang[n] = true
	}

	for i := 0; i < 50; i++ {
		n := s.pickNumber(rng, bias)
		if !shang[n] {
			t.Fatalf("pick %d = slip %d, want a 上签 slip with +100%% bias", i, n)
		}
	}
}

func TestPickNumber_NoBiasUniformRange(t *testing.T) {
	s, _ := newTestStore(t)

	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 50; i++ {
		n := s.pickNumber(rng, nil)
		if n < 1 || n > TotalSlips {
			t.Fatalf("pick = %d, want 1..%d", n, TotalSlips)
		}
	}
}
