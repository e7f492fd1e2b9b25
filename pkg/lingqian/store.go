// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package lingqian

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/zhufengning/lingbot/pkg/logger"
)

const historyFileName = "lingqian_history.json"

// DrawRecord is one day's draw, denormalized at draw time so history
// stays stable even if the catalog changes later.
type DrawRecord struct {
	Qianxu        int    `json:"qianxu"`
	QianxuChinese string `json:"qianxu_chinese"`
	Qianming      string `json:"qianming"`
	Jixiong       string `json:"jixiong"`
	Gongwei       string `json:"gongwei"`
	DrawnAt       string `json:"drawn_at,omitempty"`
}

// drawEntry tolerates the legacy on-disk form where a day's value is
// a bare slip number instead of a full record.
type drawEntry struct {
	Record DrawRecord
	legacy bool
}

func (e *drawEntry) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		e.Record = DrawRecord{Qianxu: n}
		e.legacy = true
		return nil
	}
	e.legacy = false
	return json.Unmarshal(data, &e.Record)
}

func (e drawEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Record)
}

// HistoryRecord is a DrawRecord plus the day it belongs to.
type HistoryRecord struct {
	DrawRecord
	Date string `json:"date"`
}

type Statistics struct {
	Total      int
	ShangTotal int
	ZhongTotal int
	XiaTotal   int
}

// Bias shifts the upper/middle tier probabilities of a draw, in
// percentage points.
type Bias struct {
	ShangRate float64
	ZhongRate float64
}

// Store keeps the per-user draw history in a single JSON file,
// rewritten whole on every mutation. All access goes through one
// mutex so concurrent commands cannot interleave load and save.
type Store struct {
	mu      sync.Mutex
	path    string
	catalog *Catalog
	now     func() time.Time
}

func NewStore(dataDir string, catalog *Catalog) *Store {
	return &Store{
		path:    filepath.Join(dataDir, historyFileName),
		catalog: catalog,
		now:     time.Now,
	}
}

type historyData map[string]map[string]*drawEntry

func (s *Store) load() historyData {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.ErrorCF("lingqian", "failed to load draw history", map[string]interface{}{"error": err})
		}
		return historyData{}
	}
	var h historyData
	if err := json.Unmarshal(data, &h); err != nil {
		logger.ErrorCF("lingqian", "draw history corrupt", map[string]interface{}{"error": err})
		return historyData{}
	}
	return h
}

func (s *Store) save(h historyData) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal draw history: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write draw history: %w", err)
	}
	return nil
}

func (s *Store) today() string {
	return s.now().Format("2006-01-02")
}

func (s *Store) buildRecord(qianxu int) DrawRecord {
	slip := s.catalog.Get(qianxu)
	return DrawRecord{
		Qianxu:        qianxu,
		QianxuChinese: slip.ChineseNumber,
		Qianming:      slip.Title,
		Jixiong:       slip.Tier,
		Gongwei:       slip.Palace,
		DrawnAt:       s.now().Format("2006-01-02 15:04:05"),
	}
}

// DrawOrGet returns the user's slip for today, drawing one if they
// have not drawn yet. Repeat calls on the same day return the stored
// record, bias or not.
func (s *Store) DrawOrGet(userID string, bias *Bias) (DrawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.load()
	today := s.today()

	if entry, ok := h[userID][today]; ok {
		if entry.legacy {
			entry.Record = s.buildRecord(entry.Record.Qianxu)
			entry.legacy = false
			if err := s.save(h); err != nil {
				return DrawRecord{}, err
			}
		}
		return entry.Record, nil
	}

	rng := s.seededRand(userID, today)
	qianxu := s.pickNumber(rng, bias)
	record := s.buildRecord(qianxu)

	if h[userID] == nil {
		h[userID] = make(map[string]*drawEntry)
	}
	h[userID][today] = &drawEntry{Record: record}
	if err := s.save(h); err != nil {
		return DrawRecord{}, err
	}
	return record, nil
}

// seededRand derives the day's generator from the user, the date and
// the time of day.
func (s *Store) seededRand(userID, today string) *rand.Rand {
	timeStr := s.now().Format("15:04:05")
	sum := md5.Sum([]byte(userID + today + timeStr))
	seed := int64(binary.BigEndian.Uint64(sum[:8]))
	return rand.New(rand.NewSource(seed))
}

// pickNumber draws a slip number, shifting tier probabilities by the
// bias when the tier table is available.
func (s *Store) pickNumber(rng *rand.Rand, bias *Bias) int {
	if bias == nil || !s.catalog.HasOrder() {
		return rng.Intn(TotalSlips) + 1
	}

	shang := s.catalog.Numbers(TierShang)
	zhong := s.catalog.Numbers(TierZhong)
	xia := s.catalog.Numbers(TierXia)

	shangProb := clamp01(float64(len(shang))/TotalSlips + bias.ShangRate/100)
	zhongProb := clamp01(float64(len(zhong))/TotalSlips + bias.ZhongRate/100)
	xiaProb := math.Max(0, 1-shangProb-zhongProb)

	total := shangProb + zhongProb + xiaProb
	if total > 0 {
		shangProb /= total
		zhongProb /= total
	}

	r := rng.Float64()
	var pool []int
	switch {
	case r < shangProb:
		pool = shang
	case r < shangProb+zhongProb:
		pool = zhong
	default:
		pool = xia
	}
	if len(pool) == 0 {
		return rng.Intn(TotalSlips) + 1
	}
	return pool[rng.Intn(len(pool))]
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// GetToday returns the user's record for today, upgrading and
// rewriting a legacy bare-number entry on the way out.
func (s *Store) GetToday(userID string) (DrawRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.load()
	entry, ok := h[userID][s.today()]
	if !ok {
		return DrawRecord{}, false
	}
	if entry.legacy {
		entry.Record = s.buildRecord(entry.Record.Qianxu)
		entry.legacy = false
		if err := s.save(h); err != nil {
			logger.ErrorCF("lingqian", "failed to rewrite upgraded record", map[string]interface{}{"error": err})
		}
	}
	return entry.Record, true
}

// History returns up to limit records, newest day first.
func (s *Store) History(userID string, limit int) []HistoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.load()
	user, ok := h[userID]
	if !ok {
		return nil
	}

	records := make([]HistoryRecord, 0, len(user))
	for date, entry := range user {
		rec := entry.Record
		if entry.legacy {
			rec = s.buildRecord(rec.Qianxu)
		}
		records = append(records, HistoryRecord{DrawRecord: rec, Date: date})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date > records[j].Date })

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}

// Stats classifies every stored draw by the catalog's current tier
// table.
func (s *Store) Stats(userID string) Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.load()
	user, ok := h[userID]
	if !ok {
		return Statistics{}
	}

	stats := Statistics{Total: len(user)}
	for _, entry := range user {
		switch s.catalog.Tier(entry.Record.Qianxu) {
		case TierShang:
			stats.ShangTotal++
		case TierZhong:
			stats.ZhongTotal++
		case TierXia:
			stats.XiaTotal++
		}
	}
	return stats
}

// DeleteExceptToday drops every record of the user except today's;
// a user left with nothing disappears from the file.
func (s *Store) DeleteExceptToday(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.load()
	user, ok := h[userID]
	if !ok {
		return nil
	}

	today := s.today()
	if entry, ok := user[today]; ok {
		h[userID] = map[string]*drawEntry{today: entry}
	} else {
		delete(h, userID)
	}
	return s.save(h)
}

// ClearToday removes the user's record for today so the next draw is
// fresh.
func (s *Store) ClearToday(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.load()
	user, ok := h[userID]
	if !ok {
		return nil
	}

	today := s.today()
	if _, ok := user[today]; !ok {
		return nil
	}
	delete(user, today)
	if len(user) == 0 {
		delete(h, userID)
	}
	return s.save(h)
}

// ResetAll removes the history file entirely.
func (s *Store) ResetAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove draw history: %w", err)
	}
	return nil
}

// DeleteOlderThan drops every record dated strictly before cutoff
// (a "2006-01-02" string) and returns how many were removed.
func (s *Store) DeleteOlderThan(cutoff string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.load()
	removed := 0
	for userID, user := range h {
		for date := range user {
			if date < cutoff {
				delete(user, date)
				removed++
			}
		}
		if len(user) == 0 {
			delete(h, userID)
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.save(h)
}
