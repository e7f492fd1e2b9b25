// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package jieqian

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhufengning/lingbot/pkg/logger"
)

const (
	historyFileName = "jieqian_history.json"
	contentFileName = "jieqian_content.json"
)

// ErrOutOfRange means a 1-based index does not point at one of
// today's records.
var ErrOutOfRange = errors.New("index out of range")

// Record is one interpretation: the user's question and the answer
// given for it.
type Record struct {
	ID        string `json:"id,omitempty"`
	Content   string `json:"content"`
	Result    string `json:"result"`
	Timestamp string `json:"timestamp"`
}

type contentRecord struct {
	Date string `json:"date"`
	Record
}

// DaySummary is one day of a user's history.
type DaySummary struct {
	Date    string
	Count   int
	Details []Record
}

type Statistics struct {
	Total int
	Max   int
	Avg   float64
	Min   int
}

type GlobalStatistics struct {
	Total      int
	TotalToday int
	Users      int
}

// Store keeps interpretations in two whole-file JSON representations
// that every mutation updates together: a per-day map for daily
// lookups and a flat per-user list preserving insertion order.
type Store struct {
	mu          sync.Mutex
	historyPath string
	contentPath string
	now         func() time.Time
}

func NewStore(dataDir string) *Store {
	return &Store{
		historyPath: filepath.Join(dataDir, historyFileName),
		contentPath: filepath.Join(dataDir, contentFileName),
		now:         time.Now,
	}
}

type historyData map[string]map[string][]Record
type contentData map[string][]contentRecord

func loadJSON[T any](path string, out *T) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.ErrorCF("jieqian", "failed to load store file", map[string]interface{}{
				"path":  path,
				"error": err,
			})
		}
		return
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger.ErrorCF("jieqian", "store file corrupt", map[string]interface{}{
			"path":  path,
			"error": err,
		})
	}
}

func saveJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	return nil
}

func (s *Store) loadHistory() historyData {
	h := historyData{}
	loadJSON(s.historyPath, &h)
	return h
}

func (s *Store) loadContent() contentData {
	c := contentData{}
	loadJSON(s.contentPath, &c)
	return c
}

func (s *Store) today() string {
	return s.now().Format("2006-01-02")
}

// Append records one finished interpretation in both representations.
func (s *Store) Append(userID, question, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today()
	rec := Record{
		ID:        uuid.NewString(),
		Content:   question,
		Result:    answer,
		Timestamp: s.now().Format("2006-01-02 15:04:05"),
	}

	h := s.loadHistory()
	if h[userID] == nil {
		h[userID] = make(map[string][]Record)
	}
	h[userID][today] = append(h[userID][today], rec)
	if err := saveJSON(s.historyPath, h); err != nil {
		return err
	}

	c := s.loadContent()
	c[userID] = append(c[userID], contentRecord{Date: today, Record: rec})
	return saveJSON(s.contentPath, c)
}

// ListToday returns today's records in insertion order; display
// numbering is 1-based over this slice.
func (s *Store) ListToday(userID string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadHistory()[userID][s.today()]
}

// History returns up to limit day summaries, newest day first.
func (s *Store) History(userID string, limit int) []DaySummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.loadHistory()[userID]
	if !ok {
		return nil
	}

	days := make([]DaySummary, 0, len(user))
	for date, recs := range user {
		days = append(days, DaySummary{Date: date, Count: len(recs), Details: recs})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date > days[j].Date })

	if limit > 0 && len(days) > limit {
		days = days[:limit]
	}
	return days
}

// Stats summarizes the user's per-day counts; Avg is rounded to one
// decimal.
func (s *Store) Stats(userID string) Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.loadHistory()[userID]
	if !ok || len(user) == 0 {
		return Statistics{}
	}

	stats := Statistics{Min: math.MaxInt}
	for _, recs := range user {
		n := len(recs)
		stats.Total += n
		if n > stats.Max {
			stats.Max = n
		}
		if n < stats.Min {
			stats.Min = n
		}
	}
	stats.Avg = math.Round(float64(stats.Total)/float64(len(user))*10) / 10
	return stats
}

// GlobalStats aggregates over every user, for the template variables.
func (s *Store) GlobalStats() GlobalStatistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.loadHistory()
	today := s.today()

	g := GlobalStatistics{Users: len(h)}
	for _, user := range h {
		for date, recs := range user {
			g.Total += len(recs)
			if date == today {
				g.TotalToday += len(recs)
			}
		}
	}
	return g
}

// DeleteByIndex removes the idx-th (1-based) of today's records from
// both representations. ErrOutOfRange leaves everything untouched.
func (s *Store) DeleteByIndex(userID string, idx int) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today()
	h := s.loadHistory()
	recs := h[userID][today]
	if idx < 1 || idx > len(recs) {
		return Record{}, ErrOutOfRange
	}
	removed := recs[idx-1]

	recs = append(recs[:idx-1], recs[idx:]...)
	if len(recs) == 0 {
		delete(h[userID], today)
		if len(h[userID]) == 0 {
			delete(h, userID)
		}
	} else {
		h[userID][today] = recs
	}
	if err := saveJSON(s.historyPath, h); err != nil {
		return Record{}, err
	}

	// The flat list keeps insertion order, so the idx-th entry dated
	// today is the same record.
	c := s.loadContent()
	seen := 0
	for i, entry := range c[userID] {
		if entry.Date != today {
			continue
		}
		seen++
		if seen == idx {
			c[userID] = append(c[userID][:i], c[userID][i+1:]...)
			break
		}
	}
	if len(c[userID]) == 0 {
		delete(c, userID)
	}
	if err := saveJSON(s.contentPath, c); err != nil {
		return Record{}, err
	}
	return removed, nil
}

// DeleteExceptToday drops every record of the user except today's,
// in both representations.
func (s *Store) DeleteExceptToday(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today()

	h := s.loadHistory()
	if user, ok := h[userID]; ok {
		if recs, ok := user[today]; ok {
			h[userID] = map[string][]Record{today: recs}
		} else {
			delete(h, userID)
		}
		if err := saveJSON(s.historyPath, h); err != nil {
			return err
		}
	}

	c := s.loadContent()
	if entries, ok := c[userID]; ok {
		kept := entries[:0]
		for _, e := range entries {
			if e.Date == today {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(c, userID)
		} else {
			c[userID] = kept
		}
		if err := saveJSON(s.contentPath, c); err != nil {
			return err
		}
	}
	return nil
}

// ClearToday removes the user's records for today from both
// representations.
func (s *Store) ClearToday(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today()

	h := s.loadHistory()
	if user, ok := h[userID]; ok {
		if _, ok := user[today]; ok {
			delete(user, today)
			if len(user) == 0 {
				delete(h, userID)
			}
			if err := saveJSON(s.historyPath, h); err != nil {
				return err
			}
		}
	}

	c := s.loadContent()
	if entries, ok := c[userID]; ok {
		kept := entries[:0]
		for _, e := range entries {
			if e.Date != today {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(c, userID)
		} else {
			c[userID] = kept
		}
		if err := saveJSON(s.contentPath, c); err != nil {
			return err
		}
	}
	return nil
}

// ResetAll removes both store files.
func (s *Store) ResetAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, path := range []string{s.historyPath, s.contentPath} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove store file: %w", err)
		}
	}
	return nil
}

// DeleteOlderThan drops every record dated strictly before cutoff
// (a "2006-01-02" string) and returns how many were removed.
func (s *Store) DeleteOlderThan(cutoff string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0

	h := s.loadHistory()
	for userID, user := range h {
		for date, recs := range user {
			if date < cutoff {
				removed += len(recs)
				delete(user, date)
			}
		}
		if len(user) == 0 {
			delete(h, userID)
		}
	}

	contentRemoved := 0
	c := s.loadContent()
	for userID, entries := range c {
		kept := entries[:0]
		for _, e := range entries {
			if e.Date >= cutoff {
				kept = append(kept, e)
			}
		}
		contentRemoved += len(entries) - len(kept)
		if len(kept) == 0 {
			delete(c, userID)
		} else {
			c[userID] = kept
		}
	}

	// The two files mirror the same records, but a drifted content
	// file must still be rewritten even when the history side had
	// nothing to drop.
	if removed == 0 && contentRemoved == 0 {
		return 0, nil
	}
	if contentRemoved > removed {
		removed = contentRemoved
	}
	if err := saveJSON(s.historyPath, h); err != nil {
		return removed, err
	}
	return removed, saveJSON(s.contentPath, c)
}
