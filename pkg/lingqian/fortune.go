// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package lingqian

import (
	"bytes"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zhufengning/lingbot/pkg/logger"
)

// FortuneGate integrates the companion daily-jrrp plugin's data file.
// When Required is on, a user must have checked their fortune today
// before drawing; the jrrp value also maps to a draw bias through the
// configured ranges and rate lists.
type FortuneGate struct {
	Required    bool
	HistoryPath string
	Ranges      string
	ShangRates  string
	ZhongRates  string

	now func() time.Time
}

func NewFortuneGate(required bool, historyPath, ranges, shangRates, zhongRates string) *FortuneGate {
	return &FortuneGate{
		Required:    required,
		HistoryPath: historyPath,
		Ranges:      ranges,
		ShangRates:  shangRates,
		ZhongRates:  zhongRates,
		now:         time.Now,
	}
}

type fortuneDay struct {
	Jrrp int `json:"jrrp"`
}

func (g *FortuneGate) loadHistory() map[string]map[string]fortuneDay {
	if g.HistoryPath == "" {
		return nil
	}
	data, err := os.ReadFile(g.HistoryPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.WarnCF("fortune", "jrrp history unreadable", map[string]interface{}{"error": err})
		}
		return nil
	}
	// The companion plugin writes the file with a UTF-8 BOM.
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	var h map[string]map[string]fortuneDay
	if err := json.Unmarshal(data, &h); err != nil {
		logger.WarnCF("fortune", "jrrp history corrupt", map[string]interface{}{"error": err})
		return nil
	}
	return h
}

// CheckedToday reports whether the user may draw: always true when
// the gate is off, otherwise only with a jrrp record for today.
func (g *FortuneGate) CheckedToday(userID string) bool {
	if !g.Required {
		return true
	}
	h := g.loadHistory()
	if h == nil {
		return false
	}
	today := g.now().Format("2006-01-02")
	_, ok := h[userID][today]
	return ok
}

// BiasFor maps the user's jrrp value of today to a draw bias, or nil
// when no adjustment applies.
func (g *FortuneGate) BiasFor(userID string) *Bias {
	h := g.loadHistory()
	if h == nil {
		return nil
	}
	today := g.now().Format("2006-01-02")
	day, ok := h[userID][today]
	if !ok {
		return nil
	}

	idx := rangeIndex(day.Jrrp, g.Ranges)
	if idx < 0 {
		return nil
	}

	shang := parseRates(g.ShangRates)
	zhong := parseRates(g.ZhongRates)
	if idx >= len(shang) || idx >= len(zhong) {
		return nil
	}
	return &Bias{ShangRate: shang[idx], ZhongRate: zhong[idx]}
}

// rangeIndex finds which configured range ("0-10,11-20,...") the
// value falls in, or -1.
func rangeIndex(jrrp int, ranges string) int {
	if ranges == "" {
		return -1
	}
	for i, r := range strings.Split(ranges, ",") {
		r = strings.TrimSpace(r)
		if lo, hi, found := strings.Cut(r, "-"); found {
			start, err1 := strconv.Atoi(strings.TrimSpace(lo))
			end, err2 := strconv.Atoi(strings.TrimSpace(hi))
			if err1 == nil && err2 == nil && start <= jrrp && jrrp <= end {
				return i
			}
		} else if v, err := strconv.Atoi(r); err == nil && v == jrrp {
			return i
		}
	}
	return -1
}

func parseRates(s string) []float64 {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	rates := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil
		}
		rates = append(rates, v)
	}
	return rates
}
