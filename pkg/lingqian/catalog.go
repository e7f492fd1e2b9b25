// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package lingqian

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zhufengning/lingbot/pkg/logger"
)

const TotalSlips = 100

const (
	TierShang   = "上签"
	TierZhong   = "中签"
	TierXia     = "下签"
	TierUnknown = "未知"
)

// Slip is one catalog entry. Fields that could not be loaded or
// parsed degrade to TierUnknown / "未知" rather than failing.
type Slip struct {
	Number        int
	ChineseNumber string
	Title         string
	Tier          string
	Palace        string
	Content       string
}

type sortEntry struct {
	Number int    `json:"签序"`
	Tier   string `json:"吉凶"`
}

type slipFile struct {
	Content string `json:"内容"`
}

// Catalog holds the 100 slips plus the ordered tier table. The order
// of sort.json doubles as a quality ranking: a lower index is a
// better slip.
type Catalog struct {
	slips    map[int]*Slip
	priority map[int]int
	tiers    map[string][]int
}

// LoadCatalog reads sort.json and the per-slip content files from
// dir. It never fails: anything missing or corrupt is served
// degraded.
func LoadCatalog(dir string) *Catalog {
	c := &Catalog{
		slips:    make(map[int]*Slip, TotalSlips),
		priority: make(map[int]int),
		tiers:    make(map[string][]int),
	}

	order := loadSortTable(filepath.Join(dir, "sort.json"))
	tierByNumber := make(map[int]string, len(order))
	for i, e := range order {
		c.priority[e.Number] = i
		tierByNumber[e.Number] = e.Tier
		c.tiers[e.Tier] = append(c.tiers[e.Tier], e.Number)
	}

	for n := 1; n <= TotalSlips; n++ {
		slip := &Slip{
			Number:        n,
			ChineseNumber: ChineseNumber(n),
			Title:         "未知",
			Tier:          TierUnknown,
			Palace:        "未知",
		}
		if tier, ok := tierByNumber[n]; ok && tier != "" {
			slip.Tier = tier
		}

		var sf slipFile
		path := filepath.Join(dir, fmt.Sprintf("%d.json", n))
		data, err := os.ReadFile(path)
		if err == nil {
			err = json.Unmarshal(data, &sf)
		}
		if err != nil {
			if !os.IsNotExist(err) {
				logger.WarnCF("lingqian", "slip file unreadable", map[string]interface{}{
					"number": n,
					"error":  err,
				})
			}
		} else {
			slip.Content = sf.Content
			if title := parseTitle(sf.Content); title != "" {
				slip.Title = title
			}
			if palace := parsePalace(sf.Content); palace != "" {
				slip.Palace = palace
			}
		}

		c.slips[n] = slip
	}

	return c
}

func loadSortTable(path string) []sortEntry {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.WarnCF("lingqian", "sort table unreadable", map[string]interface{}{"error": err})
		}
		return nil
	}
	var order []sortEntry
	if err := json.Unmarshal(data, &order); err != nil {
		logger.WarnCF("lingqian", "sort table corrupt", map[string]interface{}{"error": err})
		return nil
	}
	return order
}

// parseTitle pulls the slip title out of the free-text content: the
// first line that names the slip ("第X签" or a "签: " label), taking
// the part after the colon.
func parseTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, "签: ") ||
			(strings.Contains(line, "第") && strings.Contains(line, "签")) {
			if idx := strings.Index(line, ":"); idx >= 0 {
				return strings.TrimSpace(line[idx+1:])
			}
			return ""
		}
	}
	return ""
}

func parsePalace(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, "宫位") {
			if idx := strings.Index(line, "："); idx >= 0 {
				return strings.TrimSpace(line[idx+len("："):])
			}
			if idx := strings.Index(line, ":"); idx >= 0 {
				return strings.TrimSpace(line[idx+1:])
			}
			return ""
		}
	}
	return ""
}

// Get always returns a slip for n, synthesizing a degraded one for
// numbers outside the loaded set.
func (c *Catalog) Get(n int) *Slip {
	if s, ok := c.slips[n]; ok {
		return s
	}
	return &Slip{
		Number:        n,
		ChineseNumber: ChineseNumber(n),
		Title:         "未知",
		Tier:          TierUnknown,
		Palace:        "未知",
	}
}

func (c *Catalog) Tier(n int) string {
	return c.Get(n).Tier
}

// Size is the number of slips actually loaded from disk.
func (c *Catalog) Size() int {
	return len(c.slips)
}

// Priority returns the slip's index in the ordered tier table; lower
// is better. Slips missing from the table sort last.
func (c *Catalog) Priority(n int) int {
	if p, ok := c.priority[n]; ok {
		return p
	}
	return TotalSlips
}

// Numbers returns the slip numbers belonging to a tier, in table
// order.
func (c *Catalog) Numbers(tier string) []int {
	return c.tiers[tier]
}

// HasOrder reports whether the tier table loaded; without it biased
// draws fall back to uniform.
func (c *Catalog) HasOrder() bool {
	return len(c.priority) > 0
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}

// ImagePath locates the slip's picture under picsDir, trying the
// known extensions.
func ImagePath(picsDir string, n int) (string, bool) {
	for _, ext := range imageExtensions {
		p := filepath.Join(picsDir, fmt.Sprintf("%d%s", n, ext))
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

var chineseDigits = []string{"", "一", "二", "三", "四", "五", "六", "七", "八", "九"}

// ChineseNumber renders 1..100 as 一 .. 一百; anything else falls back
// to the decimal form.
func ChineseNumber(n int) string {
	switch {
	case n >= 1 && n <= 9:
		return chineseDigits[n]
	case n == 10:
		return "十"
	case n > 10 && n < 20:
		return "十" + chineseDigits[n-10]
	case n >= 20 && n < 100:
		s := chineseDigits[n/10] + "十"
		if n%10 != 0 {
			s += chineseDigits[n%10]
		}
		return s
	case n == 100:
		return "一百"
	default:
		return fmt.Sprintf("%d", n)
	}
}
