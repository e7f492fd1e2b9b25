// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package janitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"github.com/zhufengning/lingbot/pkg/logger"
)

// Pruner removes all records dated strictly before the cutoff date
// (formatted 2006-01-02) and reports how many were dropped.
type Pruner interface {
	DeleteOlderThan(cutoff string) (int, error)
}

type serviceState struct {
	LastRunAtMS *int64 `json:"lastRunAtMs,omitempty"`
	NextRunAtMS *int64 `json:"nextRunAtMs,omitempty"`
	LastStatus  string `json:"lastStatus,omitempty"`
	LastError   string `json:"lastError,omitempty"`
}

// Service prunes expired history records on a cron schedule.
type Service struct {
	statePath     string
	cronExpr      string
	retentionDays int
	pruners       []Pruner
	state         serviceState
	nowFunc       func() time.Time
	mu            sync.Mutex
	running       bool
	stopChan      chan struct{}
	gronx         *gronx.Gronx
}

func NewService(dataDir, cronExpr string, retentionDays int, pruners ...Pruner) *Service {
	s := &Service{
		statePath:     filepath.Join(dataDir, "janitor_state.json"),
		cronExpr:      cronExpr,
		retentionDays: retentionDays,
		pruners:       pruners,
		nowFunc:       time.Now,
		stopChan:      make(chan struct{}),
		gronx:         gronx.New(),
	}
	s.loadState()
	return s
}

func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if s.retentionDays <= 0 {
		return fmt.Errorf("retention days must be positive, got %d", s.retentionDays)
	}
	if !s.gronx.IsValid(s.cronExpr) {
		return fmt.Errorf("invalid cron expression: %s", s.cronExpr)
	}

	s.state.NextRunAtMS = s.computeNextRun(s.nowFunc())
	if err := s.saveStateUnsafe(); err != nil {
		return fmt.Errorf("failed to save janitor state: %w", err)
	}

	s.running = true
	go s.runLoop()

	logger.InfoCF("janitor", "Janitor started", map[string]interface{}{
		"cron":           s.cronExpr,
		"retention_days": s.retentionDays,
	})
	return nil
}

func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	close(s.stopChan)
}

func (s *Service) runLoop() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.checkDue()
		}
	}
}

func (s *Service) checkDue() {
	s.mu.Lock()
	if !s.running || s.state.NextRunAtMS == nil {
		s.mu.Unlock()
		return
	}

	now := s.nowFunc()
	if now.UnixMilli() < *s.state.NextRunAtMS {
		s.mu.Unlock()
		return
	}

	// Advance the schedule before running so a slow prune never
	// triggers twice.
	s.state.NextRunAtMS = s.computeNextRun(now)
	s.mu.Unlock()

	s.RunOnce()
}

// RunOnce prunes everything older than the retention window across
// all registered stores.
func (s *Service) RunOnce() {
	now := s.nowFunc()
	cutoff := now.AddDate(0, 0, -s.retentionDays).Format("2006-01-02")

	total := 0
	var runErr error
	for _, p := range s.pruners {
		removed, err := p.DeleteOlderThan(cutoff)
		if err != nil {
			runErr = err
			logger.ErrorCF("janitor", "Prune failed", map[string]interface{}{
				"cutoff": cutoff,
				"error":  err.Error(),
			})
			continue
		}
		total += removed
	}

	logger.InfoCF("janitor", "Prune completed", map[string]interface{}{
		"cutoff":  cutoff,
		"removed": total,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	ranAt := now.UnixMilli()
	s.state.LastRunAtMS = &ranAt
	if runErr != nil {
		s.state.LastStatus = "error"
		s.state.LastError = runErr.Error()
	} else {
		s.state.LastStatus = "ok"
		s.state.LastError = ""
	}

	if err := s.saveStateUnsafe(); err != nil {
		logger.ErrorCF("janitor", "Failed to save janitor state", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (s *Service) computeNextRun(now time.Time) *int64 {
	next, err := gronx.NextTickAfter(s.cronExpr, now, false)
	if err != nil {
		logger.ErrorCF("janitor", "Failed to compute next run", map[string]interface{}{
			"expr":  s.cronExpr,
			"error": err.Error(),
		})
		return nil
	}
	ms := next.UnixMilli()
	return &ms
}

func (s *Service) Status() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]interface{}{
		"enabled":       s.running,
		"nextRunAtMs":   s.state.NextRunAtMS,
		"lastRunAtMs":   s.state.LastRunAtMS,
		"lastStatus":    s.state.LastStatus,
		"retentionDays": s.retentionDays,
	}
}

func (s *Service) loadState() {
	s.state = serviceState{}

	data, err := os.ReadFile(s.statePath)
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		s.state = serviceState{}
	}
}

func (s *Service) saveStateUnsafe() error {
	if err := os.MkdirAll(filepath.Dir(s.statePath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.statePath, data, 0644)
}
