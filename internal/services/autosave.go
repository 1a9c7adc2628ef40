package services

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AutosaveOnce writes the current invoice to the draft slot when it changed
// since the last checkpoint. It reports whether a write happened.
func (s *InvoiceService) AutosaveOnce(ctx context.Context) (bool, error) {
	s.slotMu.Lock()
	defer s.slotMu.Unlock()
	inv := s.Current()
	b, err := json.Marshal(inv)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	unchanged := bytes.Equal(b, s.lastDraft)
	s.mu.Unlock()
	if unchanged {
		return false, nil
	}
	if err := s.drafts.SaveDraft(ctx, inv); err != nil {
		return false, &PersistenceError{Op: "autosave", Err: err}
	}
	s.mu.Lock()
	s.lastDraft = b
	s.mu.Unlock()
	return true, nil
}

// RunAutosave checkpoints the draft every interval until ctx is done.
// Failures are logged and never surface to the user.
func (s *InvoiceService) RunAutosave(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			saved, err := s.AutosaveOnce(ctx)
			if err != nil {
				s.log.Warn("autosave failed", zap.Error(err))
				continue
			}
			if saved {
				s.log.Debug("draft saved")
			}
		}
	}
}

// StartAutosave runs RunAutosave in the background until Close.
func (s *InvoiceService) StartAutosave(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.RunAutosave(ctx, interval)
	}()
	s.mu.Lock()
	prev := s.stop
	s.stop = func() { cancel(); wg.Wait() }
	s.mu.Unlock()
	if prev != nil {
		prev()
	}
}

// Close stops a background autosave started with StartAutosave.
func (s *InvoiceService) Close() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}
