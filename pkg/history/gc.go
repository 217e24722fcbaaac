package history

import (
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// RunGC runs one round of BadgerDB value-log garbage collection.
// badger.ErrNoRewrite means there was nothing to reclaim and is not an error.
func (s *Store) RunGC() error {
	err := s.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) {
		err = nil
	}

	s.mu.Lock()
	s.gcRuns++
	s.lastGC = time.Now()
	if err != nil {
		s.gcFails++
	}
	s.mu.Unlock()

	return err
}

// gcLoop periodically reclaims value-log space until Close is called
func (s *Store) gcLoop(period time.Duration) {
	defer s.gcWG.Done()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-s.gcStop:
			return
		case <-ticker.C:
			if err := s.RunGC(); err != nil {
				s.logger.Warn("History GC failed", zap.Error(err))
			}
		}
	}
}

// GCStats returns garbage collection statistics for health reporting
func (s *Store) GCStats() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]interface{}{
		"total_runs":  s.gcRuns,
		"failed_runs": s.gcFails,
	}
	if !s.lastGC.IsZero() {
		stats["last_run_time"] = s.lastGC
	}
	return stats
}

// DiskUsage returns the LSM and value-log sizes in bytes
func (s *Store) DiskUsage() (lsm, vlog int64) {
	return s.db.Size()
}
