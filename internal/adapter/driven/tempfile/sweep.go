package tempfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/mitchellh/go-ps"
)

var orphanRE = regexp.MustCompile(`^` + filePrefix + `-(\d+)-` + fileKind + `-[0-9a-f-]{36}\` + fileExt + `$`)

// SweepOrphans removes signature files whose owning process is no longer
// running and returns how many were removed. Files owned by this process or
// by another live fieldorders process are kept.
func (s *Store) SweepOrphans(ctx context.Context) (int, error) {
	live, err := livePIDs()
	if err != nil {
		return 0, err
	}
	live[s.pid] = struct{}{}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("reading temp dir: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if entry.IsDir() {
			continue
		}
		m := orphanRE.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		pid, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if _, ok := live[pid]; ok {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		if err := s.Delete(ctx, path); err != nil {
			return removed, err
		}
		removed++
		s.logger.Info("deleted orphaned signature file", "path", path, "pid", pid)
	}
	return removed, nil
}

// RunSweepLoop sweeps once immediately and then every interval until ctx is
// cancelled.
func (s *Store) RunSweepLoop(ctx context.Context, interval time.Duration) {
	if _, err := s.SweepOrphans(ctx); err != nil {
		s.logger.Error("sweeping orphaned signature files", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.SweepOrphans(ctx); err != nil {
				s.logger.Error("sweeping orphaned signature files", "error", err)
			}
		case <-ctx.Done():
			s.logger.Info("sweep loop stopped")
			return
		}
	}
}

// livePIDs returns the PIDs of running processes that share this binary's
// executable name.
func livePIDs() (map[int]struct{}, error) {
	execName := "fieldorders"
	if path, err := os.Executable(); err == nil {
		execName = filepath.Base(path)
	}

	procs, err := ps.Processes()
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}

	pids := make(map[int]struct{})
	for _, proc := range procs {
		if proc.Executable() == execName {
			pids[proc.Pid()] = struct{}{}
		}
	}
	return pids, nil
}
