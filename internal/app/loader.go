package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/okian/scoutlens/internal/domain/model"
	"github.com/okian/scoutlens/pkg/logger"
)

// LoadDir builds a dashboard for every *.json snapshot in dir. The player ID
// is the file name without its extension. Bad files are logged and skipped;
// their errors are joined into the returned error.
func (s *Service) LoadDir(ctx context.Context, dir string) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", dir, err)
	}
	if _, err := os.Stat(dir); err != nil {
		return 0, fmt.Errorf("load %s: %w", dir, err)
	}
	sort.Strings(paths)

	var (
		loaded int
		errs   []error
	)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return loaded, err
		}
		playerID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if err := s.loadFile(ctx, playerID, path); err != nil {
			s.logger.Warn(ctx, "snapshot skipped", logger.String("path", path), logger.Error(err))
			errs = append(errs, err)
			continue
		}
		loaded++
	}

	s.logger.Info(ctx, "snapshots loaded",
		logger.String("dir", dir),
		logger.Int("loaded", loaded),
		logger.Int("skipped", len(errs)))
	return loaded, errors.Join(errs...)
}

func (s *Service) loadFile(ctx context.Context, playerID, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if _, err := s.Build(ctx, playerID, &snap); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}
