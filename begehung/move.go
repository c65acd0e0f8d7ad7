package begehung

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const handoffSuffixLayout = "20060102-150405.000000000"

// HandOff moves a processed import file into dir and returns its new path.
// A file of the same name already in dir is kept; the incoming one is stored
// under a timestamped name.
func HandOff(path, dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("handoff dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dst := handoffTarget(dir, filepath.Base(path), time.Now())
	if err := os.Rename(path, dst); err != nil {
		if err := copyThenRemove(path, dst); err != nil {
			return "", err
		}
	}
	return dst, nil
}

func handoffTarget(dir, name string, now time.Time) string {
	dst := filepath.Join(dir, name)
	if _, err := os.Stat(dst); err != nil {
		return dst
	}
	ext := filepath.Ext(name)
	return filepath.Join(dir, strings.TrimSuffix(name, ext)+"-"+now.Format(handoffSuffixLayout)+ext)
}

// copyThenRemove covers renames across file systems.
func copyThenRemove(src, dst string) error {
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()
	_, err = io.Copy(out, in)
	return err
}

// ImportFile imports the CSV at path and merges it. On success the file is
// moved to archiveDir, on a malformed file to errorDir; empty dirs leave the
// file in place. With dryRun the file is only parsed.
func (s *Session) ImportFile(path, archiveDir, errorDir string, dryRun bool) (*ImportResult, MergeResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, MergeResult{}, err
	}
	res, err := s.ImportCSV(f)
	_ = f.Close()
	if err != nil {
		if strings.TrimSpace(errorDir) != "" {
			if dst, mvErr := HandOff(path, errorDir); mvErr == nil {
				s.log.Infow("moved rejected file", "path", path, "to", dst)
			} else {
				s.log.Warnw("move to error dir failed", "path", path, "error", mvErr)
			}
		}
		return nil, MergeResult{}, err
	}
	if dryRun {
		return res, MergeResult{Incoming: len(res.Records), Total: s.table.Len()}, nil
	}
	merged, err := s.Merge(res.Records)
	if err != nil {
		return res, MergeResult{}, err
	}
	if strings.TrimSpace(archiveDir) != "" {
		dst, mvErr := HandOff(path, archiveDir)
		if mvErr != nil {
			return res, merged, fmt.Errorf("archive %s: %w", path, mvErr)
		}
		s.log.Infow("archived imported file", "path", path, "to", dst)
	}
	return res, merged, nil
}
