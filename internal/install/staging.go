// SPDX-License-Identifier: MPL-2.0

package install

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// staging is the scratch directory holding the archive, its companions and
// the extracted binary.
type staging struct {
	dir string
}

func newStaging(root string) (*staging, error) {
	dir, err := os.MkdirTemp(root, "invowk-install-*")
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	return &staging{dir: dir}, nil
}

func (s *staging) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *staging) cleanup(logger *log.Logger) {
	if err := os.RemoveAll(s.dir); err != nil {
		logger.Warn("could not remove staging directory", "dir", s.dir, "err", err)
		return
	}
	logger.Debug("staging directory removed", "dir", s.dir)
}
