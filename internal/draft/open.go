package draft

import (
	"fmt"
	"path/filepath"

	"github.com/BennettSmith/insurance-intake-api/internal/platform/config"
)

// Open returns the backend selected by cfg.DraftBackend rooted at cfg.DraftPath.
func Open(cfg config.ClientConfig) (Backend, error) {
	switch cfg.DraftBackend {
	case "", config.DraftFile:
		return NewFileBackend(cfg.DraftPath)
	case config.DraftSQLite:
		if err := ensureDir(cfg.DraftPath); err != nil {
			return nil, err
		}
		return OpenSQLite(filepath.Join(cfg.DraftPath, "drafts.db"))
	default:
		return nil, fmt.Errorf("draft: unknown backend %q", cfg.DraftBackend)
	}
}
