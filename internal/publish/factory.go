package publish

import (
	"context"
	"fmt"

	"previewhub/internal/config"
	"previewhub/internal/hub"
)

// NewPublisherFromConfig creates the Publisher selected by cfg.Type.
func NewPublisherFromConfig(ctx context.Context, cfg config.PublisherConfig) (hub.Publisher, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryPublisher(cfg.Name), nil
	case "s3":
		return NewS3Publisher(ctx, cfg)
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem publisher requires fs_root to be set")
		}
		return NewFileSystemPublisher(cfg.Name, cfg.FSRoot)
	default:
		return nil, fmt.Errorf("unknown publisher type: %s", cfg.Type)
	}
}
