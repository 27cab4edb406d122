// Package blob selects the blob store used for the import archive.
package blob

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/softjail/internal/blob/core"
	"github.com/JonMunkholm/softjail/internal/blob/fs"
	"github.com/JonMunkholm/softjail/internal/blob/memory"
	"github.com/JonMunkholm/softjail/internal/blob/s3"
)

// DriverNone disables the archive.
const DriverNone = "none"

// Config selects and configures a blob driver.
type Config struct {
	Driver string // fs|s3|memory|none
	FSRoot string
	S3     s3.Config
}

// Open returns the configured store, or nil when the driver is "none".
func Open(ctx context.Context, cfg Config) (core.Store, error) {
	switch cfg.Driver {
	case DriverNone:
		return nil, nil
	case "", string(core.DriverFilesystem):
		return fs.New(cfg.FSRoot)
	case string(core.DriverS3):
		return s3.New(ctx, cfg.S3)
	case string(core.DriverMemory):
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
