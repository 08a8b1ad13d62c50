// Package blob selects an artifact store backend from configuration.
package blob

import (
	"context"
	"fmt"

	"opscore/internal/blob/core"
	"opscore/internal/blob/fs"
	"opscore/internal/blob/memory"
	"opscore/internal/blob/s3"
	"opscore/internal/config"
)

type (
	Driver     = core.Driver
	Info       = core.Info
	PutOptions = core.PutOptions
	Store      = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

// Open selects a Store implementation from the blob configuration. Defaults
// to the filesystem driver.
func Open(ctx context.Context, cfg config.Blob) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return fs.New(cfg.FSRoot)
	case DriverS3:
		return s3.New(ctx, s3.Config{Bucket: cfg.S3Bucket, Prefix: cfg.S3Prefix})
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
