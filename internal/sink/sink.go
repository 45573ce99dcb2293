// Package sink delivers exported workbooks to a destination: a local
// directory, an S3-compatible bucket or an FTP server.
package sink

import (
	"context"
	"fmt"
)

// Driver identifies a sink implementation.
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverFTP        Driver = "ftp"
)

// Sink stores a named file and returns where it went.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
	Driver() Driver
}

type Config struct {
	Driver string

	Dir string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3Prefix    string
	S3PathStyle bool
	S3AccessKey string
	S3SecretKey string

	FTPAddr     string
	FTPUser     string
	FTPPassword string
	FTPDir      string
}

// Open selects a sink from cfg. The filesystem driver is the default.
func Open(ctx context.Context, cfg Config) (Sink, error) {
	switch Driver(cfg.Driver) {
	case "", DriverFilesystem:
		return NewFilesystem(cfg.Dir)
	case DriverS3:
		return NewS3(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			Prefix:    cfg.S3Prefix,
			PathStyle: cfg.S3PathStyle,

			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
		})
	case DriverFTP:
		return NewFTP(FTPConfig{
			Addr:     cfg.FTPAddr,
			User:     cfg.FTPUser,
			Password: cfg.FTPPassword,
			Dir:      cfg.FTPDir,
		})
	default:
		return nil, fmt.Errorf("unknown sink driver %q", cfg.Driver)
	}
}
