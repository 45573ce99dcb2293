package sink

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jlaffaye/ftp"
)

type FTPConfig struct {
	Addr     string
	User     string
	Password string
	Dir      string
}

type FTP struct {
	cfg     FTPConfig
	timeout time.Duration
}

func NewFTP(cfg FTPConfig) (*FTP, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("ftp address required")
	}
	if cfg.User == "" {
		cfg.User = "anonymous"
		cfg.Password = "anonymous"
	}
	return &FTP{cfg: cfg, timeout: 30 * time.Second}, nil
}

func (f *FTP) Driver() Driver { return DriverFTP }

// Put uploads data, retrying dial failures with backoff. Login and transfer
// failures are not retried.
func (f *FTP) Put(ctx context.Context, name string, data []byte) (string, error) {
	remote := path.Join(f.cfg.Dir, path.Base(name))

	var conn *ftp.ServerConn
	operation := func() error {
		c, err := ftp.Dial(f.cfg.Addr, ftp.DialWithTimeout(f.timeout), ftp.DialWithContext(ctx))
		if err != nil {
			return fmt.Errorf("ftp dial: %w", err)
		}
		if err := c.Login(f.cfg.User, f.cfg.Password); err != nil {
			c.Quit()
			return backoff.Permanent(fmt.Errorf("ftp login: %w", err))
		}
		conn = c
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = time.Minute
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return "", err
	}
	defer conn.Quit()

	if err := conn.Stor(remote, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("ftp stor %s: %w", remote, err)
	}
	return "ftp://" + f.cfg.Addr + "/" + strings.TrimPrefix(remote, "/"), nil
}
