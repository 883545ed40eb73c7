// Package secrets resolves the admin API token the console authenticates
// with.
//
// # Sources
//
//   - static: the token is given directly (flag or environment)
//   - file: the token is read from a file, e.g. a mounted secret
//   - 1password: the token is a field of a 1Password item, read through a
//     Connect server
//
// With the "auto" backend the first configured source in the order
// 1password, file, static is used.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// ErrNoToken is returned when no token source is configured.
var ErrNoToken = errors.New("no admin token configured")

// TokenSource yields the admin API token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	// Name identifies the source in logs
	Name() string
}

// Config selects and configures a token source.
type Config struct {
	// Backend is "auto" (default), "static", "file" or "1password"
	Backend string

	Token     string
	TokenFile string

	OnePassword OnePasswordConfig
}

// NewTokenSource builds the token source selected by cfg.
func NewTokenSource(cfg Config, logger *slog.Logger) (TokenSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	backend := cfg.Backend
	if backend == "" {
		backend = "auto"
	}

	switch backend {
	case "static":
		if cfg.Token == "" {
			return nil, fmt.Errorf("static token backend requested but no token set")
		}
		return StaticToken(cfg.Token), nil

	case "file":
		if cfg.TokenFile == "" {
			return nil, fmt.Errorf("file token backend requested but no token file set")
		}
		return FileToken(cfg.TokenFile), nil

	case "1password":
		return NewOnePasswordToken(cfg.OnePassword, logger)

	case "auto":
		if cfg.OnePassword.configured() {
			return NewOnePasswordToken(cfg.OnePassword, logger)
		}
		if cfg.TokenFile != "" {
			return FileToken(cfg.TokenFile), nil
		}
		if cfg.Token != "" {
			return StaticToken(cfg.Token), nil
		}
		return nil, ErrNoToken

	default:
		return nil, fmt.Errorf("unknown token backend: %s", backend)
	}
}

// StaticToken is a token given directly.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

func (t StaticToken) Name() string { return "static" }

// FileToken reads the token from a file on every call, so a rotated secret
// is picked up without a restart.
type FileToken string

func (f FileToken) Token(context.Context) (string, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return "", fmt.Errorf("reading token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", string(f))
	}
	return token, nil
}

func (f FileToken) Name() string { return "file" }
