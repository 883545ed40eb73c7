package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/1Password/connect-sdk-go/connect"
	"github.com/1Password/connect-sdk-go/onepassword"
)

// OnePasswordConfig locates the admin token in 1Password.
type OnePasswordConfig struct {
	Host    string // OP_CONNECT_HOST
	Token   string // OP_CONNECT_TOKEN
	VaultID string // OP_VAULT_ID
	Item    string // item title
	Field   string // field label or id, default "credential"
}

func (c OnePasswordConfig) configured() bool {
	return c.Host != "" && c.Token != ""
}

// itemReader is the part of the Connect client used here.
type itemReader interface {
	GetItemsByTitle(title string, vaultQuery string) ([]onepassword.Item, error)
	GetItem(itemQuery string, vaultQuery string) (*onepassword.Item, error)
}

// OnePasswordToken reads the token from a 1Password item and caches it for
// the life of the process.
type OnePasswordToken struct {
	client  itemReader
	vaultID string
	item    string
	field   string
	logger  *slog.Logger

	mu     sync.Mutex
	cached string
}

// NewOnePasswordToken creates a token source backed by 1Password Connect.
func NewOnePasswordToken(cfg OnePasswordConfig, logger *slog.Logger) (*OnePasswordToken, error) {
	if cfg.Host == "" || cfg.Token == "" || cfg.VaultID == "" || cfg.Item == "" {
		return nil, fmt.Errorf("1Password configuration incomplete: host, token, vault_id and item are required")
	}
	client := connect.NewClientWithUserAgent(cfg.Host, cfg.Token, "spot-console")
	return newOnePasswordToken(client, cfg, logger), nil
}

func newOnePasswordToken(client itemReader, cfg OnePasswordConfig, logger *slog.Logger) *OnePasswordToken {
	if logger == nil {
		logger = slog.Default()
	}
	field := cfg.Field
	if field == "" {
		field = "credential"
	}
	return &OnePasswordToken{
		client:  client,
		vaultID: cfg.VaultID,
		item:    cfg.Item,
		field:   field,
		logger:  logger.With("component", "secrets"),
	}
}

func (t *OnePasswordToken) Name() string { return "1password" }

// Token returns the cached token, fetching it on first use.
func (t *OnePasswordToken) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cached != "" {
		return t.cached, nil
	}

	token, err := t.fetch()
	if err != nil {
		return "", err
	}
	t.cached = token
	t.logger.Info("loaded admin token from 1Password", "item", t.item, "field", t.field)
	return token, nil
}

func (t *OnePasswordToken) fetch() (string, error) {
	items, err := t.client.GetItemsByTitle(t.item, t.vaultID)
	if err != nil {
		return "", fmt.Errorf("listing items: %w", err)
	}
	if len(items) == 0 {
		return "", fmt.Errorf("1Password item %q not found", t.item)
	}

	// Get the full item (including fields)
	item, err := t.client.GetItem(items[0].ID, t.vaultID)
	if err != nil {
		return "", fmt.Errorf("getting item: %w", err)
	}

	for _, f := range item.Fields {
		if f == nil {
			continue
		}
		if f.ID == t.field || strings.EqualFold(f.Label, t.field) {
			if v := strings.TrimSpace(f.Value); v != "" {
				return v, nil
			}
		}
	}
	return "", fmt.Errorf("1Password item %q has no %q field", t.item, t.field)
}
