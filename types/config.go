package types

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config carries everything the payment core needs that is environment
// specific. All fields with defaults may be left zero.
type Config struct {
	// BackendURL is the base URL of the merchant backend API, e.g.
	// "http://localhost:3001/api". Settlement-protocol traffic is proxied
	// under it ("/1inch/same-chain-x", "/1inch/cross-chain-x").
	BackendURL string `json:"backendUrl" validate:"required,url"`

	// Networks maps chain id to its full descriptor.
	Networks map[uint64]NetworkConfig `json:"networks" validate:"required,min=1,dive"`

	// Receiver is the settlement beneficiary address placed on every order.
	// Defaults to DefaultReceiver when left empty.
	Receiver string `json:"receiver" validate:"required,eth_addr"`

	DefaultTimeout time.Duration `json:"defaultTimeout,omitempty"`

	// PollInterval and MaxPollAttempts bound the same-chain fill monitor:
	// defaults of 3s and 40 give roughly two minutes of wall clock.
	PollInterval    time.Duration `json:"pollInterval,omitempty"`
	MaxPollAttempts int           `json:"maxPollAttempts,omitempty"`

	// PriceRefreshInterval drives the confirmation-step price refresher.
	PriceRefreshInterval time.Duration `json:"priceRefreshInterval,omitempty"`

	// StatusRefreshInterval drives background reconciliation of intents
	// whose last known status is processing.
	StatusRefreshInterval time.Duration `json:"statusRefreshInterval,omitempty"`

	// ApprovalSettleDelay is the pause between an approval being mined and
	// the confirming allowance re-read, protecting against nodes that serve
	// stale state right after confirmation.
	ApprovalSettleDelay time.Duration `json:"approvalSettleDelay,omitempty"`
}

const (
	DefaultTimeout               = 30 * time.Second
	DefaultPollInterval          = 3 * time.Second
	DefaultMaxPollAttempts       = 40
	DefaultPriceRefreshInterval  = 60 * time.Second
	DefaultStatusRefreshInterval = 10 * time.Second
	DefaultApprovalSettleDelay   = 2 * time.Second

	// DefaultReceiver is the merchant treasury used when no receiver is
	// configured.
	DefaultReceiver = "0xaDFC29f0a6114020b843a940ff39a83df87D79BE"
)

var validate = validator.New()

// Validate checks the config and fills in defaults for zero fields.
func (c *Config) Validate() error {
	if c.Receiver == "" {
		c.Receiver = DefaultReceiver
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for id, n := range c.Networks {
		if n.ChainID != id {
			return fmt.Errorf("invalid config: network key %d has chainId %d", id, n.ChainID)
		}
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = DefaultTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxPollAttempts <= 0 {
		c.MaxPollAttempts = DefaultMaxPollAttempts
	}
	if c.PriceRefreshInterval <= 0 {
		c.PriceRefreshInterval = DefaultPriceRefreshInterval
	}
	if c.StatusRefreshInterval <= 0 {
		c.StatusRefreshInterval = DefaultStatusRefreshInterval
	}
	if c.ApprovalSettleDelay <= 0 {
		c.ApprovalSettleDelay = DefaultApprovalSettleDelay
	}
	return nil
}
