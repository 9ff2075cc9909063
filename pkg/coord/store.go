// Package coord synchronizes actors with the training coordinator through
// a shared buffer directory: the coordinator publishes the run
// configuration, the current policy parameters, and the exploration rate;
// actors poll for them and write trajectories back.
package coord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// File names inside the shared buffer directory.
const (
	ConfigFile = "config.yaml"
	PolicyFile = "policy.bin"
	EpsFile    = "eps.txt"
)

const (
	// DefaultRetryDelay is the poll interval against the shared directory.
	DefaultRetryDelay = 2 * time.Second
	// DefaultMaxAttempts bounds policy and epsilon reads. The
	// configuration wait is unbounded because a fresh run legitimately
	// has no config yet; a missing policy after the config exists means
	// the coordinator died mid-initialization.
	DefaultMaxAttempts = 10
)

// ErrNotInitialized reports that the coordinator has not published a
// policy snapshot within the retry budget.
var ErrNotInitialized = errors.New("coordinator has not published a policy")

// Snapshot is one published policy state: the opaque parameter blob and
// the exploration rate that accompanies it.
type Snapshot struct {
	Params  []byte
	Epsilon float64
}

// Client reads coordinator publications from the shared buffer directory.
type Client struct {
	dir         string
	retryDelay  time.Duration
	maxAttempts int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

func WithMaxAttempts(n int) ClientOption {
	return func(c *Client) {
		c.maxAttempts = n
	}
}

func NewClient(dir string, opts ...ClientOption) *Client {
	c := &Client{
		dir:         dir,
		retryDelay:  DefaultRetryDelay,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dir returns the shared buffer directory.
func (c *Client) Dir() string {
	return c.dir
}

// AwaitConfig blocks until the coordinator publishes the run
// configuration, polling without bound, and returns its contents.
func (c *Client) AwaitConfig(ctx context.Context) ([]byte, error) {
	var raw []byte
	err := retry(ctx, 0, c.retryDelay, func() error {
		b, err := os.ReadFile(filepath.Join(c.dir, ConfigFile))
		if err != nil {
			log.Printf("Warning: waiting for run config: %v", err)
			return err
		}
		raw = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("await config: %v", err)
	}
	return raw, nil
}

// LoadSnapshot reads the current policy blob and exploration rate,
// retrying within the attempt budget. Exhausting the budget wraps
// ErrNotInitialized: the coordinator published a config but never a
// policy, which is fatal for the actor.
func (c *Client) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := retry(ctx, c.maxAttempts, c.retryDelay, func() error {
		params, err := os.ReadFile(filepath.Join(c.dir, PolicyFile))
		if err != nil {
			return err
		}
		rawEps, err := os.ReadFile(filepath.Join(c.dir, EpsFile))
		if err != nil {
			return err
		}
		eps, err := strconv.ParseFloat(strings.TrimSpace(string(rawEps)), 64)
		if err != nil {
			return fmt.Errorf("parse exploration rate: %v", err)
		}
		snap = Snapshot{Params: params, Epsilon: eps}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Snapshot{}, err
		}
		return Snapshot{}, fmt.Errorf("%w: %v", ErrNotInitialized, err)
	}
	return snap, nil
}
