package persist

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// DefaultKey is the storage key the exchange context lives under.
const DefaultKey = "exchangeContext"

// Codec reads and writes one value under a fixed storage key. Failures are
// logged and reported, never panicked on: callers fall back to in-memory state.
type Codec struct {
	storage Storage
	key     string
	logger  *log.Logger
}

// NewCodec returns a Codec for key. A nil logger discards output.
func NewCodec(storage Storage, key string, logger *log.Logger) *Codec {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if key == "" {
		key = DefaultKey
	}
	return &Codec{storage: storage, key: key, logger: logger}
}

// Key returns the storage key.
func (c *Codec) Key() string { return c.key }

// Marshal encodes v with the BigInt-safe encoding.
func Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("persist: encode: %w", err)
	}
	return data, nil
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("persist: decode: %w", err)
	}
	return nil
}

// Save encodes v and writes it. The returned error is informational.
func (c *Codec) Save(v any) error {
	if c == nil || c.storage == nil {
		return nil
	}
	data, err := Marshal(v)
	if err != nil {
		c.logger.Warn("skipping persist", "key", c.key, "err", err)
		return err
	}
	if err := c.storage.Set(c.key, data); err != nil {
		c.logger.Warn("skipping persist", "key", c.key, "err", err)
		return fmt.Errorf("persist: write %s: %w", c.key, err)
	}
	return nil
}

// Load decodes the stored value into dst. It returns false when nothing
// usable is stored; dst may then be partially written and should be discarded.
func (c *Codec) Load(dst any) bool {
	if c == nil || c.storage == nil {
		return false
	}
	data, ok, err := c.storage.Get(c.key)
	if err != nil {
		c.logger.Warn("stored state unreadable", "key", c.key, "err", err)
		return false
	}
	if !ok {
		return false
	}
	if err := Unmarshal(data, dst); err != nil {
		c.logger.Warn("stored state corrupt", "key", c.key, "err", err)
		return false
	}
	return true
}

// Raw returns the stored bytes as-is.
func (c *Codec) Raw() ([]byte, bool, error) {
	if c == nil || c.storage == nil {
		return nil, false, nil
	}
	return c.storage.Get(c.key)
}

// Clear removes the stored value.
func (c *Codec) Clear() error {
	if c == nil || c.storage == nil {
		return nil
	}
	return c.storage.Delete(c.key)
}
