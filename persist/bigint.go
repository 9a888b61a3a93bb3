package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
)

// bigintTag marks a tagged big integer in persisted JSON.
const bigintTag = "bigint"

// BigInt is an immutable arbitrary precision integer that survives a JSON
// round trip exactly. It encodes as {"t":"bigint","v":"<decimal>"}.
// The zero value is 0.
type BigInt struct {
	v *big.Int
}

type taggedBigInt struct {
	T string `json:"t"`
	V string `json:"v"`
}

// NewBigInt returns a BigInt holding n.
func NewBigInt(n int64) BigInt {
	return BigInt{v: big.NewInt(n)}
}

// BigIntFrom copies x into a BigInt. A nil x yields 0.
func BigIntFrom(x *big.Int) BigInt {
	if x == nil {
		return BigInt{}
	}
	return BigInt{v: new(big.Int).Set(x)}
}

// ParseBigInt parses a base 10 integer string.
func ParseBigInt(s string) (BigInt, error) {
	x, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return BigInt{}, fmt.Errorf("persist: invalid bigint %q", s)
	}
	return BigInt{v: x}, nil
}

// Int returns a copy of the value.
func (b BigInt) Int() *big.Int {
	if b.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(b.v)
}

func (b BigInt) Sign() int {
	if b.v == nil {
		return 0
	}
	return b.v.Sign()
}

func (b BigInt) IsZero() bool { return b.Sign() == 0 }

func (b BigInt) Cmp(o BigInt) int {
	return b.Int().Cmp(o.Int())
}

// Equal reports numeric equality. go-cmp picks this method up, so structs
// holding BigInt compare by value.
func (b BigInt) Equal(o BigInt) bool { return b.Cmp(o) == 0 }

func (b BigInt) String() string {
	if b.v == nil {
		return "0"
	}
	return b.v.String()
}

// MarshalJSON implements json.Marshaler.
func (b BigInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(taggedBigInt{T: bigintTag, V: b.String()})
}

// UnmarshalJSON accepts the tagged form, and also a bare number or decimal
// string written by older versions.
func (b *BigInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = BigInt{}
		return nil
	}

	switch data[0] {
	case '{':
		var t taggedBigInt
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("persist: decode bigint: %w", err)
		}
		if t.T != bigintTag {
			return fmt.Errorf("persist: unexpected tag %q", t.T)
		}
		v, err := ParseBigInt(t.V)
		if err != nil {
			return err
		}
		*b = v
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("persist: decode bigint: %w", err)
		}
		v, err := ParseBigInt(s)
		if err != nil {
			return err
		}
		*b = v
	default:
		v, err := ParseBigInt(string(data))
		if err != nil {
			return err
		}
		*b = v
	}
	return nil
}
