package helpers

import (
	"fmt"
	"image/color"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/gamut"
	"github.com/shopspring/decimal"
)

var ethAddressRe = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")

// ShortenAddr shortens an Ethereum address for display
func ShortenAddr(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

// IsValidEthAddress checks if a string is a 0x prefixed 20 byte hex address
func IsValidEthAddress(s string) bool {
	return ethAddressRe.MatchString(s)
}

// NormalizeAddress returns the checksummed form of a valid address, or the
// trimmed input unchanged when it is not one.
func NormalizeAddress(s string) string {
	s = strings.TrimSpace(s)
	if !IsValidEthAddress(s) {
		return s
	}
	return common.HexToAddress(s).Hex()
}

// SameAddress compares two addresses case-insensitively. Empty never matches.
func SameAddress(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}

// FormatToken formats token balance with proper decimals
func FormatToken(balance *big.Int, decimals uint8, symbol string) string {
	if balance == nil {
		return "0 " + symbol
	}
	return FormatUnits(balance, decimals, 4) + " " + symbol
}

// FormatUnits renders base units as a decimal string with places digits.
func FormatUnits(amount *big.Int, decimals uint8, places int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).StringFixed(places)
}

// ParseUnits converts user text such as "1.5" into base units. Fractions
// finer than the token's decimals are rejected rather than rounded.
func ParseUnits(text string, decimals uint8) (*big.Int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return big.NewInt(0), nil
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", text)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative")
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount %q has more than %d decimals", text, decimals)
	}
	return scaled.BigInt(), nil
}

// PercentToBps converts a slippage percentage ("0.5") to basis points.
func PercentToBps(percent string) (int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(strings.TrimSuffix(percent, "%")))
	if err != nil {
		return 0, fmt.Errorf("invalid percentage %q", percent)
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
		return 0, fmt.Errorf("percentage %q out of range", percent)
	}
	return int(d.Shift(2).Round(0).IntPart()), nil
}

// BpsToPercent converts basis points to a percentage.
func BpsToPercent(bps int) float64 {
	f, _ := decimal.NewFromInt(int64(bps)).Shift(-2).Float64()
	return f
}

// LoadedAt formats the loaded timestamp
func LoadedAt(t time.Time, loading bool) string {
	if loading {
		return "loading…"
	}
	if t.IsZero() {
		return "never"
	}
	return t.Format("15:04:05")
}

// FadeString creates a gradient colored string
func FadeString(s string, firstColor string, lastColor string) string {
	if s == "" {
		return s
	}
	blends := gamut.Blends(lipgloss.Color(firstColor), lipgloss.Color(lastColor), len(s))
	return rainbow(lipgloss.NewStyle(), s, blends)
}

func rainbow(baseStyle lipgloss.Style, str string, colors []color.Color) string {
	var result strings.Builder
	i := 0
	for _, c := range str {
		col, _ := colorful.MakeColor(colors[i%len(colors)])
		result.WriteString(baseStyle.Foreground(lipgloss.Color(col.Hex())).Render(string(c)))
		i++
	}
	return result.String()
}

// Max returns the maximum of two integers
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Min returns the minimum of two integers
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
