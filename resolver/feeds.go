// Package resolver turns addresses into tokens and accounts, from the
// bundled feeds first and then from the chain.
package resolver

import (
	"embed"
	"fmt"
	"sort"

	"charm-exchange-tui/exchange"
	"charm-exchange-tui/helpers"
	"charm-exchange-tui/inputfsm"

	"gopkg.in/yaml.v3"
)

//go:embed feeds/*.yaml
var bundled embed.FS

// TokenEntry is one token in a feed file.
type TokenEntry struct {
	Address  string `yaml:"address"`
	Symbol   string `yaml:"symbol"`
	Name     string `yaml:"name"`
	Decimals uint8  `yaml:"decimals"`
	LogoURL  string `yaml:"logoURL"`
}

// AccountEntry is one account in a feed file.
type AccountEntry struct {
	Address     string `yaml:"address"`
	Name        string `yaml:"name"`
	Symbol      string `yaml:"symbol"`
	Website     string `yaml:"website"`
	Description string `yaml:"description"`
	LogoURL     string `yaml:"logoURL"`
}

type tokenFile struct {
	Chains map[int64][]TokenEntry `yaml:"chains"`
}

type accountFile struct {
	Accounts []AccountEntry `yaml:"accounts"`
}

// Feeds are the token and account lists offered in the select panels.
type Feeds struct {
	tokens     map[int64][]TokenEntry
	recipients []AccountEntry
	agents     []AccountEntry
}

// LoadFeeds parses the feeds compiled into the binary.
func LoadFeeds() (*Feeds, error) {
	read := func(name string) ([]byte, error) {
		data, err := bundled.ReadFile("feeds/" + name)
		if err != nil {
			return nil, fmt.Errorf("resolver: read bundled %s: %w", name, err)
		}
		return data, nil
	}
	tokens, err := read("tokens.yaml")
	if err != nil {
		return nil, err
	}
	recipients, err := read("recipients.yaml")
	if err != nil {
		return nil, err
	}
	agents, err := read("agents.yaml")
	if err != nil {
		return nil, err
	}
	return ParseFeeds(tokens, recipients, agents)
}

// ParseFeeds builds Feeds from YAML documents. Entries with malformed
// addresses are rejected.
func ParseFeeds(tokens, recipients, agents []byte) (*Feeds, error) {
	var tf tokenFile
	if err := yaml.Unmarshal(tokens, &tf); err != nil {
		return nil, fmt.Errorf("resolver: parse token feed: %w", err)
	}
	var rf, af accountFile
	if err := yaml.Unmarshal(recipients, &rf); err != nil {
		return nil, fmt.Errorf("resolver: parse recipient feed: %w", err)
	}
	if err := yaml.Unmarshal(agents, &af); err != nil {
		return nil, fmt.Errorf("resolver: parse agent feed: %w", err)
	}

	f := &Feeds{tokens: map[int64][]TokenEntry{}}
	for chainID, entries := range tf.Chains {
		for _, e := range entries {
			if !helpers.IsValidEthAddress(e.Address) {
				return nil, fmt.Errorf("resolver: token %q on chain %d has bad address %q", e.Symbol, chainID, e.Address)
			}
			e.Address = helpers.NormalizeAddress(e.Address)
			f.tokens[chainID] = append(f.tokens[chainID], e)
		}
	}
	var err error
	if f.recipients, err = normalizeAccounts(rf.Accounts, "recipient"); err != nil {
		return nil, err
	}
	if f.agents, err = normalizeAccounts(af.Accounts, "agent"); err != nil {
		return nil, err
	}
	return f, nil
}

func normalizeAccounts(in []AccountEntry, kind string) ([]AccountEntry, error) {
	out := make([]AccountEntry, 0, len(in))
	for _, e := range in {
		if !helpers.IsValidEthAddress(e.Address) {
			return nil, fmt.Errorf("resolver: %s %q has bad address %q", kind, e.Name, e.Address)
		}
		e.Address = helpers.NormalizeAddress(e.Address)
		out = append(out, e)
	}
	return out, nil
}

// Chains lists the chain ids with a bundled token list, ascending.
func (f *Feeds) Chains() []int64 {
	ids := make([]int64, 0, len(f.tokens))
	for id := range f.tokens {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Tokens returns the bundled tokens for chainID.
func (f *Feeds) Tokens(chainID int64) []exchange.TokenContract {
	entries := f.tokens[chainID]
	out := make([]exchange.TokenContract, 0, len(entries))
	for _, e := range entries {
		out = append(out, tokenFromEntry(e, chainID))
	}
	return out
}

// Accounts returns the bundled accounts for a wallet feed.
func (f *Feeds) Accounts(feed inputfsm.FeedType) []exchange.WalletAccount {
	var entries []AccountEntry
	switch feed {
	case inputfsm.RecipientAccountFeed:
		entries = f.recipients
	case inputfsm.AgentAccountFeed:
		entries = f.agents
	}
	out := make([]exchange.WalletAccount, 0, len(entries))
	for _, e := range entries {
		out = append(out, accountFromEntry(e))
	}
	return out
}

// FindToken looks address up in the bundled list for chainID.
func (f *Feeds) FindToken(chainID int64, address string) (*exchange.TokenContract, bool) {
	for _, e := range f.tokens[chainID] {
		if helpers.SameAddress(e.Address, address) {
			t := tokenFromEntry(e, chainID)
			return &t, true
		}
	}
	return nil, false
}

// FindAccount looks address up in the recipient and agent lists. feed
// picks which list is searched first.
func (f *Feeds) FindAccount(feed inputfsm.FeedType, address string) (*exchange.WalletAccount, bool) {
	lists := [][]AccountEntry{f.recipients, f.agents}
	if feed == inputfsm.AgentAccountFeed {
		lists[0], lists[1] = lists[1], lists[0]
	}
	for _, list := range lists {
		for _, e := range list {
			if helpers.SameAddress(e.Address, address) {
				a := accountFromEntry(e)
				return &a, true
			}
		}
	}
	return nil, false
}

func tokenFromEntry(e TokenEntry, chainID int64) exchange.TokenContract {
	return exchange.TokenContract{
		Address:  e.Address,
		ChainID:  chainID,
		Decimals: e.Decimals,
		Symbol:   e.Symbol,
		Name:     e.Name,
		LogoURL:  e.LogoURL,
	}
}

func accountFromEntry(e AccountEntry) exchange.WalletAccount {
	return exchange.WalletAccount{
		Address:     e.Address,
		Name:        e.Name,
		Symbol:      e.Symbol,
		Website:     e.Website,
		Description: e.Description,
		LogoURL:     e.LogoURL,
		Status:      exchange.StatusSuccess,
	}
}
