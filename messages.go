package main

import (
	"charm-exchange-tui/quote"
	"charm-exchange-tui/rpc"
	"charm-exchange-tui/session"
)

// -------------------- TEA MESSAGES --------------------
// All custom message types for The Elm Architecture

// logInitMsg signals that log viewport should be initialized
type logInitMsg struct{}

// sessionEventMsg carries one change notification from the session
type sessionEventMsg struct {
	ev session.Event
}

// bootedMsg is sent once the session has dialed its endpoint and reconciled
type bootedMsg struct {
	err error
}

// rpcSwitchedMsg contains the result of moving to another RPC endpoint
type rpcSwitchedMsg struct {
	url string
	err error
}

// rpcProbedMsg reports which chain a newly added endpoint serves
type rpcProbedMsg struct {
	url     string
	chainID int64
	err     error
}

// chainSelectedMsg contains the result of an app network switch
type chainSelectedMsg struct {
	chainID int64
	err     error
}

// accountUsedMsg contains the result of connecting an account
type accountUsedMsg struct {
	address string
	err     error
}

// quoteMsg contains result of a pool price quote
type quoteMsg struct {
	quote *quote.Quote
	err   error
}

// tradeBalancesMsg is sent after the selected tokens' balances were read
type tradeBalancesMsg struct {
	err error
}

// accountBalancesMsg contains the connected account's holdings
type accountBalancesMsg struct {
	balances rpc.Balances
}

// clipboardCopiedMsg indicates clipboard copy completed
type clipboardCopiedMsg struct{}

// clearClipboardMsg clears clipboard feedback
type clearClipboardMsg struct{}
