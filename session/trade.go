package session

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"charm-exchange-tui/exchange"
	"charm-exchange-tui/helpers"
	"charm-exchange-tui/panels"
	"charm-exchange-tui/quote"
	"charm-exchange-tui/rpc"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNoToken is returned when an amount is entered for an empty side.
var ErrNoToken = errors.New("session: no token selected")

// SetAmountText parses text in whole tokens for side (Sell or Buy) and
// fixes that side of the trade.
func (s *Session) SetAmountText(side, text string) error {
	td := s.store.Snapshot().TradeData
	tok := td.SellTokenContract
	if side == Buy {
		tok = td.BuyTokenContract
	}
	if tok == nil {
		return ErrNoToken
	}
	amount, err := helpers.ParseUnits(text, tok.Decimals)
	if err != nil {
		return err
	}
	if side == Buy {
		s.store.SetBuyAmount(amount, "buy amount entered")
		s.store.SetTradeDirection(exchange.BuyExactIn, "buy amount entered")
		return nil
	}
	s.store.SetSellAmount(amount, "sell amount entered")
	s.store.SetTradeDirection(exchange.SellExactOut, "sell amount entered")
	return nil
}

// SetSlippageText parses a percentage such as "0.5".
func (s *Session) SetSlippageText(text string) error {
	bps, err := helpers.PercentToBps(text)
	if err != nil {
		return err
	}
	s.store.SetSlippageBps(bps, "slippage entered")
	return nil
}

// SwapSides exchanges the sell and buy tokens.
func (s *Session) SwapSides() bool {
	return s.store.SetExchangeContext(func(d *exchange.ExchangeContext) *exchange.ExchangeContext {
		td := &d.TradeData
		td.SellTokenContract, td.BuyTokenContract = td.BuyTokenContract, td.SellTokenContract
		if td.TradeDirection == exchange.SellExactOut {
			td.TradeDirection = exchange.BuyExactIn
		} else {
			td.TradeDirection = exchange.SellExactOut
		}
		if td.RateRatio != 0 {
			td.RateRatio = 1 / td.RateRatio
		}
		return d
	}, "swap sides")
}

func wholeToken(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

// RefreshQuote prices the selected pair from the chain and writes the rate
// and the counter amount. A failure is recorded as the API error message.
func (s *Session) RefreshQuote(ctx context.Context) (*quote.Quote, error) {
	snap := s.store.Snapshot()
	sell, buy := snap.TradeData.SellTokenContract, snap.TradeData.BuyTokenContract
	if sell == nil || buy == nil {
		return nil, ErrNoToken
	}
	chainID := snap.Network.AppChainID
	b := s.backendFor(chainID)
	in, out := common.HexToAddress(sell.Address), common.HexToAddress(buy.Address)

	var (
		q   *quote.Quote
		err error
	)
	if snap.TradeData.TradeDirection == exchange.BuyExactIn {
		amount := buy.Amount.Int()
		if amount.Sign() == 0 {
			amount = wholeToken(buy.Decimals)
		}
		q, err = quote.ExactOut(ctx, b, chainID, in, out, amount)
	} else {
		amount := sell.Amount.Int()
		if amount.Sign() == 0 {
			amount = wholeToken(sell.Decimals)
		}
		q, err = quote.ExactIn(ctx, b, chainID, in, out, amount)
	}
	if err != nil {
		s.store.SetAPIErrorMessage(&exchange.ErrorMessage{
			Status:  exchange.StatusErrorAPIPrice,
			Source:  "quote",
			Message: err.Error(),
		}, "price quote failed")
		return nil, err
	}

	s.store.SetAPIErrorMessage(nil, "price quote")
	s.store.SetRateRatio(q.RateRatio(sell.Decimals, buy.Decimals), "price quote")
	if snap.TradeData.TradeDirection == exchange.BuyExactIn {
		if !buy.Amount.IsZero() {
			s.store.SetSellAmount(q.AmountIn, "price quote")
		}
	} else if !sell.Amount.IsZero() {
		s.store.SetBuyAmount(q.AmountOut, "price quote")
	}
	s.logger.Debug("quote", "pair", sell.Symbol+"/"+buy.Symbol, "impact", fmt.Sprintf("%.2f%%", q.PriceImpact))
	return q, nil
}

// RefreshBalances reads the connected account's balance of both selected
// tokens.
func (s *Session) RefreshBalances(ctx context.Context) error {
	snap := s.store.Snapshot()
	acct := snap.Accounts.ConnectedAccount
	if acct == nil || !helpers.IsValidEthAddress(acct.Address) {
		return nil
	}
	b := s.backendFor(snap.Network.AppChainID)
	if b == nil {
		return rpc.ErrNoClient
	}
	owner := common.HexToAddress(acct.Address)

	var errs []error
	if t := snap.TradeData.SellTokenContract; t != nil {
		bal, err := rpc.ReadTokenBalance(ctx, b, common.HexToAddress(t.Address), owner)
		if err != nil {
			errs = append(errs, err)
		} else {
			s.store.SetSellBalance(bal, "sell balance")
		}
	}
	if t := snap.TradeData.BuyTokenContract; t != nil {
		bal, err := rpc.ReadTokenBalance(ctx, b, common.HexToAddress(t.Address), owner)
		if err != nil {
			errs = append(errs, err)
		} else {
			s.store.SetBuyBalance(bal, "buy balance")
		}
	}
	return errors.Join(errs...)
}

// SponsorRecipient records the selected recipient as sponsored.
func (s *Session) SponsorRecipient() bool {
	r := s.store.Snapshot().Accounts.RecipientAccount
	if r == nil {
		return false
	}
	return s.store.AddSponsorship(*r, "sponsor recipient")
}

// DismissError clears the error message and returns to the trading station.
func (s *Session) DismissError() {
	s.store.SetErrorMessage(nil, "error dismissed")
	s.store.OpenPanel(panels.TradingStationPanel, "error dismissed")
}
