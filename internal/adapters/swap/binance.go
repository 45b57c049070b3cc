package swap

import (
	"context"
	"fmt"
	"strings"
	"time"

	ccxt "github.com/ccxt/ccxt/go/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/selivandex/agent-registry/internal/adapters/config"
	"github.com/selivandex/agent-registry/pkg/logger"
	"github.com/selivandex/agent-registry/pkg/models"
)

// tokenDecimals is the fixed-point scale agent amounts are stored at
const tokenDecimals = 8

// BinanceVenue executes swaps as spot market orders on Binance via
// CCXT. Token addresses are mapped to venue tickers through the
// configured symbol map; a pair is traded as TICKER_OUT/TICKER_IN
// when the venue lists it, otherwise as the inverse symbol.
type BinanceVenue struct {
	exchange *ccxt.Binance
	symbols  map[common.Address]string
}

// NewBinanceVenue creates the venue adapter and loads markets
func NewBinanceVenue(cfg *config.SwapConfig) (*BinanceVenue, error) {
	options := map[string]interface{}{
		"apiKey": cfg.APIKey,
		"secret": cfg.Secret,
	}
	if cfg.Testnet {
		options["testnet"] = true
	}

	exchange := ccxt.NewBinance(options)
	exchange.SetOption("defaultType", "spot")
	exchange.SetOption("adjustForTimeDifference", true)

	if err := exchange.LoadMarkets(); err != nil {
		return nil, fmt.Errorf("failed to load markets: %w", err)
	}

	symbols := make(map[common.Address]string, len(cfg.Symbols))
	for addr, ticker := range cfg.Symbols {
		symbols[common.HexToAddress(addr)] = strings.ToUpper(ticker)
	}

	logger.Info("swap venue initialized",
		zap.String("venue", "binance"),
		zap.Bool("testnet", cfg.Testnet),
		zap.Int("mapped_tokens", len(symbols)),
	)

	return &BinanceVenue{
		exchange: exchange,
		symbols:  symbols,
	}, nil
}

func (v *BinanceVenue) GetName() string {
	return "binance"
}

// GetQuote prices the swap described by an execution record
func (v *BinanceVenue) GetQuote(ctx context.Context, record *models.ExecutionRecord) (*Quote, error) {
	symbol, side, err := v.resolvePair(record.TokenIn, record.TokenOut)
	if err != nil {
		return nil, err
	}

	ticker, err := v.exchange.FetchTicker(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ticker for %s: %w", symbol, err)
	}
	if ticker.Last == nil {
		return nil, fmt.Errorf("no last price for %s", symbol)
	}
	price := decimal.NewFromFloat(*ticker.Last)

	amount, err := v.resolveAmount(record, price, side)
	if err != nil {
		return nil, err
	}

	return &Quote{
		TokenIn:  record.TokenIn,
		TokenOut: record.TokenOut,
		Symbol:   symbol,
		Side:     side,
		Amount:   amount,
		Price:    price,
		QuotedAt: time.Now().UTC(),
	}, nil
}

// ExecuteSwap places a market order for the quote
func (v *BinanceVenue) ExecuteSwap(ctx context.Context, quote *Quote) (*TradeResult, error) {
	amount, _ := quote.Amount.Float64()

	order, err := v.exchange.CreateOrder(
		quote.Symbol,
		"market",
		quote.Side,
		amount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	result := &TradeResult{
		Symbol:     quote.Symbol,
		Side:       quote.Side,
		Amount:     quote.Amount,
		FillPrice:  quote.Price,
		ExecutedAt: time.Now().UTC(),
	}
	if order.Id != nil {
		result.OrderID = *order.Id
	}
	if order.Average != nil {
		result.FillPrice = decimal.NewFromFloat(*order.Average)
	}

	logger.Info("swap executed",
		zap.String("symbol", result.Symbol),
		zap.String("side", result.Side),
		zap.String("amount", result.Amount.String()),
		zap.String("fill_price", result.FillPrice.String()),
		zap.String("order_id", result.OrderID),
	)

	return result, nil
}

// resolvePair maps the token pair onto a listed venue symbol and the
// order side that sells token_in for token_out
func (v *BinanceVenue) resolvePair(tokenIn, tokenOut common.Address) (string, string, error) {
	in, ok := v.symbols[tokenIn]
	if !ok {
		return "", "", fmt.Errorf("no venue ticker mapped for token %s", tokenIn.Hex())
	}
	out, ok := v.symbols[tokenOut]
	if !ok {
		return "", "", fmt.Errorf("no venue ticker mapped for token %s", tokenOut.Hex())
	}

	// Selling token_in for token_out: sell IN/OUT if listed, else buy OUT/IN
	if _, ok := v.exchange.Markets[in+"/"+out]; ok {
		return in + "/" + out, "sell", nil
	}
	if _, ok := v.exchange.Markets[out+"/"+in]; ok {
		return out + "/" + in, "buy", nil
	}
	return "", "", fmt.Errorf("no market for %s/%s on venue", in, out)
}

// resolveAmount converts the stored fixed-point amount to a base-asset
// order size; the use-available-balance case reads the free balance of
// the asset being spent
func (v *BinanceVenue) resolveAmount(record *models.ExecutionRecord, price decimal.Decimal, side string) (decimal.Decimal, error) {
	var spend decimal.Decimal

	if record.AmountIn.IsUseAvailableBalance() {
		free, err := v.freeBalance(v.symbols[record.TokenIn])
		if err != nil {
			return decimal.Zero, err
		}
		spend = free
	} else {
		scale := decimal.New(1, tokenDecimals)
		spend = decimal.NewFromBigInt(record.AmountIn.Exact(), 0).Div(scale)
	}

	if spend.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("nothing to trade for agent %s", record.AgentID)
	}

	// Order size is denominated in the symbol's base asset: when
	// selling IN/OUT the spend already is the base amount, when buying
	// OUT/IN it must be converted through the price
	if side == "sell" || price.Sign() == 0 {
		return spend, nil
	}
	return spend.Div(price), nil
}

// freeBalance reads the venue's free balance for a ticker
func (v *BinanceVenue) freeBalance(ticker string) (decimal.Decimal, error) {
	balance, err := v.exchange.FetchBalance()
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch balance: %w", err)
	}

	bal, ok := balance[ticker]
	if !ok {
		return decimal.Zero, fmt.Errorf("no balance entry for %s", ticker)
	}
	balMap, ok := bal.(map[string]interface{})
	if !ok {
		return decimal.Zero, fmt.Errorf("unexpected balance shape for %s", ticker)
	}
	if free, ok := balMap["free"].(float64); ok {
		return decimal.NewFromFloat(free), nil
	}
	return decimal.Zero, fmt.Errorf("no free balance for %s", ticker)
}
