package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tanmay0100/Number-Game-sub001/internal/ledger"
	"github.com/tanmay0100/Number-Game-sub001/pkg/contracts/events"
)

var ErrInvalidSelection = errors.New("invalid selection")

// ShortfallError reports how much was missing when a bet was rejected.
// It unwraps to ledger.ErrInsufficientFunds.
type ShortfallError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("insufficient funds: need %s, have %s", e.Required, e.Available)
}

func (e *ShortfallError) Unwrap() error { return ledger.ErrInsufficientFunds }

// Publisher pushes an observer-facing event. Delivery is best-effort: a
// publish failure never fails the business operation that triggered it.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}

// Invalidator drops a cached balance after a mutation.
type Invalidator interface {
	Invalidate(ctx context.Context, accountID string) error
}

// AgentContext marks a bet placed by an agent on behalf of a customer. The
// agent's own wallet pays; the tags let reporting reconstruct who bet what
// for whom.
type AgentContext struct {
	AgentID      string
	AgentName    string
	CustomerName string
}

type PlaceBetRequest struct {
	AccountID         string
	GameName          string
	BetType           BetType
	Selections        []string
	StakePerSelection decimal.Decimal
	Rate              decimal.Decimal
	IdempotencyKey    string
	Agent             *AgentContext
}

type PlaceBetResult struct {
	SettlementID string
	TotalDebited decimal.Decimal
	NewBalance   decimal.Decimal
	Wagers       []ledger.Transaction
	Replayed     bool
}

// Processor turns one user action into N individually priced wager rows and
// a single atomic ledger debit.
type Processor struct {
	Log   *zap.Logger
	Store ledger.Store
	Pub   Publisher   // optional
	Cache Invalidator // optional

	OnSettled        func()       // metrics (counter++)
	OnError          func(string) // metrics per reason
	OnReconciliation func()       // metrics: debited but rows incomplete
}

func (p *Processor) fail(reason string, err error) error {
	if p.OnError != nil {
		p.OnError(reason)
	}
	return err
}

// PlaceBet validates the request, expands it into wager lines and settles
// them against the paying account in one atomic store call.
func (p *Processor) PlaceBet(ctx context.Context, req PlaceBetRequest) (PlaceBetResult, error) {
	if err := validate(req); err != nil {
		return PlaceBetResult{}, p.fail("invalid", err)
	}

	payingAccount := req.AccountID
	if req.Agent != nil {
		// agents pre-fund a wallet and spend down from it for customers
		payingAccount = req.Agent.AgentID
	}

	total := req.StakePerSelection.Mul(decimal.NewFromInt(int64(len(req.Selections))))
	if req.BetType.SingleCombination() {
		total = req.StakePerSelection
	}

	sreq := ledger.SettlementRequest{
		IdempotencyKey: req.IdempotencyKey,
		AccountID:      payingAccount,
		Total:          total,
		Description:    fmt.Sprintf("bet: %s / %s", req.GameName, req.BetType),
		GameName:       req.GameName,
		BetType:        string(req.BetType),
	}
	for _, sel := range req.Selections {
		sreq.Wagers = append(sreq.Wagers, ledger.WagerLine{
			BetNumber: sel,
			Amount:    req.StakePerSelection,
			Rate:      req.Rate,
		})
	}
	if req.Agent != nil {
		sreq.AgentID = req.Agent.AgentID
		sreq.AgentName = req.Agent.AgentName
		sreq.CustomerName = req.Agent.CustomerName
	}

	res, err := p.Store.Settle(ctx, sreq)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			// re-read so the caller sees the shortfall
			avail := decimal.Zero
			if a, gerr := p.Store.GetAccount(ctx, payingAccount); gerr == nil {
				avail = a.Balance
			}
			return PlaceBetResult{}, p.fail("insufficient_funds",
				&ShortfallError{Required: total, Available: avail})
		}
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return PlaceBetResult{}, p.fail("account_not_found", err)
		}
		if ctx.Err() != nil {
			// the call was cut off in flight, so we cannot tell whether the
			// debit landed. Flag it for reconciliation instead of guessing.
			p.Log.Error("settlement outcome unknown, reconciliation required",
				zap.String("account_id", payingAccount),
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.Error(err))
			if p.OnReconciliation != nil {
				p.OnReconciliation()
			}
		}
		return PlaceBetResult{}, p.fail("persistence", fmt.Errorf("settle: %w", err))
	}

	if p.OnSettled != nil && !res.Replayed {
		p.OnSettled()
	}

	p.afterMutation(ctx, payingAccount)
	p.publishBetPlaced(ctx, req, total, res)

	return PlaceBetResult{
		SettlementID: res.SettlementID,
		TotalDebited: total,
		NewBalance:   res.NewBalance,
		Wagers:       res.Wagers,
		Replayed:     res.Replayed,
	}, nil
}

// CreditWin pays out a winning wager: a positive ledger adjustment plus a
// wallet event for observers.
func (p *Processor) CreditWin(ctx context.Context, accountID string, amount decimal.Decimal, gameName string, betType BetType, betNumber string) (ledger.AdjustResult, error) {
	if !amount.IsPositive() {
		return ledger.AdjustResult{}, fmt.Errorf("%w: win amount must be positive", ErrInvalidSelection)
	}

	reason := fmt.Sprintf("win: %s / %s / %s", gameName, betType, betNumber)
	res, err := p.Store.AdjustBalance(ctx, accountID, amount, ledger.KindWin, reason)
	if err != nil {
		return ledger.AdjustResult{}, p.fail("win_credit", err)
	}

	p.afterMutation(ctx, accountID)
	p.publish(ctx, events.TypeWalletUpdated, events.WalletUpdated{
		AccountID:  accountID,
		Delta:      amount.String(),
		NewBalance: res.NewBalance.String(),
		Kind:       string(ledger.KindWin),
		Reason:     reason,
	})
	return res, nil
}

func (p *Processor) afterMutation(ctx context.Context, accountID string) {
	if p.Cache == nil {
		return
	}
	if err := p.Cache.Invalidate(ctx, accountID); err != nil {
		// stale entries expire on TTL anyway; clients also poll
		p.Log.Warn("balance cache invalidate failed",
			zap.String("account_id", accountID), zap.Error(err))
	}
}

func (p *Processor) publishBetPlaced(ctx context.Context, req PlaceBetRequest, total decimal.Decimal, res ledger.SettlementResult) {
	if res.Replayed {
		return
	}
	ev := events.BetPlaced{
		SettlementID: res.SettlementID,
		AccountID:    req.AccountID,
		GameName:     req.GameName,
		BetType:      string(req.BetType),
		Selections:   req.Selections,
		TotalDebited: total.String(),
		NewBalance:   res.NewBalance.String(),
	}
	eventType := events.TypeBetPlaced
	if req.Agent != nil {
		eventType = events.TypeAgentBetPlaced
		ev.AgentID = req.Agent.AgentID
		ev.AgentName = req.Agent.AgentName
		ev.CustomerName = req.Agent.CustomerName
	}
	p.publish(ctx, eventType, ev)
}

func (p *Processor) publish(ctx context.Context, eventType string, data any) {
	if p.Pub == nil {
		return
	}
	if err := p.Pub.Publish(ctx, eventType, data); err != nil {
		p.Log.Warn("event publish failed", zap.String("type", eventType), zap.Error(err))
	}
}

func validate(req PlaceBetRequest) error {
	if req.AccountID == "" {
		return fmt.Errorf("%w: missing account", ErrInvalidSelection)
	}
	if req.GameName == "" {
		return fmt.Errorf("%w: missing game", ErrInvalidSelection)
	}
	if !req.BetType.Known() {
		return fmt.Errorf("%w: unknown bet type %q", ErrInvalidSelection, req.BetType)
	}
	if len(req.Selections) == 0 {
		return fmt.Errorf("%w: no selections", ErrInvalidSelection)
	}
	if req.BetType.SingleCombination() && len(req.Selections) != 1 {
		return fmt.Errorf("%w: %s takes exactly one combination", ErrInvalidSelection, req.BetType)
	}
	if !req.StakePerSelection.IsPositive() {
		return fmt.Errorf("%w: stake must be positive", ErrInvalidSelection)
	}
	for _, s := range req.Selections {
		if !req.BetType.ValidSelection(s) {
			return fmt.Errorf("%w: %q is not a valid %s", ErrInvalidSelection, s, req.BetType)
		}
	}
	if req.Agent != nil && req.Agent.AgentID == "" {
		return fmt.Errorf("%w: agent bet without agent id", ErrInvalidSelection)
	}
	return nil
}
