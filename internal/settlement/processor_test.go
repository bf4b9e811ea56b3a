package settlement

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tanmay0100/Number-Game-sub001/internal/ledger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type capturingPub struct {
	types []string
	data  []any
	err   error
}

func (c *capturingPub) Publish(_ context.Context, eventType string, data any) error {
	if c.err != nil {
		return c.err
	}
	c.types = append(c.types, eventType)
	c.data = append(c.data, data)
	return nil
}

func newProcessor(t *testing.T, balance string) (*Processor, *ledger.Memory, *capturingPub, string) {
	t.Helper()
	store := ledger.NewMemory()
	require.NoError(t, store.CreateAccount(context.Background(), ledger.Account{
		ID: "user-1", Name: "ramesh", Role: ledger.RoleUser,
		Balance: dec(balance), Active: true,
	}))
	pub := &capturingPub{}
	p := &Processor{Log: zap.NewNop(), Store: store, Pub: pub}
	return p, store, pub, "user-1"
}

func placeReq(account string, selections ...string) PlaceBetRequest {
	return PlaceBetRequest{
		AccountID:         account,
		GameName:          "Kalyan",
		BetType:           SingleAnk,
		Selections:        selections,
		StakePerSelection: dec("10"),
		Rate:              dec("9.5"),
	}
}

func TestPlaceBetMultiSelection(t *testing.T) {
	p, store, pub, id := newProcessor(t, "100")

	res, err := p.PlaceBet(context.Background(), placeReq(id, "1", "4", "7"))
	require.NoError(t, err)

	assert.True(t, res.TotalDebited.Equal(dec("30")), "3 selections at 10 each debit 30 once")
	assert.True(t, res.NewBalance.Equal(dec("70")))
	require.Len(t, res.Wagers, 3)
	for i, sel := range []string{"1", "4", "7"} {
		assert.Equal(t, sel, res.Wagers[i].BetNumber)
		assert.True(t, res.Wagers[i].Amount.Equal(dec("-10")))
		assert.Equal(t, "Kalyan", res.Wagers[i].GameName)
	}

	txns, _ := store.Transactions(context.Background(), id, 0)
	assert.Len(t, txns, 3)

	require.Len(t, pub.types, 1)
	assert.Equal(t, "BET_PLACED", pub.types[0])
}

func TestPlaceBetInsufficientFunds(t *testing.T) {
	p, store, pub, id := newProcessor(t, "25")

	_, err := p.PlaceBet(context.Background(), placeReq(id, "1", "4", "7"))
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	var shortfall *ShortfallError
	require.ErrorAs(t, err, &shortfall)
	assert.True(t, shortfall.Required.Equal(dec("30")))
	assert.True(t, shortfall.Available.Equal(dec("25")))

	a, _ := store.GetAccount(context.Background(), id)
	assert.True(t, a.Balance.Equal(dec("25")), "rejected bet must not mutate the balance")
	txns, _ := store.Transactions(context.Background(), id, 0)
	assert.Empty(t, txns)
	assert.Empty(t, pub.types, "no event for a rejected bet")
}

func TestPlaceBetDuplicateSelectionsBilledIndependently(t *testing.T) {
	p, _, _, id := newProcessor(t, "100")

	res, err := p.PlaceBet(context.Background(), placeReq(id, "7", "7", "7"))
	require.NoError(t, err)
	assert.True(t, res.TotalDebited.Equal(dec("30")), "N selections, N charges, no dedup")
	assert.Len(t, res.Wagers, 3)
}

func TestPlaceBetValidation(t *testing.T) {
	p, store, _, id := newProcessor(t, "100")
	ctx := context.Background()

	cases := []PlaceBetRequest{
		placeReq(id),            // zero selections
		placeReq(id, "12"),      // wrong shape for single ank
		placeReq(id, "x"),       // not a digit
		{AccountID: id, GameName: "Kalyan", BetType: Jodi, Selections: []string{"58"}, StakePerSelection: decimal.Zero},                 // zero amount
		{AccountID: id, GameName: "Kalyan", BetType: "roulette", Selections: []string{"5"}, StakePerSelection: dec("10")},               // unknown type
		{AccountID: id, GameName: "Kalyan", BetType: FullSangam, Selections: []string{"123/456", "111/222"}, StakePerSelection: dec("10")}, // one combination only
	}
	for _, req := range cases {
		_, err := p.PlaceBet(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidSelection, "request %+v", req)
	}

	a, _ := store.GetAccount(ctx, id)
	assert.True(t, a.Balance.Equal(dec("100")), "validation failures happen before any mutation")
}

func TestPlaceBetSangamShapes(t *testing.T) {
	p, _, _, id := newProcessor(t, "1000")
	ctx := context.Background()

	half := placeReq(id, "5/123")
	half.BetType = HalfSangam
	res, err := p.PlaceBet(ctx, half)
	require.NoError(t, err)
	assert.True(t, res.TotalDebited.Equal(dec("10")), "single-combination bets are flat amount")

	full := placeReq(id, "123/456")
	full.BetType = FullSangam
	_, err = p.PlaceBet(ctx, full)
	require.NoError(t, err)

	bad := placeReq(id, "12/456")
	bad.BetType = HalfSangam
	_, err = p.PlaceBet(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestPlaceBetAgentPaysFromOwnWallet(t *testing.T) {
	p, store, pub, _ := newProcessor(t, "100")
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, ledger.Account{
		ID: "agent-9", Name: "shinde", Role: ledger.RoleAgent,
		Balance: dec("500"), Active: true,
	}))

	req := placeReq("user-1", "3", "8")
	req.Agent = &AgentContext{AgentID: "agent-9", AgentName: "shinde", CustomerName: "pooja"}

	res, err := p.PlaceBet(ctx, req)
	require.NoError(t, err)
	assert.True(t, res.NewBalance.Equal(dec("480")))

	user, _ := store.GetAccount(ctx, "user-1")
	assert.True(t, user.Balance.Equal(dec("100")), "customer wallet untouched for agent bets")

	agentTxns, _ := store.Transactions(ctx, "agent-9", 0)
	require.Len(t, agentTxns, 2)
	for _, tx := range agentTxns {
		assert.Equal(t, "agent-9", tx.AgentID)
		assert.Equal(t, "shinde", tx.AgentName)
		assert.Equal(t, "pooja", tx.CustomerName)
	}

	require.Len(t, pub.types, 1)
	assert.Equal(t, "agent_bet_placed", pub.types[0])
}

func TestPlaceBetIdempotentRetry(t *testing.T) {
	p, store, pub, id := newProcessor(t, "100")
	ctx := context.Background()

	req := placeReq(id, "1", "4", "7")
	req.IdempotencyKey = "retry-after-timeout"

	first, err := p.PlaceBet(ctx, req)
	require.NoError(t, err)
	second, err := p.PlaceBet(ctx, req)
	require.NoError(t, err)

	assert.False(t, first.Replayed)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.SettlementID, second.SettlementID)

	a, _ := store.GetAccount(ctx, id)
	assert.True(t, a.Balance.Equal(dec("70")), "retry must not double-charge")
	assert.Len(t, pub.types, 1, "replay emits no second event")
}

func TestPlaceBetSucceedsWhenPublishFails(t *testing.T) {
	p, store, pub, id := newProcessor(t, "100")
	pub.err = errors.New("broker down")

	res, err := p.PlaceBet(context.Background(), placeReq(id, "5"))
	require.NoError(t, err, "broadcast is an optimization, never part of correctness")
	assert.True(t, res.NewBalance.Equal(dec("90")))

	a, _ := store.GetAccount(context.Background(), id)
	assert.True(t, a.Balance.Equal(dec("90")))
}

func TestPlaceBetUnknownAccount(t *testing.T) {
	p, _, _, _ := newProcessor(t, "100")
	_, err := p.PlaceBet(context.Background(), placeReq("ghost", "5"))
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestCreditWin(t *testing.T) {
	p, store, pub, id := newProcessor(t, "10")
	ctx := context.Background()

	res, err := p.CreditWin(ctx, id, dec("95"), "Kalyan", SingleAnk, "7")
	require.NoError(t, err)
	assert.True(t, res.NewBalance.Equal(dec("105")))
	assert.Equal(t, ledger.KindWin, res.Transaction.Kind)

	a, _ := store.GetAccount(ctx, id)
	assert.True(t, a.Balance.Equal(dec("105")))
	require.Len(t, pub.types, 1)
	assert.Equal(t, "WALLET_UPDATED", pub.types[0])
}
