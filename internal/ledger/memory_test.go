package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newFunded(t *testing.T, balance string) (*Memory, string) {
	t.Helper()
	m := NewMemory()
	require.NoError(t, m.CreateAccount(context.Background(), Account{
		ID:      "acc-1",
		Name:    "tester",
		Role:    RoleUser,
		Balance: dec(balance),
		Active:  true,
	}))
	return m, "acc-1"
}

func TestAdjustBalanceConservation(t *testing.T) {
	ctx := context.Background()
	m, id := newFunded(t, "0")

	deltas := []string{"100", "-30", "55.50", "-20.25"}
	for _, d := range deltas {
		_, err := m.AdjustBalance(ctx, id, dec(d), KindDeposit, "seq")
		require.NoError(t, err)
	}

	a, err := m.GetAccount(ctx, id)
	require.NoError(t, err)

	txns, err := m.Transactions(ctx, id, 0)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, tx := range txns {
		require.Equal(t, StatusCompleted, tx.Status)
		sum = sum.Add(tx.Amount)
	}
	assert.True(t, a.Balance.Equal(sum), "balance %s != sum of deltas %s", a.Balance, sum)
	assert.True(t, a.Balance.Equal(dec("105.25")))
}

func TestAdjustBalanceRejectsOverdraft(t *testing.T) {
	ctx := context.Background()
	m, id := newFunded(t, "25")

	_, err := m.AdjustBalance(ctx, id, dec("-30"), KindBet, "bet")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	a, _ := m.GetAccount(ctx, id)
	assert.True(t, a.Balance.Equal(dec("25")), "failed debit must leave balance untouched")

	txns, _ := m.Transactions(ctx, id, 0)
	assert.Empty(t, txns, "failed debit must not leave an audit row")
}

func TestAdminAdjustFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	m, id := newFunded(t, "40")

	res, err := m.AdminAdjust(ctx, id, dec("-100"), "correction")
	require.NoError(t, err)
	assert.True(t, res.NewBalance.IsZero())
	assert.Equal(t, KindWalletDebit, res.Transaction.Kind)
	// audit row carries the applied delta so sum-of-deltas still holds
	assert.True(t, res.Transaction.Amount.Equal(dec("-40")))

	a, _ := m.GetAccount(ctx, id)
	txns, _ := m.Transactions(ctx, id, 0)
	sum := decimal.Zero
	for _, tx := range txns {
		sum = sum.Add(tx.Amount)
	}
	// initial funding came in via CreateAccount, not the trail
	assert.True(t, a.Balance.Equal(dec("40").Add(sum)))
}

func TestAdjustBalanceUnknownAccount(t *testing.T) {
	m := NewMemory()
	_, err := m.AdjustBalance(context.Background(), "ghost", dec("5"), KindDeposit, "x")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = m.GetAccount(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestZeroDeltaRejected(t *testing.T) {
	m, id := newFunded(t, "10")
	_, err := m.AdjustBalance(context.Background(), id, decimal.Zero, KindDeposit, "x")
	assert.ErrorIs(t, err, ErrZeroDelta)
	_, err = m.AdminAdjust(context.Background(), id, decimal.Zero, "x")
	assert.ErrorIs(t, err, ErrZeroDelta)
}

func settleReq(id string, total string, wagers ...string) SettlementRequest {
	req := SettlementRequest{
		AccountID:   id,
		Total:       dec(total),
		Description: "Kalyan / single",
		GameName:    "Kalyan",
		BetType:     "single_ank",
	}
	for _, w := range wagers {
		req.Wagers = append(req.Wagers, WagerLine{BetNumber: w, Amount: dec("10"), Rate: dec("9.5")})
	}
	return req
}

func TestSettleAtomicMultiDebit(t *testing.T) {
	ctx := context.Background()
	m, id := newFunded(t, "100")

	res, err := m.Settle(ctx, settleReq(id, "30", "1", "4", "7"))
	require.NoError(t, err)
	assert.True(t, res.NewBalance.Equal(dec("70")))
	require.Len(t, res.Wagers, 3)
	for _, w := range res.Wagers {
		assert.Equal(t, KindBet, w.Kind)
		assert.True(t, w.Amount.Equal(dec("-10")))
		assert.True(t, w.Rate.Equal(dec("9.5")))
	}

	txns, _ := m.Transactions(ctx, id, 0)
	assert.Len(t, txns, 3, "exactly one audit row per wager")
}

func TestSettleInsufficient(t *testing.T) {
	ctx := context.Background()
	m, id := newFunded(t, "25")

	_, err := m.Settle(ctx, settleReq(id, "30", "1", "4", "7"))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	a, _ := m.GetAccount(ctx, id)
	assert.True(t, a.Balance.Equal(dec("25")))
	txns, _ := m.Transactions(ctx, id, 0)
	assert.Empty(t, txns)
}

func TestSettleIdempotentReplay(t *testing.T) {
	ctx := context.Background()
	m, id := newFunded(t, "100")

	req := settleReq(id, "30", "1", "4", "7")
	req.IdempotencyKey = "client-key-1"

	first, err := m.Settle(ctx, req)
	require.NoError(t, err)
	second, err := m.Settle(ctx, req)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.SettlementID, second.SettlementID)
	assert.True(t, second.NewBalance.Equal(dec("70")), "replay must not debit again")

	a, _ := m.GetAccount(ctx, id)
	assert.True(t, a.Balance.Equal(dec("70")))
}

func TestConcurrentSettleNoDoubleApply(t *testing.T) {
	ctx := context.Background()
	m, id := newFunded(t, "100")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := settleReq(id, "60", "2")
			req.Wagers[0].Amount = dec("60")
			_, errs[i] = m.Settle(ctx, req)
		}(i)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientFunds):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok, "exactly one of two concurrent 60-debits on 100 may succeed")
	assert.Equal(t, 1, insufficient)

	a, _ := m.GetAccount(ctx, id)
	assert.True(t, a.Balance.Equal(dec("40")))
}
