package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Memory implements Store in process. It backs the tests and local runs
// without a database. Concurrent adjustments against one account serialize
// on a per-account mutex, giving the same guarantee the row lock gives the
// postgres store.
type Memory struct {
	mu           sync.Mutex // protects the maps below and the slices
	accounts     map[string]*Account
	transactions map[string][]Transaction // accountID -> ordered audit trail
	settlements  map[string]SettlementResult
	locks        map[string]*sync.Mutex
}

func NewMemory() *Memory {
	return &Memory{
		accounts:     make(map[string]*Account),
		transactions: make(map[string][]Transaction),
		settlements:  make(map[string]SettlementResult),
		locks:        make(map[string]*sync.Mutex),
	}
}

func (m *Memory) accountLock(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.locks[id]; !ok {
		m.locks[id] = &sync.Mutex{}
	}
	return m.locks[id]
}

func (m *Memory) CreateAccount(_ context.Context, a Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *Memory) GetAccount(_ context.Context, id string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return *a, nil
}

func (m *Memory) adjust(accountID string, delta decimal.Decimal, kind Kind, reason string, floor bool) (AdjustResult, error) {
	lock := m.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	a, ok := m.accounts[accountID]
	m.mu.Unlock()
	if !ok {
		return AdjustResult{}, ErrAccountNotFound
	}

	newBal := a.Balance.Add(delta)
	applied := delta
	if newBal.IsNegative() {
		if !floor {
			return AdjustResult{}, ErrInsufficientFunds
		}
		newBal = decimal.Zero
		applied = newBal.Sub(a.Balance)
	}

	rec := Transaction{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Amount:      applied,
		Kind:        kind,
		Status:      StatusCompleted,
		Description: reason,
		CreatedAt:   time.Now().UTC(),
	}
	m.mu.Lock()
	a.Balance = newBal
	m.transactions[accountID] = append(m.transactions[accountID], rec)
	m.mu.Unlock()
	return AdjustResult{NewBalance: newBal, Transaction: rec}, nil
}

func (m *Memory) AdjustBalance(_ context.Context, accountID string, delta decimal.Decimal, kind Kind, reason string) (AdjustResult, error) {
	if delta.IsZero() {
		return AdjustResult{}, ErrZeroDelta
	}
	return m.adjust(accountID, delta, kind, reason, false)
}

func (m *Memory) AdminAdjust(_ context.Context, accountID string, delta decimal.Decimal, reason string) (AdjustResult, error) {
	if delta.IsZero() {
		return AdjustResult{}, ErrZeroDelta
	}
	kind := KindWalletCredit
	if delta.IsNegative() {
		kind = KindWalletDebit
	}
	return m.adjust(accountID, delta, kind, reason, true)
}

func (m *Memory) Settle(_ context.Context, req SettlementRequest) (SettlementResult, error) {
	lock := m.accountLock(req.AccountID)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	a, ok := m.accounts[req.AccountID]
	m.mu.Unlock()
	if !ok {
		return SettlementResult{}, ErrAccountNotFound
	}

	if req.IdempotencyKey != "" {
		m.mu.Lock()
		prev, seen := m.settlements[req.AccountID+"/"+req.IdempotencyKey]
		m.mu.Unlock()
		if seen {
			prev.Replayed = true
			return prev, nil
		}
	}

	if a.Balance.LessThan(req.Total) {
		return SettlementResult{}, ErrInsufficientFunds
	}
	newBal := a.Balance.Sub(req.Total)

	settlementID := req.SettlementID
	if settlementID == "" {
		settlementID = uuid.NewString()
	}
	now := time.Now().UTC()
	wagers := make([]Transaction, 0, len(req.Wagers))
	for _, wl := range req.Wagers {
		rec := Transaction{
			ID:           uuid.NewString(),
			AccountID:    req.AccountID,
			Amount:       wl.Amount.Neg(),
			Kind:         KindBet,
			Status:       StatusCompleted,
			Description:  req.Description,
			GameName:     req.GameName,
			BetType:      req.BetType,
			BetNumber:    wl.BetNumber,
			Rate:         wl.Rate,
			AgentID:      req.AgentID,
			AgentName:    req.AgentName,
			CustomerName: req.CustomerName,
			CreatedAt:    now,
		}
		wagers = append(wagers, rec)
	}

	res := SettlementResult{SettlementID: settlementID, NewBalance: newBal, Wagers: wagers}

	m.mu.Lock()
	a.Balance = newBal
	m.transactions[req.AccountID] = append(m.transactions[req.AccountID], wagers...)
	if req.IdempotencyKey != "" {
		m.settlements[req.AccountID+"/"+req.IdempotencyKey] = res
	}
	m.mu.Unlock()
	return res, nil
}

func (m *Memory) Transactions(_ context.Context, accountID string, limit int) ([]Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[accountID]; !ok {
		return nil, ErrAccountNotFound
	}
	all := m.transactions[accountID]
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	// newest first, like the SQL read
	out := make([]Transaction, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}
