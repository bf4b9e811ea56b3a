package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tanmay0100/Number-Game-sub001/internal/broadcast"
	"github.com/tanmay0100/Number-Game-sub001/internal/chart"
	"github.com/tanmay0100/Number-Game-sub001/internal/ledger"
	"github.com/tanmay0100/Number-Game-sub001/internal/results"
	"github.com/tanmay0100/Number-Game-sub001/internal/settlement"
	"github.com/tanmay0100/Number-Game-sub001/pkg/contracts/events"
)

// BalanceReader serves balance lookups, normally through the read-through
// cache.
type BalanceReader interface {
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
}

// Server exposes the HTTP surface over the core: bets, wallet, admin result
// entry, charts and the observer websocket.
type Server struct {
	log      *zap.Logger
	proc     *settlement.Processor
	store    ledger.Store
	balances BalanceReader
	results  *results.Service
	charts   *chart.Aggregator
	hub      *broadcast.Hub
	pub      broadcast.Publisher     // optional, wallet events
	inval    settlement.Invalidator  // optional, wallet adjust path
}

func NewServer(
	log *zap.Logger,
	proc *settlement.Processor,
	store ledger.Store,
	balances BalanceReader,
	resultSvc *results.Service,
	charts *chart.Aggregator,
	hub *broadcast.Hub,
	pub broadcast.Publisher,
	inval settlement.Invalidator,
) *Server {
	return &Server{
		log: log, proc: proc, store: store, balances: balances,
		results: resultSvc, charts: charts, hub: hub, pub: pub, inval: inval,
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bets", s.placeBet)               // POST
	mux.HandleFunc("/wallet", s.getBalance)           // GET ?accountId=...
	mux.HandleFunc("/wallet/adjust", s.adjustWallet)  // POST
	mux.HandleFunc("/transactions", s.transactions)   // GET ?accountId=...
	mux.HandleFunc("/admin/results", s.recordResult)  // POST
	mux.HandleFunc("/charts/", s.getChart)            // GET /charts/{game}
	if s.hub != nil {
		mux.HandleFunc("/ws", s.hub.HandleWS)
	}
	return mux
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	var req PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", "bad json")
		return
	}

	preq := settlement.PlaceBetRequest{
		AccountID:         req.AccountID,
		GameName:          req.GameName,
		BetType:           settlement.BetType(req.BetType),
		Selections:        req.Selections,
		StakePerSelection: req.StakePerSelection,
		Rate:              req.Rate,
		IdempotencyKey:    req.IdempotencyKey,
	}
	if req.Agent != nil {
		preq.Agent = &settlement.AgentContext{
			AgentID:      req.Agent.AgentID,
			AgentName:    req.Agent.AgentName,
			CustomerName: req.Agent.CustomerName,
		}
	}

	res, err := s.proc.PlaceBet(r.Context(), preq)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	out := PlaceBetResponse{
		SettlementID: res.SettlementID,
		TotalDebited: res.TotalDebited,
		NewBalance:   res.NewBalance,
		Replayed:     res.Replayed,
	}
	for _, wg := range res.Wagers {
		out.Wagers = append(out.Wagers, WagerDTO{
			TransactionID: wg.ID,
			BetNumber:     wg.BetNumber,
			Amount:        wg.Amount,
			Rate:          wg.Rate,
		})
	}
	writeJSON(w, out)
}

func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("accountId")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "accountId required")
		return
	}
	bal, err := s.balances.Balance(r.Context(), accountID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, BalanceResponse{AccountID: accountID, Balance: bal})
}

func (s *Server) adjustWallet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	var req WalletAdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", "bad json")
		return
	}
	if req.AccountID == "" || req.Reason == "" || req.Delta.IsZero() {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "accountId, non-zero delta and reason required")
		return
	}

	account, err := s.store.GetAccount(r.Context(), req.AccountID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	res, err := s.store.AdminAdjust(r.Context(), req.AccountID, req.Delta, req.Reason)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	if s.inval != nil {
		if err := s.inval.Invalidate(r.Context(), req.AccountID); err != nil {
			s.log.Warn("balance cache invalidate failed", zap.Error(err))
		}
	}
	if s.pub != nil {
		eventType := events.TypeWalletUpdated
		if account.Role == ledger.RoleAgent {
			eventType = events.TypeAgentWalletUpdated
		}
		ev := events.WalletUpdated{
			AccountID:  req.AccountID,
			Delta:      res.Transaction.Amount.String(),
			NewBalance: res.NewBalance.String(),
			Kind:       string(res.Transaction.Kind),
			Reason:     req.Reason,
		}
		if err := s.pub.Publish(r.Context(), eventType, ev); err != nil {
			s.log.Warn("wallet event publish failed", zap.Error(err))
		}
	}

	writeJSON(w, WalletAdjustResponse{
		AccountID:  req.AccountID,
		NewBalance: res.NewBalance,
		Applied:    res.Transaction.Amount,
		Kind:       string(res.Transaction.Kind),
	})
}

func (s *Server) transactions(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("accountId")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "accountId required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	txns, err := s.store.Transactions(r.Context(), accountID, limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	out := make([]TransactionDTO, 0, len(txns))
	for _, t := range txns {
		out = append(out, TransactionDTO{
			ID:          t.ID,
			Amount:      t.Amount,
			Kind:        string(t.Kind),
			Status:      string(t.Status),
			Description: t.Description,
			GameName:    t.GameName,
			BetType:     t.BetType,
			BetNumber:   t.BetNumber,
			CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, out)
}

func (s *Server) recordResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	var req ResultEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", "bad json")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "date must be YYYY-MM-DD")
		return
	}

	res, err := s.results.RecordResult(r.Context(), results.Entry{
		GameName:   req.GameName,
		Date:       date,
		OpenPatti:  req.OpenPatti,
		OpenAnk:    req.OpenAnk,
		ClosePatti: req.ClosePatti,
		CloseAnk:   req.CloseAnk,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, ResultResponse{
		GameName:   res.GameName,
		Date:       res.Date.Format("2006-01-02"),
		OpenPatti:  res.OpenPatti,
		OpenAnk:    res.OpenAnk,
		ClosePatti: res.ClosePatti,
		CloseAnk:   res.CloseAnk,
		Display:    res.Display(),
		Complete:   res.Complete(),
	})
}

func (s *Server) getChart(w http.ResponseWriter, r *http.Request) {
	// path: /charts/{game}
	game := r.URL.Path[len("/charts/"):]
	if game == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "game required")
		return
	}

	weeks, err := s.charts.WeeksForGame(r.Context(), game)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	out := ChartResponse{GameName: game, Weeks: make([]ChartWeekDTO, 0, len(weeks))}
	for _, wk := range weeks {
		dto := ChartWeekDTO{
			Year:  wk.Year,
			Week:  wk.Number,
			Start: wk.Start.Format("2006-01-02"),
			End:   wk.End.Format("2006-01-02"),
			Days:  make([]*ChartDayDTO, 6),
		}
		for i, d := range wk.Days {
			if d == nil {
				continue
			}
			dto.Days[i] = &ChartDayDTO{
				Date:       d.Date.Format("2006-01-02"),
				Weekday:    d.Weekday,
				OpenPanna:  d.OpenPanna,
				Jodi:       d.Jodi,
				ClosePanna: d.ClosePanna,
			}
		}
		out.Weeks = append(out.Weeks, dto)
	}
	writeJSON(w, out)
}

// writeDomainError maps domain errors onto the {code,message} contract.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "ACCOUNT_NOT_FOUND", err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, "INSUFFICIENT_FUNDS", err.Error())
	case errors.Is(err, settlement.ErrInvalidSelection), errors.Is(err, ledger.ErrZeroDelta):
		writeError(w, http.StatusBadRequest, "INVALID_SELECTION", err.Error())
	case errors.Is(err, results.ErrInvalidResult):
		writeError(w, http.StatusBadRequest, "INVALID_RESULT", err.Error())
	default:
		s.log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "PERSISTENCE_FAILURE", "store unavailable, retry")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Code: code, Message: message})
}
