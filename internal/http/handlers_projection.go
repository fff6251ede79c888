package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
	"bilancio/internal/projection"
)

type snapshot struct {
	transactions []core.Transaction
	cards        []core.CreditCard
	purchases    []core.CreditCardPurchase
	loans        []core.Loan
}

// loadSnapshot reads a consistent per-owner view of all records.
func (s *Server) loadSnapshot(r *http.Request, owner string) (snapshot, error) {
	var (
		snap snapshot
		err  error
	)
	ctx := r.Context()

	if snap.transactions, err = s.store.ListTransactions(ctx, owner); err != nil {
		return snapshot{}, fmt.Errorf("load transactions: %w", err)
	}
	if snap.cards, err = s.store.ListCards(ctx, owner); err != nil {
		return snapshot{}, fmt.Errorf("load cards: %w", err)
	}
	if snap.purchases, err = s.store.ListPurchases(ctx, owner); err != nil {
		return snapshot{}, fmt.Errorf("load purchases: %w", err)
	}
	if snap.loans, err = s.store.ListLoans(ctx, owner); err != nil {
		return snapshot{}, fmt.Errorf("load loans: %w", err)
	}
	return snap, nil
}

func today() core.Date {
	now := time.Now().UTC()
	return core.NewDate(now.Year(), int(now.Month()), now.Day())
}

func summaryKeyPrefix(owner string) string {
	return "summary:" + owner + ":"
}

func summaryKey(owner string, year, month int) string {
	return fmt.Sprintf("%s%04d-%02d", summaryKeyPrefix(owner), year, month)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	params, err := parseMonthParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The summary depends on today through IsPast tagging, so cached
	// entries have a short TTL instead of day-scoped keys.
	key := summaryKey(owner, params.Year, params.Month)
	if s.summaryCache != nil {
		if cached, ok := s.summaryCache.Get(r.Context(), key); ok {
			writeRawJSON(w, http.StatusOK, cached)
			return
		}
	}

	snap, err := s.loadSnapshot(r, owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	summary, err := projection.ProjectMonth(projection.ProjectionInput{
		Transactions: snap.transactions,
		Cards:        snap.cards,
		Purchases:    snap.purchases,
		Loans:        snap.loans,
		Month:        params.Month,
		Year:         params.Year,
		Today:        today(),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if summary.Scheduled == nil {
		summary.Scheduled = []projection.ScheduledItem{}
	}
	if summary.Categories == nil {
		summary.Categories = []projection.CategoryChange{}
	}

	body, err := json.Marshal(summary)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if s.summaryCache != nil {
		s.summaryCache.Set(r.Context(), key, body)
	}

	slog.InfoContext(r.Context(), "month summary computed",
		applog.FieldOwnerID, owner,
		applog.FieldYear, params.Year,
		applog.FieldMonth, params.Month)

	writeRawJSON(w, http.StatusOK, body)
}

type balanceResponse struct {
	BalanceCents int64  `json:"balanceCents"`
	AsOf         string `json:"asOf"`
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := s.loadSnapshot(r, owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	now := today()
	balance, err := projection.CurrentBalance(projection.BalanceInput{
		Transactions: snap.transactions,
		Cards:        snap.cards,
		Purchases:    snap.purchases,
		Loans:        snap.loans,
		Today:        now,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{
		BalanceCents: balance,
		AsOf:         now.String(),
	})
}

type paceResponse struct {
	Alert *projection.PaceAlert `json:"alert"`
}

func (s *Server) handlePace(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := s.loadSnapshot(r, owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	alert, err := projection.ComparePace(projection.PaceInput{
		Transactions: snap.transactions,
		Cards:        snap.cards,
		Purchases:    snap.purchases,
		Today:        today(),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if alert == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, paceResponse{Alert: alert})
}
