package http

import (
	"net/http"

	"bilancio/internal/core"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req transactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := transactionFromRequest(owner, req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := tx.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	created, err := s.store.CreateTransaction(r.Context(), tx)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateOwner(r, owner)
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func transactionFromRequest(owner string, req transactionRequest) (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}

	recurrence := core.Frequency(req.Recurrence)
	if req.Recurrence == "" {
		recurrence = core.FrequencyNone
	}

	return core.Transaction{
		OwnerID:     owner,
		Kind:        core.Kind(req.Kind),
		Amount:      core.Money{Cents: cents},
		Category:    req.Category,
		Date:        date,
		Description: req.Description,
		Recurrence:  recurrence,
	}, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	transactions, err := s.store.ListTransactions(r.Context(), owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]transactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		out = append(out, toTransactionResponse(tx))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := s.store.GetTransaction(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.DeleteTransaction(r.Context(), owner, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateOwner(r, owner)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req cardRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limitCents, err := core.ParseDecimalToCents(req.Limit)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	card := core.CreditCard{
		OwnerID:    owner,
		Name:       req.Name,
		Limit:      core.Money{Cents: limitCents},
		DueDay:     req.DueDay,
		ClosingDay: req.ClosingDay,
	}
	if err := card.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	created, err := s.store.CreateCard(r.Context(), card)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateOwner(r, owner)
	writeJSON(w, http.StatusCreated, toCardResponse(created))
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cards, err := s.store.ListCards(r.Context(), owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]cardResponse, 0, len(cards))
	for _, card := range cards {
		out = append(out, toCardResponse(card))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	card, err := s.store.GetCard(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(card))
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.DeleteCard(r.Context(), owner, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateOwner(r, owner)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req purchaseRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	totalCents, err := core.ParseDecimalToCents(req.Total)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	// The card must exist and belong to the same owner.
	if _, err := s.store.GetCard(r.Context(), owner, req.CardID); err != nil {
		writeDomainError(w, err)
		return
	}

	purchase := core.CreditCardPurchase{
		OwnerID:      owner,
		CardID:       req.CardID,
		Date:         date,
		Description:  req.Description,
		Category:     req.Category,
		Total:        core.Money{Cents: totalCents},
		Installments: req.Installments,
	}
	if err := purchase.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	created, err := s.store.CreatePurchase(r.Context(), purchase)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateOwner(r, owner)
	writeJSON(w, http.StatusCreated, toPurchaseResponse(created))
}

func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	purchases, err := s.store.ListPurchases(r.Context(), owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]purchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, toPurchaseResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeletePurchase(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.DeletePurchase(r.Context(), owner, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateOwner(r, owner)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req loanRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	installmentCents, err := core.ParseDecimalToCents(req.Installment)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	loan := core.Loan{
		OwnerID:      owner,
		Bank:         req.Bank,
		Description:  req.Description,
		Installment:  core.Money{Cents: installmentCents},
		Installments: req.Installments,
		StartDate:    start,
	}
	if err := loan.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	created, err := s.store.CreateLoan(r.Context(), loan)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateOwner(r, owner)
	writeJSON(w, http.StatusCreated, toLoanResponse(created))
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	loans, err := s.store.ListLoans(r.Context(), owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]loanResponse, 0, len(loans))
	for _, loan := range loans {
		out = append(out, toLoanResponse(loan))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.DeleteLoan(r.Context(), owner, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateOwner(r, owner)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	categories, err := s.store.ListCategories(r.Context(), owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	writeJSON(w, http.StatusOK, categories)
}

// invalidateOwner drops the owner's cached summaries after a write.
func (s *Server) invalidateOwner(r *http.Request, owner string) {
	if s.summaryCache == nil {
		return
	}
	s.summaryCache.DeletePrefix(r.Context(), summaryKeyPrefix(owner))
}
