package http

import (
	"bilancio/internal/core"
	"bilancio/internal/projection"
)

// Transport types. Amounts travel as decimal strings ("42.50") on the
// way in and as both cents and a formatted string on the way out.

type transactionRequest struct {
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Recurrence  string `json:"recurrence"`
}

type transactionResponse struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	AmountCents int64  `json:"amountCents"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Recurrence  string `json:"recurrence"`
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Kind:        string(tx.Kind),
		AmountCents: tx.Amount.Cents,
		Amount:      tx.Amount.String(),
		Category:    tx.Category,
		Date:        tx.Date.String(),
		Description: tx.Description,
		Recurrence:  string(tx.Recurrence),
	}
}

type cardRequest struct {
	Name       string `json:"name"`
	Limit      string `json:"limit"`
	DueDay     int    `json:"dueDay"`
	ClosingDay int    `json:"closingDay"`
}

type cardResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	LimitCents int64  `json:"limitCents"`
	Limit      string `json:"limit"`
	DueDay     int    `json:"dueDay"`
	ClosingDay int    `json:"closingDay"`
}

func toCardResponse(card core.CreditCard) cardResponse {
	return cardResponse{
		ID:         card.ID,
		Name:       card.Name,
		LimitCents: card.Limit.Cents,
		Limit:      card.Limit.String(),
		DueDay:     card.DueDay,
		ClosingDay: card.ClosingDay,
	}
}

type purchaseRequest struct {
	CardID       string `json:"cardId"`
	Date         string `json:"date"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Total        string `json:"total"`
	Installments int    `json:"installments"`
}

type purchaseResponse struct {
	ID               string `json:"id"`
	CardID           string `json:"cardId"`
	Date             string `json:"date"`
	Description      string `json:"description"`
	Category         string `json:"category"`
	TotalCents       int64  `json:"totalCents"`
	Total            string `json:"total"`
	Installments     int    `json:"installments"`
	InstallmentCents int64  `json:"installmentCents"`
}

func toPurchaseResponse(p core.CreditCardPurchase) purchaseResponse {
	return purchaseResponse{
		ID:               p.ID,
		CardID:           p.CardID,
		Date:             p.Date.String(),
		Description:      p.Description,
		Category:         p.Category,
		TotalCents:       p.Total.Cents,
		Total:            p.Total.String(),
		Installments:     p.Installments,
		InstallmentCents: projection.InstallmentAmount(p).Cents,
	}
}

type loanRequest struct {
	Bank         string `json:"bank"`
	Description  string `json:"description"`
	Installment  string `json:"installment"`
	Installments int    `json:"installments"`
	StartDate    string `json:"startDate"`
}

type loanResponse struct {
	ID               string `json:"id"`
	Bank             string `json:"bank"`
	Description      string `json:"description"`
	InstallmentCents int64  `json:"installmentCents"`
	Installment      string `json:"installment"`
	Installments     int    `json:"installments"`
	StartDate        string `json:"startDate"`
	EndDate          string `json:"endDate"`
}

func toLoanResponse(loan core.Loan) loanResponse {
	return loanResponse{
		ID:               loan.ID,
		Bank:             loan.Bank,
		Description:      loan.Description,
		InstallmentCents: loan.Installment.Cents,
		Installment:      loan.Installment.String(),
		Installments:     loan.Installments,
		StartDate:        loan.StartDate.String(),
		EndDate:          loan.EndDate().String(),
	}
}
