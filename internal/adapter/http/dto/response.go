package dto

import (
	"time"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

// ErrorResponse is the uniform error shape.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AccountResponse is the external view of a ledger account.
type AccountResponse struct {
	ID             string    `json:"id"`
	PartyID        *string   `json:"party_id,omitempty"`
	Purpose        string    `json:"purpose"`
	Name           string    `json:"name"`
	AccountingType string    `json:"accounting_type"`
	AssetType      string    `json:"asset_type"`
	CreatedAt      time.Time `json:"created_at"`
}

// AccountFromDomain converts a domain account.
func AccountFromDomain(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:             a.ID,
		PartyID:        a.PartyID,
		Purpose:        string(a.Purpose),
		Name:           a.Name,
		AccountingType: string(a.AccountingType),
		AssetType:      string(a.AssetType),
		CreatedAt:      a.CreatedAt,
	}
}

// BalanceResponse carries a derived account balance.
type BalanceResponse struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
	AsOf      string `json:"as_of,omitempty"`
}

// EntryResponse is the external view of a ledger entry.
type EntryResponse struct {
	ID            string    `json:"id"`
	AccountID     string    `json:"account_id"`
	TransactionID string    `json:"transaction_id"`
	Amount        string    `json:"amount"`
	CreatedAt     time.Time `json:"created_at"`
}

// EntriesFromDomain converts domain entries.
func EntriesFromDomain(entries []*domain.Entry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryResponse{
			ID:            e.ID,
			AccountID:     e.AccountID,
			TransactionID: e.TransactionID,
			Amount:        e.Amount.String(),
			CreatedAt:     e.CreatedAt,
		})
	}
	return out
}

// TransactionResponse is the external view of a ledger transaction.
type TransactionResponse struct {
	ID                string         `json:"id"`
	Type              string         `json:"type"`
	Description       string         `json:"description"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	ExternalReference *string        `json:"external_reference,omitempty"`
	TransactionDate   time.Time      `json:"transaction_date"`
	CreatedAt         time.Time      `json:"created_at"`
}

// TransactionFromDomain converts a domain transaction.
func TransactionFromDomain(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                t.ID,
		Type:              string(t.Type),
		Description:       t.Description,
		Metadata:          t.Metadata,
		ExternalReference: t.ExternalReference,
		TransactionDate:   t.TransactionDate,
		CreatedAt:         t.CreatedAt,
	}
}

// PaymentResponse is the external view of a payment.
type PaymentResponse struct {
	ID              string     `json:"id"`
	PartyID         *string    `json:"party_id,omitempty"`
	Amount          string     `json:"amount"`
	Currency        string     `json:"currency"`
	Description     string     `json:"description"`
	RemitterIBAN    string     `json:"remitter_iban"`
	RemitterName    string     `json:"remitter_name"`
	ExternalID      *string    `json:"external_id,omitempty"`
	Status          string     `json:"status"`
	StatusChangedAt time.Time  `json:"status_changed_at"`
	CreatedAt       time.Time  `json:"created_at"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	ReturnReason    string     `json:"return_reason,omitempty"`
}

// PaymentFromDomain converts a domain payment.
func PaymentFromDomain(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:              p.ID,
		PartyID:         p.PartyID,
		Amount:          p.Amount.String(),
		Currency:        p.Currency,
		Description:     p.Description,
		RemitterIBAN:    p.RemitterIBAN,
		RemitterName:    p.RemitterName,
		ExternalID:      p.ExternalID,
		Status:          string(p.Status),
		StatusChangedAt: p.StatusChangedAt,
		CreatedAt:       p.CreatedAt,
		CancelledAt:     p.CancelledAt,
		ReturnReason:    p.ReturnReason,
	}
}

// RedemptionResponse is the external view of a redemption request.
type RedemptionResponse struct {
	ID              string     `json:"id"`
	PartyID         string     `json:"party_id"`
	Units           string     `json:"units"`
	BeneficiaryIBAN string     `json:"beneficiary_iban"`
	Status          string     `json:"status"`
	StatusChangedAt time.Time  `json:"status_changed_at"`
	CreatedAt       time.Time  `json:"created_at"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
}

// RedemptionFromDomain converts a domain redemption request.
func RedemptionFromDomain(r *domain.RedemptionRequest) RedemptionResponse {
	return RedemptionResponse{
		ID:              r.ID,
		PartyID:         r.PartyID,
		Units:           r.Units.String(),
		BeneficiaryIBAN: r.BeneficiaryIBAN,
		Status:          string(r.Status),
		StatusChangedAt: r.StatusChangedAt,
		CreatedAt:       r.CreatedAt,
		CancelledAt:     r.CancelledAt,
	}
}

// DiscrepancyResponse is one reconciliation mismatch.
type DiscrepancyResponse struct {
	AccountIBAN   string `json:"account_iban"`
	LedgerAccount string `json:"ledger_account"`
	At            string `json:"at"`
	BankBalance   string `json:"bank_balance"`
	LedgerBalance string `json:"ledger_balance"`
	Difference    string `json:"difference"`
}

// ReconcileResponse reports the outcome of a statement run.
type ReconcileResponse struct {
	Matched            bool                  `json:"matched"`
	Discrepancies      []DiscrepancyResponse `json:"discrepancies,omitempty"`
	RegisteredPayments int                   `json:"registered_payments"`
}

// NavResponse is the external view of a NAV calculation.
type NavResponse struct {
	Fund                   string    `json:"fund"`
	Date                   string    `json:"date"`
	PositionDate           string    `json:"position_date"`
	PriceDate              string    `json:"price_date"`
	PreliminaryNav         string    `json:"preliminary_nav"`
	PendingRedemptionValue string    `json:"pending_redemption_value"`
	FinalNav               string    `json:"final_nav"`
	UnitsOutstanding       string    `json:"units_outstanding"`
	NavPerUnit             string    `json:"nav_per_unit"`
	CalculatedAt           time.Time `json:"calculated_at"`
}

// NavFromDomain converts a domain NAV result.
func NavFromDomain(n *domain.NavResult) NavResponse {
	const day = "2006-01-02"
	return NavResponse{
		Fund:                   n.Fund,
		Date:                   n.Date.Format(day),
		PositionDate:           n.PositionDate.Format(day),
		PriceDate:              n.PriceDate.Format(day),
		PreliminaryNav:         n.PreliminaryNav.String(),
		PendingRedemptionValue: n.PendingRedemptionValue.String(),
		FinalNav:               n.FinalNav.String(),
		UnitsOutstanding:       n.UnitsOutstanding.String(),
		NavPerUnit:             n.NavPerUnit.String(),
		CalculatedAt:           n.CalculatedAt,
	}
}
