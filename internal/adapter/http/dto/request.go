package dto

// CreatePaymentIntentRequest announces a payment before the money
// arrives.
type CreatePaymentIntentRequest struct {
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	Description    string `json:"description"`
	RemitterIBAN   string `json:"remitter_iban"`
	RemitterIDCode string `json:"remitter_id_code"`
	RemitterName   string `json:"remitter_name"`
}

// RegisterIncomingPaymentRequest is one observation of an incoming
// transfer, from a statement line or a processor notification.
type RegisterIncomingPaymentRequest struct {
	Amount         string  `json:"amount"`
	Currency       string  `json:"currency"`
	Description    string  `json:"description"`
	RemitterIBAN   string  `json:"remitter_iban"`
	RemitterIDCode string  `json:"remitter_id_code"`
	RemitterName   string  `json:"remitter_name"`
	ExternalID     *string `json:"external_id,omitempty"`
	ReceivedAt     string  `json:"received_at,omitempty"`
}

// CreateRedemptionRequest asks to redeem fund units.
type CreateRedemptionRequest struct {
	PartyID         string `json:"party_id"`
	Units           string `json:"units"`
	BeneficiaryIBAN string `json:"beneficiary_iban"`
}

// BankOperationRequest records a statement-level bank fee, interest
// credit or manual adjustment. The reference makes re-submission a
// no-op.
type BankOperationRequest struct {
	Amount    string `json:"amount"`
	Reference string `json:"reference"`
}

// PositionLineRequest is one security line of a custodian report.
type PositionLineRequest struct {
	ISIN        string `json:"isin"`
	Name        string `json:"name"`
	Quantity    string `json:"quantity"`
	MarketValue string `json:"market_value"`
}

// PositionReportRequest ingests a custodian position report.
type PositionReportRequest struct {
	Fund             string                `json:"fund"`
	Date             string                `json:"date"`
	PriceDate        string                `json:"price_date"`
	Positions        []PositionLineRequest `json:"positions"`
	UnitsOutstanding string                `json:"units_outstanding"`
}

// StatementBalanceRequest is one bank-reported balance row.
type StatementBalanceRequest struct {
	Type   string `json:"type"`
	Amount string `json:"amount"`
	At     string `json:"at"`
}

// StatementEntryRequest is one normalized statement line.
type StatementEntryRequest struct {
	ExternalID         string `json:"external_id,omitempty"`
	Amount             string `json:"amount"`
	Currency           string `json:"currency"`
	Direction          string `json:"direction"`
	CounterpartyIBAN   string `json:"counterparty_iban,omitempty"`
	CounterpartyIDCode string `json:"counterparty_id_code,omitempty"`
	CounterpartyName   string `json:"counterparty_name,omitempty"`
	Description        string `json:"description,omitempty"`
	BookedAt           string `json:"booked_at"`
}

// ReconcileRequest submits a bank statement for processing: credit
// lines feed payment intake, balances reconcile against the ledger.
type ReconcileRequest struct {
	AccountIBAN string                    `json:"account_iban"`
	Balances    []StatementBalanceRequest `json:"balances"`
	Entries     []StatementEntryRequest   `json:"entries,omitempty"`
}
