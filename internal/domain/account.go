package domain

import "time"

// AccountingType is the double-entry classification of an account.
type AccountingType string

const (
	AccountingTypeAsset     AccountingType = "ASSET"
	AccountingTypeLiability AccountingType = "LIABILITY"
	AccountingTypeIncome    AccountingType = "INCOME"
	AccountingTypeExpense   AccountingType = "EXPENSE"
)

// AssetType is the kind of value an account holds.
type AssetType string

const (
	AssetTypeEUR      AssetType = "EUR"
	AssetTypeFundUnit AssetType = "FUND_UNIT"
)

// AccountPurpose separates member-owned accounts from fund-level ones.
type AccountPurpose string

const (
	PurposeUserAccount   AccountPurpose = "USER_ACCOUNT"
	PurposeSystemAccount AccountPurpose = "SYSTEM_ACCOUNT"
)

// UserAccountKind names a per-party account. The catalogue is closed:
// (party, kind) uniquely identifies a user account.
type UserAccountKind string

const (
	UserAccountCash              UserAccountKind = "CASH"
	UserAccountCashReserved      UserAccountKind = "CASH_RESERVED"
	UserAccountSubscriptions     UserAccountKind = "SUBSCRIPTIONS"
	UserAccountRedemptions       UserAccountKind = "REDEMPTIONS"
	UserAccountFundUnits         UserAccountKind = "FUND_UNITS"
	UserAccountFundUnitsReserved UserAccountKind = "FUND_UNITS_RESERVED"
)

var userAccountTypes = map[UserAccountKind]struct {
	accounting AccountingType
	asset      AssetType
}{
	UserAccountCash:              {AccountingTypeLiability, AssetTypeEUR},
	UserAccountCashReserved:      {AccountingTypeLiability, AssetTypeEUR},
	UserAccountSubscriptions:     {AccountingTypeIncome, AssetTypeEUR},
	UserAccountRedemptions:       {AccountingTypeExpense, AssetTypeEUR},
	UserAccountFundUnits:         {AccountingTypeLiability, AssetTypeFundUnit},
	UserAccountFundUnitsReserved: {AccountingTypeLiability, AssetTypeFundUnit},
}

// Valid reports whether the kind is part of the catalogue.
func (k UserAccountKind) Valid() bool {
	_, ok := userAccountTypes[k]
	return ok
}

// AccountingType returns the double-entry classification of the kind.
func (k UserAccountKind) AccountingType() AccountingType {
	return userAccountTypes[k].accounting
}

// AssetType returns the asset type the kind holds.
func (k UserAccountKind) AssetType() AssetType {
	return userAccountTypes[k].asset
}

// SystemAccountName names a fund-level account. The name alone
// uniquely identifies a system account.
type SystemAccountName string

const (
	SystemIncomingPaymentsClearing SystemAccountName = "INCOMING_PAYMENTS_CLEARING"
	SystemOutgoingPaymentsClearing SystemAccountName = "OUTGOING_PAYMENTS_CLEARING"
	SystemFundUnitsOutstanding     SystemAccountName = "FUND_UNITS_OUTSTANDING"
	SystemSecuritiesValue          SystemAccountName = "SECURITIES_VALUE"
	SystemCashPosition             SystemAccountName = "CASH_POSITION"
	SystemTradeReceivables         SystemAccountName = "TRADE_RECEIVABLES"
	SystemTradePayables            SystemAccountName = "TRADE_PAYABLES"
	SystemManagementFeeAccrual     SystemAccountName = "MANAGEMENT_FEE_ACCRUAL"
	SystemDepotFeeAccrual          SystemAccountName = "DEPOT_FEE_ACCRUAL"
	SystemRedemptionPayables       SystemAccountName = "REDEMPTION_PAYABLES"
	SystemManualAdjustment         SystemAccountName = "MANUAL_ADJUSTMENT"
	SystemBankFees                 SystemAccountName = "BANK_FEES"
	SystemInterestIncome           SystemAccountName = "INTEREST_INCOME"
	SystemPositionRevaluation      SystemAccountName = "POSITION_REVALUATION"
	SystemFeeExpense               SystemAccountName = "FEE_EXPENSE"
)

var systemAccountTypes = map[SystemAccountName]struct {
	accounting AccountingType
	asset      AssetType
}{
	SystemIncomingPaymentsClearing: {AccountingTypeAsset, AssetTypeEUR},
	SystemOutgoingPaymentsClearing: {AccountingTypeAsset, AssetTypeEUR},
	SystemFundUnitsOutstanding:     {AccountingTypeLiability, AssetTypeFundUnit},
	SystemSecuritiesValue:          {AccountingTypeAsset, AssetTypeEUR},
	SystemCashPosition:             {AccountingTypeAsset, AssetTypeEUR},
	SystemTradeReceivables:         {AccountingTypeAsset, AssetTypeEUR},
	SystemTradePayables:            {AccountingTypeLiability, AssetTypeEUR},
	SystemManagementFeeAccrual:     {AccountingTypeLiability, AssetTypeEUR},
	SystemDepotFeeAccrual:          {AccountingTypeLiability, AssetTypeEUR},
	SystemRedemptionPayables:       {AccountingTypeLiability, AssetTypeEUR},
	SystemManualAdjustment:         {AccountingTypeLiability, AssetTypeEUR},
	SystemBankFees:                 {AccountingTypeExpense, AssetTypeEUR},
	SystemInterestIncome:           {AccountingTypeIncome, AssetTypeEUR},
	SystemPositionRevaluation:      {AccountingTypeIncome, AssetTypeEUR},
	SystemFeeExpense:               {AccountingTypeExpense, AssetTypeEUR},
}

// Valid reports whether the name is part of the catalogue.
func (n SystemAccountName) Valid() bool {
	_, ok := systemAccountTypes[n]
	return ok
}

// AccountingType returns the double-entry classification of the account.
func (n SystemAccountName) AccountingType() AccountingType {
	return systemAccountTypes[n].accounting
}

// AssetType returns the asset type the account holds.
func (n SystemAccountName) AssetType() AssetType {
	return systemAccountTypes[n].asset
}

// Account is a named ledger account. Its balance is always derived
// from entries, never stored. Accounts are created lazily, at most
// once, on first use.
type Account struct {
	ID             string
	PartyID        *string
	Purpose        AccountPurpose
	Name           string
	AccountingType AccountingType
	AssetType      AssetType
	CreatedAt      time.Time
}
