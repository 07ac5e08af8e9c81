package gocardless

// RequisitionStatus is the aggregator's two-letter requisition state. Only
// StatusLinked permits account sync; StatusExpired means the consent lapsed;
// everything else is "not ready yet".
type RequisitionStatus string

const (
	StatusCreated           RequisitionStatus = "CR"
	StatusGivingConsent     RequisitionStatus = "GC"
	StatusUndergoingAuth    RequisitionStatus = "UA"
	StatusRejected          RequisitionStatus = "RJ"
	StatusSelectingAccounts RequisitionStatus = "SA"
	StatusGrantingAccess    RequisitionStatus = "GA"
	StatusLinked            RequisitionStatus = "LN"
	StatusExpired           RequisitionStatus = "EX"
	StatusSuspended         RequisitionStatus = "SU"
)

type Institution struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	BIC                  string   `json:"bic"`
	TransactionTotalDays string   `json:"transaction_total_days"`
	Countries            []string `json:"countries"`
	Logo                 string   `json:"logo"`
}

type Agreement struct {
	ID                 string `json:"id"`
	Created            string `json:"created"`
	InstitutionID      string `json:"institution_id"`
	MaxHistoricalDays  int    `json:"max_historical_days"`
	AccessValidForDays int    `json:"access_valid_for_days"`
}

type Requisition struct {
	ID       string            `json:"id"`
	Status   RequisitionStatus `json:"status"`
	Link     string            `json:"link"`
	Accounts []string          `json:"accounts"`
}

// ConsentLink is what CreateConsentAndLink hands back to the caller; the
// authorization link is opened out-of-band and the client only ever learns
// the outcome by polling the requisition.
type ConsentLink struct {
	AuthorizationLink  string
	RequisitionID      string
	AgreementID        string
	AccessValidForDays int
}

type AccountDetails struct {
	ResourceID      string `json:"resourceId"`
	IBAN            string `json:"iban"`
	Currency        string `json:"currency"`
	Name            string `json:"name"`
	Product         string `json:"product"`
	CashAccountType string `json:"cashAccountType"`
	OwnerName       string `json:"ownerName"`
}

type Amount struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type Balance struct {
	BalanceAmount Amount `json:"balanceAmount"`
	BalanceType   string `json:"balanceType"`
	ReferenceDate string `json:"referenceDate"`
}

type Balances []Balance

// Available picks the aggregator's available-style balance. Absence is not an
// error: the amount defaults to zero.
func (b Balances) Available() Amount {
	for _, balance := range b {
		switch balance.BalanceType {
		case "interimAvailable", "expected", "available":
			return balance.BalanceAmount
		}
	}
	return Amount{Amount: "0"}
}

// Booked returns the first booked-style balance, falling back to the first
// entry of any type.
func (b Balances) Booked() Amount {
	for _, balance := range b {
		switch balance.BalanceType {
		case "closingBooked", "interimBooked", "openingBooked":
			return balance.BalanceAmount
		}
	}
	if len(b) > 0 {
		return b[0].BalanceAmount
	}
	return Amount{Amount: "0"}
}

type Transaction struct {
	TransactionID                     string `json:"transactionId"`
	BookingDate                       string `json:"bookingDate"`
	ValueDate                         string `json:"valueDate"`
	TransactionAmount                 Amount `json:"transactionAmount"`
	CreditorName                      string `json:"creditorName"`
	DebtorName                        string `json:"debtorName"`
	RemittanceInformationUnstructured string `json:"remittanceInformationUnstructured"`
}

// Counterparty is the debtor for credits and the creditor for debits.
func (t Transaction) Counterparty(isCredit bool) string {
	if isCredit {
		return t.DebtorName
	}
	return t.CreditorName
}
