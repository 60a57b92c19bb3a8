package models

// Party is one side of a transaction as seen at the time it happened.
type Party struct {
	ID            string
	BalanceBefore float64
	BalanceAfter  float64
}

// Transaction is a single emitted record. It is a value type with unexported
// fields: once built, a record cannot be changed by its consumers.
type Transaction struct {
	step                  int
	action                ActionType
	amount                float64
	origin                Party
	dest                  Party
	fraud                 bool
	flaggedFraud          bool
	unauthorizedOverdraft bool
	successful            bool
}

// TransactionFlags are the labels attached to a record at creation.
type TransactionFlags struct {
	Fraud                 bool
	FlaggedFraud          bool
	UnauthorizedOverdraft bool
	Successful            bool
}

// NewTransaction builds an immutable transaction record.
func NewTransaction(step int, action ActionType, amount float64, origin, dest Party, flags TransactionFlags) Transaction {
	return Transaction{
		step:                  step,
		action:                action,
		amount:                amount,
		origin:                origin,
		dest:                  dest,
		fraud:                 flags.Fraud,
		flaggedFraud:          flags.FlaggedFraud,
		unauthorizedOverdraft: flags.UnauthorizedOverdraft,
		successful:            flags.Successful,
	}
}

func (t Transaction) Step() int { return t.step }
func (t Transaction) Action() ActionType { return t.action }
func (t Transaction) Amount() float64 { return t.amount }
func (t Transaction) Origin() Party { return t.origin }
func (t Transaction) Dest() Party { return t.dest }
func (t Transaction) IsFraud() bool { return t.fraud }
func (t Transaction) IsFlaggedFraud() bool { return t.flaggedFraud }
func (t Transaction) IsUnauthorizedOverdraft() bool { return t.unauthorizedOverdraft }
func (t Transaction) IsSuccessful() bool { return t.successful }

// Flags returns the labels of the record.
func (t Transaction) Flags() TransactionFlags {
	return TransactionFlags{
		Fraud:                 t.fraud,
		FlaggedFraud:          t.flaggedFraud,
		UnauthorizedOverdraft: t.unauthorizedOverdraft,
		Successful:            t.successful,
	}
}

// TransactionRecord is the serializable view of a Transaction used by the
// stores and the JSON outputs.
type TransactionRecord struct {
	Step                    int        `json:"step"`
	Action                  ActionType `json:"action"`
	Amount                  float64    `json:"amount"`
	NameOrig                string     `json:"name_orig"`
	OldBalanceOrig          float64    `json:"old_balance_orig"`
	NewBalanceOrig          float64    `json:"new_balance_orig"`
	NameDest                string     `json:"name_dest"`
	OldBalanceDest          float64    `json:"old_balance_dest"`
	NewBalanceDest          float64    `json:"new_balance_dest"`
	IsFraud                 bool       `json:"is_fraud"`
	IsFlaggedFraud          bool       `json:"is_flagged_fraud"`
	IsUnauthorizedOverdraft bool       `json:"is_unauthorized_overdraft"`
	IsSuccessful            bool       `json:"is_successful"`
}

// Record converts the transaction into its serializable form.
func (t Transaction) Record() TransactionRecord {
	return TransactionRecord{
		Step:                    t.step,
		Action:                  t.action,
		Amount:                  t.amount,
		NameOrig:                t.origin.ID,
		OldBalanceOrig:          t.origin.BalanceBefore,
		NewBalanceOrig:          t.origin.BalanceAfter,
		NameDest:                t.dest.ID,
		OldBalanceDest:          t.dest.BalanceBefore,
		NewBalanceDest:          t.dest.BalanceAfter,
		IsFraud:                 t.fraud,
		IsFlaggedFraud:          t.flaggedFraud,
		IsUnauthorizedOverdraft: t.unauthorizedOverdraft,
		IsSuccessful:            t.successful,
	}
}
