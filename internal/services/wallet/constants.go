package wallet

// Operation names used for metrics and logs.
const (
	OpDeposit  = "deposit"
	OpWithdraw = "withdraw"
	OpTransfer = "transfer"
	OpBalance  = "balance"
	OpHistory  = "history"
)

// History pagination bounds.
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)
