package ledger

import "errors"

// Error kinds surfaced by the ledger. Callers match them with errors.Is; the
// stores wrap driver failures around ErrTransientStorage and ErrDuplicateIdentity.
var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidKind        = errors.New("invalid account kind")
	ErrDuplicateIdentity  = errors.New("duplicate identity")
	ErrTransientStorage   = errors.New("storage temporarily unavailable")
	ErrSameAccount        = errors.New("source and destination account are the same")
	ErrAccountHasActivity = errors.New("account still has transactions")
)
