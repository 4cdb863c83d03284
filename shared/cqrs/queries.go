package cqrs

// ---------- Account queries ----------

// GetAccountQuery fetches a single account by account number.
type GetAccountQuery struct {
	AccountNumber    string
	RequestingUserID string
}

// ListAccountsQuery fetches all accounts belonging to a user.
type ListAccountsQuery struct {
	UserID string
}

// ListAllAccountsQuery is the admin listing across every holder.
type ListAllAccountsQuery struct{}

// AdminGetAccountQuery reads any account without an ownership check.
type AdminGetAccountQuery struct {
	AccountNumber string
}

type AdminListUserAccountsQuery struct {
	UserID string
}

// ---------- Transaction queries ----------

// ListTransactionsQuery fetches the history of an account, newest first.
type ListTransactionsQuery struct {
	AccountNumber    string
	RequestingUserID string
}
