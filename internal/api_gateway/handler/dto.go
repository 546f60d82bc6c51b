package handler

// BalanceResponse represents the authenticated user's coin balance
type BalanceResponse struct {
	UserID   int64  `json:"user_id"`
	Coins    int64  `json:"coins"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// EntryResponse represents one coin transaction log entry in API responses
type EntryResponse struct {
	ID            int64  `json:"id"`
	Type          string `json:"type"`
	Amount        int64  `json:"amount"`
	BalanceBefore int64  `json:"balance_before"`
	BalanceAfter  int64  `json:"balance_after"`
	Description   string `json:"description,omitempty"`
	ReferenceID   string `json:"reference_id,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// UnlockResponse represents the outcome of a chapter unlock attempt
type UnlockResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	AlreadyUnlocked bool   `json:"already_unlocked,omitempty"`
	CoinsSpent      int64  `json:"coins_spent,omitempty"`
	CoinsRemaining  int64  `json:"coins_remaining,omitempty"`
	ChapterID       int64  `json:"chapter_id"`
	ChapterTitle    string `json:"chapter_title,omitempty"`
}

// UnlockStatusResponse reports whether a chapter is readable by the user
type UnlockStatusResponse struct {
	ChapterID int64 `json:"chapter_id"`
	Unlocked  bool  `json:"unlocked"`
}

// GrantResponse represents one unlocked chapter in API responses
type GrantResponse struct {
	ChapterID  int64  `json:"chapter_id"`
	CoinsSpent int64  `json:"coins_spent"`
	UnlockedAt string `json:"unlocked_at"`
}

// CreatePaymentRequest represents a request to start a coin purchase. Either
// package_id or amount must be set; package_id wins when both are present.
type CreatePaymentRequest struct {
	PackageID *int64 `json:"package_id,omitempty"`
	Amount    string `json:"amount,omitempty"`
}

// CreatePaymentResponse carries the pending payment and the gateway redirect URL
type CreatePaymentResponse struct {
	PaymentID      int64  `json:"payment_id"`
	TransactionRef string `json:"transaction_ref"`
	PayURL         string `json:"pay_url"`
	Amount         string `json:"amount"`
	Coins          int64  `json:"coins"`
	Status         string `json:"status"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	PaymentID      int64  `json:"payment_id"`
	TransactionRef string `json:"transaction_ref"`
	Amount         string `json:"amount"`
	Coins          int64  `json:"coins"`
	Method         string `json:"method"`
	Status         string `json:"status"`
	GatewayCode    string `json:"gateway_code,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// CallbackResponse is the structured answer to a gateway callback. The
// gateway retries on non-2xx, so business failures still answer 200.
type CallbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Coins   int64  `json:"coins,omitempty"`
}

// PackageResponse represents an active coin package in API responses
type PackageResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Coins      int64  `json:"coins"`
	BonusCoins int64  `json:"bonus_coins"`
	Price      string `json:"price"`
}

// ActivityEventResponse represents one activity event in the admin feed
type ActivityEventResponse struct {
	EventID      string `json:"event_id"`
	Kind         string `json:"kind"`
	UserID       int64  `json:"user_id"`
	Amount       int64  `json:"amount"`
	BalanceAfter int64  `json:"balance_after"`
	ChapterID    int64  `json:"chapter_id,omitempty"`
	ReferenceID  string `json:"reference_id,omitempty"`
	OccurredAt   string `json:"occurred_at"`
}

// KindStatResponse represents aggregate activity totals for one event kind
type KindStatResponse struct {
	Kind  string `json:"kind"`
	Count int64  `json:"count"`
	Coins int64  `json:"coins"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
