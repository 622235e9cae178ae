package handler

// VerifyPaymentRequest asks for a reference to be verified and committed
type VerifyPaymentRequest struct {
	Reference string `json:"reference" binding:"required"`
}

// RegisterPendingRequest announces a payment the client is about to make
type RegisterPendingRequest struct {
	Reference string `json:"reference" binding:"required"`
	Color     string `json:"color" binding:"required"`
	Family    string `json:"family"`
	Username  string `json:"username"`
	Email     string `json:"email" binding:"omitempty,email"`
}

// StatsQuery holds the statistics filters. Times are RFC3339.
type StatsQuery struct {
	Color  string `form:"color"`
	Family string `form:"family"`
	From   string `form:"from"`
	To     string `form:"to"`
}

// PaymentListQuery filters and pages the committed payments listing
type PaymentListQuery struct {
	StatsQuery
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}
