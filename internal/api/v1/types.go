package apiv1

// Pong is the ping endpoint response.
type Pong struct {
	Ping string `json:"ping"`
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	City     string `json:"city"`
}

// LoginRequest is the payload for obtaining a bearer token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the issued token and basic account info.
type AuthResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

// UserInfo is the public view of an account.
type UserInfo struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Tier  int    `json:"tier"`
}

// CreateCaseRequest opens a new draft case.
type CreateCaseRequest struct {
	Title        string `json:"title"`
	DocumentType string `json:"document_type"`
}

// UpdateCaseRequest edits the mutable fields of a draft.
type UpdateCaseRequest struct {
	Title        *string `json:"title"`
	DocumentType *string `json:"document_type"`
}

// CreateMessageRequest is the voice agent webhook payload for one transcript
// turn.
type CreateMessageRequest struct {
	CaseUUID string `json:"case_uuid"`
	Sender   string `json:"sender"`
	Text     string `json:"text"`
	SentAt   string `json:"sent_at"`
}

// AddMinutesRequest reports consumed session minutes.
type AddMinutesRequest struct {
	Minutes int `json:"minutes"`
}

// CreatePaymentRequest opens a pending payment for a generated case.
type CreatePaymentRequest struct {
	CaseID uint    `json:"case_id"`
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
}

// CompletePaymentRequest is the provider callback payload.
type CompletePaymentRequest struct {
	Success bool `json:"success"`
}

// RefundRequestBody files a refund request against a paid case.
type RefundRequestBody struct {
	Reason      string `json:"reason"`
	EvidenceURL string `json:"evidence_url"`
}

// RefundDecisionBody is the admin decision on a pending request.
type RefundDecisionBody struct {
	Approve bool   `json:"approve"`
	Comment string `json:"comment"`
}
