package gateway

// Forgot password delivery methods.
const (
	MethodEmail  = "email"
	MethodMobile = "mobile"
)

// OTPRequest is the input of a one-time-password login.
type OTPRequest struct {
	SystemID    string
	Code        string
	Fingerprint string
	PhoneNumber string
	PersonalID  string
}

// ForgotPasswordRequest asks the backend to send a password reset link.
type ForgotPasswordRequest struct {
	SystemID    string `json:"systemId"`
	Method      string `json:"method"`
	Destination string `json:"destination"`
}

type errorBody struct {
	ErrorCode int    `json:"errorCode"`
	Message   string `json:"message"`
}
