package models

import "time"

// Role selects which side of the app a session operates: workers file
// reports, supervisors review them.
type Role string

const (
	RoleWorker     Role = "Worker"
	RoleSupervisor Role = "Supervisor"
)

// Upload lifecycle statuses. A report is created Pending and only ever
// moves to Resolved.
const (
	StatusPending  = "Pending"
	StatusResolved = "Resolved"
)

// User represents a registered field worker or supervisor.
type User struct {
	ID         string    `json:"_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Occupation string    `json:"occupation,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Upload is a persisted defect report. Latitude/Longitude are nil when
// forward geocoding of the location text failed; submission still
// succeeds in that case.
type Upload struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	ImageURL  string    `json:"imageUrl"`
	Location  string    `json:"location"`
	Summary   string    `json:"summary"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// SignupRequest represents the request to register a new user
type SignupRequest struct {
	Name       string `json:"name" binding:"required,max=256"`
	Phone      string `json:"phone"`
	Email      string `json:"email" binding:"required,email"`
	Occupation string `json:"occupation"`
	Password   string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents the authentication request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the signed token plus the user the mobile app
// shows on its dashboards.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// SendOtpRequest asks for a password-reset code for the given account.
type SendOtpRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyOtpRequest checks a previously issued code.
type VerifyOtpRequest struct {
	Email string `json:"email" binding:"required,email"`
	Otp   string `json:"otp" binding:"required"`
}

// ResetPasswordRequest consumes a verified code and sets a new password.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// UploadData is the canonical confirmation record returned after a
// successful submission.
type UploadData struct {
	Summary   string    `json:"summary"`
	Address   string    `json:"address"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	ImageURL  string    `json:"imageUrl"`
	ID        string    `json:"_id"`
	CreatedAt time.Time `json:"createdAt"`
}

// UploadResponse is the envelope for a successful submission.
type UploadResponse struct {
	Message string     `json:"message"`
	Data    UploadData `json:"data"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse represents a simple message response
type MessageResponse struct {
	Message string `json:"message"`
}
