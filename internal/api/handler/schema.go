package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type registerRequest struct {
	Email    string `json:"email"     validate:"required,email"`
	Password string `json:"password"  validate:"required,min=4,max=32"`
	FullName string `json:"full_name" validate:"required"`
}

type registerResponse struct {
	UUID  string `json:"uuid"`
	Email string `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=4,max=32"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type verifyRequest struct {
	UUID string `json:"uuid" validate:"required,uuid"`
	OTP  string `json:"otp"  validate:"required"`
}

type verifyResponse struct {
	Email string `json:"email"`
}

type resendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// --- Account ---

type updateProfileRequest struct {
	FullName       *string `json:"full_name"       validate:"omitempty,min=3,max=124"`
	DisplayPicture *string `json:"display_picture" validate:"omitempty,uuid"`
}

type profileResponse struct {
	UUID            string     `json:"uuid"`
	Email           string     `json:"email"`
	FullName        *string    `json:"full_name"`
	DisplayPicture  *string    `json:"display_picture"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type sessionResponse struct {
	UUID      string    `json:"uuid"`
	UserAgent string    `json:"useragent"`
	IPAddress string    `json:"ip_address"`
	Status    string    `json:"status"`
	IsCurrent bool      `json:"is_current"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// --- Users ---

type listUsersQuery struct {
	Page  int `query:"page"  validate:"omitempty,min=1"`
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

type userListResponse struct {
	Data       []profileResponse `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

type clientInfoResponse struct {
	Fingerprint string `json:"fingerprint"`
	IPAddress   string `json:"ip_address"`
}
