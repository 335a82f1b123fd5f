package entities

import (
	"strconv"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

// UserRole represents user roles
type UserRole string

const (
	UserRoleAdmin UserRole = "ADMIN"
	UserRoleUser  UserRole = "USER"
)

// IsValid reports whether r is a known role.
func (r UserRole) IsValid() bool {
	return r == UserRoleAdmin || r == UserRoleUser
}

// EnrollmentStatus represents the review state of an enrollment
type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "PENDING"
	EnrollmentReviewing EnrollmentStatus = "REVIEWING"
	EnrollmentApproved  EnrollmentStatus = "APPROVED"
	EnrollmentRejected  EnrollmentStatus = "REJECTED"
)

func (s EnrollmentStatus) IsValid() bool {
	switch s {
	case EnrollmentPending, EnrollmentReviewing, EnrollmentApproved, EnrollmentRejected:
		return true
	}
	return false
}

// PaymentStatus represents the payment state of an enrollment
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentUnpaid, PaymentPending, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// UserProfile is the persisted participant record.
type UserProfile struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Email            string           `json:"email"`
	Role             UserRole         `json:"role"`
	EnrollmentStatus EnrollmentStatus `json:"enrollmentStatus"`
	PaymentStatus    PaymentStatus    `json:"paymentStatus"`
	MissionID        null.String      `json:"missionId"`
	AvatarURL        string           `json:"avatarUrl"`
}

// Valid reports whether both status fields hold known values.
func (p *UserProfile) Valid() bool {
	return p.EnrollmentStatus.IsValid() && p.PaymentStatus.IsValid()
}

// Clone returns an independent copy of the profile.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// IsAdmin reports whether the profile has the administrator role.
func (p *UserProfile) IsAdmin() bool {
	return p != nil && p.Role == UserRoleAdmin
}

// RoleFromEmail derives the role from the email address. Any address
// containing "admin" is an administrator.
func RoleFromEmail(email string) UserRole {
	if strings.Contains(strings.ToLower(email), "admin") {
		return UserRoleAdmin
	}
	return UserRoleUser
}

// AvatarURL returns the placeholder avatar for a seed value.
func AvatarURL(seed string, size int) string {
	px := strconv.Itoa(size)
	return "https://picsum.photos/seed/" + seed + "/" + px + "/" + px
}

// AuthMode distinguishes login from signup
type AuthMode string

const (
	AuthModeLogin  AuthMode = "LOGIN"
	AuthModeSignup AuthMode = "SIGNUP"
)

// DefaultLoginName is used for profiles synthesized on login.
const DefaultLoginName = "Usuário Recrutado"

// AuthInput represents input for login or signup
type AuthInput struct {
	Mode     AuthMode `json:"mode"`
	Name     string   `json:"name"`
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	AccessToken  string       `json:"accessToken,omitempty"`
	RefreshToken string       `json:"refreshToken,omitempty"`
	SessionID    string       `json:"sessionId"`
	User         *UserProfile `json:"user"`
}

// Account is a signup record. The password hash is stored but never checked.
type Account struct {
	UserProfile
	PasswordHash string    `json:"passwordHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
