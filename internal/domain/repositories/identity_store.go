package repositories

import (
	"context"
	"strings"

	"chamado.backend/internal/domain/entities"
)

// Storage keys of the persisted JSON lists.
const (
	EnrollmentsKey = "uou_enrollments"
	AccountsKey    = "uou_users"
)

// KeyValueStore is the durable key to JSON-string medium behind the stores.
// Get returns found=false for a missing key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// ProfilePredicate selects profiles in Filter.
type ProfilePredicate func(*entities.UserProfile) bool

// IdentityStore owns the ordered list of participant records.
type IdentityStore interface {
	Load(ctx context.Context) ([]*entities.UserProfile, error)
	Upsert(ctx context.Context, profile *entities.UserProfile) error
	Filter(ctx context.Context, predicate ProfilePredicate) ([]*entities.UserProfile, error)
	GetByID(ctx context.Context, id string) (*entities.UserProfile, error)
	FindByEmail(ctx context.Context, email string) (*entities.UserProfile, error)
	Update(ctx context.Context, id string, mutate func(*entities.UserProfile)) (*entities.UserProfile, error)
}

// AccountRepository is the append-only list of signup records.
type AccountRepository interface {
	Append(ctx context.Context, account *entities.Account) error
	List(ctx context.Context) ([]*entities.Account, error)
	FindByEmail(ctx context.Context, email string) (*entities.Account, error)
}

// ByID matches a single record.
func ByID(id string) ProfilePredicate {
	return func(p *entities.UserProfile) bool { return p.ID == id }
}

// ByPaymentStatus matches records with the given payment status.
func ByPaymentStatus(s entities.PaymentStatus) ProfilePredicate {
	return func(p *entities.UserProfile) bool { return p.PaymentStatus == s }
}

// ByEnrollmentStatus matches records with the given enrollment status.
func ByEnrollmentStatus(s entities.EnrollmentStatus) ProfilePredicate {
	return func(p *entities.UserProfile) bool { return p.EnrollmentStatus == s }
}

// BySearch matches a case-insensitive substring of name or email.
func BySearch(term string) ProfilePredicate {
	term = strings.ToLower(strings.TrimSpace(term))
	return func(p *entities.UserProfile) bool {
		if term == "" {
			return true
		}
		return strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Email), term)
	}
}

// All combines predicates with logical AND. Nil predicates are skipped.
func All(preds ...ProfilePredicate) ProfilePredicate {
	return func(p *entities.UserProfile) bool {
		for _, pred := range preds {
			if pred != nil && !pred(p) {
				return false
			}
		}
		return true
	}
}
