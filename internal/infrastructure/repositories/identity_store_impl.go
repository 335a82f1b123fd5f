package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"chamado.backend/internal/domain/entities"
	domainerrors "chamado.backend/internal/domain/errors"
	"chamado.backend/internal/domain/repositories"
	"chamado.backend/pkg/logger"
)

// SeedProfiles returns the records written when no enrollment list exists.
func SeedProfiles() []*entities.UserProfile {
	seed := func(id, name, email string, es entities.EnrollmentStatus, ps entities.PaymentStatus) *entities.UserProfile {
		return &entities.UserProfile{
			ID:               id,
			Name:             name,
			Email:            email,
			Role:             entities.UserRoleUser,
			EnrollmentStatus: es,
			PaymentStatus:    ps,
			AvatarURL:        entities.AvatarURL(id, 40),
		}
	}
	return []*entities.UserProfile{
		seed("101", "Lucas Silva", "lucas@missao.com", entities.EnrollmentApproved, entities.PaymentPaid),
		seed("102", "Ana Costa", "ana@missao.com", entities.EnrollmentReviewing, entities.PaymentPending),
		seed("103", "Pedro Santos", "pedro@missao.com", entities.EnrollmentPending, entities.PaymentUnpaid),
	}
}

// IdentityStore is the ordered participant list persisted as one JSON
// document under EnrollmentsKey. Every mutation rewrites the whole list.
type IdentityStore struct {
	kv repositories.KeyValueStore
	mu sync.Mutex
}

// NewIdentityStore creates a new identity store
func NewIdentityStore(kv repositories.KeyValueStore) *IdentityStore {
	return &IdentityStore{kv: kv}
}

// Load returns the current list, seeding it on first use
func (s *IdentityStore) Load(ctx context.Context) ([]*entities.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Upsert replaces the record with the same id, or prepends a new one
func (s *IdentityStore) Upsert(ctx context.Context, profile *entities.UserProfile) error {
	if profile == nil || profile.ID == "" {
		return domainerrors.ErrInvalidInput
	}
	if !profile.Valid() {
		return domainerrors.ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.atomically(ctx, func(ctx context.Context) error {
		list, err := s.load(ctx)
		if err != nil {
			return err
		}

		rec := profile.Clone()
		replaced := false
		for i, p := range list {
			if p.ID == rec.ID {
				list[i] = rec
				replaced = true
				break
			}
		}
		if !replaced {
			list = append([]*entities.UserProfile{rec}, list...)
		}
		return s.persist(ctx, list)
	})
}

// Filter returns the records matching predicate, in list order
func (s *IdentityStore) Filter(ctx context.Context, predicate repositories.ProfilePredicate) ([]*entities.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entities.UserProfile, 0, len(list))
	for _, p := range list {
		if predicate == nil || predicate(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetByID returns a record by id
func (s *IdentityStore) GetByID(ctx context.Context, id string) (*entities.UserProfile, error) {
	found, err := s.Filter(ctx, repositories.ByID(id))
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, domainerrors.ErrNotFound
	}
	return found[0], nil
}

// FindByEmail returns the first record whose email matches case-insensitively
func (s *IdentityStore) FindByEmail(ctx context.Context, email string) (*entities.UserProfile, error) {
	email = strings.TrimSpace(email)
	found, err := s.Filter(ctx, func(p *entities.UserProfile) bool {
		return strings.EqualFold(p.Email, email)
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, domainerrors.ErrNotFound
	}
	return found[0], nil
}

// Update applies mutate to the record with the given id and persists the list
func (s *IdentityStore) Update(ctx context.Context, id string, mutate func(*entities.UserProfile)) (*entities.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated *entities.UserProfile
	err := s.atomically(ctx, func(ctx context.Context) error {
		list, err := s.load(ctx)
		if err != nil {
			return err
		}
		for i, p := range list {
			if p.ID != id {
				continue
			}
			next := p.Clone()
			mutate(next)
			if !next.Valid() {
				return domainerrors.ErrInvalidStatus
			}
			list[i] = next
			if err := s.persist(ctx, list); err != nil {
				return err
			}
			updated = next.Clone()
			return nil
		}
		return domainerrors.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *IdentityStore) atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	return atomically(ctx, s.kv, fn)
}

func (s *IdentityStore) load(ctx context.Context) ([]*entities.UserProfile, error) {
	raw, found, err := s.kv.Get(ctx, repositories.EnrollmentsKey)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", repositories.EnrollmentsKey, err)
	}
	if !found {
		seed := SeedProfiles()
		if err := s.persist(ctx, seed); err != nil {
			return nil, err
		}
		logger.Info(ctx, "Identity store seeded", zap.Int("records", len(seed)))
		return seed, nil
	}

	var list []*entities.UserProfile
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", repositories.EnrollmentsKey, err)
	}
	out := list[:0]
	for _, p := range list {
		if p == nil {
			continue
		}
		if !p.EnrollmentStatus.IsValid() {
			logger.Warn(ctx, "Unknown enrollment status normalized", zap.String("id", p.ID), zap.String("status", string(p.EnrollmentStatus)))
			p.EnrollmentStatus = entities.EnrollmentPending
		}
		if !p.PaymentStatus.IsValid() {
			logger.Warn(ctx, "Unknown payment status normalized", zap.String("id", p.ID), zap.String("status", string(p.PaymentStatus)))
			p.PaymentStatus = entities.PaymentUnpaid
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *IdentityStore) persist(ctx context.Context, list []*entities.UserProfile) error {
	if list == nil {
		list = []*entities.UserProfile{}
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, repositories.EnrollmentsKey, string(payload)); err != nil {
		return fmt.Errorf("write %s: %w", repositories.EnrollmentsKey, err)
	}
	return nil
}
