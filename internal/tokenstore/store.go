// Package tokenstore keeps the session token and user profile in one of two
// storage tiers.
//
// The durable tier survives restarts and is selected by "remember me"; the
// transient tier lives as long as the process. At most one tier holds a
// token at any time: seeding one tier clears the other. Reads prefer the
// transient tier, which reflects the most recently started session.
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/academy-portal/internal/domain"
)

const (
	TokenKey = "auth-token"
	UserKey  = "auth-user"
)

// Store is the two-tier session store.
type Store struct {
	durable   Tier
	transient Tier
	logger    *zap.Logger
}

// New builds a store. Either tier may be nil, meaning no storage of that kind
// is available; operations on a missing tier are no-ops.
func New(durable, transient Tier, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{durable: durable, transient: transient, logger: logger}
}

func (s *Store) tier(remember bool) (selected, other Tier) {
	if remember {
		return s.durable, s.transient
	}
	return s.transient, s.durable
}

// SeedToken writes token to the tier selected by remember and clears the
// token of the other tier. The profile is left untouched.
func (s *Store) SeedToken(ctx context.Context, token string, remember bool) error {
	selected, other := s.tier(remember)
	var errs []error
	if selected != nil {
		if err := selected.Set(ctx, TokenKey, token); err != nil {
			errs = append(errs, fmt.Errorf("write token: %w", err))
		}
	}
	if other != nil {
		if err := other.Remove(ctx, TokenKey); err != nil {
			errs = append(errs, fmt.Errorf("clear token: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PersistAuthResponse seeds the token and stores the profile in the same tier.
func (s *Store) PersistAuthResponse(ctx context.Context, token string, user *domain.User, remember bool) error {
	if err := s.SeedToken(ctx, token, remember); err != nil {
		return err
	}
	selected, _ := s.tier(remember)
	if selected == nil || user == nil {
		return nil
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := selected.Set(ctx, UserKey, string(raw)); err != nil {
		return fmt.Errorf("write user: %w", err)
	}
	return nil
}

// Token returns the transient token if present, else the durable one, else "".
func (s *Store) Token(ctx context.Context) string {
	if v := s.read(ctx, s.transient, TokenKey); v != "" {
		return v
	}
	return s.read(ctx, s.durable, TokenKey)
}

// User returns the stored profile using the same precedence as Token.
// Missing or malformed data yields nil.
func (s *Store) User(ctx context.Context) *domain.User {
	raw := s.read(ctx, s.transient, UserKey)
	if raw == "" {
		raw = s.read(ctx, s.durable, UserKey)
	}
	if raw == "" {
		return nil
	}
	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.Debug("discarding malformed stored user", zap.Error(err))
		return nil
	}
	return &user
}

// HasToken reports whether any tier holds a token.
func (s *Store) HasToken(ctx context.Context) bool {
	return s.Token(ctx) != ""
}

// UpdateStoredUser rewrites the profile in whichever tier holds the token,
// preferring the transient tier. Without a token nothing is written.
func (s *Store) UpdateStoredUser(ctx context.Context, user *domain.User) error {
	if user == nil {
		return nil
	}
	var target Tier
	switch {
	case s.read(ctx, s.transient, TokenKey) != "":
		target = s.transient
	case s.read(ctx, s.durable, TokenKey) != "":
		target = s.durable
	default:
		return nil
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := target.Set(ctx, UserKey, string(raw)); err != nil {
		return fmt.Errorf("write user: %w", err)
	}
	return nil
}

// SignOut clears token and profile from both tiers. Every removal is
// attempted even when an earlier one fails.
func (s *Store) SignOut(ctx context.Context) error {
	var errs []error
	for _, tier := range []Tier{s.transient, s.durable} {
		if tier == nil {
			continue
		}
		for _, key := range []string{TokenKey, UserKey} {
			if err := tier.Remove(ctx, key); err != nil {
				errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Warn("sign out left stale storage", zap.Error(err))
		return err
	}
	return nil
}

func (s *Store) read(ctx context.Context, tier Tier, key string) string {
	if tier == nil {
		return ""
	}
	v, ok, err := tier.Get(ctx, key)
	if err != nil {
		s.logger.Warn("token store read failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return v
}
