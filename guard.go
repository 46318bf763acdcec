package identity

import (
	"context"
)

// GuardFn authenticates a bearer token and authorizes the resolved
// identity before a protected operation runs.
type GuardFn func(ctx context.Context, token string) (*Snapshot, error)

// Guard builds the standard check chain for the given required roles.
// An empty set means any authenticated, active identity passes.
//
// The order is fixed: verify the token with the access scope, resolve
// the identity through the cache, check the active flag, then check role
// membership. Authentication failures surface as ErrUnauthenticated
// before account state or the required role set is ever consulted, so a
// caller that cannot authenticate learns nothing else.
func (s *Service) Guard(required ...Role) GuardFn {
	return s.guard(false, required)
}

// ConfirmedGuard is the narrower variant that additionally requires a
// confirmed email address. Use it only where confirmation gates the
// operation; it is not part of the general chain.
func (s *Service) ConfirmedGuard(required ...Role) GuardFn {
	return s.guard(true, required)
}

func (s *Service) guard(requireConfirmed bool, required []Role) GuardFn {
	requiredSet := append([]Role(nil), required...)

	return func(ctx context.Context, token string) (*Snapshot, error) {
		claims, err := s.tokens.Verify(token, ScopeAccess)
		if err != nil {
			s.logger.Debug("guard rejected token", "error", err)
			return nil, ErrUnauthenticated
		}

		snap, err := s.cache.Get(ctx, claims.Subject())
		if err != nil {
			if HasTextCode(err, TextCodeCacheLoadFailed) {
				// backing store trouble must not leak to the caller
				s.logger.Error("guard could not resolve identity, backing store unavailable", "error", err)
			} else {
				s.logger.Debug("guard could not resolve identity", "subject", claims.Subject(), "error", err)
			}
			return nil, ErrUnauthenticated
		}

		if claims.CredentialVersion != 0 && claims.CredentialVersion != snap.CredentialVersion {
			// credential changed since the token was minted
			return nil, ErrUnauthenticated
		}

		if !snap.Active {
			return nil, ErrInactiveAccount
		}

		if requireConfirmed && !snap.Confirmed {
			return nil, ErrUnconfirmedAccount
		}

		if len(requiredSet) > 0 && !snap.Role.In(requiredSet) {
			return nil, ErrInsufficientRole
		}

		return snap, nil
	}
}
