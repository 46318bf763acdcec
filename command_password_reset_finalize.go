package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type FinalizePasswordResetMessage struct {
	Token    string `json:"token" doc:"Password reset token from the mailed link."`
	Password string `json:"password" example:"some_secret_word" doc:"New password."`
}

func (m FinalizePasswordResetMessage) Type() string { return "identity.password_reset_finalize" }

// FinalizePasswordResetHandler consumes a password-reset token and
// applies the new credential exactly once. The token carries the
// credential version it was minted against; once the password changes
// the stored version moves, so replaying the token fails as stale.
type FinalizePasswordResetHandler struct {
	svc    *Service
	logger Logger
}

// NewFinalizePasswordResetHandler creates a handler bound to the service.
func NewFinalizePasswordResetHandler(svc *Service) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		svc:    svc,
		logger: svc.logger,
	}
}

// WithLogger overrides the logger used by the handler.
func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	claims, err := h.svc.tokens.Verify(event.Token, ScopePasswordReset)
	if err != nil {
		return err
	}

	user, err := h.svc.store.FindByEmail(ctx, claims.Subject())
	if err != nil {
		if goerrors.IsNotFound(err) || HasTextCode(err, TextCodeUserNotFound) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	if claims.CredentialVersion != user.CredentialVersion {
		return ErrStaleResetToken
	}

	passwordHash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
	}

	// Patch bumps the credential version alongside the hash, retiring
	// this token and any others minted against the old credential.
	if _, err := h.svc.store.Patch(ctx, user.ID, Patch{PasswordHash: &passwordHash}); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user password")
	}

	if err := h.svc.cache.Invalidate(ctx, user.Email); err != nil {
		h.logger.Warn("cache invalidation failed after password reset", "key", user.Email, "error", err)
	}

	return nil
}
