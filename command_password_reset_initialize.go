package identity

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Address the reset link is sent to."`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (m InitializePasswordResetMessage) Type() string { return "identity.password_reset" }

type InitializePasswordResetResponse struct {
	Stage   FlowStage
	Success bool
}

// InitializePasswordResetHandler mints a password-reset token pinned to
// the identity's current credential version and hands it to the mailer.
// An unknown email completes silently, same as the confirmation flow.
type InitializePasswordResetHandler struct {
	svc    *Service
	logger Logger
}

// NewInitializePasswordResetHandler creates a handler bound to the service.
func NewInitializePasswordResetHandler(svc *Service) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		svc:    svc,
		logger: svc.logger,
	}
}

// WithLogger overrides the logger used by the handler.
func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	resp := &InitializePasswordResetResponse{Stage: StageRequested}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.svc.store.FindByEmail(ctx, event.Email)
	if err != nil {
		if goerrors.IsNotFound(err) || HasTextCode(err, TextCodeUserNotFound) {
			h.logger.Debug("password reset requested for unknown email", "email", event.Email)
			resp.Success = true
			h.respond(event, resp)
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	now := time.Now()
	if ts, ok := h.svc.tokens.(*HSTokenService); ok {
		now = ts.now()
	}

	// The embedded credential version makes the token single-use: once
	// the password changes the version moves and the token goes stale.
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    h.svc.cfg.Issuer,
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.svc.cfg.ResetTokenTTL)),
		},
		TokenScope:        ScopePasswordReset,
		CredentialVersion: user.CredentialVersion,
	}

	token, err := h.svc.tokens.SignClaims(claims)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue password reset token")
	}

	h.svc.sendMail(user.Email, TemplateResetPassword, map[string]any{
		"token": token,
	})

	resp.Stage = StageTokenIssued
	resp.Success = true
	h.respond(event, resp)

	return nil
}

func (h *InitializePasswordResetHandler) respond(event InitializePasswordResetMessage, resp *InitializePasswordResetResponse) {
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}
}
