package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type ConfirmEmailMessage struct {
	Token      string `json:"token" doc:"Email confirmation token from the mailed link."`
	OnResponse func(resp *ConfirmEmailResponse)
}

func (m ConfirmEmailMessage) Type() string { return "identity.confirmation_finalize" }

type ConfirmEmailResponse struct {
	Stage FlowStage
	Email string
	// AlreadyConfirmed distinguishes the idempotent re-confirmation from
	// a fresh one; both are successes.
	AlreadyConfirmed bool
}

// ConfirmEmailHandler consumes an email-confirmation token and marks the
// identity confirmed. Confirming twice succeeds and reports
// AlreadyConfirmed; any verifier rejection terminates the flow with no
// change to the identity.
type ConfirmEmailHandler struct {
	svc    *Service
	logger Logger
}

// NewConfirmEmailHandler creates a handler bound to the service.
func NewConfirmEmailHandler(svc *Service) *ConfirmEmailHandler {
	return &ConfirmEmailHandler{
		svc:    svc,
		logger: svc.logger,
	}
}

// WithLogger overrides the logger used by the handler.
func (h *ConfirmEmailHandler) WithLogger(logger Logger) *ConfirmEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ConfirmEmailHandler) Execute(ctx context.Context, event ConfirmEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email confirmation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmEmailHandler) execute(ctx context.Context, event ConfirmEmailMessage) error {
	resp := &ConfirmEmailResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	claims, err := h.svc.tokens.Verify(event.Token, ScopeEmailConfirm)
	if err != nil {
		resp.Stage = stageForTokenError(err)
		h.respond(event, resp)
		return err
	}

	resp.Email = claims.Subject()

	user, err := h.svc.store.FindByEmail(ctx, claims.Subject())
	if err != nil {
		if goerrors.IsNotFound(err) || HasTextCode(err, TextCodeUserNotFound) {
			resp.Stage = StageInvalid
			h.respond(event, resp)
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for confirmation")
	}

	if user.Confirmed {
		resp.Stage = StageConfirmed
		resp.AlreadyConfirmed = true
		h.respond(event, resp)
		return nil
	}

	confirmed := true
	if _, err := h.svc.store.Patch(ctx, user.ID, Patch{Confirmed: &confirmed}); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark email as confirmed")
	}

	if err := h.svc.cache.Invalidate(ctx, user.Email); err != nil {
		h.logger.Warn("cache invalidation failed after confirmation", "key", user.Email, "error", err)
	}

	resp.Stage = StageConfirmed
	h.respond(event, resp)

	return nil
}

func (h *ConfirmEmailHandler) respond(event ConfirmEmailMessage, resp *ConfirmEmailResponse) {
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}
}
