package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type RequestConfirmationMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Address the confirmation link is sent to."`
	OnResponse func(resp *RequestConfirmationResponse)
}

func (m RequestConfirmationMessage) Type() string { return "identity.confirmation_request" }

type RequestConfirmationResponse struct {
	Stage            FlowStage
	AlreadyConfirmed bool
	Success          bool
}

// RequestConfirmationHandler mints an email-confirmation token and hands
// it to the mailer. An unknown email and an already-confirmed account
// both complete silently so the endpoint cannot be used to enumerate
// accounts.
type RequestConfirmationHandler struct {
	svc    *Service
	logger Logger
}

// NewRequestConfirmationHandler creates a handler bound to the service.
func NewRequestConfirmationHandler(svc *Service) *RequestConfirmationHandler {
	return &RequestConfirmationHandler{
		svc:    svc,
		logger: svc.logger,
	}
}

// WithLogger overrides the logger used by the handler.
func (h *RequestConfirmationHandler) WithLogger(logger Logger) *RequestConfirmationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RequestConfirmationHandler) Execute(ctx context.Context, event RequestConfirmationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during confirmation request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestConfirmationHandler) execute(ctx context.Context, event RequestConfirmationMessage) error {
	resp := &RequestConfirmationResponse{Stage: StageRequested}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.svc.store.FindByEmail(ctx, event.Email)
	if err != nil {
		if goerrors.IsNotFound(err) || HasTextCode(err, TextCodeUserNotFound) {
			// silent on purpose, the caller must not learn the address is unknown
			h.logger.Debug("confirmation requested for unknown email", "email", event.Email)
			resp.Success = true
			h.respond(event, resp)
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for confirmation request")
	}

	if user.Confirmed {
		resp.AlreadyConfirmed = true
		resp.Success = true
		h.respond(event, resp)
		return nil
	}

	token, err := h.svc.tokens.Issue(user.Email, ScopeEmailConfirm, h.svc.cfg.ConfirmTokenTTL)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue confirmation token")
	}

	h.svc.sendMail(user.Email, TemplateConfirmEmail, map[string]any{
		"username": user.Username,
		"token":    token,
	})

	resp.Stage = StageTokenIssued
	resp.Success = true
	h.respond(event, resp)

	return nil
}

func (h *RequestConfirmationHandler) respond(event RequestConfirmationMessage, resp *RequestConfirmationResponse) {
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}
}
