package identity

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

type RegisterUserMessage struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	OnResponse func(resp *RegisterUserResponse)
}

func (m RegisterUserMessage) Type() string { return "identity.register" }

func (m RegisterUserMessage) Validate() error {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.Email),
		validation.Field(&m.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&m.Username, validation.Length(0, 50)),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}
	return nil
}

type RegisterUserResponse struct {
	Identity *Snapshot
}

// RegisterUserHandler creates a new identity with a hashed credential
// and kicks off the confirmation flow. A duplicate email is a conflict.
type RegisterUserHandler struct {
	svc    *Service
	logger Logger
}

// NewRegisterUserHandler creates a handler bound to the service.
func NewRegisterUserHandler(svc *Service) *RegisterUserHandler {
	return &RegisterUserHandler{
		svc:    svc,
		logger: svc.logger,
	}
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return err
	}

	if _, err := h.svc.store.FindByEmail(ctx, event.Email); err == nil {
		return ErrAccountExists
	} else if !goerrors.IsNotFound(err) && !HasTextCode(err, TextCodeUserNotFound) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
	}

	user := &User{
		Username:          getUsername(event.Username, event.Email),
		Email:             event.Email,
		PasswordHash:      hash,
		Role:              RoleUser,
		Active:            true,
		CredentialVersion: 1,
	}

	created, err := h.svc.store.Create(ctx, user)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
	}

	token, err := h.svc.tokens.Issue(created.Email, ScopeEmailConfirm, h.svc.cfg.ConfirmTokenTTL)
	if err != nil {
		h.logger.Error("failed to issue confirmation token after registration", "error", err)
	} else {
		h.svc.sendMail(created.Email, TemplateConfirmEmail, map[string]any{
			"username": created.Username,
			"token":    token,
		})
	}

	if event.OnResponse != nil {
		event.OnResponse(&RegisterUserResponse{Identity: created.Snapshot()})
	}

	return nil
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
