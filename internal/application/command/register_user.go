package command

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lingora-app/lingora/internal/domain/shared"
	"github.com/lingora-app/lingora/internal/domain/user"
	"github.com/lingora-app/lingora/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER USER COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// RegisterUserCommand contains the data to register a new learner.
type RegisterUserCommand struct {
	// Email is the login email.
	Email string

	// Password is the plaintext password; it is hashed before storage.
	Password string

	// DisplayName is the public display name.
	DisplayName string

	// NativeLanguage is the learner's native language code.
	NativeLanguage string

	// TargetLanguage is the language being learned.
	TargetLanguage string
}

// Validate validates the command.
func (c RegisterUserCommand) Validate() error {
	if strings.TrimSpace(c.Email) == "" || !strings.Contains(c.Email, "@") {
		return errors.New("register_user: valid email is required")
	}
	if len(c.Password) < 8 {
		return errors.New("register_user: password must be at least 8 characters")
	}
	if strings.TrimSpace(c.DisplayName) == "" {
		return errors.New("register_user: display_name is required")
	}
	if c.NativeLanguage == "" || c.TargetLanguage == "" {
		return errors.New("register_user: native and target languages are required")
	}
	if c.NativeLanguage == c.TargetLanguage {
		return errors.New("register_user: target language must differ from native language")
	}
	return nil
}

// RegisterUserResult contains the result of registering a user.
type RegisterUserResult struct {
	// UserID is the new user's ID.
	UserID user.UserID

	// CreatedAt is when the user was created.
	CreatedAt time.Time
}

// RegisterUserHandler handles the RegisterUserCommand.
type RegisterUserHandler struct {
	userRepo user.Repository
	log      *logger.Logger
}

// NewRegisterUserHandler creates a new RegisterUserHandler.
func NewRegisterUserHandler(userRepo user.Repository, log *logger.Logger) *RegisterUserHandler {
	return &RegisterUserHandler{
		userRepo: userRepo,
		log:      log.With(logger.Component("register_user")),
	}
}

// Handle registers a new user with a bcrypt password hash.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (*RegisterUserResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	hash, err := user.HashPassword(cmd.Password)
	if err != nil {
		return nil, shared.WrapError("user", "Register", shared.ErrInvalidInput, "failed to hash password", err)
	}

	now := time.Now().UTC()
	u := &user.User{
		ID:             user.UserID(uuid.NewString()),
		Email:          strings.ToLower(strings.TrimSpace(cmd.Email)),
		PasswordHash:   hash,
		DisplayName:    strings.TrimSpace(cmd.DisplayName),
		NativeLanguage: cmd.NativeLanguage,
		TargetLanguage: cmd.TargetLanguage,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	h.log.Info("user registered", logger.UserID(string(u.ID)))

	return &RegisterUserResult{UserID: u.ID, CreatedAt: now}, nil
}
