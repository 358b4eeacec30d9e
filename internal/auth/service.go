package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart/internal/logging"
	"github.com/freshcart/freshcart/internal/mail"
	"github.com/freshcart/freshcart/internal/user"
)

var (
	ErrIncompleteData       = errors.New("all fields are required")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrAgreementNotAccepted = errors.New("you must accept the user agreement")
	ErrUsernameTaken        = errors.New("username already exists")
	ErrInvalidCredentials   = errors.New("incorrect username or password")
	ErrAccountNotActivated  = errors.New("account has not been activated")
)

// checkboxOn is the value browsers submit for a checked checkbox.
const checkboxOn = "on"

// emailPattern: lowercase-alnum local part, standard domain with one or
// two TLD segments of 2-5 letters.
var emailPattern = regexp.MustCompile(`^[a-z0-9][\w.\-]*@[a-z0-9\-]+(\.[a-z]{2,5}){1,2}$`)

// UserRepository defines the persistence the auth service needs
type UserRepository interface {
	Create(ctx context.Context, username, email, passwordHash string) (*user.User, error)
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Activate(ctx context.Context, userID uuid.UUID) error
}

// TokenCodec issues and redeems activation tokens
type TokenCodec interface {
	Issue(userID uuid.UUID) (string, error)
	Redeem(tokenStr string) (uuid.UUID, error)
}

// RegisterInput carries the registration form fields
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Allow    string
}

// Service handles registration, activation and login business logic
type Service struct {
	userRepo  UserRepository
	codec     TokenCodec
	mailQueue mail.Enqueuer
	logger    *logging.Logger
}

func NewService(userRepo UserRepository, codec TokenCodec, mailQueue mail.Enqueuer, logger *logging.Logger) *Service {
	return &Service{
		userRepo:  userRepo,
		codec:     codec,
		mailQueue: mailQueue,
		logger:    logger,
	}
}

// Register validates the form input, creates an inactive user and hands
// the activation email off to the mail queue. No partial state is
// persisted on a validation failure.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	if in.Username == "" || in.Password == "" || in.Email == "" || in.Allow == "" {
		return nil, ErrIncompleteData
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, ErrInvalidEmail
	}
	if in.Allow != checkboxOn {
		return nil, ErrAgreementNotAccepted
	}

	taken, err := s.userRepo.UsernameExists(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	passwordHash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.userRepo.Create(ctx, in.Username, in.Email, passwordHash)
	if err != nil {
		// Lost a race on the unique constraint
		if errors.Is(err, user.ErrDuplicateUsername) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	activationToken, err := s.codec.Issue(newUser.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue activation token: %w", err)
	}

	// Fire-and-forget; the registration response does not wait for
	// delivery
	s.mailQueue.Enqueue(mail.Job{
		To:       in.Email,
		Username: in.Username,
		Token:    activationToken,
	})

	s.logger.Info("activation email queued", "user_id", newUser.ID, "email", in.Email)

	return newUser, nil
}

// Activate redeems an activation token and flips the target user to
// active. Token errors (token.ErrTokenExpired, token.ErrTokenInvalid) and
// user.ErrNotFound pass through for the handler to map.
func (s *Service) Activate(ctx context.Context, tokenStr string) error {
	userID, err := s.codec.Redeem(tokenStr)
	if err != nil {
		return err
	}

	if err := s.userRepo.Activate(ctx, userID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("failed to activate user: %w", err)
	}

	return nil
}

// Login checks the credentials and returns the matching active user.
// The inactive-account check runs only after the password verifies, so an
// attacker cannot probe activation state without valid credentials.
func (s *Service) Login(ctx context.Context, username, password string) (*user.User, error) {
	if username == "" || password == "" {
		return nil, ErrIncompleteData
	}

	existingUser, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(existingUser.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if !existingUser.Active {
		return nil, ErrAccountNotActivated
	}

	return existingUser, nil
}
