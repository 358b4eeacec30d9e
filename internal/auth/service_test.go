package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshcart/freshcart/internal/logging"
	"github.com/freshcart/freshcart/internal/mail"
	"github.com/freshcart/freshcart/internal/token"
	"github.com/freshcart/freshcart/internal/user"
)

type stubUserRepo struct {
	byUsername map[string]*user.User
	byID       map[uuid.UUID]*user.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byUsername: make(map[string]*user.User),
		byID:       make(map[uuid.UUID]*user.User),
	}
}

func cloneUser(u *user.User) *user.User {
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, username, email, passwordHash string) (*user.User, error) {
	if _, exists := r.byUsername[username]; exists {
		return nil, user.ErrDuplicateUsername
	}
	u := &user.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Active:       false,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.byUsername[username] = u
	r.byID[u.ID] = u
	return cloneUser(u), nil
}

func (r *stubUserRepo) GetByUsername(_ context.Context, username string) (*user.User, error) {
	u, ok := r.byUsername[username]
	if !ok {
		return nil, user.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) UsernameExists(_ context.Context, username string) (bool, error) {
	_, ok := r.byUsername[username]
	return ok, nil
}

func (r *stubUserRepo) Activate(_ context.Context, userID uuid.UUID) error {
	u, ok := r.byID[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.Active = true
	return nil
}

type captureQueue struct {
	jobs []mail.Job
}

func (q *captureQueue) Enqueue(job mail.Job) {
	q.jobs = append(q.jobs, job)
}

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTestService(t *testing.T) (*Service, *stubUserRepo, *captureQueue, *token.Codec) {
	t.Helper()
	repo := newStubUserRepo()
	queue := &captureQueue{}
	codec, err := token.NewCodec(testKey, time.Hour)
	require.NoError(t, err)
	svc := NewService(repo, codec, queue, logging.NewLogger(true))
	return svc, repo, queue, codec
}

func validInput() RegisterInput {
	return RegisterInput{
		Username: "alice",
		Password: "s3cret",
		Email:    "alice@example.com",
		Allow:    "on",
	}
}

func TestRegister_IncompleteData(t *testing.T) {
	svc, repo, queue, _ := newTestService(t)

	for _, mutate := range []func(*RegisterInput){
		func(in *RegisterInput) { in.Username = "" },
		func(in *RegisterInput) { in.Password = "" },
		func(in *RegisterInput) { in.Email = "" },
		func(in *RegisterInput) { in.Allow = "" },
	} {
		in := validInput()
		mutate(&in)
		_, err := svc.Register(context.Background(), in)
		assert.ErrorIs(t, err, ErrIncompleteData)
	}

	assert.Empty(t, repo.byUsername, "no user record may be created")
	assert.Empty(t, queue.jobs, "no mail may be enqueued")
}

func TestRegister_InvalidEmail(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	for _, email := range []string{
		"not-an-email",
		"UPPER@example.com",
		"@example.com",
		"alice@",
		"alice@host",
		"alice@host.toolongtld",
	} {
		in := validInput()
		in.Email = email
		_, err := svc.Register(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidEmail, "email %q", email)
	}

	assert.Empty(t, repo.byUsername)
}

func TestRegister_ValidEmails(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	for i, email := range []string{
		"alice@example.com",
		"a1.b-c@my-host.co.uk",
		"9user@mail.io",
	} {
		in := validInput()
		in.Username = in.Username + string(rune('a'+i))
		in.Email = email
		_, err := svc.Register(context.Background(), in)
		assert.NoError(t, err, "email %q", email)
	}
}

func TestRegister_AgreementNotAccepted(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	in := validInput()
	in.Allow = "yes"
	_, err := svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrAgreementNotAccepted)
	assert.Empty(t, repo.byUsername)
}

func TestRegister_UsernameTaken(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	first, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	in := validInput()
	in.Email = "other@example.com"
	_, err = svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrUsernameTaken)

	// The existing record is untouched
	existing := repo.byUsername["alice"]
	require.NotNil(t, existing)
	assert.Equal(t, first.ID, existing.ID)
	assert.Equal(t, "alice@example.com", existing.Email)
}

func TestRegister_Success(t *testing.T) {
	svc, repo, queue, codec := newTestService(t)

	newUser, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	assert.False(t, newUser.Active, "users register inactive")
	assert.NotEqual(t, "s3cret", newUser.PasswordHash)

	stored := repo.byUsername["alice"]
	require.NotNil(t, stored)
	assert.False(t, stored.Active)

	require.Len(t, queue.jobs, 1, "exactly one mail job")
	job := queue.jobs[0]
	assert.Equal(t, "alice@example.com", job.To)
	assert.Equal(t, "alice", job.Username)

	// The enqueued token redeems to the new user's identifier
	got, err := codec.Redeem(job.Token)
	require.NoError(t, err)
	assert.Equal(t, newUser.ID, got)
}

func TestActivate_FlipsActiveFlag(t *testing.T) {
	svc, repo, queue, _ := newTestService(t)

	newUser, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	err = svc.Activate(context.Background(), queue.jobs[0].Token)
	require.NoError(t, err)
	assert.True(t, repo.byID[newUser.ID].Active)

	// Redeeming again is idempotent
	err = svc.Activate(context.Background(), queue.jobs[0].Token)
	require.NoError(t, err)
	assert.True(t, repo.byID[newUser.ID].Active)
}

func TestActivate_ExpiredToken(t *testing.T) {
	repo := newStubUserRepo()
	queue := &captureQueue{}
	expiredCodec, err := token.NewCodec(testKey, -time.Minute)
	require.NoError(t, err)
	svc := NewService(repo, expiredCodec, queue, logging.NewLogger(true))

	_, err = svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	err = svc.Activate(context.Background(), queue.jobs[0].Token)
	assert.ErrorIs(t, err, token.ErrTokenExpired)
	assert.False(t, repo.byUsername["alice"].Active)
}

func TestActivate_UnknownUser(t *testing.T) {
	svc, _, _, codec := newTestService(t)

	tokenStr, err := codec.Issue(uuid.New())
	require.NoError(t, err)

	err = svc.Activate(context.Background(), tokenStr)
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestLogin_IncompleteData(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "", "pw")
	assert.ErrorIs(t, err, ErrIncompleteData)

	_, err = svc.Login(context.Background(), "alice", "")
	assert.ErrorIs(t, err, ErrIncompleteData)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _, queue, _ := newTestService(t)

	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	require.NoError(t, svc.Activate(context.Background(), queue.jobs[0].Token))

	_, err = svc.Login(context.Background(), "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_AccountNotActivated(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "alice", "s3cret")
	assert.ErrorIs(t, err, ErrAccountNotActivated)
}

func TestLogin_Success(t *testing.T) {
	svc, _, queue, _ := newTestService(t)

	registered, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	require.NoError(t, svc.Activate(context.Background(), queue.jobs[0].Token))

	loggedIn, err := svc.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, loggedIn.ID)
	assert.True(t, loggedIn.Active)
}
