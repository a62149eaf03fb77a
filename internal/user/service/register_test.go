package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	authdomain "relay-chat/backend/internal/auth/domain"
	"relay-chat/backend/internal/clock"
	"relay-chat/backend/internal/security"
	"relay-chat/backend/internal/snowflake"
	"relay-chat/backend/internal/user/domain"
)

type memCredentialRepo struct {
	mu   sync.Mutex
	byID map[int64]*authdomain.Credential
}

func newMemCredentialRepo() *memCredentialRepo {
	return &memCredentialRepo{byID: make(map[int64]*authdomain.Credential)}
}

func (r *memCredentialRepo) FindByID(ctx context.Context, id int64) (*authdomain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *memCredentialRepo) Save(ctx context.Context, credential *authdomain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *credential
	r.byID[credential.ID] = &copied
	return nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[int64]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int64]*domain.User)}
}

func (r *memUserRepo) ExistsByUsername(ctx context.Context, username domain.Username) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) Save(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

type memRefreshTokenRepo struct {
	mu     sync.Mutex
	byUser map[int64]*authdomain.RefreshToken
}

func newMemRefreshTokenRepo() *memRefreshTokenRepo {
	return &memRefreshTokenRepo{byUser: make(map[int64]*authdomain.RefreshToken)}
}

func (r *memRefreshTokenRepo) Save(ctx context.Context, token *authdomain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *token
	r.byUser[token.Session.UserID] = &copied
	return nil
}

func (r *memRefreshTokenRepo) get(userID int64) *authdomain.RefreshToken {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byUser[userID]
}

type passthroughTx struct{}

func (passthroughTx) Write(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type registerFixture struct {
	credentials   *memCredentialRepo
	users         *memUserRepo
	refreshTokens *memRefreshTokenRepo
	codec         *security.TokenCodec
	clk           *clock.Fake
	svc           *RegisterService
}

func newRegisterFixture(t *testing.T) *registerFixture {
	t.Helper()
	clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	codec := security.NewTokenCodec("test-secret-key", clk)
	ids, err := snowflake.New(2, clk)
	if err != nil {
		t.Fatalf("snowflake.New: %v", err)
	}
	f := &registerFixture{
		credentials:   newMemCredentialRepo(),
		users:         newMemUserRepo(),
		refreshTokens: newMemRefreshTokenRepo(),
		codec:         codec,
		clk:           clk,
	}
	f.svc = NewRegisterService(
		f.credentials, f.users, f.refreshTokens,
		codec, ids, passthroughTx{}, clk, zap.NewNop(),
	)
	return f
}

func (f *registerFixture) seedTemporalCredential(t *testing.T, id int64) *authdomain.Credential {
	t.Helper()
	provider, err := authdomain.NewProvider(authdomain.ProviderTypeKakao, "kakao-ext-"+strconv.FormatInt(id, 10))
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	credential := authdomain.NewCredential(id, provider)
	if err := f.credentials.Save(context.Background(), credential); err != nil {
		t.Fatalf("Save credential: %v", err)
	}
	return credential
}

func TestRegister_CreatesUserAndIssuesTokens(t *testing.T) {
	f := newRegisterFixture(t)
	ctx := context.Background()
	f.seedTemporalCredential(t, 7)

	pair, err := f.svc.Register(ctx, 7, "new_user")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("incomplete token pair: %+v", pair)
	}

	subject, err := f.codec.Parse(pair.AccessToken)
	if err != nil {
		t.Fatalf("Parse access token: %v", err)
	}
	permanent, ok := subject.(authdomain.PermanentUser)
	if !ok {
		t.Fatalf("token subject = %T, want PermanentUser", subject)
	}

	credential, _ := f.credentials.FindByID(ctx, 7)
	if credential.IsTemporal() {
		t.Fatal("credential still temporal after registration")
	}
	if *credential.UserID != permanent.UserID {
		t.Fatalf("credential user %d != token user %d", *credential.UserID, permanent.UserID)
	}

	stored := f.refreshTokens.get(permanent.UserID)
	if stored == nil {
		t.Fatal("refresh token was not persisted")
	}
	if stored.Token != pair.RefreshToken {
		t.Fatalf("returned bearer %q does not match stored %q", pair.RefreshToken, stored.Token)
	}
	if permanent.SessionID != stored.Session.SessionID {
		t.Fatalf("token session id %q != stored session id %q", permanent.SessionID, stored.Session.SessionID)
	}

	u := f.users.users[permanent.UserID]
	if u == nil {
		t.Fatal("user was not persisted")
	}
	if u.Username != "new_user" || u.Nickname != "new_user" {
		t.Fatalf("user = %+v, want username/nickname new_user", u)
	}
	if u.Status != domain.StatusNone {
		t.Fatalf("status = %v, want NONE", u.Status)
	}
}

func TestRegister_InvalidUsername(t *testing.T) {
	f := newRegisterFixture(t)
	f.seedTemporalCredential(t, 7)

	if _, err := f.svc.Register(context.Background(), 7, "x"); err == nil {
		t.Fatal("expected validation error for one-character username")
	}
}

func TestRegister_UnknownCredential(t *testing.T) {
	f := newRegisterFixture(t)

	_, err := f.svc.Register(context.Background(), 999, "new_user")
	if !errors.Is(err, ErrCredentialNotFound) {
		t.Fatalf("err = %v, want ErrCredentialNotFound", err)
	}
}

func TestRegister_AlreadyRegisteredCredential(t *testing.T) {
	f := newRegisterFixture(t)
	ctx := context.Background()
	credential := f.seedTemporalCredential(t, 7)
	if err := credential.AssignUser(100); err != nil {
		t.Fatalf("AssignUser: %v", err)
	}
	if err := f.credentials.Save(ctx, credential); err != nil {
		t.Fatalf("Save: %v", err)
	}

	_, err := f.svc.Register(ctx, 7, "new_user")
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("err = %v, want ErrAlreadyRegistered", err)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	f := newRegisterFixture(t)
	ctx := context.Background()
	f.seedTemporalCredential(t, 7)
	if _, err := f.svc.Register(ctx, 7, "taken_name"); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	f.seedTemporalCredential(t, 8)
	_, err := f.svc.Register(ctx, 8, "taken_name")
	if !errors.Is(err, domain.ErrUsernameDuplicate) {
		t.Fatalf("err = %v, want ErrUsernameDuplicate", err)
	}
}
