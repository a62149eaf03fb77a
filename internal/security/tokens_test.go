package security

import (
	"errors"
	"reflect"
	"testing"
	"time"

	authdomain "relay-chat/backend/internal/auth/domain"
	"relay-chat/backend/internal/clock"
	userdomain "relay-chat/backend/internal/user/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestCodec() (*TokenCodec, *clock.Fake) {
	clk := clock.NewFake(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	return NewTokenCodec(testSecret, clk), clk
}

func TestTokenCodec_RoundTripPermanentUser(t *testing.T) {
	codec, _ := newTestCodec()
	user := authdomain.PermanentUser{
		UserID:    100,
		SessionID: "session-1",
		Roles:     []userdomain.Role{userdomain.RoleUser, userdomain.RoleAdmin},
	}

	token, err := codec.Generate(user, 15*time.Minute)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	got, err := codec.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(got, user) {
		t.Errorf("Parse = %#v, want %#v", got, user)
	}
}

func TestTokenCodec_RoundTripTemporalUser(t *testing.T) {
	codec, _ := newTestCodec()
	user := authdomain.TemporalUser{CredentialID: 42}

	token, err := codec.Generate(user, 60*time.Minute)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	got, err := codec.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(got, user) {
		t.Errorf("Parse = %#v, want %#v", got, user)
	}
}

func TestTokenCodec_ParseRejectsTamperedToken(t *testing.T) {
	codec, clk := newTestCodec()
	token, err := codec.Generate(authdomain.TemporalUser{CredentialID: 1}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	other := NewTokenCodec("another-secret-key-entirely-here", clk)
	if _, err := other.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse with wrong key error = %v, want ErrInvalidToken", err)
	}

	if _, err := codec.Parse(token + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse of tampered token error = %v, want ErrInvalidToken", err)
	}
}

func TestTokenCodec_PermanentUserRequiresSessionID(t *testing.T) {
	codec, _ := newTestCodec()
	// A permanent user with an empty session id produces a token without a
	// session-id claim; decoding such a token must fail.
	token, err := codec.Generate(authdomain.PermanentUser{
		UserID: 100,
		Roles:  []userdomain.Role{userdomain.RoleUser},
	}, 15*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := codec.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse without session-id error = %v, want ErrInvalidToken", err)
	}
}

func TestTokenCodec_TemporalRoleWins(t *testing.T) {
	codec, _ := newTestCodec()
	// TEMPORAL among roles forces a TemporalUser decode; session-id is ignored.
	token, err := codec.Generate(authdomain.PermanentUser{
		UserID:    7,
		SessionID: "session-7",
		Roles:     []userdomain.Role{userdomain.RoleUser, userdomain.RoleTemporal},
	}, 15*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	got, err := codec.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := authdomain.TemporalUser{CredentialID: 7}
	if got != want {
		t.Errorf("Parse = %#v, want %#v", got, want)
	}
}

func TestTokenCodec_ParseExpired(t *testing.T) {
	codec, clk := newTestCodec()
	user := authdomain.PermanentUser{
		UserID:    100,
		SessionID: "session-1",
		Roles:     []userdomain.Role{userdomain.RoleUser},
	}
	token, err := codec.Generate(user, 15*time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	clk.Advance(16 * time.Minute)

	if _, err := codec.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse of expired token error = %v, want ErrInvalidToken", err)
	}

	got, err := codec.ParseIgnoringExpiration(token)
	if err != nil {
		t.Fatalf("ParseIgnoringExpiration: %v", err)
	}
	if !reflect.DeepEqual(got, user) {
		t.Errorf("ParseIgnoringExpiration = %#v, want %#v", got, user)
	}
}

func TestTokenCodec_ParseIgnoringExpirationStillChecksSignature(t *testing.T) {
	codec, clk := newTestCodec()
	token, err := codec.Generate(authdomain.TemporalUser{CredentialID: 9}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	other := NewTokenCodec("another-secret-key-entirely-here", clk)
	if _, err := other.ParseIgnoringExpiration(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ParseIgnoringExpiration with wrong key error = %v, want ErrInvalidToken", err)
	}
}

func TestTokenCodec_IsExpired(t *testing.T) {
	codec, clk := newTestCodec()
	token, err := codec.Generate(authdomain.TemporalUser{CredentialID: 1}, 15*time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	expired, err := codec.IsExpired(token)
	if err != nil {
		t.Fatalf("IsExpired: %v", err)
	}
	if expired {
		t.Error("IsExpired = true immediately after generation")
	}

	clk.Advance(16 * time.Minute)

	expired, err = codec.IsExpired(token)
	if err != nil {
		t.Fatalf("IsExpired: %v", err)
	}
	if !expired {
		t.Error("IsExpired = false after expiry passed")
	}
}

func TestTokenCodec_IsExpiredMalformed(t *testing.T) {
	codec, _ := newTestCodec()
	if _, err := codec.IsExpired("not-a-token"); !errors.Is(err, ErrMalformedToken) {
		t.Errorf("IsExpired of garbage error = %v, want ErrMalformedToken", err)
	}
}
