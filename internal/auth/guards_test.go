package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Sydnethy/2537-Assignment1-SJ/internal/users"
)

func TestAuthenticatedGuard(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	guard := Authenticated(time.Hour, func() time.Time { return now })

	tests := []struct {
		name   string
		claims Claims
		want   error
	}{
		{name: "anonymous", claims: Claims{}, want: ErrUnauthenticated},
		{name: "missing issued_at", claims: Claims{Authenticated: true}, want: ErrUnauthenticated},
		{name: "fresh", claims: Claims{Authenticated: true, IssuedAt: now.Add(-59 * time.Minute)}},
		{name: "expired", claims: Claims{Authenticated: true, IssuedAt: now.Add(-61 * time.Minute)}, want: ErrUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard(tt.claims)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestCheckStopsAtFirstRejection(t *testing.T) {
	now := time.Now()
	auth := Authenticated(time.Hour, func() time.Time { return now })
	admin := Role(users.TypeAdmin)

	user := Claims{Authenticated: true, IssuedAt: now, UserType: users.TypeUser}
	assert.ErrorIs(t, Check(user, auth, admin), ErrForbidden)

	user.UserType = users.TypeAdmin
	assert.NoError(t, Check(user, auth, admin))

	assert.True(t, errors.Is(Check(Claims{UserType: users.TypeAdmin}, auth, admin), ErrUnauthenticated))
}

func TestReadUnix(t *testing.T) {
	want := time.Unix(1700000000, 0)
	for _, v := range []any{int64(1700000000), int32(1700000000), 1700000000, float64(1700000000)} {
		assert.True(t, want.Equal(readUnix(v)), "%T", v)
	}
	assert.True(t, readUnix("nope").IsZero())
	assert.True(t, readUnix(nil).IsZero())
}
