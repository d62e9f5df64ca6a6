package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyportal/pkg/types"
)

type keyPair struct {
	private jwk.Key
	public  jwk.Set
}

func newKeyPair(t *testing.T) keyPair {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	priv, err := jwk.Import(raw)
	require.NoError(t, err)
	require.NoError(t, priv.Set(jwk.KeyIDKey, "test-key"))
	require.NoError(t, priv.Set(jwk.AlgorithmKey, jwa.RS256()))

	pub, err := jwk.PublicKeyOf(priv)
	require.NoError(t, err)

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(pub))

	return keyPair{private: priv, public: set}
}

func (kp keyPair) sign(t *testing.T, build func(*jwt.Builder) *jwt.Builder) string {
	t.Helper()

	tok, err := build(jwt.NewBuilder()).Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256(), kp.private))
	require.NoError(t, err)
	return string(signed)
}

func TestVerifyStudentToken(t *testing.T) {
	kp := newKeyPair(t)
	raw := kp.sign(t, func(b *jwt.Builder) *jwt.Builder {
		return b.Subject("u1").Claim("email", "ada@example.com").Expiration(time.Now().Add(time.Hour))
	})

	id, err := NewVerifier(StaticKeys{Set: kp.public}).Verify(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "ada@example.com", id.Email)
	assert.Equal(t, types.UserRoleStudent, id.Role)
	assert.Equal(t, raw, id.Token)
	assert.False(t, id.IsAdmin())
}

func TestVerifyAdminRoleClaim(t *testing.T) {
	kp := newKeyPair(t)
	v := NewVerifier(StaticKeys{Set: kp.public})

	raw := kp.sign(t, func(b *jwt.Builder) *jwt.Builder {
		return b.Subject("a1").Claim("role", "admin").Expiration(time.Now().Add(time.Hour))
	})
	id, err := v.Verify(context.Background(), raw)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin())

	raw = kp.sign(t, func(b *jwt.Builder) *jwt.Builder {
		return b.Subject("a2").Claim(roleClaimURI, "Admin").Expiration(time.Now().Add(time.Hour))
	})
	id, err = v.Verify(context.Background(), raw)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin())
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	kp := newKeyPair(t)
	raw := kp.sign(t, func(b *jwt.Builder) *jwt.Builder {
		return b.Subject("u1").Expiration(time.Now().Add(-time.Hour))
	})

	_, err := NewVerifier(StaticKeys{Set: kp.public}).Verify(context.Background(), raw)
	assert.Error(t, err)
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	signer := newKeyPair(t)
	other := newKeyPair(t)
	raw := signer.sign(t, func(b *jwt.Builder) *jwt.Builder {
		return b.Subject("u1").Expiration(time.Now().Add(time.Hour))
	})

	_, err := NewVerifier(StaticKeys{Set: other.public}).Verify(context.Background(), raw)
	assert.Error(t, err)
}

func TestVerifyRequiresSubject(t *testing.T) {
	kp := newKeyPair(t)
	raw := kp.sign(t, func(b *jwt.Builder) *jwt.Builder {
		return b.Expiration(time.Now().Add(time.Hour))
	})

	_, err := NewVerifier(StaticKeys{Set: kp.public}).Verify(context.Background(), raw)
	assert.ErrorIs(t, err, ErrNoSubject)
}
