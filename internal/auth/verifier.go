// Package auth verifies the JWTs the backend issues at login against the
// backend's published key set.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"studyportal/pkg/types"
)

// roleClaimURI is the role claim name ASP.NET Core identity emits.
const roleClaimURI = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"

var ErrNoSubject = errors.New("auth: token has no subject")

// KeySource yields the key set tokens are checked against.
type KeySource interface {
	Keys(ctx context.Context) (jwk.Set, error)
}

type Verifier struct {
	keys KeySource
}

func NewVerifier(keys KeySource) *Verifier {
	return &Verifier{keys: keys}
}

// Verify checks the token signature and validity window and returns the
// identity it carries.
func (v *Verifier) Verify(ctx context.Context, raw string) (*types.Identity, error) {
	set, err := v.keys.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch key set: %w", err)
	}

	token, err := jwt.Parse(
		[]byte(raw),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	userID, ok := token.Subject()
	if !ok || userID == "" {
		if err := token.Get("nameid", &userID); err != nil || userID == "" {
			return nil, ErrNoSubject
		}
	}

	id := &types.Identity{
		UserID: userID,
		Role:   types.UserRoleStudent,
		Token:  raw,
	}

	// email and role are optional
	_ = token.Get("email", &id.Email)

	var role string
	if err := token.Get("role", &role); err != nil {
		_ = token.Get(roleClaimURI, &role)
	}
	if strings.EqualFold(role, string(types.UserRoleAdmin)) {
		id.Role = types.UserRoleAdmin
	}

	return id, nil
}

// RemoteKeys is a JWKS endpoint kept fresh by an httprc-backed cache.
type RemoteKeys struct {
	cache *jwk.Cache
	url   string
}

func NewRemoteKeys(ctx context.Context, jwksURL string) (*RemoteKeys, error) {
	cache, err := jwk.NewCache(ctx, httprc.NewClient())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jwk cache: %w", err)
	}

	if err := cache.Register(ctx, jwksURL); err != nil {
		return nil, fmt.Errorf("failed to register jwks url with cache: %w", err)
	}

	return &RemoteKeys{cache: cache, url: jwksURL}, nil
}

func (k *RemoteKeys) Keys(ctx context.Context) (jwk.Set, error) {
	return k.cache.Lookup(ctx, k.url)
}

// StaticKeys serves a fixed key set.
type StaticKeys struct {
	Set jwk.Set
}

func (k StaticKeys) Keys(context.Context) (jwk.Set, error) {
	return k.Set, nil
}
