package auth

import "context"

const RoleAdmin = "admin"

// Principal is the caller a request acts on behalf of. The zero value is anonymous.
type Principal struct {
	ID    string
	Role  string
	Email string
	Name  string
}

var Anonymous = Principal{}

func (p Principal) IsAnonymous() bool {
	return p.ID == ""
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanModify reports whether the principal may change a resource owned by ownerID.
func (p Principal) CanModify(ownerID string) bool {
	if p.IsAdmin() {
		return true
	}
	return !p.IsAnonymous() && p.ID == ownerID
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey{}).(Principal); ok {
		return p
	}
	return Anonymous
}
