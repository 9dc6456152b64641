package permissions

import (
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-editorial/internal/domain"
)

var (
	// ErrUnknownAction indicates a grant references an action outside the workflow vocabulary.
	ErrUnknownAction = errors.New("permissions: unknown action")
	// ErrUnknownRole indicates a grant references an unknown role.
	ErrUnknownRole = errors.New("permissions: unknown role")
)

// Authorizer decides whether a role may perform a workflow action.
type Authorizer interface {
	Authorize(action domain.Action, role domain.Role) bool
}

// AuthorizerFunc adapts a function into an Authorizer.
type AuthorizerFunc func(action domain.Action, role domain.Role) bool

func (fn AuthorizerFunc) Authorize(action domain.Action, role domain.Role) bool {
	if fn == nil {
		return false
	}
	return fn(action, role)
}

// Matrix is the static action to role grant table. It is immutable once
// constructed and safe for concurrent use without locking. Pairs absent from
// the table are denied.
type Matrix struct {
	grants map[domain.Action]map[domain.Role]struct{}
}

var _ Authorizer = (*Matrix)(nil)

// DefaultGrants returns the editorial policy. admin is listed on every row.
func DefaultGrants() map[domain.Action][]domain.Role {
	return map[domain.Action][]domain.Role{
		domain.ActionSubmit:          {domain.RoleEditor, domain.RoleAdmin},
		domain.ActionRequestRevision: {domain.RoleChiefEditor, domain.RoleAdmin},
		domain.ActionApprove:         {domain.RoleChiefEditor, domain.RoleAdmin},
		domain.ActionReject:          {domain.RoleChiefEditor, domain.RoleAdmin},
		domain.ActionPublish:         {domain.RolePublishingEditor, domain.RoleAdmin},
		domain.ActionUnpublish:       {domain.RolePublishingEditor, domain.RoleAdmin},
		domain.ActionArchive:         {domain.RolePublishingEditor, domain.RoleAdmin},
		domain.ActionRestore:         {domain.RoleAdmin},
	}
}

// NewMatrix compiles grants into a Matrix, rejecting unknown actions or roles.
func NewMatrix(grants map[domain.Action][]domain.Role) (*Matrix, error) {
	compiled := make(map[domain.Action]map[domain.Role]struct{}, len(grants))
	for action, roles := range grants {
		if !action.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
		}
		set := make(map[domain.Role]struct{}, len(roles))
		for _, role := range roles {
			if !role.Valid() {
				return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
			}
			set[role] = struct{}{}
		}
		compiled[action] = set
	}
	return &Matrix{grants: compiled}, nil
}

// DefaultMatrix returns the compiled editorial policy.
func DefaultMatrix() *Matrix {
	m, err := NewMatrix(DefaultGrants())
	if err != nil {
		panic(err)
	}
	return m
}

// Authorize reports whether role holds a grant for action.
func (m *Matrix) Authorize(action domain.Action, role domain.Role) bool {
	if m == nil {
		return false
	}
	roles, ok := m.grants[action]
	if !ok {
		return false
	}
	_, ok = roles[role]
	return ok
}

// Check returns an Error wrapping ErrPermissionDenied when the grant is missing.
func (m *Matrix) Check(action domain.Action, role domain.Role) error {
	if m.Authorize(action, role) {
		return nil
	}
	return Error{Permission: ActionPermission(action), Role: role}
}

// Roles lists the roles allowed to perform action, sorted by name.
func (m *Matrix) Roles(action domain.Action) []domain.Role {
	if m == nil {
		return nil
	}
	out := make([]domain.Role, 0, len(m.grants[action]))
	for role := range m.grants[action] {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Actions lists the actions granted to role in workflow order.
func (m *Matrix) Actions(role domain.Role) []domain.Action {
	if m == nil {
		return nil
	}
	out := []domain.Action{}
	for _, action := range domain.Actions() {
		if m.Authorize(action, role) {
			out = append(out, action)
		}
	}
	return out
}

// Checker projects the grants held by role into a token Set ("workflow:<action>").
func (m *Matrix) Checker(role domain.Role) Set {
	actions := m.Actions(role)
	tokens := make([]string, 0, len(actions))
	for _, action := range actions {
		tokens = append(tokens, ActionPermission(action))
	}
	return NewSet(tokens...)
}
