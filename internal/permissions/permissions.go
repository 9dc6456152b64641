package permissions

import (
	"errors"
	"strings"

	"github.com/goliatone/go-editorial/internal/domain"
)

// ResourceWorkflow prefixes the permission tokens derived from workflow actions.
const ResourceWorkflow = "workflow"

var ErrPermissionDenied = errors.New("permissions: denied")

type Error struct {
	Permission string
	Role       domain.Role
}

func (e Error) Error() string {
	if strings.TrimSpace(e.Permission) == "" {
		return "permission denied"
	}
	if e.Role != "" {
		return "permission denied: " + e.Permission + " for role " + string(e.Role)
	}
	return "permission denied: " + e.Permission
}

func (e Error) Unwrap() error {
	return ErrPermissionDenied
}

// Join builds a permission token from resource and action.
func Join(resource string, action domain.Action) string {
	res := normalizeToken(resource)
	act := normalizeToken(string(action))
	if res == "" || act == "" {
		return ""
	}
	return res + ":" + act
}

// ActionPermission returns the token guarding a workflow action.
func ActionPermission(action domain.Action) string {
	return Join(ResourceWorkflow, action)
}

type Checker interface {
	Allowed(permission string) bool
}

type CheckerFunc func(permission string) bool

func (fn CheckerFunc) Allowed(permission string) bool {
	return fn(permission)
}

type Set map[string]struct{}

func NewSet(perms ...string) Set {
	set := Set{}
	for _, perm := range perms {
		normalized := normalizePermission(perm)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}

func (s Set) Allowed(permission string) bool {
	if len(s) == 0 {
		return false
	}
	normalized := normalizePermission(permission)
	if normalized == "" {
		return false
	}
	if _, ok := s[normalized]; ok {
		return true
	}
	resource, _, _ := strings.Cut(normalized, ":")
	if resource != "" {
		if _, ok := s[resource+":*"]; ok {
			return true
		}
	}
	_, ok := s["*"]
	return ok
}

// List returns the tokens held by the set in no particular order.
func (s Set) List() []string {
	out := make([]string, 0, len(s))
	for perm := range s {
		out = append(out, perm)
	}
	return out
}

func normalizePermission(permission string) string {
	trimmed := strings.TrimSpace(permission)
	if trimmed == "" {
		return ""
	}
	return strings.ToLower(trimmed)
}

func normalizeToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
