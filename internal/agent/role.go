package agent

import (
	"fmt"
	"slices"
	"strings"
)

// Role identifies one member of the task force.
type Role string

const (
	RoleNewsAnalyst      Role = "news_analyst"
	RolePolicyReviewer   Role = "policy_reviewer"
	RoleInnovationsScout Role = "innovations_scout"
	RoleDataAnalyst      Role = "data_analyst"
)

// roleOrder is the fixed invocation and rendering order.
var roleOrder = []Role{
	RoleNewsAnalyst,
	RolePolicyReviewer,
	RoleInnovationsScout,
	RoleDataAnalyst,
}

var roleNames = map[Role]string{
	RoleNewsAnalyst:      "News Analyst",
	RolePolicyReviewer:   "Policy Reviewer",
	RoleInnovationsScout: "Innovations Scout",
	RoleDataAnalyst:      "Data Analyst",
}

var roleAliases = map[string]Role{
	"news":        RoleNewsAnalyst,
	"policy":      RolePolicyReviewer,
	"innovation":  RoleInnovationsScout,
	"innovations": RoleInnovationsScout,
	"data":        RoleDataAnalyst,
}

// Roles returns every role in fixed order.
func Roles() []Role {
	out := make([]Role, len(roleOrder))
	copy(out, roleOrder)
	return out
}

// DisplayName returns the human-readable role name.
func (r Role) DisplayName() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return string(r)
}

// Order returns the position of r in the fixed role order, or -1.
func (r Role) Order() int {
	for i, o := range roleOrder {
		if o == r {
			return i
		}
	}
	return -1
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r.Order() >= 0 }

// SourceTag returns the tag stamped on findings produced by r.
// The data role produces trends, not findings, and has no tag.
func (r Role) SourceTag() SourceTag {
	switch r {
	case RoleNewsAnalyst:
		return TagNews
	case RolePolicyReviewer:
		return TagPolicy
	case RoleInnovationsScout:
		return TagInnovation
	}
	return ""
}

// ParseRole accepts a role id, display name or short alias, case-insensitively.
func ParseRole(s string) (Role, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, r := range roleOrder {
		if key == string(r) || key == strings.ToLower(r.DisplayName()) {
			return r, nil
		}
	}
	if r, ok := roleAliases[key]; ok {
		return r, nil
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

// ParseRoles parses a list of role names, rejecting unknown ones.
func ParseRoles(names []string) (RoleSet, error) {
	set := NewRoleSet()
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		r, err := ParseRole(n)
		if err != nil {
			return nil, err
		}
		set.Add(r)
	}
	return set, nil
}

// RoleSet is an unordered set of roles.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s.Add(r)
	}
	return s
}

// AllRoles returns a set containing every role.
func AllRoles() RoleSet { return NewRoleSet(roleOrder...) }

func (s RoleSet) Add(r Role) { s[r] = struct{}{} }

func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// Ordered returns the members in fixed role order. Unknown roles sort last
// by name so the result stays deterministic.
func (s RoleSet) Ordered() []Role {
	out := make([]Role, 0, len(s))
	for _, r := range roleOrder {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	var unknown []Role
	for r := range s {
		if !r.Valid() {
			unknown = append(unknown, r)
		}
	}
	slices.Sort(unknown)
	return append(out, unknown...)
}
