package gatekeeper

import (
	"slices"
	"strings"

	"github.com/jpilocastillo/m8bizz-sub004/internal/config"
)

type RoleRule struct {
	Prefix    string
	Role      string
	LoginPath string
}

// Rules is the static routing table. Build it once and pass it by value.
type Rules struct {
	LoginPath      string
	HomePath       string
	PublicPaths    []string
	PublicPrefixes []string
	RoleRules      []RoleRule
}

func RulesFromAccess(access config.Access) Rules {
	rules := Rules{
		LoginPath:      access.LoginPath,
		HomePath:       access.HomePath,
		PublicPaths:    slices.Clone(access.PublicPaths),
		PublicPrefixes: slices.Clone(access.PublicPrefixes),
	}
	for _, r := range access.RoleRules {
		rules.RoleRules = append(rules.RoleRules, RoleRule{Prefix: r.Prefix, Role: r.Role, LoginPath: r.LoginPath})
	}
	return rules
}

func (r Rules) isPublic(path string) bool {
	if slices.Contains(r.PublicPaths, path) {
		return true
	}
	return slices.ContainsFunc(r.PublicPrefixes, func(prefix string) bool {
		return strings.HasPrefix(path, prefix)
	})
}

// roleRuleFor returns the first rule whose prefix covers path.
func (r Rules) roleRuleFor(path string) (RoleRule, bool) {
	for _, rule := range r.RoleRules {
		prefix := strings.TrimRight(rule.Prefix, "/")
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return rule, true
		}
	}
	return RoleRule{}, false
}

func cleanPath(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}

// LoginPathFor returns the login page a visitor to path is sent to.
func (r Rules) LoginPathFor(path string) string {
	if rule, ok := r.roleRuleFor(cleanPath(path)); ok {
		return rule.LoginPath
	}
	return r.LoginPath
}
