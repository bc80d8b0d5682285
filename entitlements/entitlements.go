// Package entitlements decides which features a user gets to see. It is a
// display concern only; request enforcement belongs to the gatekeeper.
package entitlements

import (
	"slices"
	"strings"

	"github.com/jpilocastillo/m8bizz-sub004/internal/config"
)

// Config is the static entitlement data.
type Config struct {
	AlwaysVisible    []string // Auth-adjacent pages everyone sees
	PrivilegedEmails []string // Exact addresses that see every path
	AllowList        []string // Feature path prefixes visible to everyone else
}

func FromAccess(access config.Access) Config {
	return Config{
		AlwaysVisible:    access.AlwaysVisible,
		PrivilegedEmails: access.PrivilegedEmails,
		AllowList:        access.AllowList,
	}
}

// Filter is immutable once built and safe to share.
type Filter struct {
	alwaysVisible []string
	allowList     []string
	privileged    map[string]struct{}
}

func New(cfg Config) Filter {
	privileged := make(map[string]struct{}, len(cfg.PrivilegedEmails))
	for _, email := range cfg.PrivilegedEmails {
		privileged[normaliseEmail(email)] = struct{}{}
	}
	return Filter{
		alwaysVisible: normalisePaths(cfg.AlwaysVisible),
		allowList:     normalisePaths(cfg.AllowList),
		privileged:    privileged,
	}
}

// IsVisible reports whether path should be rendered for the user with the
// given email. An empty email means nobody is signed in.
func (f Filter) IsVisible(path, email string) bool {
	path = normalisePath(path)
	if matchesAny(path, f.alwaysVisible) {
		return true
	}
	if f.IsPrivileged(email) {
		return true
	}
	return matchesAny(path, f.allowList)
}

// IsPrivileged reports whether email bypasses all filtering.
func (f Filter) IsPrivileged(email string) bool {
	email = normaliseEmail(email)
	if email == "" {
		return false
	}
	_, ok := f.privileged[email]
	return ok
}

// Visible keeps the navigation items the user may see, preserving order.
func (f Filter) Visible(items []config.NavItem, email string) []config.NavItem {
	visible := make([]config.NavItem, 0, len(items))
	for _, item := range items {
		if f.IsVisible(item.Path, email) {
			visible = append(visible, item)
		}
	}
	return visible
}

// matchesAny is true when path equals an entry or sits below it as a
// "/"-delimited descendant.
func matchesAny(path string, entries []string) bool {
	return slices.ContainsFunc(entries, func(entry string) bool {
		return path == entry || strings.HasPrefix(path, entry+"/")
	})
}

func normalisePaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = normalisePath(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalisePath(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
