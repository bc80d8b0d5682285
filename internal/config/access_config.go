package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RoleRule restricts a path prefix to users whose profile carries Role.
type RoleRule struct {
	Prefix    string `yaml:"prefix"`
	Role      string `yaml:"role"`
	LoginPath string `yaml:"login_path"`
}

type NavItem struct {
	Title string `yaml:"title" json:"title"`
	Path  string `yaml:"path" json:"path"`
}

// Access is the static route and entitlement data. It is loaded once at
// start-up and handed to the gatekeeper and the entitlement filter by value.
type Access struct {
	LoginPath      string     `yaml:"login_path"`
	HomePath       string     `yaml:"home_path"`
	PublicPaths    []string   `yaml:"public_paths"`
	PublicPrefixes []string   `yaml:"public_prefixes"`
	RoleRules      []RoleRule `yaml:"role_rules"`

	AlwaysVisible    []string  `yaml:"always_visible"`
	PrivilegedEmails []string  `yaml:"privileged_emails"`
	AllowList        []string  `yaml:"allow_list"`
	Navigation       []NavItem `yaml:"navigation"`
}

func DefaultAccess() Access {
	return Access{
		LoginPath: "/login",
		HomePath:  "/",
		PublicPaths: []string{
			"/landing",
			"/admin/login",
			"/forgot-password",
			"/reset-password",
			"/healthz",
			"/metrics",
		},
		PublicPrefixes: []string{"/auth/", "/static/", "/_next/"},
		RoleRules: []RoleRule{
			{Prefix: "/admin", Role: "admin", LoginPath: "/admin/login"},
		},
		AlwaysVisible:    []string{"/login", "/forgot-password", "/reset-password"},
		PrivilegedEmails: []string{"mike@theterriogroup.com"},
		AllowList: []string{
			"/business-dashboard",
			"/tools/behavior-scorecard",
			"/tools/client-plans",
			"/tools/marketing-events",
			"/profile",
			"/settings",
		},
		Navigation: []NavItem{
			{Title: "Business Dashboard", Path: "/business-dashboard"},
			{Title: "Goals", Path: "/business-dashboard/goals"},
			{Title: "Events", Path: "/tools/marketing-events"},
			{Title: "Behavior Scorecard", Path: "/tools/behavior-scorecard"},
			{Title: "Missing Money", Path: "/tools/missing-money"},
			{Title: "Homework", Path: "/tools/homework"},
			{Title: "Profile", Path: "/profile"},
		},
	}
}

// LoadAccess reads access rules from a YAML file. Sections left out of the
// file keep their default values.
func LoadAccess(path string) (Access, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Access{}, fmt.Errorf("[config LoadAccess] failed to read %s: %w", path, err)
	}
	return ParseAccess(data)
}

func ParseAccess(data []byte) (Access, error) {
	access := DefaultAccess()
	var override Access
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Access{}, fmt.Errorf("[config ParseAccess] invalid access file: %w", err)
	}

	if override.LoginPath != "" {
		access.LoginPath = override.LoginPath
	}
	if override.HomePath != "" {
		access.HomePath = override.HomePath
	}
	if override.PublicPaths != nil {
		access.PublicPaths = override.PublicPaths
	}
	if override.PublicPrefixes != nil {
		access.PublicPrefixes = override.PublicPrefixes
	}
	if override.RoleRules != nil {
		access.RoleRules = override.RoleRules
	}
	if override.AlwaysVisible != nil {
		access.AlwaysVisible = override.AlwaysVisible
	}
	if override.PrivilegedEmails != nil {
		access.PrivilegedEmails = override.PrivilegedEmails
	}
	if override.AllowList != nil {
		access.AllowList = override.AllowList
	}
	if override.Navigation != nil {
		access.Navigation = override.Navigation
	}

	for _, rule := range access.RoleRules {
		if rule.Prefix == "" || rule.Role == "" || rule.LoginPath == "" {
			return Access{}, fmt.Errorf("[config ParseAccess] role rule %q needs prefix, role and login_path", rule.Prefix)
		}
	}
	return access, nil
}
