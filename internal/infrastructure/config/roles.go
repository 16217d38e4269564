package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bazaar/storefront-gateway/internal/core/domain"
)

type rolesFile struct {
	Roles []domain.RoleDomain `yaml:"roles"`
}

// LoadRoles reads the role-domain table from a YAML file. An empty path
// returns the built-in table.
func LoadRoles(path string) ([]domain.RoleDomain, error) {
	if path == "" {
		return domain.DefaultRoleDomains(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roles file: %w", err)
	}
	return ParseRoles(raw)
}

// ParseRoles decodes a role table and checks that every entry is usable.
func ParseRoles(raw []byte) ([]domain.RoleDomain, error) {
	var f rolesFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse roles: %w", err)
	}
	if len(f.Roles) == 0 {
		return nil, fmt.Errorf("parse roles: no roles defined")
	}

	seen := make(map[string]struct{}, len(f.Roles))
	for i, r := range f.Roles {
		switch {
		case r.Name == "":
			return nil, fmt.Errorf("parse roles: entry %d has no name", i)
		case r.CookieName == "":
			return nil, fmt.Errorf("parse roles: role %q has no cookie", r.Name)
		case r.LoginRoute == "" || r.DashboardRoute == "":
			return nil, fmt.Errorf("parse roles: role %q needs login_route and dashboard_route", r.Name)
		}
		if _, dup := seen[r.Name]; dup {
			return nil, fmt.Errorf("parse roles: duplicate role %q", r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	return f.Roles, nil
}

// MarshalRoles renders a role table in the format LoadRoles reads.
func MarshalRoles(roles []domain.RoleDomain) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(rolesFile{Roles: roles}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
