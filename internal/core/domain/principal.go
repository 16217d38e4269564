package domain

// Principal models the authenticated actor of one role domain.
type Principal struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	FirstName   string   `json:"firstName,omitempty"`
	LastName    string   `json:"lastName,omitempty"`
	Email       string   `json:"email,omitempty"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
	Avatar      string   `json:"avatar,omitempty"`
	Phone       string   `json:"phone,omitempty"`
}

// HasPermissions reports whether every permission in perms is granted.
func (p *Principal) HasPermissions(perms ...string) bool {
	if p == nil {
		return false
	}
	granted := make(map[string]struct{}, len(p.Permissions))
	for _, perm := range p.Permissions {
		granted[perm] = struct{}{}
	}
	for _, perm := range perms {
		if _, ok := granted[perm]; !ok {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers never share the permission slice.
func (p *Principal) Clone() *Principal {
	if p == nil {
		return nil
	}
	c := *p
	if p.Permissions != nil {
		c.Permissions = append([]string(nil), p.Permissions...)
	}
	return &c
}

// ProfileUpdate carries the only fields a principal may change about itself.
// Nil fields are left untouched by the backend.
type ProfileUpdate struct {
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,max=64"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,max=64"`
	Name      *string `json:"name,omitempty" validate:"omitempty,max=128"`
	Avatar    *string `json:"avatar,omitempty" validate:"omitempty,url"`
}

// Empty reports whether the update carries no field at all.
func (u ProfileUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Name == nil && u.Avatar == nil
}
