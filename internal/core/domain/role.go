package domain

import "encoding/json"

// Role describes what a user may do. Backend records carry it in two shapes:
// a bare string ("admin") or an object with an explicit allow-list of
// application routes. Both are accepted; a bare string keeps Routes nil,
// which downstream access checks treat as "no allow-list present".
type Role struct {
	ID     string   `json:"id,omitempty"`
	Name   string   `json:"name,omitempty"`
	Routes []string `json:"routes,omitempty"`
}

// HasAllowList reports whether the role carries an explicit route allow-list.
func (r *Role) HasAllowList() bool {
	return r != nil && r.Routes != nil
}

// Allows reports membership of routeID in the allow-list.
// Only meaningful when HasAllowList is true.
func (r *Role) Allows(routeID string) bool {
	if !r.HasAllowList() {
		return false
	}
	for _, allowed := range r.Routes {
		if allowed == routeID {
			return true
		}
	}
	return false
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = Role{Name: s}
		return nil
	}

	type roleObject Role
	var obj roleObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*r = Role(obj)
	return nil
}
