package domain

import (
	"fmt"
	"time"
)

// Resource is a person who can be allocated to tasks.
type Resource struct {
	ID        string
	Name      string
	Role      ResourceRole
	ManagerID *string
	CreatedAt time.Time
}

func (r *Resource) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("resource name is required")
	}
	if !ValidResourceRoles[string(r.Role)] {
		return fmt.Errorf("resource %q: invalid role %q", r.Name, r.Role)
	}
	return nil
}
