package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Short IDs look like SITE01 or BUILD0234.
var shortIDPattern = regexp.MustCompile(`^[A-Z]{3,6}[0-9]{2,4}$`)

type Project struct {
	ID      string
	ShortID string
	Name    string
	// StartDate anchors leaf tasks that have no stored start. Nil means the
	// scheduler falls back to today and flags the affected tasks.
	StartDate *time.Time
	Status    ProjectStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Project) ValidateShortID() error {
	switch {
	case p.ShortID == "":
		return fmt.Errorf("short ID is required (use --id flag)")
	case !shortIDPattern.MatchString(p.ShortID):
		return fmt.Errorf("short ID %q must be 3-6 uppercase letters followed by 2-4 digits (e.g. SITE01)", p.ShortID)
	}
	return nil
}

// Validate checks the fields a project needs before it is stored.
func (p *Project) Validate() error {
	if err := p.ValidateShortID(); err != nil {
		return err
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("project name is required")
	}
	return nil
}

func (p *Project) IsArchived() bool { return p.Status == ProjectArchived }

// DisplayID prefers the short ID and falls back to the first 8 characters
// of the UUID.
func (p *Project) DisplayID() string {
	if p.ShortID != "" {
		return p.ShortID
	}
	if len(p.ID) > 8 {
		return p.ID[:8]
	}
	return p.ID
}
