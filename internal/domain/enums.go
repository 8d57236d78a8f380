package domain

type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectArchived ProjectStatus = "archived"
)

// LinkType is the relation between a predecessor and its dependent task.
type LinkType string

const (
	LinkFinishToStart  LinkType = "FS"
	LinkStartToStart   LinkType = "SS"
	LinkFinishToFinish LinkType = "FF"
	LinkStartToFinish  LinkType = "SF"
)

// IsValid reports whether t is one of the four relation types.
func (t LinkType) IsValid() bool {
	switch t {
	case LinkFinishToStart, LinkStartToStart, LinkFinishToFinish, LinkStartToFinish:
		return true
	default:
		return false
	}
}

// Label returns the long, human-readable relation name.
func (t LinkType) Label() string {
	switch t {
	case LinkFinishToStart:
		return "finish-to-start"
	case LinkStartToStart:
		return "start-to-start"
	case LinkFinishToFinish:
		return "finish-to-finish"
	case LinkStartToFinish:
		return "start-to-finish"
	default:
		return string(t)
	}
}

// ParseLinkType accepts either the short code (FS) or the long name
// (finish-to-start), case-insensitively. Empty input means finish-to-start.
func ParseLinkType(s string) (LinkType, bool) {
	switch normalizeToken(s) {
	case "", "fs", "finish-to-start", "finishtostart":
		return LinkFinishToStart, true
	case "ss", "start-to-start", "starttostart":
		return LinkStartToStart, true
	case "ff", "finish-to-finish", "finishtofinish":
		return LinkFinishToFinish, true
	case "sf", "start-to-finish", "starttofinish":
		return LinkStartToFinish, true
	default:
		return "", false
	}
}

// ResourceRole is a resource's position in the team hierarchy.
type ResourceRole string

const (
	RoleManager  ResourceRole = "manager"
	RoleLeader   ResourceRole = "leader"
	RoleOperator ResourceRole = "operator"
)

// ValidResourceRoles is the canonical set of accepted role strings.
var ValidResourceRoles = map[string]bool{
	"manager": true, "leader": true, "operator": true,
}
