package importer

import (
	"encoding/json"
	"fmt"
	"os"
)

// ImportSchema is the JSON project file accepted by `gantry project import`.
// Records refer to each other by file-local refs, replaced by UUIDs on import.
type ImportSchema struct {
	Project      ProjectImport       `json:"project"`
	Resources    []ResourceImport    `json:"resources,omitempty"`
	Tasks        []TaskImport        `json:"tasks"`
	Predecessors []PredecessorImport `json:"predecessors,omitempty"`
	Allocations  []AllocationImport  `json:"allocations,omitempty"`
}

type ProjectImport struct {
	ShortID   string  `json:"short_id"`
	Name      string  `json:"name"`
	StartDate *string `json:"start_date,omitempty"`
}

type ResourceImport struct {
	Ref        string  `json:"ref"`
	Name       string  `json:"name"`
	Role       string  `json:"role,omitempty"`
	ManagerRef *string `json:"manager_ref,omitempty"`
}

// TaskImport is one task. Duration may be given in minutes or in working
// days; minutes win when both are present.
type TaskImport struct {
	Ref             string   `json:"ref"`
	ParentRef       *string  `json:"parent_ref,omitempty"`
	Name            string   `json:"name"`
	DurationMin     *int     `json:"duration_min,omitempty"`
	DurationDays    *float64 `json:"duration_days,omitempty"`
	StartDate       *string  `json:"start_date,omitempty"`
	EndDate         *string  `json:"end_date,omitempty"`
	Progress        *int     `json:"progress,omitempty"`
	Order           int      `json:"order"`
	MarginStartDays int      `json:"margin_start_days,omitempty"`
	MarginEndDays   int      `json:"margin_end_days,omitempty"`
}

type PredecessorImport struct {
	TaskRef        string `json:"task_ref"`
	PredecessorRef string `json:"predecessor_ref"`
	Type           string `json:"type,omitempty"`
	LagDays        int    `json:"lag_days,omitempty"`
}

type AllocationImport struct {
	TaskRef      string `json:"task_ref"`
	ResourceRef  string `json:"resource_ref"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	AllocatedMin *int   `json:"allocated_min,omitempty"`
}

// LoadImportSchema reads and parses a project import file.
func LoadImportSchema(path string) (*ImportSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseImportSchema(data)
}

func ParseImportSchema(data []byte) (*ImportSchema, error) {
	var schema ImportSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}
