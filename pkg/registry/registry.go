package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"showroom-workers/internal/common/validation"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Save writes the registry back with a fresh lastUpdated stamp.
func (r *ActivityRegistry) Save(path string) error {
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Find looks an activity up by task type.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// Missing returns the task types that have no registry entry, sorted.
func (r *ActivityRegistry) Missing(taskTypes []string) []string {
	var missing []string
	for _, tt := range taskTypes {
		if _, ok := r.Find(tt); !ok {
			missing = append(missing, tt)
		}
	}
	sort.Strings(missing)
	return missing
}

// Validate reports every structural problem in the registry at once.
func (r *ActivityRegistry) Validate() error {
	var problems []string
	ids := map[string]bool{}
	taskTypes := map[string]bool{}

	for i, a := range r.Activities {
		where := fmt.Sprintf("activities[%d]", i)
		if a.ID != "" {
			where = a.ID
		}

		if err := validation.ValidateActivityNaming(a.ID); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", where, err))
		}
		if ids[a.ID] {
			problems = append(problems, fmt.Sprintf("%s: duplicate id", where))
		}
		ids[a.ID] = true

		if a.TaskType == "" {
			problems = append(problems, fmt.Sprintf("%s: taskType is required", where))
		} else if taskTypes[a.TaskType] {
			problems = append(problems, fmt.Sprintf("%s: duplicate taskType %q", where, a.TaskType))
		}
		taskTypes[a.TaskType] = true

		if strings.TrimSpace(a.DisplayName) == "" || strings.TrimSpace(a.Category) == "" {
			problems = append(problems, fmt.Sprintf("%s: displayName and category are required", where))
		}
		if !implementationStatuses[a.ImplementationStatus] {
			problems = append(problems, fmt.Sprintf("%s: unknown implementationStatus %q", where, a.ImplementationStatus))
		}
		if _, err := a.TimeoutDuration(); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", where, err))
		}
		if a.Retries < 0 {
			problems = append(problems, fmt.Sprintf("%s: retries must not be negative", where))
		}
		if _, err := validation.Compile(a.InputSchema); err != nil {
			problems = append(problems, fmt.Sprintf("%s: inputSchema: %v", where, err))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("registry has %d problem(s):\n  %s", len(problems), strings.Join(problems, "\n  "))
	}
	return nil
}

// TimeoutDuration parses Timeout; an empty value means no timeout is declared.
func (a Activity) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("timeout %q: %w", a.Timeout, err)
	}
	return d, nil
}

// Add appends a new activity; ids must be unique.
func (r *ActivityRegistry) Add(a Activity) error {
	for _, existing := range r.Activities {
		if existing.ID == a.ID {
			return fmt.Errorf("activity with ID %s already exists", a.ID)
		}
	}
	r.Activities = append(r.Activities, a)
	return nil
}

// SetField updates one scalar field of the activity with the given id.
func (r *ActivityRegistry) SetField(id, field, value string) error {
	var a *Activity
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			a = &r.Activities[i]
			break
		}
	}
	if a == nil {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	switch field {
	case "status", "implementationStatus":
		if !implementationStatuses[value] {
			return fmt.Errorf("unknown implementationStatus %q", value)
		}
		a.ImplementationStatus = value
	case "version":
		a.Version = value
	case "displayName":
		a.DisplayName = value
	case "description":
		a.Description = value
	case "category":
		a.Category = value
	case "taskType":
		a.TaskType = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		a.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil || retries < 0 {
			return fmt.Errorf("invalid retries value %q", value)
		}
		a.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}
	return nil
}
