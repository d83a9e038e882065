package registry

import (
	"fmt"
	"strings"
	"time"

	"interview-workers/internal/common/validation"

	"github.com/xeipuuv/gojsonschema"
)

var implementationStatuses = map[string]bool{
	"planned":     true,
	"in-progress": true,
	"implemented": true,
	"completed":   true,
	"verified":    true,
}

// Validate reports every problem in the registry. A nil result means the
// registry is usable by the workers.
func (r *ActivityRegistry) Validate() []error {
	var problems []error
	seenID := map[string]bool{}
	seenTask := map[string]bool{}

	for i := range r.Activities {
		a := &r.Activities[i]
		fail := func(format string, args ...interface{}) {
			problems = append(problems, fmt.Errorf("%s: %s", a.ID, fmt.Sprintf(format, args...)))
		}

		if err := validation.ValidateActivityNaming(a.ID); err != nil {
			fail("%v", err)
		}
		if seenID[a.ID] {
			fail("duplicate id")
		}
		seenID[a.ID] = true

		if strings.TrimSpace(a.TaskType) == "" {
			fail("taskType is required")
		} else if seenTask[a.TaskType] {
			fail("taskType %q registered twice", a.TaskType)
		}
		seenTask[a.TaskType] = true

		if !implementationStatuses[a.ImplementationStatus] {
			fail("unknown implementationStatus %q", a.ImplementationStatus)
		}
		if a.Timeout != "" {
			if d, err := time.ParseDuration(a.Timeout); err != nil || d <= 0 {
				fail("invalid timeout %q", a.Timeout)
			}
		}
		if a.Retries < 0 {
			fail("retries must not be negative")
		}
		for name, schema := range map[string]map[string]interface{}{"inputSchema": a.InputSchema, "outputSchema": a.OutputSchema} {
			if len(schema) == 0 {
				continue
			}
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema)); err != nil {
				fail("%s does not compile: %v", name, err)
			}
		}
	}
	return problems
}

// Update sets a single scalar field on the activity with the given id.
func (r *ActivityRegistry) Update(id, field, value string) error {
	var a *Activity
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			a = &r.Activities[i]
		}
	}
	if a == nil {
		return fmt.Errorf("activity %q not found", id)
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
	case "timeout":
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			return fmt.Errorf("invalid timeout %q", value)
		}
		a.Timeout = value
	case "retries":
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err != nil || n < 0 {
			return fmt.Errorf("invalid retries %q", value)
		}
		a.Retries = n
	default:
		return fmt.Errorf("field %q cannot be updated", field)
	}

	r.LastUpdated = time.Now().UTC().Format("2006-01-02")
	return nil
}
