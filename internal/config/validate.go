package config

import "fmt"

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// recognizedParsers is the set of valid parser names for checks.
var recognizedParsers = map[string]bool{
	"eslint":     true,
	"prettier":   true,
	"typescript": true,
	"vitest":     true,
	"generic":    true,
}

// recognizedProviders is the set of valid generation providers.
var recognizedProviders = map[string]bool{
	"gemini":   true,
	"fallback": true,
}

// Validate checks a Config for structural and semantic errors. It returns a
// slice of all validation errors found (empty if valid).
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError
	p := cfg.Pipeline

	if p.Name == "" {
		errs = append(errs, ValidationError{Field: "pipeline.name", Message: "is required"})
	}
	if len(p.Phases) == 0 {
		errs = append(errs, ValidationError{Field: "pipeline.phases", Message: "at least one phase is required"})
	}

	if !recognizedProviders[p.Generation.Provider] {
		errs = append(errs, ValidationError{
			Field:   "pipeline.generation.provider",
			Message: fmt.Sprintf("unrecognized provider %q", p.Generation.Provider),
		})
	}
	if p.Correction.MaxIterations < 0 {
		errs = append(errs, ValidationError{
			Field:   "pipeline.correction.max_iterations",
			Message: "must not be negative",
		})
	}

	// Phase IDs must be unique. Dependencies may only name earlier phases;
	// a forward or self reference can never be satisfied at run time.
	seen := make(map[string]bool)
	for i, ph := range p.Phases {
		prefix := fmt.Sprintf("pipeline.phases[%d]", i)

		if ph.ID == "" {
			errs = append(errs, ValidationError{Field: prefix + ".id", Message: "is required"})
			continue
		}
		if seen[ph.ID] {
			errs = append(errs, ValidationError{
				Field:   prefix + ".id",
				Message: fmt.Sprintf("duplicate phase ID %q", ph.ID),
			})
		}

		for _, dep := range ph.DependsOn {
			if dep == ph.ID {
				errs = append(errs, ValidationError{
					Field:   prefix + ".depends_on",
					Message: fmt.Sprintf("phase %q depends on itself", ph.ID),
				})
			} else if !seen[dep] {
				errs = append(errs, ValidationError{
					Field:   prefix + ".depends_on",
					Message: fmt.Sprintf("references phase %q which is not defined earlier", dep),
				})
			}
		}

		seen[ph.ID] = true
	}

	for _, checkName := range p.DefaultChecks {
		if _, ok := p.Checks[checkName]; !ok {
			errs = append(errs, ValidationError{
				Field:   "pipeline.default_checks",
				Message: fmt.Sprintf("references undefined check %q", checkName),
			})
		}
	}

	for i, ph := range p.Phases {
		for _, checkName := range ph.Checks {
			if _, ok := p.Checks[checkName]; !ok {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("pipeline.phases[%d].checks", i),
					Message: fmt.Sprintf("references undefined check %q", checkName),
				})
			}
		}
	}

	for name, check := range p.Checks {
		if check.Command == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("pipeline.checks.%s.command", name),
				Message: "is required",
			})
		}
		if check.Parser != "" && !recognizedParsers[check.Parser] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("pipeline.checks.%s.parser", name),
				Message: fmt.Sprintf("unrecognized parser %q", check.Parser),
			})
		}
	}

	return errs
}
