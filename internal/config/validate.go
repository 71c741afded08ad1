package config

import (
	"fmt"
	"strings"
	"time"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single lint finding. Path is a dotted path into the config,
// e.g. "storage.db.dsn" or "transform[0].options.timezone".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static checks over p without touching the
// filesystem or the database.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; logs and metrics will use the default job name",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateTransforms(p.Transform)...)
	issues = append(issues, validateStorage(p.Storage)...)

	return issues
}

func validateSource(s Source) []Issue {
	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			return []Issue{{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "an input file path is required",
			}}
		}
		return nil
	case "":
		return []Issue{{Severity: SeverityError, Path: "source.kind", Message: "source.kind must not be empty"}}
	default:
		return []Issue{{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unsupported source kind %q; only \"file\" is available", s.Kind),
		}}
	}
}

func validateParser(p Parser) []Issue {
	var issues []Issue

	if p.Kind != "csv" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unsupported parser kind %q; only \"csv\" is available", p.Kind),
		})
		return issues
	}
	if v, ok := p.Options["comma"]; ok {
		s, isStr := v.(string)
		if !isStr || len([]rune(s)) != 1 || s == "\n" || s == "\r" || s == "\"" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser.options.comma",
				Message:  fmt.Sprintf("comma must be a single delimiter character, got %v", v),
			})
		}
	}
	return issues
}

func validateTransforms(ts []Transform) []Issue {
	var issues []Issue

	validates := 0
	for i, t := range ts {
		path := fmt.Sprintf("transform[%d]", i)
		switch t.Kind {
		case "validate":
			validates++
			if tz := t.Options.String("timezone", ""); tz != "" {
				if _, err := time.LoadLocation(tz); err != nil {
					issues = append(issues, Issue{
						Severity: SeverityError,
						Path:     path + ".options.timezone",
						Message:  fmt.Sprintf("unknown timezone %q: %v", tz, err),
					})
				}
			}
			if layout := t.Options.String("timestamp_layout", ""); layout != "" {
				if !strings.Contains(layout, "2006") {
					issues = append(issues, Issue{
						Severity: SeverityWarning,
						Path:     path + ".options.timestamp_layout",
						Message:  fmt.Sprintf("layout %q has no year component; check it is a Go reference layout", layout),
					})
				}
			}
		case "":
			issues = append(issues, Issue{Severity: SeverityError, Path: path + ".kind", Message: "transform kind must not be empty"})
		default:
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".kind",
				Message:  fmt.Sprintf("unknown transform kind %q is ignored", t.Kind),
			})
		}
	}
	if validates > 1 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "transform",
			Message:  "more than one validate transform; only the first is used",
		})
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	known := map[string]struct{}{
		"sqlite":   {},
		"postgres": {},
		"mssql":    {},
		"mysql":    {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unsupported storage kind %q", s.Kind),
		})
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage.db.dsn must not be empty",
		})
	}
	if strings.TrimSpace(s.DB.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.table",
			Message:  "storage.db.table must not be empty",
		})
	}
	return issues
}
