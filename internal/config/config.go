// Package config defines the JSON-serializable configuration model for the
// trips loader. A pipeline file is optional: Default builds the zero-config
// pipeline used when the binary is invoked with just an input path, and
// command-line flags override individual fields on top of either.
//
// Example:
//
//	{
//	  "job":       "indego_trips",
//	  "source":    { "kind": "file", "file": { "path": "indego-trips-2021-q2.csv" } },
//	  "parser":    { "kind": "csv", "options": { "comma": "," } },
//	  "transform": [
//	    { "kind": "validate", "options": { "timestamp_layout": "1/2/2006 15:04", "timezone": "UTC" } }
//	  ],
//	  "storage":   { "kind": "sqlite", "db": { "dsn": "trips.db", "table": "trips" } }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	// DefaultDSN is the SQLite database file written when nothing else is
	// configured.
	DefaultDSN = "trips.db"
	// DefaultTable is the destination table.
	DefaultTable = "trips"
	// DefaultJob labels logs and metrics.
	DefaultJob = "trips_etl"
)

// Pipeline is the top-level configuration object.
type Pipeline struct {
	// Job names the run for logging and metrics grouping.
	Job string `json:"job"`

	Source    Source      `json:"source"`
	Parser    Parser      `json:"parser"`
	Transform []Transform `json:"transform"`
	Storage   Storage     `json:"storage"`

	// RejectLog optionally names a CSV file that receives every dropped row.
	RejectLog string `json:"reject_log"`
}

// Source identifies the input. The only kind is "file".
type Source struct {
	Kind string     `json:"kind"`
	File SourceFile `json:"file"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path"`
}

// Parser selects how the raw bytes are split into rows. The only kind is
// "csv"; see parser/csv for the recognized options.
type Parser struct {
	Kind    string  `json:"kind"`
	Options Options `json:"options"`
}

// Transform is a single step applied to parsed rows. The "validate" kind
// configures the trip Validator via the "timestamp_layout" and "timezone"
// options.
type Transform struct {
	Kind    string  `json:"kind"`
	Options Options `json:"options"`
}

// Storage selects the destination store.
type Storage struct {
	// Kind is one of "sqlite", "postgres", "mssql", "mysql".
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig configures the destination database.
type DBConfig struct {
	// DSN is the driver connection string (a file path for sqlite).
	DSN string `json:"dsn"`

	// Table is the destination table, optionally schema-qualified.
	Table string `json:"table"`
}

// Default returns the pipeline used when no pipeline file is given: read
// path as CSV, validate with local time, and load into ./trips.db.
func Default(path string) Pipeline {
	return Pipeline{
		Job:    DefaultJob,
		Source: Source{Kind: "file", File: SourceFile{Path: path}},
		Parser: Parser{Kind: "csv", Options: Options{}},
		Transform: []Transform{
			{Kind: "validate", Options: Options{}},
		},
		Storage: Storage{Kind: "sqlite", DB: DBConfig{DSN: DefaultDSN, Table: DefaultTable}},
	}
}

// Load decodes a pipeline file. Fields the file leaves empty are filled from
// Default so that a partial file (for example just "storage") is usable.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var p Pipeline
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return p.withDefaults(), nil
}

func (p Pipeline) withDefaults() Pipeline {
	d := Default(p.Source.File.Path)
	if p.Job == "" {
		p.Job = d.Job
	}
	if p.Source.Kind == "" {
		p.Source.Kind = d.Source.Kind
	}
	if p.Parser.Kind == "" {
		p.Parser.Kind = d.Parser.Kind
	}
	if p.Parser.Options == nil {
		p.Parser.Options = Options{}
	}
	if len(p.Transform) == 0 {
		p.Transform = d.Transform
	}
	if p.Storage.Kind == "" {
		p.Storage.Kind = d.Storage.Kind
	}
	if p.Storage.DB.DSN == "" && p.Storage.Kind == "sqlite" {
		p.Storage.DB.DSN = d.Storage.DB.DSN
	}
	if p.Storage.DB.Table == "" {
		p.Storage.DB.Table = d.Storage.DB.Table
	}
	return p
}

// ValidateOptions returns the options of the first "validate" transform, or
// an empty Options when there is none. Later validate transforms are ignored
// even when the first carries no options.
func (p Pipeline) ValidateOptions() Options {
	for _, t := range p.Transform {
		if t.Kind != "validate" {
			continue
		}
		if t.Options == nil {
			return Options{}
		}
		return t.Options
	}
	return Options{}
}

// Options is a small helper to fetch typed values from arbitrary JSON maps.
// It performs only minimal type coercion and returns the provided default
// when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. encoding/json decodes numbers as
// float64, so both float64 and int are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns the string-valued entries of an object value. Missing
// keys and non-object values yield an empty map.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		switch m := v.(type) {
		case map[string]any:
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		case map[string]string:
			for k, s := range m {
				res[k] = s
			}
		}
	}
	return res
}

// UnmarshalJSON makes a missing or null "options" object decode to an empty,
// non-nil map.
func (o *Options) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
