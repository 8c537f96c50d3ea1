package cli

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Job is one parsed query job file.
type Job struct {
	Table     TableSpec      `yaml:"table"`
	Select    []string       `yaml:"select"`
	Derive    []DeriveSpec   `yaml:"derive"`
	Filter    []string       `yaml:"filter"`
	Aggregate *AggregateSpec `yaml:"aggregate"`
	OrderBy   []OrderSpec    `yaml:"order_by"`
}

// TableSpec names the base table and optionally declares its schema.
type TableSpec struct {
	Name    string       `yaml:"name"`
	Columns []ColumnSpec `yaml:"columns"`
}

// ColumnSpec declares one base table column.
type ColumnSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// DeriveSpec applies one named operator, producing a new column.
type DeriveSpec struct {
	ID          string `yaml:"id"`
	Op          string `yaml:"op"`
	Column      string `yaml:"column"`
	Left        string `yaml:"left"`
	RightColumn string `yaml:"right_column"`
	RightValue  any    `yaml:"right_value"`
}

// AggregateSpec reduces one column, optionally grouped.
type AggregateSpec struct {
	Op      string   `yaml:"op"`
	Column  string   `yaml:"column"`
	As      string   `yaml:"as"`
	GroupBy []string `yaml:"group_by"`
}

// OrderSpec is one output sort key.
type OrderSpec struct {
	Column string `yaml:"column"`
	Desc   bool   `yaml:"desc"`
}

// LoadError is a job file problem, carrying the CLI error code.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeNotFound     = "E002" // Job file not found
	ErrCodeBadYAML      = "E003" // YAML parse failure
	ErrCodeSchema       = "E004" // Schema validation failure
	ErrCodeBadOp        = "E005" // Unknown operator name
	ErrCodePlanFailed   = "E006" // Query planning failure
	ErrCodeQueryFailed  = "E007" // Query execution failure
	ErrCodeNoSchema     = "E008" // Compile without declared table schema
	ErrCodeBadType      = "E009" // Unknown declared column type
	ErrCodeBadLiteral   = "E010" // Literal not representable as a scalar
	ErrCodeWriteFailed  = "E011" // Output write error
	ErrCodeOpenDatabase = "E012" // Database open failure
)

// LoadJob reads a YAML job file and validates it against the embedded CUE
// schema before decoding it into a Job.
func LoadJob(path string) (*Job, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("job file not found: %s", path)}
		}
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error reading job file: %v", err)}
	}

	// Decode once into a generic tree for schema validation, once into the
	// typed Job.
	var generic map[string]any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, &LoadError{Code: ErrCodeBadYAML, Message: fmt.Sprintf("parsing job file: %v", err)}
	}
	if err := validateJob(generic); err != nil {
		return nil, err
	}

	var job Job
	if err := yaml.Unmarshal(raw, &job); err != nil {
		return nil, &LoadError{Code: ErrCodeBadYAML, Message: fmt.Sprintf("decoding job file: %v", err)}
	}
	return &job, nil
}

// validateJob unifies the job document with the #Job schema definition.
func validateJob(doc map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("compiling job schema: %v", err)}
	}
	jobSchema := schema.LookupPath(cue.ParsePath("#Job"))
	if !jobSchema.Exists() {
		return &LoadError{Code: ErrCodeGeneric, Message: "job schema has no #Job definition"}
	}

	value := ctx.Encode(doc)
	if err := value.Err(); err != nil {
		return &LoadError{Code: ErrCodeSchema, Message: fmt.Sprintf("encoding job document: %v", err)}
	}
	unified := jobSchema.Unify(value)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return &LoadError{Code: ErrCodeSchema, Message: fmt.Sprintf("job file does not match schema: %v", err)}
	}
	return nil
}
