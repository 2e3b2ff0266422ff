package schema

import "fmt"

// ChangeKind classifies one entry of a reconciliation report.
type ChangeKind int

// Change kinds.
const (
	ChangeTableCreated ChangeKind = iota + 1
	ChangeColumnAdded
	ChangeUnknownFieldType
)

// Change is one structural change or diagnostic produced by reconciliation.
type Change struct {
	Kind        ChangeKind
	Table       string
	Column      string
	ContentType string
	FieldType   string
}

// String renders the change for an operator-facing report.
func (c Change) String() string {
	switch c.Kind {
	case ChangeTableCreated:
		return fmt.Sprintf("Created table `%s`.", c.Table)
	case ChangeColumnAdded:
		return fmt.Sprintf("Added column `%s` to table `%s`.", c.Column, c.Table)
	case ChangeUnknownFieldType:
		return fmt.Sprintf("Field `%s` of content type `%s` has unknown type `%s`; no column added.",
			c.Column, c.ContentType, c.FieldType)
	default:
		return fmt.Sprintf("unknown change %d", c.Kind)
	}
}

// Diagnostic reports whether the change is a diagnostic rather than a
// structural change.
func (c Change) Diagnostic() bool {
	return c.Kind == ChangeUnknownFieldType
}

// Report is the ordered change log of one reconciliation run.
type Report []Change

// Structural returns the table and column changes of the report.
func (r Report) Structural() Report {
	var out Report
	for _, c := range r {
		if !c.Diagnostic() {
			out = append(out, c)
		}
	}
	return out
}

// Diagnostics returns the diagnostic entries of the report.
func (r Report) Diagnostics() Report {
	var out Report
	for _, c := range r {
		if c.Diagnostic() {
			out = append(out, c)
		}
	}
	return out
}

// Lines renders every entry in order.
func (r Report) Lines() []string {
	lines := make([]string, len(r))
	for i, c := range r {
		lines[i] = c.String()
	}
	return lines
}
