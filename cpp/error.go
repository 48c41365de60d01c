package cpp

import (
	"fmt"
	"strings"
)

// Diagnostic is a located error or warning message.
type Diagnostic struct {
	Msg string
	Pos FilePos
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s at %s", d.Msg, d.Pos)
}

// Diagnostics accumulates the errors and warnings of a session in the order
// they were found. Nothing in the pipeline stops on the first one.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
}

func (d *Diagnostics) Errorf(pos FilePos, format string, args ...interface{}) {
	d.Errors = append(d.Errors, Diagnostic{Msg: fmt.Sprintf(format, args...), Pos: pos})
}

func (d *Diagnostics) Warnf(pos FilePos, format string, args ...interface{}) {
	d.Warnings = append(d.Warnings, Diagnostic{Msg: fmt.Sprintf(format, args...), Pos: pos})
}

// Truncate drops diagnostics recorded after the given list lengths.
func (d *Diagnostics) Truncate(nerrs, nwarns int) {
	d.Errors = d.Errors[:nerrs]
	d.Warnings = d.Warnings[:nwarns]
}

func (d *Diagnostics) Merge(o *Diagnostics) {
	d.Errors = append(d.Errors, o.Errors...)
	d.Warnings = append(d.Warnings, o.Warnings...)
}

// Err returns the errors as an ErrorList, or nil if there are none.
func (d *Diagnostics) Err() error {
	if len(d.Errors) == 0 {
		return nil
	}
	return ErrorList(d.Errors)
}

type ErrorList []Diagnostic

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	var sb strings.Builder
	for i, d := range l {
		if i != 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(d.Error())
	}
	return sb.String()
}

// StopError is returned by the directive scan of a file that hit #error.
// Only that file stops, the caller records it and carries on.
type StopError struct {
	Msg string
	Pos FilePos
}

func (e *StopError) Error() string {
	return fmt.Sprintf("%s at %s", e.Msg, e.Pos)
}
