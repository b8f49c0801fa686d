// Package sigparse turns the pseudo-signature text found in the ReaScript
// manual, e.g.
//
//	boolean retval = reaper.GetValue(MediaTrack tr, optional number v)
//
// into a structured FunctionCall. The primary grammar covers well-formed
// signatures; a best-effort recovery scanner handles the handful of entries
// (mostly in the gfx namespace) that use quoted or bracketed parameter
// lists.
package sigparse

import (
	"fmt"
	"strings"
)

// FunctionCall is the structured form of one API entry's signature.
type FunctionCall struct {
	Namespace     string
	Name          string
	Params        []FuncParam
	Retvals       []RetVal
	Varargs       bool
	IsClassMethod bool
}

// FuncParam is a single parameter of a signature. IsVarargs marks the
// literal "..." entry; it only ever survives inside the parser, a finished
// FunctionCall carries the Varargs flag instead.
type FuncParam struct {
	Type      string
	Name      string
	Optional  bool
	IsVarargs bool
}

// RetVal is a single return value of a signature. Name is empty for
// anonymous return values.
type RetVal struct {
	Type     string
	Name     string
	Optional bool
}

// ParseError reports a signature that could not be parsed. Source is the
// offending text and Reason explains why it was rejected.
type ParseError struct {
	Source string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %q", e.Reason, e.Source)
}

// String renders the call in canonical form, which parses back into an
// equal FunctionCall.
func (fc FunctionCall) String() string {
	frags := make([]string, 0, len(fc.Params)+1)
	for _, p := range fc.Params {
		frags = append(frags, p.String())
	}
	if fc.Varargs {
		frags = append(frags, "...")
	}
	ns := fc.Namespace
	if fc.IsClassMethod {
		ns = "{" + ns + "}"
	}
	call := fmt.Sprintf("%s.%s(%s)", ns, fc.Name, strings.Join(frags, ", "))
	if len(fc.Retvals) == 0 {
		return call
	}
	rets := make([]string, 0, len(fc.Retvals))
	for _, r := range fc.Retvals {
		rets = append(rets, r.String())
	}
	return fmt.Sprintf("%s = %s", strings.Join(rets, ", "), call)
}

func (p FuncParam) String() string {
	name := p.Name
	if name == "" {
		name = "_"
	}
	if p.Optional {
		return fmt.Sprintf("optional %s %s", p.Type, name)
	}
	return fmt.Sprintf("%s %s", p.Type, name)
}

func (r RetVal) String() string {
	name := r.Name
	if name == "" {
		name = "_"
	}
	if r.Optional {
		return fmt.Sprintf("optional %s %s", r.Type, name)
	}
	return fmt.Sprintf("%s %s", r.Type, name)
}
