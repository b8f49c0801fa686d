package sigparse

import (
	"regexp"
	"strings"
)

var paramListPattern = regexp.MustCompile(`\(([A-Za-z0-9 _.,\n]*)\)`)

// Parse converts one raw call-text string into a FunctionCall. When the
// primary grammar cannot make sense of the parameter list, the recovery
// scanner is tried before giving up. The returned warnings describe
// normalizations applied to accepted but invalid parameter lists; they
// belong in the caller's diagnostic log.
func Parse(text string) (*FunctionCall, []string, error) {
	parts := strings.Split(text, "=")
	if len(parts) > 2 {
		return nil, nil, &ParseError{Source: text, Reason: "malformed functioncall content"}
	}
	call := strings.TrimSpace(parts[len(parts)-1])
	hasAssign := len(parts) == 2

	params, prefix, err := primaryParams(call)
	if err != nil {
		params, prefix, err = recoveredParams(call)
		if err != nil {
			return nil, nil, &ParseError{Source: text, Reason: reasonOf(err)}
		}
	}

	params, varargs, warns, err := finalizeParams(text, params)
	if err != nil {
		return nil, nil, err
	}

	var retvals []RetVal
	var rawName string
	if hasAssign {
		rawName = strings.TrimSpace(prefix)
		for _, frag := range strings.Split(parts[0], ",") {
			rv, err := parseRetVal(frag)
			if err != nil {
				return nil, nil, &ParseError{Source: text, Reason: reasonOf(err)}
			}
			retvals = append(retvals, rv)
		}
	} else {
		// Without an assignment the text may still declare one return
		// value, written as <TYPE> <NAME>(<PARAMS>).
		fields := strings.Fields(prefix)
		switch len(fields) {
		case 1:
			rawName = fields[0]
		case 2:
			retvals = []RetVal{{Type: SanitizeIdentifier(fields[0])}}
			rawName = fields[1]
		default:
			return nil, nil, &ParseError{Source: text, Reason: "malformed functioncall signature"}
		}
	}

	dot := strings.LastIndex(rawName, ".")
	if dot < 0 {
		return nil, nil, &ParseError{Source: text, Reason: "failed to parse namespace"}
	}
	namespace, name := rawName[:dot], rawName[dot+1:]
	classMethod := false
	if strings.HasPrefix(namespace, "{") && strings.HasSuffix(namespace, "}") {
		namespace = namespace[1 : len(namespace)-1]
		classMethod = true
	}

	return &FunctionCall{
		Namespace:     namespace,
		Name:          SanitizeIdentifier(name),
		Params:        params,
		Retvals:       retvals,
		Varargs:       varargs,
		IsClassMethod: classMethod,
	}, warns, nil
}

// primaryParams locates the parenthesized parameter list with the strict
// grammar and parses each comma-separated fragment. It returns the parsed
// parameters and the call text preceding the list.
func primaryParams(call string) ([]FuncParam, string, error) {
	loc := paramListPattern.FindStringSubmatchIndex(call)
	if loc == nil {
		return nil, "", &ParseError{Source: call, Reason: "failed to find params"}
	}
	prefix := call[:loc[0]]
	inner := strings.TrimSpace(call[loc[2]:loc[3]])

	trailingVarargs := false
	if strings.HasSuffix(inner, "...") {
		inner = strings.Trim(strings.TrimSuffix(inner, "..."), ", ")
		trailingVarargs = true
	}

	var params []FuncParam
	if inner != "" {
		for _, frag := range strings.Split(inner, ",") {
			p, err := parseParam(frag)
			if err != nil {
				return nil, "", err
			}
			params = append(params, p)
		}
	}
	if trailingVarargs {
		params = append(params, FuncParam{IsVarargs: true})
	}
	return params, prefix, nil
}

// parseParam reduces one fragment like "optional ImGui_Context ctx" to a
// FuncParam. A bare "..." becomes a varargs marker entry.
func parseParam(text string) (FuncParam, error) {
	fields := strings.Fields(text)
	if len(fields) == 1 && fields[0] == "..." {
		return FuncParam{IsVarargs: true}, nil
	}
	optional := false
	if len(fields) > 0 && fields[0] == "optional" {
		optional = true
		fields = fields[1:]
	}
	switch {
	case len(fields) == 2:
		return FuncParam{
			Type:     SanitizeIdentifier(fields[0]),
			Name:     SanitizeIdentifier(fields[1]),
			Optional: optional,
		}, nil
	case len(fields) == 1 && bareType(fields[0]):
		return FuncParam{
			Type:     SanitizeIdentifier(fields[0]),
			Name:     SanitizeIdentifier(derivedName(fields[0])),
			Optional: optional,
		}, nil
	default:
		return FuncParam{}, &ParseError{Source: text, Reason: "malformed function parameter"}
	}
}

// parseRetVal reduces one fragment like "boolean retval" to a RetVal.
func parseRetVal(text string) (RetVal, error) {
	fields := strings.Fields(text)
	optional := false
	if len(fields) > 0 && fields[0] == "optional" {
		optional = true
		fields = fields[1:]
	}
	switch {
	case len(fields) == 2:
		return RetVal{
			Type:     SanitizeIdentifier(fields[0]),
			Name:     SanitizeIdentifier(fields[1]),
			Optional: optional,
		}, nil
	case len(fields) == 1 && bareType(fields[0]):
		return RetVal{
			Type:     SanitizeIdentifier(fields[0]),
			Name:     SanitizeIdentifier(derivedName(fields[0])),
			Optional: optional,
		}, nil
	default:
		return RetVal{}, &ParseError{Source: text, Reason: "malformed return value"}
	}
}

// finalizeParams applies the validation shared by the primary grammar and
// the recovery scanner: a varargs marker may only close the list, and once
// an optional parameter appears every later one must be optional too. The
// second rule is normalized rather than fatal, forcing the whole list
// required and reporting a warning.
func finalizeParams(source string, params []FuncParam) ([]FuncParam, bool, []string, error) {
	for i, p := range params {
		if p.IsVarargs && i != len(params)-1 {
			return nil, false, nil, &ParseError{Source: source, Reason: "varargs marker before end of parameter list"}
		}
	}
	varargs := false
	if n := len(params); n > 0 && params[n-1].IsVarargs {
		varargs = true
		params = params[:n-1]
	}

	var warns []string
	optionalSeen := false
	violated := false
	for _, p := range params {
		if p.Optional {
			optionalSeen = true
		} else if optionalSeen {
			violated = true
			break
		}
	}
	if violated {
		for i := range params {
			params[i].Optional = false
		}
		warns = append(warns, "optional parameter precedes a required parameter, forcing all parameters to required")
	}
	return params, varargs, warns, nil
}

// reasonOf unwraps the reason from a nested ParseError so the error
// returned to the caller always names the full signature as its source.
func reasonOf(err error) string {
	if pe, ok := err.(*ParseError); ok {
		return pe.Reason
	}
	return err.Error()
}
