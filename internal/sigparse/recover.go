package sigparse

import "strings"

// recoveredParams is the fallback for signatures the primary grammar
// rejects. It locates the outermost parentheses loosely and hands the
// inside to the recovery scanner.
func recoveredParams(call string) ([]FuncParam, string, error) {
	lparen := strings.Index(call, "(")
	rparen := strings.LastIndex(call, ")")
	if lparen < 0 || rparen < lparen {
		return nil, "", &ParseError{Source: call, Reason: "failed to find params"}
	}
	params, err := recoverParams(call[lparen+1 : rparen])
	if err != nil {
		return nil, "", err
	}
	return params, call[:lparen], nil
}

// recoverParams tokenizes a parameter list character by character. It
// recognizes quoted spans as named string parameters, a single pair of
// square brackets as the optional region, bare identifier runs as untyped
// "any" parameters and a literal "..." as the varargs marker. Everything
// else separates tokens. Recovered parameters carry no declared type
// beyond "any" or "string".
func recoverParams(src string) ([]FuncParam, error) {
	var params []FuncParam
	optional := false
	opened := false
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '"':
			end := strings.IndexByte(src[i+1:], '"')
			if end < 0 {
				return nil, &ParseError{Source: src, Reason: "unterminated quote in parameter list"}
			}
			params = append(params, FuncParam{
				Type:     "string",
				Name:     SanitizeIdentifier(src[i+1 : i+1+end]),
				Optional: optional,
			})
			i += end + 2
		case c == '[':
			if opened {
				return nil, &ParseError{Source: src, Reason: "unexpected '[' in parameter list"}
			}
			opened = true
			optional = true
			i++
		case c == ']':
			if !optional {
				return nil, &ParseError{Source: src, Reason: "unexpected ']' in parameter list"}
			}
			optional = false
			i++
		case strings.HasPrefix(src[i:], "..."):
			params = append(params, FuncParam{IsVarargs: true})
			i += 3
		case isIdentByte(c):
			j := i + 1
			for j < len(src) && isIdentByte(src[j]) {
				j++
			}
			params = append(params, FuncParam{
				Type:     "any",
				Name:     SanitizeIdentifier(src[i:j]),
				Optional: optional,
			})
			i = j
		default:
			i++
		}
	}
	if optional {
		return nil, &ParseError{Source: src, Reason: "unterminated '[' in parameter list"}
	}
	return params, nil
}

func isIdentByte(c byte) bool {
	return c == '_' ||
		c >= '0' && c <= '9' ||
		c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z'
}
