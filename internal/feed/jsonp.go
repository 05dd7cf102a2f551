package feed

import "bytes"

// unwrapJSONP strips a `callback( ... );` wrapper when present and returns
// the inner JSON. Bodies that are already plain JSON pass through untouched.
// The unwrap is shape-based (identifier, '(', balanced ')'); it never fails —
// a body it cannot make sense of is returned as-is and left to the JSON
// decoder to reject.
func unwrapJSONP(body []byte) []byte {
	b := bytes.TrimSpace(body)
	if len(b) == 0 || b[0] == '{' || b[0] == '[' {
		return body
	}
	open := bytes.IndexByte(b, '(')
	if open <= 0 || !isJSONPCallback(b[:open]) {
		return body
	}
	// Trim trailing ';' and whitespace, then require the closing paren.
	end := len(b)
	for end > 0 && (b[end-1] == ';' || b[end-1] == ' ' || b[end-1] == '\n' || b[end-1] == '\r' || b[end-1] == '\t') {
		end--
	}
	if end <= open+1 || b[end-1] != ')' {
		return body
	}
	return b[open+1 : end-1]
}

// isJSONPCallback reports whether s looks like a JS callback reference
// (letters, digits, '_', '$', '.'; not starting with a digit).
func isJSONPCallback(s []byte) bool {
	for i, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '$', c == '.':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return len(s) > 0
}
