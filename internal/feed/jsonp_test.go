package feed

import "testing"

func TestUnwrapJSONP(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain object", `{"data":[]}`, `{"data":[]}`},
		{"plain array", `[1,2]`, `[1,2]`},
		{"wrapped", `cb({"data":[]})`, `{"data":[]}`},
		{"wrapped with semicolon", `cb({"data":[]});`, `{"data":[]}`},
		{"dotted callback", `window.app.cb({"a":1});`, `{"a":1}`},
		{"leading whitespace", "\n  cb({\"a\":1})", `{"a":1}`},
		{"trailing newline", "cb({\"a\":1});\n", `{"a":1}`},
		{"callback with digits", `cb123({"a":1})`, `{"a":1}`},
		{"not a callback", `123({"a":1})`, `123({"a":1})`},
		{"unbalanced", `cb({"a":1}`, `cb({"a":1}`},
		{"empty", ``, ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(unwrapJSONP([]byte(tt.in))); got != tt.want {
				t.Errorf("unwrapJSONP(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
