package xgo

import "encoding/json"

// ToJSON is for log lines only; marshal errors render as an empty string.
func ToJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
