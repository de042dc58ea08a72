// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// IntFromJSON decodes a loosely typed integer field: a JSON number, a
// numeric string, or null. Integral floats ("19.0", 19.0) are accepted;
// anything else, including fractions and overflow, yields def.
//
// Example:
//
//	utils.IntFromJSON([]byte(`19`), 0)    // 19
//	utils.IntFromJSON([]byte(`"19"`), 0)  // 19
//	utils.IntFromJSON([]byte(`null`), 0)  // 0
//	utils.IntFromJSON([]byte(`"x"`), -1)  // -1
func IntFromJSON(raw []byte, def int) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return def
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return def
		}
		s = strings.TrimSpace(s)
	}
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return def
	}
	return int(f)
}
