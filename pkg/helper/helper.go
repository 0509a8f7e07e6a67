package helper

import (
	"strconv"
	"strings"

	"github.com/whitekid/goxp/fx"
)

func AtoiDef[T fx.Int](s string, def T) T {
	value, err := strconv.Atoi(s)
	if err != nil {
		return def
	}

	return T(value)
}

func ParseBoolDef(s string, def bool) bool {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}

// SplitList split comma separated values, dropping empty entries
func SplitList(s string) []string {
	entries := []string{}
	for _, e := range strings.Split(s, ",") {
		if e = strings.TrimSpace(e); e != "" {
			entries = append(entries, e)
		}
	}
	return entries
}
