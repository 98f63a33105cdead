package common

import (
	"fmt"
	"regexp"
)

// CompileFold compiles every pattern case-insensitively, preserving order.
// It panics on an invalid pattern; the tables it is used for are fixed at build time.
func CompileFold(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			panic(fmt.Sprintf("invalid pattern %q: %v", p, err))
		}
		out = append(out, re)
	}
	return out
}

// MatchAny returns the first regex matching text, or nil.
func MatchAny(res []*regexp.Regexp, text string) *regexp.Regexp {
	for _, re := range res {
		if re.MatchString(text) {
			return re
		}
	}
	return nil
}
