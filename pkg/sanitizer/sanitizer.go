package sanitizer

import (
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func lower(s string) string {
	return strings.ToLower(s)
}

// SanitizeText is used for free text shown back to users.
func SanitizeText(input string) string {
	return TrimAndNormalize(input)
}

// SanitizeTag normalizes values used for exact-match filtering, such as
// sport types and amenities.
func SanitizeTag(input string) string {
	p := Pipeline{
		TrimAndNormalize,
		lower,
	}
	return p.Apply(input)
}

func SanitizeSlice(values []string, strategy Strategy) []string {
	seen := make(map[string]struct{})
	out := []string{}

	for _, v := range values {
		s := strategy(v)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}
