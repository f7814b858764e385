package password

import "unicode"

// Strength rule identifiers reported back to callers when a candidate
// password is rejected. They are stable strings suitable for API responses.
const (
	RuleMinLength = "min_length"
	RuleUpper     = "uppercase"
	RuleLower     = "lowercase"
	RuleDigit     = "digit"
	RuleSymbol    = "symbol"
)

// Policy is the configurable strength rule set.
type Policy struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
}

// DefaultPolicy returns the standard rule set: at least 8 characters with
// upper, lower, digit, and symbol classes present.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:     8,
		RequireUpper:  true,
		RequireLower:  true,
		RequireDigit:  true,
		RequireSymbol: true,
	}
}

// Check returns the list of violated rules, empty when the candidate
// satisfies the policy. Length is counted in runes, not bytes.
func (p Policy) Check(candidate string) []string {
	var violations []string

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	runes := 0
	for _, r := range candidate {
		runes++
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	if runes < p.MinLength {
		violations = append(violations, RuleMinLength)
	}
	if p.RequireUpper && !hasUpper {
		violations = append(violations, RuleUpper)
	}
	if p.RequireLower && !hasLower {
		violations = append(violations, RuleLower)
	}
	if p.RequireDigit && !hasDigit {
		violations = append(violations, RuleDigit)
	}
	if p.RequireSymbol && !hasSymbol {
		violations = append(violations, RuleSymbol)
	}

	return violations
}
