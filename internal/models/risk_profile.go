package models

import "strings"

// RiskProfile selects the target allocation table used by the advisor.
type RiskProfile string

const (
	RiskProfilePrudent  RiskProfile = "prudent"
	RiskProfileBalanced RiskProfile = "balanced"
	RiskProfileDynamic  RiskProfile = "dynamic"
)

// riskProfileAliases maps accepted spellings, including the legacy French
// labels, to their canonical profile.
var riskProfileAliases = map[string]RiskProfile{
	"prudent":   RiskProfilePrudent,
	"balanced":  RiskProfileBalanced,
	"équilibré": RiskProfileBalanced,
	"equilibre": RiskProfileBalanced,
	"dynamic":   RiskProfileDynamic,
	"dynamique": RiskProfileDynamic,
}

// ParseRiskProfile normalizes s to a canonical RiskProfile.
func ParseRiskProfile(s string) (RiskProfile, bool) {
	p, ok := riskProfileAliases[strings.ToLower(strings.TrimSpace(s))]
	return p, ok
}

// Valid reports whether p is one of the canonical profiles.
func (p RiskProfile) Valid() bool {
	switch p {
	case RiskProfilePrudent, RiskProfileBalanced, RiskProfileDynamic:
		return true
	}
	return false
}
