package model

import "strings"

// AppTypeUnknown is the classifier fallback for empty references.
const AppTypeUnknown = "UNKNOWN"

// KnownApplicationTypes are the type codes with observed decision
// patterns. References outside this set still classify; they just
// carry no calibration rule or tuned confidence default.
var KnownApplicationTypes = []string{
	"HOU", // Householder
	"LBC", // Listed Building Consent
	"DET", // Full Planning (Detailed)
	"LDC", // Lawful Development Certificate
	"DCC", // Discharge of Conditions
	"TPO", // Tree Preservation Order
	"TCA", // Trees in Conservation Area
}

// ParseApplicationType extracts the application type code from a
// reference number. Newcastle references are YYYY/NNNN/NN/XXX where
// XXX is the type code. Best-effort, never fails: references with
// fewer than four segments fall back to the last available segment,
// and an empty reference yields AppTypeUnknown.
func ParseApplicationType(reference string) string {
	ref := strings.ToUpper(strings.TrimSpace(reference))
	if ref == "" {
		return AppTypeUnknown
	}
	parts := strings.Split(ref, "/")
	return strings.TrimSpace(parts[len(parts)-1])
}
