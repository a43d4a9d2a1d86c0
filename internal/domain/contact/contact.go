// Package contact defines canonical contact identities and role
// normalization used by the entity resolver.
package contact

import (
	"strings"
	"time"
)

// Contact is a canonical identity referenced, never owned, by action
// records and messages.
type Contact struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// roleAliases maps spoken and CRM-specific role labels to canonical roles.
var roleAliases = map[string]string{
	"pm":                      "project_manager",
	"project manager":         "project_manager",
	"bidlist project manager": "project_manager",
	"ho":                      "homeowner",
	"homeowner":               "homeowner",
	"home owner":              "homeowner",
	"owner":                   "homeowner",
	"client":                  "homeowner",
	"gc":                      "general_contractor",
	"general contractor":      "general_contractor",
	"contractor":              "general_contractor",
	"sub":                     "subcontractor",
	"subcontractor":           "subcontractor",
	"architect":               "architect",
	"designer":                "designer",
	"interior designer":       "designer",
	"estimator":               "estimator",
	"super":                   "superintendent",
	"superintendent":          "superintendent",
}

// CanonicalRole normalizes a free-text role label. Unknown labels are
// returned lowercased and trimmed so partial matching still works.
func CanonicalRole(role string) string {
	normalized := strings.ToLower(strings.TrimSpace(role))
	if canonical, ok := roleAliases[normalized]; ok {
		return canonical
	}
	return normalized
}

// LooksLikeEmail reports whether the input plausibly is an email address.
// Resolution only needs a cheap shape check, not RFC validation.
func LooksLikeEmail(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}
