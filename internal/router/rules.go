package router

import "github.com/crewline/crewline/internal/worker"

// Rule maps a keyword to an ordered preference list of roles. The table is
// an ordered slice: earlier rules win score ties, which makes routing
// deterministic and lets operators treat rule order as policy.
type Rule struct {
	Keyword string
	Roles   []string
}

// Scoring weights for rule matches.
const (
	scoreRuleHit         = 10
	scoreFirstPreference = 5
	scoreCriticalRole    = 3
)

// criticalRoles gets a scoring bonus: work touching these roles is where
// mistakes are most expensive.
var criticalRoles = map[string]struct{}{
	"security-specialist": {},
	worker.RoleVerifier:   {},
}

// DefaultRules returns the built-in routing table, in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Keyword: "plan", Roles: []string{worker.RolePlanner}},
		{Keyword: "design", Roles: []string{worker.RolePlanner, worker.RoleImplementer}},
		{Keyword: "architecture", Roles: []string{worker.RolePlanner}},
		{Keyword: "security", Roles: []string{"security-specialist", worker.RoleReviewer}},
		{Keyword: "auth", Roles: []string{"security-specialist", worker.RoleImplementer}},
		{Keyword: "payment", Roles: []string{"security-specialist", worker.RoleImplementer}},
		{Keyword: "encrypt", Roles: []string{"security-specialist"}},
		{Keyword: "database", Roles: []string{"database-specialist", worker.RoleImplementer}},
		{Keyword: "schema", Roles: []string{"database-specialist", worker.RolePlanner}},
		{Keyword: "migration", Roles: []string{"database-specialist"}},
		{Keyword: "sql", Roles: []string{"database-specialist", worker.RoleImplementer}},
		{Keyword: "deploy", Roles: []string{"deployment-specialist", worker.RoleImplementer}},
		{Keyword: "docker", Roles: []string{"deployment-specialist"}},
		{Keyword: "kubernetes", Roles: []string{"deployment-specialist"}},
		{Keyword: "ci/cd", Roles: []string{"deployment-specialist"}},
		{Keyword: "frontend", Roles: []string{"frontend-specialist", worker.RoleImplementer}},
		{Keyword: "ui", Roles: []string{"frontend-specialist"}},
		{Keyword: "css", Roles: []string{"frontend-specialist"}},
		{Keyword: "component", Roles: []string{"frontend-specialist", worker.RoleImplementer}},
		{Keyword: "performance", Roles: []string{"performance-specialist", worker.RoleVerifier}},
		{Keyword: "benchmark", Roles: []string{"performance-specialist", worker.RoleVerifier}},
		{Keyword: "cache", Roles: []string{"performance-specialist", worker.RoleImplementer}},
		{Keyword: "model", Roles: []string{"ml-specialist", worker.RoleImplementer}},
		{Keyword: "training", Roles: []string{"ml-specialist"}},
		{Keyword: "test", Roles: []string{worker.RoleVerifier, worker.RoleImplementer}},
		{Keyword: "coverage", Roles: []string{worker.RoleVerifier}},
		{Keyword: "review", Roles: []string{worker.RoleReviewer}},
		{Keyword: "audit", Roles: []string{worker.RoleReviewer, "security-specialist"}},
		{Keyword: "document", Roles: []string{worker.RoleDocumenter}},
		{Keyword: "readme", Roles: []string{worker.RoleDocumenter}},
		{Keyword: "docs", Roles: []string{worker.RoleDocumenter}},
		{Keyword: "implement", Roles: []string{worker.RoleImplementer}},
		{Keyword: "build", Roles: []string{worker.RoleImplementer}},
		{Keyword: "api", Roles: []string{worker.RoleImplementer, "frontend-specialist"}},
	}
}
