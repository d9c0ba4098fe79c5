package worker

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/crewline/crewline/internal/errors"
)

// Base role names. Every job's roster includes these five regardless of
// the work brief.
const (
	RolePlanner     = "planner"
	RoleImplementer = "implementer"
	RoleVerifier    = "verifier"
	RoleReviewer    = "reviewer"
	RoleDocumenter  = "documenter"
)

// BaseRoles returns the fixed base roster role names, in canonical order.
func BaseRoles() []string {
	return []string{RolePlanner, RoleImplementer, RoleVerifier, RoleReviewer, RoleDocumenter}
}

// IsBaseRole reports whether the name is one of the five base roles.
func IsBaseRole(name string) bool {
	switch name {
	case RolePlanner, RoleImplementer, RoleVerifier, RoleReviewer, RoleDocumenter:
		return true
	}
	return false
}

// Catalog is the closed table of role definitions. New roles are added by
// appending rows (or applying an overlay), never by redefining existing ones.
// Catalog order is meaningful: it breaks priority ties during truncation.
type Catalog struct {
	roles []RoleDefinition
	index map[string]int
}

// NewCatalog creates a Catalog from the given definitions.
// Duplicate names keep the first definition.
func NewCatalog(roles ...RoleDefinition) *Catalog {
	c := &Catalog{index: make(map[string]int)}
	for _, role := range roles {
		if _, exists := c.index[role.Name]; exists {
			continue
		}
		c.index[role.Name] = len(c.roles)
		c.roles = append(c.roles, role)
	}
	return c
}

// Get returns the definition for a role name.
func (c *Catalog) Get(name string) (RoleDefinition, bool) {
	i, ok := c.index[name]
	if !ok {
		return RoleDefinition{}, false
	}
	return c.roles[i], true
}

// Roles returns a copy of all definitions in catalog order.
func (c *Catalog) Roles() []RoleDefinition {
	out := make([]RoleDefinition, len(c.roles))
	copy(out, c.roles)
	return out
}

// Specialists returns the non-base definitions in catalog order.
func (c *Catalog) Specialists() []RoleDefinition {
	var out []RoleDefinition
	for _, role := range c.roles {
		if !IsBaseRole(role.Name) {
			out = append(out, role)
		}
	}
	return out
}

// Len returns the number of definitions in the catalog.
func (c *Catalog) Len() int {
	return len(c.roles)
}

// Append adds a definition to the catalog. Redefining an existing role is
// an error: the catalog is append-only.
func (c *Catalog) Append(role RoleDefinition) error {
	if role.Name == "" {
		return errors.Wrap(errors.ErrInvalidInput, "role name is required")
	}
	if _, exists := c.index[role.Name]; exists {
		return fmt.Errorf("catalog: role %q already defined", role.Name)
	}
	c.index[role.Name] = len(c.roles)
	c.roles = append(c.roles, role)
	return nil
}

// DefaultCatalog returns the built-in role table: the five base roles plus
// the specialist roles that dynamic provisioning can trigger.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		RoleDefinition{
			Name:        RolePlanner,
			Title:       "Project Planner",
			Goal:        "Decompose the brief into an ordered, dependency-aware backlog",
			Model:       "opus",
			Temperature: 0.3,
			Priority:    PriorityHigh,
		},
		RoleDefinition{
			Name:        RoleImplementer,
			Title:       "Implementation Engineer",
			Goal:        "Implement work items to their expected output",
			Model:       "sonnet",
			Temperature: 0.2,
			Priority:    PriorityHigh,
		},
		RoleDefinition{
			Name:        RoleVerifier,
			Title:       "Verification Engineer",
			Goal:        "Write and run tests covering the implemented work",
			Model:       "sonnet",
			Temperature: 0.1,
			Priority:    PriorityHigh,
		},
		RoleDefinition{
			Name:        RoleReviewer,
			Title:       "Code Reviewer",
			Goal:        "Review implemented work for correctness and security findings",
			Model:       "sonnet",
			Temperature: 0.2,
			Priority:    PriorityHigh,
		},
		RoleDefinition{
			Name:        RoleDocumenter,
			Title:       "Documentation Writer",
			Goal:        "Document the implemented work for users and maintainers",
			Model:       "haiku",
			Temperature: 0.4,
			Priority:    PriorityMedium,
		},
		RoleDefinition{
			Name:        "security-specialist",
			Title:       "Security Specialist",
			Goal:        "Harden authentication, payment, and data-handling paths",
			Model:       "opus",
			Temperature: 0.1,
			Keywords:    []string{"payment", "authentication", "auth", "security", "encryption", "oauth", "login", "secrets"},
			Priority:    PriorityHigh,
		},
		RoleDefinition{
			Name:        "database-specialist",
			Title:       "Database Specialist",
			Goal:        "Design schemas, migrations, and query layers",
			Model:       "sonnet",
			Temperature: 0.2,
			Keywords:    []string{"database", "sql", "postgres", "mysql", "sqlite", "migration", "schema"},
			Priority:    PriorityHigh,
		},
		RoleDefinition{
			Name:        "deployment-specialist",
			Title:       "Deployment Specialist",
			Goal:        "Containerize and ship the project to its target environment",
			Model:       "sonnet",
			Temperature: 0.2,
			Keywords:    []string{"docker", "kubernetes", "deployment", "deploy", "ci/cd", "terraform", "aws", "gcp"},
			Priority:    PriorityMedium,
		},
		RoleDefinition{
			Name:        "frontend-specialist",
			Title:       "Frontend Specialist",
			Goal:        "Build the user-facing interface and its API contracts",
			Model:       "sonnet",
			Temperature: 0.3,
			Keywords:    []string{"react", "vue", "svelte", "frontend", "css", "tailwind", "ui"},
			Priority:    PriorityMedium,
		},
		RoleDefinition{
			Name:        "performance-specialist",
			Title:       "Performance Specialist",
			Goal:        "Profile and optimize hot paths, caching, and resource usage",
			Model:       "sonnet",
			Temperature: 0.2,
			Keywords:    []string{"performance", "latency", "benchmark", "optimization", "caching", "scaling"},
			Priority:    PriorityLow,
		},
		RoleDefinition{
			Name:        "ml-specialist",
			Title:       "Machine Learning Specialist",
			Goal:        "Integrate model training, inference, and evaluation pipelines",
			Model:       "opus",
			Temperature: 0.3,
			Keywords:    []string{"machine learning", "ml", "llm", "embedding", "training", "inference"},
			Priority:    PriorityLow,
		},
	)
}

// overlayFile is the YAML shape of a catalog overlay.
type overlayFile struct {
	Roles []overlayRole `yaml:"roles"`
}

// overlayRole mirrors RoleDefinition with a string priority for YAML.
type overlayRole struct {
	Name        string   `yaml:"name"`
	Title       string   `yaml:"title"`
	Goal        string   `yaml:"goal"`
	Model       string   `yaml:"model"`
	Temperature float64  `yaml:"temperature"`
	Keywords    []string `yaml:"keywords"`
	Priority    string   `yaml:"priority"`
}

// LoadOverlay reads additional specialist definitions from a YAML file.
// Overlays are append-only: they may not redefine catalog roles, and may
// not name a base role.
func (c *Catalog) LoadOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("catalog: reading overlay: %w", err)
	}

	var file overlayFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("catalog: parsing overlay: %w", err)
	}

	for _, raw := range file.Roles {
		if IsBaseRole(raw.Name) {
			return fmt.Errorf("catalog: overlay may not redefine base role %q", raw.Name)
		}
		role := RoleDefinition{
			Name:        raw.Name,
			Title:       raw.Title,
			Goal:        raw.Goal,
			Model:       raw.Model,
			Temperature: raw.Temperature,
			Keywords:    raw.Keywords,
			Priority:    ParsePriority(raw.Priority),
		}
		if err := c.Append(role); err != nil {
			return err
		}
	}
	return nil
}
