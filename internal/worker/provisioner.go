package worker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/crewline/crewline/internal/errors"
	"github.com/crewline/crewline/internal/event"
	"github.com/crewline/crewline/internal/logging"
)

// Brief is the opaque job description supplied by the intake process.
// Keys and values are serialized and scanned for role trigger keywords.
type Brief map[string]any

// Provisioner decides which specialist roles a job requires and
// instantiates worker handles for them.
type Provisioner struct {
	catalog *Catalog
	factory ExecutorFactory

	maxDynamicRoles int     // negative = unlimited
	costCeiling     float64 // <= 0 = no ceiling

	bus    *event.Bus
	logger *logging.Logger
}

// ProvisionerOption configures a Provisioner.
type ProvisionerOption func(*Provisioner)

// WithMaxDynamicRoles caps how many specialist roles may be provisioned
// beyond the base roster. Zero means base roles only; a negative value
// means unlimited.
func WithMaxDynamicRoles(n int) ProvisionerOption {
	return func(p *Provisioner) { p.maxDynamicRoles = n }
}

// WithCostCeiling sets the maximum estimated job cost in USD.
// Zero or negative disables the ceiling.
func WithCostCeiling(ceiling float64) ProvisionerOption {
	return func(p *Provisioner) { p.costCeiling = ceiling }
}

// WithBus sets the event bus on which agent.created events are published.
func WithBus(bus *event.Bus) ProvisionerOption {
	return func(p *Provisioner) { p.bus = bus }
}

// WithLogger sets the provisioner's logger.
func WithLogger(logger *logging.Logger) ProvisionerOption {
	return func(p *Provisioner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProvisioner creates a Provisioner backed by the given catalog and
// executor factory. A nil catalog falls back to the built-in one.
func NewProvisioner(catalog *Catalog, factory ExecutorFactory, opts ...ProvisionerOption) (*Provisioner, error) {
	if factory == nil {
		return nil, errors.New("worker: executor factory is required")
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}

	p := &Provisioner{
		catalog:         catalog,
		factory:         factory,
		maxDynamicRoles: -1,
		logger:          logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Provision builds the roster for a work brief: the five base roles plus
// every specialist whose trigger keywords appear in the serialized brief,
// truncated to the dynamic-role limit (highest priority first, catalog
// order on ties). A nil or empty brief degrades to the base roster only.
func (p *Provisioner) Provision(brief Brief) (*Roster, error) {
	roles, err := p.requiredRoles(brief)
	if err != nil {
		return nil, err
	}

	roster := NewRoster()
	for _, role := range roles {
		h, err := p.instantiate(role)
		if err != nil {
			return nil, err
		}
		roster.add(h)
	}

	p.logger.Info("roster provisioned",
		"workers", roster.Len(),
		"specialists", roster.SpecialistCount(),
	)
	return roster, nil
}

// Instantiate creates a single worker handle for a catalog role.
// Roles missing from the catalog fail with ErrUnknownRole.
func (p *Provisioner) Instantiate(name string) (*Handle, error) {
	role, ok := p.catalog.Get(name)
	if !ok {
		return nil, errors.NewProvisionError("role not in catalog", errors.ErrUnknownRole).
			WithRole(name)
	}
	return p.instantiate(role)
}

// instantiate binds a role definition to an executor from the factory and
// announces the new agent on the bus.
func (p *Provisioner) instantiate(role RoleDefinition) (*Handle, error) {
	exec, err := p.factory(role)
	if err != nil {
		return nil, errors.NewProvisionError("executor factory failed", err).WithRole(role.Name)
	}

	h := newHandle(role, exec)

	if p.bus != nil {
		p.bus.Push(event.New(event.KindAgentCreated, "provisioner", map[string]any{
			"role":  role.Name,
			"model": role.Model,
			"id":    h.ID,
		}))
	}

	p.logger.Debug("worker instantiated", "role", role.Name, "model", role.Model)
	return h, nil
}

// EstimateCost returns the per-role cost breakdown for the roles the brief
// would provision, using the static per-model price table.
func (p *Provisioner) EstimateCost(brief Brief) (CostEstimate, error) {
	roles, err := p.requiredRoles(brief)
	if err != nil {
		return CostEstimate{}, err
	}
	return estimateFor(roles), nil
}

// WithinBudget reports whether the brief's estimated cost fits the
// configured ceiling. True when no ceiling is configured.
func (p *Provisioner) WithinBudget(brief Brief) (bool, error) {
	if p.costCeiling <= 0 {
		return true, nil
	}
	est, err := p.EstimateCost(brief)
	if err != nil {
		return false, err
	}
	return est.Total <= p.costCeiling, nil
}

// requiredRoles resolves the base roles plus keyword-triggered specialists
// for a brief, applying the dynamic-role limit.
func (p *Provisioner) requiredRoles(brief Brief) ([]RoleDefinition, error) {
	roles := make([]RoleDefinition, 0, len(BaseRoles()))
	for _, name := range BaseRoles() {
		role, ok := p.catalog.Get(name)
		if !ok {
			return nil, errors.NewProvisionError("catalog missing base role", errors.ErrUnknownRole).
				WithRole(name)
		}
		roles = append(roles, role)
	}

	specialists := p.matchSpecialists(brief)

	if p.maxDynamicRoles >= 0 && len(specialists) > p.maxDynamicRoles {
		// Highest priority first; SliceStable keeps catalog order on ties.
		sort.SliceStable(specialists, func(i, j int) bool {
			return specialists[i].Priority > specialists[j].Priority
		})
		dropped := specialists[p.maxDynamicRoles:]
		for _, role := range dropped {
			p.logger.Warn("dynamic role dropped by limit",
				"role", role.Name,
				"limit", p.maxDynamicRoles,
			)
		}
		specialists = specialists[:p.maxDynamicRoles]
	}

	return append(roles, specialists...), nil
}

// matchSpecialists returns the catalog specialists whose trigger keywords
// appear in the serialized brief, in catalog order. The first matching
// keyword is sufficient; a role is never counted twice.
func (p *Provisioner) matchSpecialists(brief Brief) []RoleDefinition {
	if len(brief) == 0 {
		return nil
	}

	serialized := serializeBrief(brief)

	var matched []RoleDefinition
	for _, role := range p.catalog.Specialists() {
		for _, keyword := range role.Keywords {
			if strings.Contains(serialized, strings.ToLower(keyword)) {
				matched = append(matched, role)
				break
			}
		}
	}
	return matched
}

// serializeBrief flattens a brief's keys and values depth-first into a
// single lower-cased string for keyword matching. Map keys are visited in
// sorted order so matching is deterministic.
func serializeBrief(brief Brief) string {
	var sb strings.Builder
	writeValue(&sb, map[string]any(brief))
	return strings.ToLower(sb.String())
}

// writeValue appends one value (recursing into maps and slices) to the
// serialization buffer.
func writeValue(sb *strings.Builder, v any) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(k)
			sb.WriteByte(' ')
			writeValue(sb, val[k])
		}
	case []any:
		for _, item := range val {
			writeValue(sb, item)
		}
	default:
		fmt.Fprintf(sb, "%v ", val)
	}
}
