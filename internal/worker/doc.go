// Package worker provisions the role roster for a job: the five fixed base
// roles plus any specialists whose trigger keywords appear in the work
// brief. It owns the role catalog, the per-model price table, and the
// executor handles the engine dispatches work to.
package worker
