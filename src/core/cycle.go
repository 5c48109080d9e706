package core

import "fmt"

// CycleDetector runs once the loader reports its queue idle: if any
// records remain unresolved with no unloaded files left to drive them, it
// searches the pending-reference graph for a cycle and reports the first
// one found as an error enumerating the edges (4.G "Cycle detection").
type CycleDetector struct {
	graph *BuildGraph
}

// NewCycleDetector returns a CycleDetector bound to graph.
func NewCycleDetector(graph *BuildGraph) *CycleDetector {
	return &CycleDetector{graph: graph}
}

// FindCycle performs a depth-first search over every declared target's
// dependency edges (the only edges that can legitimately cycle; configs
// and toolchains never depend back on targets) and returns the first cycle
// found as an ordered path of labels, or nil if the graph is acyclic.
func (d *CycleDetector) FindCycle() []Label {
	targets := d.graph.AllTargets()
	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS stack
		black = 2 // fully explored
	)
	color := make(map[Label]int, len(targets))
	var path []Label

	var visit func(t *Target) []Label
	visit = func(t *Target) []Label {
		color[t.Label] = gray
		path = append(path, t.Label)
		for _, dep := range t.PublicDeps.Refs() {
			if cyc := d.visitEdge(dep, color, &path, visit); cyc != nil {
				return cyc
			}
		}
		for _, dep := range t.PrivateDeps.Refs() {
			if cyc := d.visitEdge(dep, color, &path, visit); cyc != nil {
				return cyc
			}
		}
		color[t.Label] = black
		path = path[:len(path)-1]
		return nil
	}

	for _, t := range targets {
		if color[t.Label] == white {
			if cyc := visit(t); cyc != nil {
				return cyc
			}
		}
	}
	return nil
}

func (d *CycleDetector) visitEdge(dep DepRef, color map[Label]int, path *[]Label, visit func(*Target) []Label) []Label {
	if dep.Target == nil {
		return nil // unresolved; reported separately as a missing-label error
	}
	switch color[dep.Label] {
	case 1: // gray: found a back-edge, i.e. a cycle
		start := 0
		for i, l := range *path {
			if l == dep.Label {
				start = i
				break
			}
		}
		cyc := append([]Label{}, (*path)[start:]...)
		return append(cyc, dep.Label)
	case 2:
		return nil
	default:
		return visit(dep.Target)
	}
}

// FormatCycle renders a cycle path as "a -> b -> c -> a" for error messages.
func FormatCycle(cycle []Label) string {
	s := ""
	for i, l := range cycle {
		if i > 0 {
			s += " -> "
		}
		s += l.String()
	}
	return s
}

// MissingLabels scans the graph for records that were referenced but never
// declared, once the loader is idle and has no more files to drive them.
// Each is reported with the location it was first requested from.
func MissingLabels(graph *BuildGraph) []*GenError {
	var errs []*GenError
	for _, r := range graph.unresolvedRecords() {
		loc := r.requestedFrom
		errs = append(errs, NewError(ErrResolution, loc, "label %s is not declared anywhere", r.label).
			WithHelp(fmt.Sprintf("requested from %s", loc)))
	}
	return errs
}
