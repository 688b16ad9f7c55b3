package state

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

func parseSymbolList(s string, isSymbol func(string) bool) ([]string, error) {
	line := make([]string, 0)
	for _, x := range strings.Split(strings.TrimSpace(s), ",") {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if !isSymbol(x) {
			return nil, fmt.Errorf(`%s is not a valid node/group`, x)
		}
		line = append(line, x)
	}
	if len(line) == 0 {
		return nil, fmt.Errorf(`node/group list must not be empty`)
	}
	slices.Sort(line)
	return line, nil
}

/*
ExpandMesh turns mesh lines into undirected links. The syntax is:

	core = r1, r2, r3   // defines a group, groups may contain groups
	edge = r4, r5
	core, core          // every member of core is linked to every other member
	core, edge, r9      // core, edge and r9 are interconnected, but not within core or edge

Links are returned sorted, each as a sorted pair, without duplicates or self links.
*/
func ExpandMesh(lines []string, nodes []NodeId) ([]Pair[NodeId, NodeId], error) {
	isNode := func(s string) bool {
		return slices.Contains(nodes, NodeId(s))
	}
	defs := make(map[string]string)
	pairings := make([][]string, 0)

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "=") {
			continue
		}
		spl := strings.Split(line, "=")
		if len(spl) != 2 {
			return nil, fmt.Errorf("invalid mesh line: %s. group definition must contain one '='", line)
		}
		grp := strings.TrimSpace(spl[0])
		if grp == "" {
			return nil, fmt.Errorf("invalid mesh line: %s. group name must not be empty", line)
		}
		if isNode(grp) {
			return nil, fmt.Errorf("group name must not be a node name: %s", grp)
		}
		if _, ok := defs[grp]; ok {
			return nil, fmt.Errorf("duplicate group name: %s", grp)
		}
		defs[grp] = spl[1]
	}
	isSymbol := func(s string) bool {
		_, ok := defs[s]
		return ok || isNode(s)
	}

	groups := make(map[string][]string, len(defs))
	for grp, def := range defs {
		lst, err := parseSymbolList(def, isSymbol)
		if err != nil {
			return nil, err
		}
		groups[grp] = lst
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.Contains(line, "=") {
			continue
		}
		names, err := parseSymbolList(line, isSymbol)
		if err != nil {
			return nil, err
		}
		if len(names) < 2 {
			return nil, fmt.Errorf("invalid pairing, %v", names)
		}
		pairings = append(pairings, names)
	}

	expanded := make(map[string][]NodeId)
	visiting := make(map[string]bool)
	var expand func(sym string) ([]NodeId, error)
	expand = func(sym string) ([]NodeId, error) {
		if isNode(sym) {
			return []NodeId{NodeId(sym)}, nil
		}
		if members, ok := expanded[sym]; ok {
			return members, nil
		}
		if visiting[sym] {
			cycle := slices.Sorted(maps.Keys(visiting))
			return nil, fmt.Errorf("cycle detected in graph: %v", cycle)
		}
		visiting[sym] = true
		members := make([]NodeId, 0)
		for _, m := range groups[sym] {
			sub, err := expand(m)
			if err != nil {
				return nil, err
			}
			members = append(members, sub...)
		}
		delete(visiting, sym)
		slices.Sort(members)
		members = slices.Compact(members)
		expanded[sym] = members
		return members, nil
	}

	// every group is expanded, even unused ones, so cycles are always reported
	for _, grp := range slices.Sorted(maps.Keys(groups)) {
		if _, err := expand(grp); err != nil {
			return nil, err
		}
	}

	links := make([]Pair[NodeId, NodeId], 0)
	for _, names := range pairings {
		for i := range names {
			for j := i + 1; j < len(names); j++ {
				xs, _ := expand(names[i])
				ys, _ := expand(names[j])
				for _, x := range xs {
					for _, y := range ys {
						if x != y {
							links = append(links, MakeSortedPair(x, y))
						}
					}
				}
			}
		}
	}
	SortPairs(links)
	return slices.Compact(links), nil
}
