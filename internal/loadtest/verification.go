package loadtest

import (
	"fmt"
	"slices"
	"sort"
)

// verify compares observed status counts and final rosters against p and
// returns one message per failed expectation.
func verify(p *plan, got map[int]int, rosters map[string]activity) []string {
	var violations []string

	want := map[int]int{}
	for _, ops := range [][]operation{p.signups, p.unregisters} {
		for _, op := range ops {
			want[op.Want]++
		}
	}
	statuses := make([]int, 0, len(want)+len(got))
	for s := range want {
		statuses = append(statuses, s)
	}
	for s := range got {
		if _, ok := want[s]; !ok {
			statuses = append(statuses, s)
		}
	}
	sort.Ints(statuses)
	for _, s := range statuses {
		if want[s] != got[s] {
			violations = append(violations, fmt.Sprintf("status %d: want %d responses, got %d", s, want[s], got[s]))
		}
	}

	names := make([]string, 0, len(rosters))
	for name := range rosters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		seen := make(map[string]bool, len(rosters[name].Participants))
		for _, email := range rosters[name].Participants {
			if seen[email] {
				violations = append(violations, fmt.Sprintf("%s lists %s more than once", name, email))
			}
			seen[email] = true
		}
	}

	for name, emails := range p.enrolled {
		for _, email := range emails {
			if !slices.Contains(rosters[name].Participants, email) {
				violations = append(violations, fmt.Sprintf("%s is missing %s", name, email))
			}
		}
	}
	for name, emails := range p.removed {
		for _, email := range emails {
			if slices.Contains(rosters[name].Participants, email) {
				violations = append(violations, fmt.Sprintf("%s still lists unregistered %s", name, email))
			}
		}
	}
	return violations
}
