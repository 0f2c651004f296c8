package loadtest

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/google/uuid"
)

type opKind string

const (
	opSignup     opKind = "signup"
	opUnregister opKind = "unregister"
)

// unknownActivity is never part of a seed, so requests for it must 404.
const unknownActivity = "Loadgen Nonexistent Club"

type operation struct {
	Kind     opKind
	Activity string
	Email    string
	Want     int // expected status code
}

// plan is the full traffic of one run split into two phases. Signups run
// before any unregister, so every status is known up front.
type plan struct {
	signups     []operation
	unregisters []operation

	// enrolled maps activity to the emails that must be listed at the end.
	enrolled map[string][]string
	// removed maps activity to the emails that must be absent at the end.
	removed map[string][]string
}

func newPlan(cfg *Config, activities []string) (*plan, error) {
	if len(activities) == 0 {
		return nil, fmt.Errorf("service lists no activities")
	}
	activities = slices.Clone(activities)
	slices.Sort(activities)

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	run := uuid.NewString()[:8]

	p := &plan{
		enrolled: make(map[string][]string),
		removed:  make(map[string][]string),
	}
	for i := 0; i < cfg.Students; i++ {
		name := activities[rng.IntN(len(activities))]
		email := fmt.Sprintf("loadgen-%s-%d@mergington.edu", run, i)

		p.signups = append(p.signups, operation{Kind: opSignup, Activity: name, Email: email, Want: 200})
		if rng.Float64() < cfg.DuplicateRate {
			p.signups = append(p.signups, operation{Kind: opSignup, Activity: name, Email: email, Want: 400})
		}

		if rng.Float64() < cfg.UnregisterRate {
			p.unregisters = append(p.unregisters,
				operation{Kind: opUnregister, Activity: name, Email: email, Want: 200},
				// A second unregister of the same student must be refused.
				operation{Kind: opUnregister, Activity: name, Email: email, Want: 400},
			)
			p.removed[name] = append(p.removed[name], email)
		} else {
			p.enrolled[name] = append(p.enrolled[name], email)
		}
	}

	p.signups = append(p.signups, operation{Kind: opSignup, Activity: unknownActivity, Email: "nobody@mergington.edu", Want: 404})
	p.unregisters = append(p.unregisters, operation{Kind: opUnregister, Activity: unknownActivity, Email: "nobody@mergington.edu", Want: 404})
	return p, nil
}
