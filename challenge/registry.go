package challenge

import "sort"

// Registry holds every known challenge, keyed by id.
// This centralizes challenge naming so the CLI, logs and config checks stay in sync.
type Registry struct {
	challenges []Challenge
	byID       map[ID]Challenge
}

var defaultRegistry = NewRegistry()

// NewRegistry creates a registry with all known challenges.
func NewRegistry() *Registry {
	reg := &Registry{
		byID: make(map[ID]Challenge),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds all known challenges to the registry.
func (r *Registry) registerDefaults() {
	// Target areas
	r.Register(Challenge{ID: Circle, Name: "circle", Description: "Inside a circle centred on the lower-left quadrant, weighted by distance", Evaluate: evalCircle})
	r.Register(Challenge{ID: CenterWeighted, Name: "center_weighted", Description: "Near the arena centre, weighted by distance", Evaluate: evalCenterWeighted})
	r.Register(Challenge{ID: CenterUnweighted, Name: "center_unweighted", Description: "Near the arena centre", Evaluate: evalCenterUnweighted})
	r.Register(Challenge{ID: Corner, Name: "corner", Description: "Near any corner", Evaluate: evalCorner})
	r.Register(Challenge{ID: CornerWeighted, Name: "corner_weighted", Description: "Near any corner, weighted by distance", Evaluate: evalCornerWeighted})
	r.Register(Challenge{ID: NearBarrier, Name: "near_barrier", Description: "Near any barrier centre, weighted by distance", Evaluate: evalNearBarrier})

	// Strips of the arena
	r.Register(Challenge{ID: RightHalf, Name: "right_half", Description: "In the east half", Evaluate: evalRightHalf})
	r.Register(Challenge{ID: RightQuarter, Name: "right_quarter", Description: "In the east quarter", Evaluate: evalRightQuarter})
	r.Register(Challenge{ID: LeftEighth, Name: "left_eighth", Description: "In the west eighth", Evaluate: evalLeftEighth})
	r.Register(Challenge{ID: EastWestEighths, Name: "east_west_eighths", Description: "In the east or west eighth", Evaluate: evalEastWestEighths})

	// Walls
	r.Register(Challenge{ID: AgainstAnyWall, Name: "against_any_wall", Description: "On the border at generation end", Evaluate: evalAgainstAnyWall})
	r.Register(Challenge{ID: TouchAnyWall, Name: "touch_any_wall", Description: "Touched the border at any step", Evaluate: evalTouchAnyWall, Step: stepTouchAnyWall})
	r.Register(Challenge{ID: RadioactiveWalls, Name: "radioactive_walls", Description: "Survive a wall that kills nearby individuals", Evaluate: evalAlive, Step: stepRadioactiveWalls})

	// Crowding
	r.Register(Challenge{ID: String, Name: "string", Description: "Off the border with a bounded number of neighbours", Evaluate: evalString})
	r.Register(Challenge{ID: CenterSparse, Name: "center_sparse", Description: "Near the centre with a bounded number of neighbours", Evaluate: evalCenterSparse})
	r.Register(Challenge{ID: Pairs, Name: "pairs", Description: "Exactly one neighbour, which has no other neighbour", Evaluate: evalPairs})

	// Movement
	r.Register(Challenge{ID: MigrateDistance, Name: "migrate_distance", Description: "Everyone passes, scored by distance from birth", Evaluate: evalMigrateDistance})
	r.Register(Challenge{ID: LocationSequence, Name: "location_sequence", Description: "Visited barrier centres in order", Evaluate: evalLocationSequence, Step: stepLocationSequence})

	// Kin selection
	r.Register(Challenge{ID: Altruism, Name: "altruism", Description: "Spawning area for the altruism run", Evaluate: evalAltruism})
	r.Register(Challenge{ID: AltruismSacrifice, Name: "altruism_sacrifice", Description: "Sacrificial area for the altruism run", Evaluate: evalAltruismSacrifice})
}

// Register adds a challenge to the registry, replacing any with the same id.
func (r *Registry) Register(c Challenge) {
	if _, exists := r.byID[c.ID]; !exists {
		r.challenges = append(r.challenges, c)
	} else {
		for i := range r.challenges {
			if r.challenges[i].ID == c.ID {
				r.challenges[i] = c
			}
		}
	}
	r.byID[c.ID] = c
}

// Get returns a challenge by id.
func (r *Registry) Get(id ID) (Challenge, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// All returns every registered challenge ordered by id.
func (r *Registry) All() []Challenge {
	out := make([]Challenge, len(r.challenges))
	copy(out, r.challenges)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// All returns every built-in challenge ordered by id.
func All() []Challenge { return defaultRegistry.All() }
