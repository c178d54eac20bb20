package neural

// Sensor identifies a sensor input node.
type Sensor uint8

// Sensor inputs. Every sensor produces a value in [0,1].
const (
	LocX Sensor = iota
	LocY
	BoundaryDistX
	BoundaryDist
	BoundaryDistY
	GeneticSimFwd
	LastMoveDirX
	LastMoveDirY
	LongProbePopFwd
	LongProbeBarFwd
	Population
	PopulationFwd
	PopulationLR
	Osc1
	Age
	BarrierFwd
	BarrierLR
	Random
	Signal0
	Signal0Fwd
	Signal0LR

	NumSensors int = iota
)

// Action identifies an action output node.
type Action uint8

// Action outputs.
const (
	MoveX Action = iota
	MoveY
	MoveForward
	MoveRL
	MoveRandom
	SetOscillatorPeriod
	SetLongProbeDist
	SetResponsiveness
	EmitSignal0
	MoveEast
	MoveWest
	MoveNorth
	MoveSouth
	MoveLeft
	MoveRight
	MoveReverse
	KillForward

	NumActions int = iota
)

// IODescriptor describes a sensor or action for logs and listings.
type IODescriptor struct {
	ID          string // Short identifier used in genome dumps
	Label       string // Display name
	Description string
	Group       string // Logical grouping
}

var sensorDescriptors = [NumSensors]IODescriptor{
	LocX:            {"Lx", "loc X", "east/west location normalized to the arena", "location"},
	LocY:            {"Ly", "loc Y", "north/south location normalized to the arena", "location"},
	BoundaryDistX:   {"EDx", "boundary dist X", "distance to nearest east or west edge", "location"},
	BoundaryDist:    {"ED", "boundary dist", "distance to nearest edge", "location"},
	BoundaryDistY:   {"EDy", "boundary dist Y", "distance to nearest north or south edge", "location"},
	GeneticSimFwd:   {"Gen", "genetic similarity fwd", "similarity to the individual ahead", "social"},
	LastMoveDirX:    {"LMx", "last move dir X", "x component of the last move", "motion"},
	LastMoveDirY:    {"LMy", "last move dir Y", "y component of the last move", "motion"},
	LongProbePopFwd: {"LPf", "long probe population fwd", "free cells ahead before an individual", "probe"},
	LongProbeBarFwd: {"LPb", "long probe barrier fwd", "free cells ahead before a barrier", "probe"},
	Population:      {"Pop", "population", "population density nearby", "social"},
	PopulationFwd:   {"Pfd", "population fwd", "population gradient along the forward axis", "social"},
	PopulationLR:    {"Plr", "population LR", "population gradient along the left/right axis", "social"},
	Osc1:            {"Osc", "oscillator", "internal oscillator", "internal"},
	Age:             {"Age", "age", "steps lived this generation", "internal"},
	BarrierFwd:      {"Bfd", "short probe barrier fwd", "barrier distance along the forward axis", "probe"},
	BarrierLR:       {"Blr", "short probe barrier LR", "barrier distance along the left/right axis", "probe"},
	Random:          {"Rnd", "random", "uniform random input", "internal"},
	Signal0:         {"Sg", "signal 0", "signal density nearby", "signal"},
	Signal0Fwd:      {"Sfd", "signal 0 fwd", "signal gradient along the forward axis", "signal"},
	Signal0LR:       {"Slr", "signal 0 LR", "signal gradient along the left/right axis", "signal"},
}

var actionDescriptors = [NumActions]IODescriptor{
	MoveX:               {"MvX", "move X", "move east (+) or west (-)", "move"},
	MoveY:               {"MvY", "move Y", "move north (+) or south (-)", "move"},
	MoveForward:         {"Mfd", "move fwd", "continue last move direction", "move"},
	MoveRL:              {"Mrl", "move R-L", "move right (+) or left (-)", "move"},
	MoveRandom:          {"Mrn", "move random", "move in a random direction", "move"},
	SetOscillatorPeriod: {"OSC", "set osc1", "set oscillator period", "internal"},
	SetLongProbeDist:    {"LPD", "set longprobe dist", "set long probe distance", "internal"},
	SetResponsiveness:   {"Res", "set inv-responsiveness", "set responsiveness", "internal"},
	EmitSignal0:         {"SG", "emit signal 0", "deposit signal at location", "signal"},
	MoveEast:            {"MvE", "move east", "move east", "move"},
	MoveWest:            {"MvW", "move west", "move west", "move"},
	MoveNorth:           {"MvN", "move north", "move north", "move"},
	MoveSouth:           {"MvS", "move south", "move south", "move"},
	MoveLeft:            {"MvL", "move left", "turn left and move", "move"},
	MoveRight:           {"MvR", "move right", "turn right and move", "move"},
	MoveReverse:         {"Mrv", "move reverse", "reverse and move", "move"},
	KillForward:         {"Klf", "kill fwd", "kill the individual ahead", "social"},
}

// Describe returns the descriptor for s.
func (s Sensor) Describe() IODescriptor { return sensorDescriptors[s] }

// Describe returns the descriptor for a.
func (a Action) Describe() IODescriptor { return actionDescriptors[a] }

func (s Sensor) String() string { return sensorDescriptors[s].ID }
func (a Action) String() string { return actionDescriptors[a].ID }

// SensorDescriptors returns metadata for all sensors in node order.
func SensorDescriptors() []IODescriptor { return sensorDescriptors[:] }

// ActionDescriptors returns metadata for all actions in node order.
func ActionDescriptors() []IODescriptor { return actionDescriptors[:] }
