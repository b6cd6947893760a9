package forecast

const (
	// seedTick is the tick at which the first baseline average is captured.
	seedTick = 5

	// cycleEnd is the last tick of a cycle. The counter never exceeds it.
	cycleEnd = 185

	// wrapTick is where the counter resumes once it passes cycleEnd, which
	// keeps the checkpoint ticks valid without reseeding the baseline.
	wrapTick = 6

	// priorTick is the checkpoint whose average seeds the next cycle.
	priorTick = 125

	// warmupTick is the first checkpoint; earlier first-cycle ticks are Unknown.
	warmupTick = 35

	// hPaToKPa converts a pressure difference from hPa to kPa.
	hPaToKPa = 0.1
)

// Checkpoint is one entry of the trend schedule: at Tick the trend rate is
// recomputed as the change since baseline divided by the elapsed hours.
type Checkpoint struct {
	Tick int

	// FirstCycleHours is the divisor used while the engine is in its first
	// cycle, timed from the seed at tick 5.
	FirstCycleHours float64

	// LaterCycleHours is the divisor used afterwards, timed from the baseline
	// carried over from the previous cycle's tick 125.
	LaterCycleHours float64
}

var schedule = [...]Checkpoint{
	{Tick: 35, FirstCycleHours: 0.5, LaterCycleHours: 1.5},
	{Tick: 65, FirstCycleHours: 1, LaterCycleHours: 2},
	{Tick: 95, FirstCycleHours: 1.5, LaterCycleHours: 2.5},
	{Tick: 125, FirstCycleHours: 2, LaterCycleHours: 3},
	{Tick: 155, FirstCycleHours: 2.5, LaterCycleHours: 3.5},
	{Tick: 185, FirstCycleHours: 3, LaterCycleHours: 4},
}

// Schedule returns a copy of the checkpoint table in tick order.
func Schedule() []Checkpoint {
	out := make([]Checkpoint, len(schedule))
	copy(out, schedule[:])
	return out
}

// checkpointAt returns the schedule entry for tick, if any.
func checkpointAt(tick int) (Checkpoint, bool) {
	for _, cp := range schedule {
		if cp.Tick == tick {
			return cp, true
		}
	}
	return Checkpoint{}, false
}

// TrendState is the engine's state carried between ticks.
type TrendState struct {
	// Tick counts ingested readings. It wraps from 186 back to 6.
	Tick int

	// Baseline is the reference average the trend is measured against.
	// Meaningless before tick 5.
	Baseline float64

	// Prior is the average captured at tick 125, promoted to Baseline at the
	// end of the cycle.
	Prior float64

	// TrendRate is the latest pressure change rate in kPa/h.
	TrendRate float64

	// FirstCycle is true until the first cycle closes at tick 185.
	FirstCycle bool
}

// Engine computes forecasts from one pressure reading per tick.
//
// Engine is not safe for concurrent use; callers must finish one Ingest
// before starting the next.
type Engine struct {
	buf   SampleBuffer
	state TrendState
	last  Category
}

// NewEngine returns an Engine at tick 0 in its first cycle.
func NewEngine() *Engine {
	return &Engine{
		state: TrendState{FirstCycle: true},
		last:  Unknown,
	}
}

// Ingest records one pressure reading (hPa, sea-level corrected) and returns
// the forecast for the resulting tick. Arithmetic is float64; a float32
// implementation may classify a rate within rounding of a threshold differently.
func (e *Engine) Ingest(pressureHPa float64) Category {
	st := &e.state

	e.buf.Put(st.Tick, pressureHPa)
	st.Tick++
	if st.Tick > cycleEnd {
		st.Tick = wrapTick
	}

	if st.Tick == seedTick {
		st.Baseline = e.buf.Average()
	} else if cp, ok := checkpointAt(st.Tick); ok {
		avg := e.buf.Average()
		change := (avg - st.Baseline) * hPaToKPa

		hours := cp.LaterCycleHours
		if st.FirstCycle {
			hours = cp.FirstCycleHours
		}
		st.TrendRate = change / hours

		if cp.Tick == priorTick {
			st.Prior = avg
		}
		if cp.Tick == cycleEnd {
			st.Baseline = st.Prior
			st.FirstCycle = false
		}
	}

	e.last = e.classify()
	return e.last
}

func (e *Engine) classify() Category {
	if e.state.FirstCycle && e.state.Tick < warmupTick {
		return Unknown
	}
	return Classify(e.state.TrendRate)
}

// State returns a copy of the current trend state.
func (e *Engine) State() TrendState {
	return e.state
}

// Last returns the category produced by the most recent Ingest, or Unknown
// before the first call.
func (e *Engine) Last() Category {
	return e.last
}

// Average returns the current 5-sample average.
func (e *Engine) Average() float64 {
	return e.buf.Average()
}

// WarmupRemaining returns how many more ticks are needed before the first
// forecast other than Unknown is possible. It is zero once the first
// checkpoint has fired.
func (e *Engine) WarmupRemaining() int {
	if !e.state.FirstCycle || e.state.Tick >= warmupTick {
		return 0
	}
	return warmupTick - e.state.Tick
}
