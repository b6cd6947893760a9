// Package forecast turns a minute-by-minute series of sea-level pressure
// readings into a categorical weather forecast.
//
// category.go defines the six Category values and the pure Classify(rate)
// threshold function. Thresholds are open intervals, so a trend rate of
// exactly ±0.05 or ±0.25 kPa/h classifies as Unknown.
//
// engine.go provides the stateful Engine. Each Ingest call is one tick (one
// minute). The engine keeps a 5-sample ring average, captures a baseline at
// tick 5 and recomputes the trend rate at six fixed checkpoints of a
// 180-tick cycle. The checkpoint schedule is a static table exposed through
// Schedule().
//
// An Engine is not safe for concurrent use. The station runner owns one
// engine per station and serializes ticks.
package forecast
