// Package station ties one sensor.Source to one forecast.Engine.
//
// Sample(ctx, now) performs a single tick: read the source, correct the
// pressure to sea level, feed the engine and build a types.Report. Failed
// reads produce an error report and leave the engine untouched, so the tick
// counter only advances on real readings.
//
// Each report carries every measurement plus Changed flags describing which
// values differ from the previous successful sample. The first successful
// sample always reports all flags set.
package station
