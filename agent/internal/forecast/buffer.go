package forecast

// SampleCount is the number of readings averaged per tick.
const SampleCount = 5

// SampleBuffer holds the most recent SampleCount readings in ring order.
// The slot for a tick is tick % SampleCount, so the buffer always has exactly
// SampleCount slots; unwritten slots read as zero.
type SampleBuffer struct {
	slots [SampleCount]float64
}

// Put stores v in the slot belonging to tick.
func (b *SampleBuffer) Put(tick int, v float64) {
	b.slots[tick%SampleCount] = v
}

// Average returns the mean of all slots.
func (b *SampleBuffer) Average() float64 {
	var sum float64
	for _, v := range b.slots {
		sum += v
	}
	return sum / SampleCount
}
