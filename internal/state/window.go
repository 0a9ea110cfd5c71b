package state

// WindowStats summarizes the trailing window of a participant's buffer.
type WindowStats struct {
	Start       int64
	End         int64
	Samples     int
	SpeechCount int
	MeanRMSDbfs *float64
}

// Coverage is the fraction of window samples flagged as active speech.
func (w WindowStats) Coverage() float64 {
	if w.Samples == 0 {
		return 0
	}
	return float64(w.SpeechCount) / float64(w.Samples)
}

// Window computes stats over the trailing windowMS ending at now. It scans
// newest-to-oldest and stops at the window boundary, so cost is proportional
// to the window, not the whole buffer.
func Window(st *ParticipantState, now, windowMS int64) WindowStats {
	stats := WindowStats{Start: now - windowMS, End: now}

	var rmsSum float64
	var rmsCount int
	for i := len(st.Samples) - 1; i >= 0; i-- {
		s := st.Samples[i]
		if s.TS < stats.Start {
			break
		}
		stats.Samples++
		if s.Speech {
			stats.SpeechCount++
		}
		if s.RMSDbfs != nil {
			rmsSum += *s.RMSDbfs
			rmsCount++
		}
	}
	if rmsCount > 0 {
		mean := rmsSum / float64(rmsCount)
		stats.MeanRMSDbfs = &mean
	}
	return stats
}

// WindowSamples returns the chronological sub-slice of samples inside the
// trailing window. The slice aliases the buffer; callers must not mutate it.
func WindowSamples(st *ParticipantState, now, windowMS int64) []Sample {
	start := now - windowMS
	i := len(st.Samples)
	for i > 0 && st.Samples[i-1].TS >= start {
		i--
	}
	return st.Samples[i:]
}
