package dsp

import "math"

// LinearToDB converts a linear amplitude value to decibels.
// Returns MinDB for values <= 0.
func LinearToDB(linear float64) float64 {
	if linear <= 0 {
		return MinDB
	}
	return 20.0 * math.Log10(linear)
}

// DBToLinear converts a decibel value to linear amplitude.
// Values <= MinDB return 0.
func DBToLinear(db float64) float64 {
	if db <= MinDB {
		return 0
	}
	return math.Pow(10.0, db/20.0)
}

// LevelDB returns the RMS level of a buffer in dBFS, where a full-scale
// sine has an RMS level of roughly -3 dB. Empty or silent buffers
// report MinDB.
func LevelDB(buffer []float32) float64 {
	return LinearToDB(float64(RMS(buffer)))
}
