package stats

// Fences are the inclusive bounds outside which a value is an outlier.
type Fences struct {
	Lower float64
	Upper float64
}

// Contains reports whether v lies within the fences.
func (f Fences) Contains(v float64) bool {
	return v >= f.Lower && v <= f.Upper
}

// Clamp limits v to the fences.
func (f Fences) Clamp(v float64) float64 {
	if v < f.Lower {
		return f.Lower
	}
	if v > f.Upper {
		return f.Upper
	}
	return v
}

// IQRFences returns Q1 - k*IQR and Q3 + k*IQR.
func IQRFences(x []float64, k float64) Fences {
	q1, _, q3 := Quartiles(x)
	iqr := q3 - q1
	return Fences{Lower: q1 - k*iqr, Upper: q3 + k*iqr}
}

// ZScoreFences returns mean - k*std and mean + k*std using the sample
// standard deviation. With fewer than two values the fences collapse onto
// the mean.
func ZScoreFences(x []float64, k float64) Fences {
	mean := Mean(x)
	std, ok := Std(x)
	if !ok {
		std = 0
	}
	return Fences{Lower: mean - k*std, Upper: mean + k*std}
}
