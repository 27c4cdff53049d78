package model

type Score struct {
	Name    string `json:"name"`
	Startup string `json:"startup"`
	// Number of biases found
	Score int `json:"score"`
	// Elapsed seconds
	Time int `json:"time"`
}

func (s Score) SameKey(o Score) bool {
	return s.Name == o.Name && s.Startup == o.Startup
}

// Beats reports whether s should replace o: a higher score, or the same score reached faster.
func (s Score) Beats(o Score) bool {
	return s.Score > o.Score || (s.Score == o.Score && s.Time < o.Time)
}
