package models

// Requests for the analysis HTTP endpoints. Defined in domain for consistency and reuse.

type AnalyzeRequest struct {
	Source  string       `json:"source" default:"api"`
	Samples [][2]float64 `json:"samples" validate:"required,min=2"` // [time_s, voltage_mv] pairs

	// Optional BPM window in seconds.
	WindowStart *float64 `json:"window_start" validate:"omitempty,gte=0"`
	WindowEnd   *float64 `json:"window_end" validate:"omitempty,gtefield=WindowStart"`
}

// Strip converts the request payload to a domain strip.
func (r AnalyzeRequest) Strip() Strip {
	samples := make([]Sample, len(r.Samples))
	for i, p := range r.Samples {
		samples[i] = Sample{T: p[0], V: p[1]}
	}
	return Strip{Source: r.Source, Samples: samples}
}

type ReportsRequest struct {
	Source string `query:"source" json:"source" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}
