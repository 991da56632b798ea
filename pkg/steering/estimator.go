package steering

// Estimator turns a ScanResult into a single signed lateral error
// relative to the center reference column. Sign follows ErrorSign:
// positive means the line sits right of center.
type Estimator struct {
	center    float64
	minPixels int
}

// NewEstimator creates the error estimator for the configured center
// column and confidence threshold.
func NewEstimator(cfg Config) *Estimator {
	return &Estimator{
		center:    cfg.Center(),
		minPixels: cfg.MinPixels,
	}
}

// Estimate returns the weighted lateral error and ok=true when the scan
// met the minimum-confidence pixel count. ok=false means no signal,
// which the controller handles by decaying toward neutral; it is not
// the same as a zero error.
//
// Rows contribute a weighted average of their offsets. When only some
// rows produced data (line visible far but not near, or vice versa) the
// weights renormalize over the rows present, so a lone far row still
// yields a full-strength error rather than a scaled-down one.
func (e *Estimator) Estimate(res ScanResult) (float64, bool) {
	if res.Empty() || res.Total < e.minPixels {
		return 0, false
	}

	var sum, weight float64
	for _, s := range res.Samples {
		sum += s.Weight * (s.Center - e.center)
		weight += s.Weight
	}
	if weight == 0 {
		return 0, false
	}
	return ErrorSign * sum / weight, true
}
