package steering

import (
	"fmt"
	"image"
	"math"

	"github.com/steerline/go-steerline/pkg/steering/scan"
)

// RowSample is the extraction result of one scan row that matched at
// least one pixel.
type RowSample struct {
	Y       int     // row offset within the ROI
	Weight  float64 // configured weight of this row
	Columns []int   // matched columns of the chosen cluster, ascending
	Center  float64 // midpoint of the chosen cluster
}

// ScanResult is the compact geometric description of one frame.
// Rows with zero matches are simply absent; an empty result is a
// distinct state from "centered".
type ScanResult struct {
	Samples []RowSample
	Total   int // matched pixels across all chosen clusters
}

// Empty reports whether no row produced a sample.
func (r ScanResult) Empty() bool { return len(r.Samples) == 0 }

// Perception reduces a frame to a ScanResult using the configured scan
// rows and color signature. It holds no state between frames; the
// continuity hint is passed in explicitly so extraction stays a pure
// function of its inputs.
type Perception struct {
	scanner    scan.Scanner
	rows       []ScanRow
	sig        scan.Signature
	clusterGap int
}

// NewPerception creates the signal extractor.
func NewPerception(cfg Config, scanner scan.Scanner) *Perception {
	return &Perception{
		scanner:    scanner,
		rows:       cfg.Rows,
		sig:        cfg.Signature,
		clusterGap: cfg.ClusterGap,
	}
}

// Extract scans every configured row of frame. hint is the previous
// cycle's detected center column; when a row's matches split into
// disjoint clusters, the cluster nearest the hint wins. This rejects
// spurious matches where an unrelated route segment crosses the line.
// Without a hint the widest cluster wins.
func (p *Perception) Extract(frame *image.RGBA, hint float64, hasHint bool) (ScanResult, error) {
	if frame == nil {
		return ScanResult{}, fmt.Errorf("nil frame")
	}

	var res ScanResult
	for _, row := range p.rows {
		cols, err := p.scanner.ScanRow(frame, row.Y, p.sig)
		if err != nil {
			return ScanResult{}, fmt.Errorf("scan row y=%d: %w", row.Y, err)
		}
		if len(cols) == 0 {
			// No data point for this row, not a zero offset.
			continue
		}

		cluster := pickCluster(scan.Clusters(cols, p.clusterGap), hint, hasHint)
		res.Samples = append(res.Samples, RowSample{
			Y:       row.Y,
			Weight:  row.Weight,
			Columns: clusterColumns(cols, cluster),
			Center:  cluster.Center(),
		})
		res.Total += cluster.Count
	}
	return res, nil
}

// pickCluster chooses among disjoint clusters: nearest to the previous
// detection when a hint exists, otherwise the widest.
func pickCluster(clusters []scan.Cluster, hint float64, hasHint bool) scan.Cluster {
	best := clusters[0]
	for _, c := range clusters[1:] {
		if hasHint {
			if math.Abs(c.Center()-hint) < math.Abs(best.Center()-hint) {
				best = c
			}
		} else if c.Count > best.Count {
			best = c
		}
	}
	return best
}

// clusterColumns filters the matched columns down to the chosen cluster.
func clusterColumns(cols []int, c scan.Cluster) []int {
	out := make([]int, 0, c.Count)
	for _, col := range cols {
		if col >= c.Start && col <= c.End {
			out = append(out, col)
		}
	}
	return out
}
