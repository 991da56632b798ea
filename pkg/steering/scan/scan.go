// Package scan provides color-signature pixel scanning over captured
// frames. A Scanner reports which columns of a scan row match the route
// line's color signature; backends exist for plain RGBA buffers and for
// OpenCV range masking.
package scan

import (
	"fmt"
	"image"
)

// Signature is the per-channel color range that counts as "route line".
// A pixel matches when every channel falls inside its inclusive range.
type Signature struct {
	RMin, RMax uint8
	GMin, GMax uint8
	BMin, BMax uint8
}

// DefaultSignature matches the reddish route line drawn by the game's
// route advisor.
func DefaultSignature() Signature {
	return Signature{
		RMin: 200, RMax: 255,
		GMin: 0, GMax: 25,
		BMin: 0, BMax: 25,
	}
}

// Matches reports whether a pixel's RGB values fall inside the signature.
func (s Signature) Matches(r, g, b uint8) bool {
	return r >= s.RMin && r <= s.RMax &&
		g >= s.GMin && g <= s.GMax &&
		b >= s.BMin && b <= s.BMax
}

// Validate checks that every channel range is ordered.
func (s Signature) Validate() error {
	if s.RMin > s.RMax {
		return fmt.Errorf("red range inverted: %d > %d", s.RMin, s.RMax)
	}
	if s.GMin > s.GMax {
		return fmt.Errorf("green range inverted: %d > %d", s.GMin, s.GMax)
	}
	if s.BMin > s.BMax {
		return fmt.Errorf("blue range inverted: %d > %d", s.BMin, s.BMax)
	}
	return nil
}

// Scanner finds signature-matching columns in one row of a frame.
type Scanner interface {
	// ScanRow returns the matching column positions of row y in
	// ascending order. y is relative to the frame's bounds.
	ScanRow(frame *image.RGBA, y int, sig Signature) ([]int, error)

	// Close releases backend resources.
	Close() error
}

// Cluster is a contiguous run of matched columns.
type Cluster struct {
	Start int // first column
	End   int // last column, inclusive
	Count int // matched columns inside the run
}

// Center returns the midpoint of the cluster.
func (c Cluster) Center() float64 {
	return float64(c.Start) + float64(c.End-c.Start)/2
}

// Clusters segments ascending column positions into runs. Columns more
// than maxGap apart start a new cluster, so a route line crossed by an
// unrelated segment shows up as disjoint clusters instead of one wide
// smear.
func Clusters(columns []int, maxGap int) []Cluster {
	if len(columns) == 0 {
		return nil
	}
	if maxGap < 1 {
		maxGap = 1
	}

	var out []Cluster
	cur := Cluster{Start: columns[0], End: columns[0], Count: 1}
	for _, col := range columns[1:] {
		if col-cur.End > maxGap {
			out = append(out, cur)
			cur = Cluster{Start: col, End: col, Count: 1}
			continue
		}
		cur.End = col
		cur.Count++
	}
	return append(out, cur)
}
