// calibrate samples the configured capture region and reports what the
// signal extractor sees, so the ROI, scan rows, and color signature can
// be dialed in before driving. It can also record raw frames for the
// replay source.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/steerline/go-steerline/internal/log"
	"github.com/steerline/go-steerline/pkg/capture"
	"github.com/steerline/go-steerline/pkg/steering"
	"github.com/steerline/go-steerline/pkg/steering/scan"
)

func main() {
	var (
		display  = flag.Int("display", 0, "display index")
		samples  = flag.Int("samples", 1, "number of frames to sample")
		interval = flag.Duration("interval", 200*time.Millisecond, "delay between samples")
		record   = flag.String("record", "", "append sampled frames to a raw RGBA recording")
	)
	flag.Parse()

	log.Init("warn") // keep the report readable

	cfg := steering.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", "err", err)
	}

	src, err := capture.NewScreen(*display, cfg.ROI)
	if err != nil {
		log.Fatal("screen source", "err", err)
	}
	defer src.Close()

	var out *os.File
	if *record != "" {
		out, err = os.OpenFile(*record, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatal("open recording", "err", err)
		}
		defer out.Close()
	}

	perception := steering.NewPerception(cfg, scan.NewPixelScanner())
	estimator := steering.NewEstimator(cfg)

	fmt.Printf("ROI %v, center column %.1f\n", cfg.ROI, cfg.Center())
	for i := 0; i < *samples; i++ {
		if i > 0 {
			time.Sleep(*interval)
		}

		frame, err := src.Capture(cfg.ROI)
		if err != nil {
			fmt.Printf("sample %d: capture failed: %v\n", i, err)
			continue
		}
		if out != nil {
			if err := capture.WriteFrame(out, frame); err != nil {
				log.Fatal("write recording", "err", err)
			}
		}

		res, err := perception.Extract(frame, 0, false)
		if err != nil {
			fmt.Printf("sample %d: extract failed: %v\n", i, err)
			continue
		}

		fmt.Printf("sample %d: %d matched pixel(s)\n", i, res.Total)
		for _, s := range res.Samples {
			fmt.Printf("  row y=%-3d weight %.2f: %d column(s), center %.1f (offset %+.1f)\n",
				s.Y, s.Weight, len(s.Columns), s.Center, s.Center-cfg.Center())
		}
		if lateral, ok := estimator.Estimate(res); ok {
			fmt.Printf("  lateral error %+.1f\n", lateral)
		} else {
			fmt.Println("  no signal (below confidence threshold)")
		}
	}
}
