// steerline keeps a simulated truck on the road by watching the game's
// route advisor strip and steering with relative mouse input.
//
// The loop starts idle; press the toggle hotkey (default f8) to engage.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/steerline/go-steerline/internal/config"
	"github.com/steerline/go-steerline/internal/log"
	"github.com/steerline/go-steerline/pkg/capture"
	"github.com/steerline/go-steerline/pkg/input"
	"github.com/steerline/go-steerline/pkg/steering"
	"github.com/steerline/go-steerline/pkg/steering/scan"
	"github.com/steerline/go-steerline/pkg/web"
)

func main() {
	var (
		preset  = flag.String("preset", "default", "tuning preset: default, gentle, aggressive")
		roi     = flag.String("roi", "", "capture region as x,y,w,h (overrides preset)")
		rows    = flag.String("rows", "", "scan rows as y:weight,... (overrides preset)")
		center  = flag.Float64("center", -1, "center column within the ROI (-1 = middle)")
		kp      = flag.Float64("kp", 0, "proportional gain override")
		kd      = flag.Float64("kd", 0, "derivative gain override")
		source  = flag.String("source", "screen", "frame source: screen, replay, remote")
		display = flag.Int("display", 0, "display index for the screen source")
		replay  = flag.String("replay", "", "raw RGBA recording for the replay source")
		loop    = flag.Bool("loop", false, "loop the replay recording")
		remote  = flag.String("remote", "", "websocket URL for the remote source")
		scanner = flag.String("scanner", "pixel", "row scanner: pixel, mask")
		toggle  = flag.String("toggle", "f8", "engage hotkey chord, comma separated")
		dash    = flag.String("dashboard", config.DashboardAddr(), "dashboard listen address, empty disables")
		level   = flag.String("log", config.LogLevel(), "log level: debug, info, warn, error")
	)
	flag.Parse()

	log.Init(*level)

	cfg, err := buildConfig(*preset, *roi, *rows, *center, *kp, *kd)
	if err != nil {
		log.Fatal("invalid configuration", "err", err)
	}

	rowScanner, err := buildScanner(*scanner)
	if err != nil {
		log.Fatal("invalid scanner", "err", err)
	}
	defer rowScanner.Close()

	src, err := buildSource(*source, cfg, *display, *replay, *loop, *remote)
	if err != nil {
		log.Fatal("frame source", "err", err)
	}
	defer src.Close()

	pilot, err := steering.New(cfg, src, input.NewMouse(), rowScanner)
	if err != nil {
		log.Fatal("invalid configuration", "err", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *dash != "" {
		server := web.NewServer(*dash, pilot)
		pilot.SetStateUpdater(server)
		go func() {
			if err := server.Start(); err != nil {
				log.Warn("dashboard stopped", "err", err)
			}
		}()
		defer server.Shutdown()
		log.Info("dashboard listening", "addr", *dash)
	}

	chord := strings.Split(*toggle, ",")
	go input.ListenToggle(ctx, chord, func() {
		if pilot.Toggle() {
			log.Info("hotkey: engaged")
		} else {
			log.Info("hotkey: idle")
		}
	})

	pilot.Run(ctx)
}

// buildConfig resolves the preset, then applies flag overrides.
func buildConfig(preset, roiSpec, rowSpec string, center, kp, kd float64) (steering.Config, error) {
	var cfg steering.Config
	switch preset {
	case "default":
		cfg = steering.DefaultConfig()
	case "gentle":
		cfg = steering.GentleConfig()
	case "aggressive":
		cfg = steering.AggressiveConfig()
	default:
		return cfg, fmt.Errorf("unknown preset %q", preset)
	}

	if roiSpec != "" {
		roi, err := parseROI(roiSpec)
		if err != nil {
			return cfg, err
		}
		cfg.ROI = roi
	}
	if rowSpec != "" {
		rows, err := parseRows(rowSpec)
		if err != nil {
			return cfg, err
		}
		cfg.Rows = rows
	}
	cfg.CenterColumn = center
	if kp > 0 {
		cfg.Kp = kp
	}
	if kd > 0 {
		cfg.Kd = kd
	}
	return cfg, nil
}

func buildScanner(name string) (scan.Scanner, error) {
	switch name {
	case "pixel":
		return scan.NewPixelScanner(), nil
	case "mask":
		return scan.NewMaskScanner(), nil
	default:
		return nil, fmt.Errorf("unknown scanner %q", name)
	}
}

func buildSource(name string, cfg steering.Config, display int, replay string, loop bool, remote string) (capture.Source, error) {
	switch name {
	case "screen":
		return capture.NewScreen(display, cfg.ROI)
	case "replay":
		if replay == "" {
			return nil, fmt.Errorf("-replay path required for the replay source")
		}
		return capture.NewReplay(replay, cfg.ROI.Dx(), cfg.ROI.Dy(), loop)
	case "remote":
		if remote == "" {
			return nil, fmt.Errorf("-remote url required for the remote source")
		}
		return capture.NewRemote(remote, cfg.ROI.Dx(), cfg.ROI.Dy())
	default:
		return nil, fmt.Errorf("unknown source %q", name)
	}
}

// parseROI parses "x,y,w,h" into display coordinates.
func parseROI(spec string) (image.Rectangle, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("ROI %q: want x,y,w,h", spec)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("ROI %q: %w", spec, err)
		}
		vals[i] = v
	}
	return image.Rect(vals[0], vals[1], vals[0]+vals[2], vals[1]+vals[3]), nil
}

// parseRows parses "y:weight,y:weight" into scan rows.
func parseRows(spec string) ([]steering.ScanRow, error) {
	var rows []steering.ScanRow
	for _, part := range strings.Split(spec, ",") {
		yw := strings.Split(strings.TrimSpace(part), ":")
		if len(yw) != 2 {
			return nil, fmt.Errorf("row %q: want y:weight", part)
		}
		y, err := strconv.Atoi(yw[0])
		if err != nil {
			return nil, fmt.Errorf("row %q: %w", part, err)
		}
		w, err := strconv.ParseFloat(yw[1], 64)
		if err != nil {
			return nil, fmt.Errorf("row %q: %w", part, err)
		}
		rows = append(rows, steering.ScanRow{Y: y, Weight: w})
	}
	return rows, nil
}
