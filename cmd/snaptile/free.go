package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/1broseidon/snaptile/internal/config"
	"github.com/1broseidon/snaptile/internal/geom"
	"github.com/1broseidon/snaptile/internal/ipc"
	"github.com/1broseidon/snaptile/internal/tiling"
)

// parseRect parses "x,y,width,height".
func parseRect(s string) (geom.Rect, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 4 {
		return geom.Rect{}, fmt.Errorf("invalid rect %q: want x,y,width,height", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return geom.Rect{}, fmt.Errorf("invalid rect %q: %w", s, err)
		}
		v[i] = n
	}
	r := geom.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
	if !r.Valid() {
		return geom.Rect{}, fmt.Errorf("invalid rect %q: width and height must be positive", s)
	}
	return r, nil
}

// parseRects parses a semicolon separated list of rects. Empty entries are
// skipped.
func parseRects(s string) ([]geom.Rect, error) {
	var rects []geom.Rect
	for _, part := range strings.Split(s, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		r, err := parseRect(part)
		if err != nil {
			return nil, err
		}
		rects = append(rects, r)
	}
	return rects, nil
}

// planFreeSpace runs the solver offline with the configured margins.
func planFreeSpace(cfg *config.Config, workArea geom.Rect, occupied []geom.Rect) ipc.FreeSpaceData {
	return tiling.PlanFreeSpace(workArea, occupied, tiling.SettingsFromConfig(cfg).FreeSpaceOptions())
}

func runFree(args []string) int {
	fs := flag.NewFlagSet("free", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: snaptile free [--json] [--x N --y N --width N --height N] [--occupied x,y,w,h;...]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show the free space of the active display. With --width and --height the")
		fmt.Fprintln(os.Stderr, "solver runs offline on the given work area and occupied rects.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	jsonOut := fs.Bool("json", false, "Output JSON")
	x := fs.Int("x", 0, "Work area X")
	y := fs.Int("y", 0, "Work area Y")
	width := fs.Int("width", 0, "Work area width (enables offline mode)")
	height := fs.Int("height", 0, "Work area height (enables offline mode)")
	occupiedFlag := fs.String("occupied", "", "Occupied rects as x,y,w,h separated by ';'")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "free takes no arguments")
		fs.Usage()
		return 2
	}

	var report *ipc.FreeSpaceData
	if *width > 0 || *height > 0 {
		workArea := geom.Rect{X: *x, Y: *y, Width: *width, Height: *height}
		if !workArea.Valid() {
			fmt.Fprintln(os.Stderr, "--width and --height must both be positive")
			return 2
		}
		occupied, err := parseRects(*occupiedFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		planned := planFreeSpace(cfg, workArea, occupied)
		report = &planned
	} else {
		if *occupiedFlag != "" {
			fmt.Fprintln(os.Stderr, "--occupied needs --width and --height")
			return 2
		}
		var err error
		report, err = ipc.NewClient().GetFreeSpace()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	if *jsonOut || !stdoutIsTerminal() {
		return printJSON(report)
	}
	printFreeSpace(os.Stdout, report)
	return 0
}

func printFreeSpace(w io.Writer, report *ipc.FreeSpaceData) {
	fmt.Fprintf(w, "work_area: %s\n", report.WorkArea)
	fmt.Fprintf(w, "occupied:  %d\n", len(report.Occupied))
	for _, r := range report.Occupied {
		fmt.Fprintf(w, "  - %s\n", r)
	}
	fmt.Fprintf(w, "regions:   %d\n", len(report.Regions))
	for _, r := range report.Regions {
		fmt.Fprintf(w, "  - %s\n", r)
	}
	if report.Free != nil {
		fmt.Fprintf(w, "free:      %s\n", *report.Free)
	} else {
		fmt.Fprintln(w, "free:      none")
	}
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
