package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/1broseidon/snaptile/internal/config"
)

var (
	lookupEnvFn = os.Getenv
	readDirFn   = os.ReadDir
	statFn      = os.Stat
)

// x11Env resolves DISPLAY and XAUTHORITY for the daemon. The environment
// wins over the config file; a missing DISPLAY falls back to the highest
// display socket under /tmp/.X11-unix.
func x11Env(cfg *config.Config) (display, xauthority string, err error) {
	display = strings.TrimSpace(lookupEnvFn("DISPLAY"))
	xauthority = strings.TrimSpace(lookupEnvFn("XAUTHORITY"))

	if display == "" && cfg != nil {
		display = strings.TrimSpace(cfg.Display)
	}
	if xauthority == "" && cfg != nil {
		xauthority = strings.TrimSpace(cfg.XAuthority)
	}
	if display == "" {
		display = detectDisplayFromSockets("/tmp/.X11-unix")
	}
	if display == "" {
		return "", "", fmt.Errorf("no X display found; export DISPLAY or set display in config (e.g. display: \":0\")")
	}

	if xauthority == "" {
		home := strings.TrimSpace(lookupEnvFn("HOME"))
		if home != "" {
			candidate := filepath.Join(home, ".Xauthority")
			if _, err := statFn(candidate); err == nil {
				xauthority = candidate
			}
		}
	}
	return display, xauthority, nil
}

// applyX11Env exports the resolved display variables so the X11 connection
// picks them up.
func applyX11Env(cfg *config.Config) error {
	display, xauthority, err := x11Env(cfg)
	if err != nil {
		return err
	}
	if err := os.Setenv("DISPLAY", display); err != nil {
		return err
	}
	if xauthority != "" {
		return os.Setenv("XAUTHORITY", xauthority)
	}
	return nil
}

func detectDisplayFromSockets(dir string) string {
	entries, err := readDirFn(dir)
	if err != nil {
		return ""
	}

	var displays []int
	for _, entry := range entries {
		name := entry.Name()
		if len(name) < 2 || name[0] != 'X' {
			continue
		}
		n, err := strconv.Atoi(name[1:])
		if err != nil {
			continue
		}
		displays = append(displays, n)
	}

	if len(displays) == 0 {
		return ""
	}
	sort.Ints(displays)
	return fmt.Sprintf(":%d", displays[len(displays)-1])
}
