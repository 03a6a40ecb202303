package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/1broseidon/snaptile/internal/config"
	"github.com/1broseidon/snaptile/internal/daemon"
	"github.com/1broseidon/snaptile/internal/geom"
	"github.com/1broseidon/snaptile/internal/hotkeys"
	"github.com/1broseidon/snaptile/internal/ipc"
	"github.com/1broseidon/snaptile/internal/platform"
	"github.com/1broseidon/snaptile/internal/tiling"
	"gopkg.in/yaml.v3"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: snaptile daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: snaptile daemon")
			os.Exit(2)
		}
		runDaemon()
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "monitors":
		os.Exit(runMonitors(os.Args[2:]))
	case "reload":
		os.Exit(runSimple("reload", os.Args[2:], "Reload the daemon configuration.", func(c *ipc.Client) error {
			return c.Reload()
		}))
	case "tile":
		os.Exit(runTile(os.Args[2:]))
	case "best-fit":
		os.Exit(runSimple("best-fit", os.Args[2:], "Grow the active window into the free space next to it.", func(c *ipc.Client) error {
			moved, err := c.BestFit()
			if err == nil && !moved {
				fmt.Println("no free space next to the active window")
			}
			return err
		}))
	case "untile":
		os.Exit(runSimple("untile", os.Args[2:], "Restore the active window to its size before tiling.", func(c *ipc.Client) error {
			return c.Untile()
		}))
	case "focus":
		os.Exit(runFocus(os.Args[2:]))
	case "group":
		os.Exit(runGroup(os.Args[2:]))
	case "free":
		os.Exit(runFree(os.Args[2:]))
	case "layout":
		os.Exit(runLayout(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: snaptile <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the snaptile daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status and tiled windows")
	fmt.Fprintln(w, "  monitors            List monitors and their work areas")
	fmt.Fprintln(w, "  reload              Reload the daemon configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tile <position>     Tile the active window (left, top-right, maximize, ...)")
	fmt.Fprintln(w, "  best-fit            Grow the active window into free space")
	fmt.Fprintln(w, "  untile              Restore the active window")
	fmt.Fprintln(w, "  focus <direction>   Focus the nearest tiled window (up, down, left, right)")
	fmt.Fprintln(w, "  group               Show the top tile group")
	fmt.Fprintln(w, "  free                Show free space (live or offline)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  layout list         List available layouts")
	fmt.Fprintln(w, "  layout apply        Tile the top windows into a layout")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'snaptile <command> --help' for command-specific options.")
}

// runSimple handles commands that take no arguments and make one IPC call.
func runSimple(name string, args []string, description string, call func(*ipc.Client) error) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: snaptile %s\n", name)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, description)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", name)
		fs.Usage()
		return 2
	}

	if err := call(ipc.NewClient()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: snaptile status [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	jsonOut := fs.Bool("json", false, "Output JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut || !stdoutIsTerminal() {
		return printJSON(status)
	}

	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	fmt.Printf("resizing:       %v\n", status.Resizing)
	fmt.Printf("window_gap:     %d\n", status.Settings.WindowGap)
	fmt.Printf("tiled_windows:  %d\n", len(status.Tiled))
	for _, w := range status.Tiled {
		fmt.Printf("  - 0x%x monitor=%d rect=%s", uint32(w.ID), w.MonitorID, w.TiledRect)
		if len(w.Peers) > 1 {
			fmt.Printf(" group=%v", w.Peers)
		}
		fmt.Println()
	}
	return 0
}

func runMonitors(args []string) int {
	fs := flag.NewFlagSet("monitors", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Output JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	data, err := ipc.NewClient().GetMonitors()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut || !stdoutIsTerminal() {
		return printJSON(data)
	}
	for _, m := range data.Monitors {
		fmt.Printf("%d %-10s bounds=%s usable=%s\n", m.ID, m.Name, m.Bounds, m.Usable)
	}
	return 0
}

func runTile(args []string) int {
	fs := flag.NewFlagSet("tile", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		names := make([]string, 0, len(tiling.Positions()))
		for _, p := range tiling.Positions() {
			names = append(names, p.String())
		}
		fmt.Fprintln(os.Stderr, "Usage: snaptile tile <position>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintf(os.Stderr, "Positions: %s\n", strings.Join(names, ", "))
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "tile requires <position>")
		fs.Usage()
		return 2
	}
	pos, err := tiling.ParsePosition(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}

	if err := ipc.NewClient().Tile(pos); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runFocus(args []string) int {
	fs := flag.NewFlagSet("focus", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: snaptile focus <up|down|left|right>")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "focus requires <direction>")
		fs.Usage()
		return 2
	}
	dir, err := geom.ParseDirection(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	data, err := ipc.NewClient().Focus(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if !data.Found {
		fmt.Printf("no tiled window %s of the active window\n", dir)
		return 1
	}
	return 0
}

func runGroup(args []string) int {
	fs := flag.NewFlagSet("group", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Output JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	data, err := ipc.NewClient().GetGroup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut || !stdoutIsTerminal() {
		return printJSON(data)
	}
	if len(data.Windows) == 0 {
		fmt.Println("no tile group on the active display")
		return 0
	}
	for _, w := range data.Windows {
		fmt.Printf("%d 0x%x tiled=%s frame=%s\n", w.StackOrder, uint32(w.ID), w.TiledRect, w.Frame)
	}
	return 0
}

func printLayoutUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  snaptile layout list [--json]")
	fmt.Fprintln(w, "  snaptile layout apply <layout>")
}

func runLayout(args []string) int {
	if len(args) == 0 {
		printLayoutUsage(os.Stderr)
		return 2
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printLayoutUsage(os.Stdout)
		return 0
	}

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		jsonOut := fs.Bool("json", false, "Output JSON")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}

		data, err := ipc.NewClient().ListLayouts()
		if err != nil {
			// Offline: read the layouts straight from the config file.
			cfg, cfgErr := config.Load()
			if cfgErr != nil {
				fmt.Fprintln(os.Stderr, cfgErr)
				return 1
			}
			data = localLayouts(cfg)
		}
		if *jsonOut || !stdoutIsTerminal() {
			return printJSON(data)
		}
		fmt.Printf("favorite_layout: %s\n", data.FavoriteLayout)
		for _, l := range data.Layouts {
			if l.Description != "" {
				fmt.Printf("- %-12s %-6s %s\n", l.Name, l.Mode, l.Description)
			} else {
				fmt.Printf("- %-12s %s\n", l.Name, l.Mode)
			}
		}
		return 0

	case "apply":
		fs := flag.NewFlagSet("apply", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: snaptile layout apply <layout>")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Tile the topmost windows of the active display into a layout.")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "layout apply requires <layout>")
			fs.Usage()
			return 2
		}
		n, err := ipc.NewClient().ApplyLayout(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("tiled %d windows\n", n)
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown layout command: %s\n\n", args[0])
		printLayoutUsage(os.Stderr)
		return 2
	}
}

func localLayouts(cfg *config.Config) *ipc.LayoutsData {
	data := &ipc.LayoutsData{FavoriteLayout: cfg.FavoriteLayout}
	for _, name := range cfg.LayoutNames() {
		l := cfg.Layouts[name]
		data.Layouts = append(data.Layouts, ipc.LayoutInfo{Name: name, Mode: string(l.Mode), Description: l.Description})
	}
	return data
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  snaptile config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  snaptile config print [--path PATH] [--defaults]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/snaptile/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		var err error
		if *path == "" {
			_, err = config.LoadWithSources()
		} else {
			_, err = config.LoadFromPath(*path)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/snaptile/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			var res *config.LoadResult
			var err error
			if *path == "" {
				res, err = config.LoadWithSources()
			} else {
				res, err = config.LoadFromPath(*path)
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			for _, f := range res.Files {
				fmt.Printf("# source: %s\n", f)
			}
			cfg = res.Config
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runDaemon() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Configuration loaded (gap: %dpx, favorite layout: %q)", cfg.GapSize, cfg.FavoriteLayout)

	if err := applyX11Env(cfg); err != nil {
		log.Fatalf("Failed to resolve display: %v", err)
	}

	backend, err := platform.NewLinuxBackendFromDisplay()
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer backend.Disconnect()

	log.Println("snaptile daemon started successfully")

	tiler := tiling.NewTiler(backend, cfg)

	hotkeyHandler := hotkeys.NewHandler(backend, tiler)
	log.Printf("Registered %d hotkeys", hotkeyHandler.RegisterConfig(cfg))
	if cfg.ResizeButton != "" {
		if err := hotkeyHandler.RegisterResizeDrag(cfg.ResizeButton, tiler); err != nil {
			log.Printf("Warning: Failed to register resize button: %v", err)
		} else {
			log.Printf("Resize button registered: %s", cfg.ResizeButton)
		}
	}

	reloadChan := make(chan struct{}, 1)

	ipcServer, err := ipc.NewServer(cfg, tiler, backend, reloadChan)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	syncLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel(cfg.LogLevel),
	}))
	stateSynchronizer := daemon.NewStateSynchronizer(tiler, backend.WindowIDs, syncLogger)

	if err := backend.WatchWindowList(func() {
		if _, err := stateSynchronizer.Sync(); err != nil {
			syncLogger.Debug("window list sync failed", "error", err)
		}
	}); err != nil {
		log.Printf("Warning: Failed to watch the window list: %v", err)
	}

	reconcilerCtx, reconcilerCancel := context.WithCancel(context.Background())
	defer reconcilerCancel()
	if cfg.ReconcileInterval > 0 {
		reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
			Interval: time.Duration(cfg.ReconcileInterval) * time.Second,
			Logger:   syncLogger,
		}, stateSynchronizer)
		go reconciler.Run(reconcilerCtx)
	}

	applyConfig := func(newCfg *config.Config) {
		tiler.UpdateConfig(newCfg)
		hotkeyHandler.Unregister()
		log.Printf("Registered %d hotkeys", hotkeyHandler.RegisterConfig(newCfg))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for {
			select {
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					log.Println("Received SIGHUP, reloading config...")
					newCfg, err := config.Load()
					if err != nil {
						log.Printf("Config reload failed: %v", err)
						continue
					}
					ipcServer.UpdateConfig(newCfg)
					applyConfig(newCfg)
					log.Println("Config reloaded successfully")

				case os.Interrupt, syscall.SIGTERM:
					log.Println("Shutting down snaptile daemon...")
					if err := tiler.AbortGrab(); err != nil && !errors.Is(err, tiling.ErrNoResize) {
						log.Printf("Warning: Failed to abort resize: %v", err)
					}
					reconcilerCancel()
					ipcServer.Stop()
					backend.Quit()
					os.Exit(0)
				}

			case <-reloadChan:
				applyConfig(ipcServer.GetConfig())
			}
		}
	}()

	log.Println("Entering event loop...")
	backend.EventLoop()
}
