package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/whyrusleeping/drumloop/config"
	"github.com/whyrusleeping/drumloop/debug"
)

// analyser window for the console and scope views
const tapFrames = 8192

func usage() {
	fmt.Fprintln(os.Stderr, `usage: drumloop [flags] [command]

commands:
  play                 play the loop until interrupted (default)
  console              interactive command prompt
  grid                 terminal step grid with playhead
  scope                waveform and spectrum window
  render <out.wav> [bars]
                       bounce the loop to a wav file

flags:`)
	flag.PrintDefaults()
}

func main() {
	cfgPath := flag.String("config", "", "config file (default ~/.config/drumloop/config.json)")
	bpm := flag.Int("bpm", 0, "tempo override")
	backend := flag.String("backend", "", "audio backend: speaker, oto or manual")
	seed := flag.Uint64("seed", 0, "noise seed, 0 picks one")
	dbg := flag.Bool("debug", false, "write a debug log")
	save := flag.Bool("save", false, "write the effective config back to disk")
	flag.Usage = usage
	flag.Parse()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		fmt.Println("loading config:", err)
		os.Exit(1)
	}
	if *bpm > 0 {
		cfg.BPM = *bpm
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *dbg {
		cfg.Debug = true
	}

	if *save {
		if err := saveConfig(cfg, *cfgPath); err != nil {
			fmt.Println("saving config:", err)
			os.Exit(1)
		}
	}

	if cfg.Debug {
		if err := debug.Enable(cfg.DebugPath()); err != nil {
			fmt.Println("enabling debug log:", err)
		}
		defer debug.Disable()
	}

	if err := run(cfg, flag.Args()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

func saveConfig(cfg *config.Config, path string) error {
	if path == "" {
		return cfg.Save()
	}
	return cfg.SaveFile(path)
}

func run(cfg *config.Config, args []string) error {
	cmd := "play"
	if len(args) > 0 {
		cmd = args[0]
	}

	if cmd == "render" {
		return render(cfg, args[1:])
	}

	eng, err := EngineFromConfig(cfg, WithAnalyser(tapFrames))
	if err != nil {
		return err
	}
	defer eng.Close()

	switch cmd {
	case "play":
		return play(eng)
	case "console":
		fmt.Println("drumloop console, type help for commands")
		NewConsole(eng, os.Stdout).Run()
		return nil
	case "grid":
		return RunGrid(eng, cfg.BPM)
	case "scope":
		return RunScope(eng)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func play(eng *Engine) error {
	if err := eng.EnsureAudio(); err != nil {
		return err
	}
	eng.StartLoop()
	fmt.Printf("playing at %s per step, ctrl-c to stop\n", eng.Sequencer().Interval())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	eng.StopLoop()
	fmt.Println("stopped")
	return nil
}

func render(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("render needs an output path")
	}

	bars := 4
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid bar count %q", args[1])
		}
		bars = n
	}

	fi, err := os.Create(args[0])
	if err != nil {
		return err
	}
	defer fi.Close()

	if err := RenderWAV(fi, cfg, bars); err != nil {
		return fmt.Errorf("rendering %s: %w", args[0], err)
	}

	fmt.Printf("wrote %d bars at %d bpm to %s\n", bars, cfg.BPM, args[0])
	return nil
}
