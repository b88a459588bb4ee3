package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-sampler/config"
	"go-sampler/debug"
	"go-sampler/engine"
	"go-sampler/midi"
	"go-sampler/theme"
	"go-sampler/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Debug {
		if err := debug.Enable(); err != nil {
			return fmt.Errorf("enable debug log: %w", err)
		}
		defer debug.Disable()
	}

	// Instrument from the command line, else the last one loaded
	path := cfg.Instrument
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if path == "" {
		fmt.Println("usage: go-sampler <instrument.yaml>")
		os.Exit(2)
	}

	def, err := config.LoadInstrument(path)
	if err != nil {
		return err
	}
	in, err := engine.FromDefinition(def, engine.Options{Seed: cfg.Engine.Seed})
	if err != nil {
		return err
	}
	defer in.Close()

	if path != cfg.Instrument {
		cfg.Instrument = path
		if err := cfg.Save(); err != nil {
			debug.Log("config", "save: %v", err)
		}
	}

	palette, err := theme.LoadOrDefault(cfg.Palette)
	if err != nil {
		return err
	}
	th := theme.New(palette)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Inputs come and go; the monitor forwards their events here
	events := make(chan midi.Event, 256)
	go in.Run(ctx, events, nil)

	deviceMgr := midi.NewDeviceManager(cfg.PortFilter())
	go deviceMgr.Run(ctx)

	debug.Log("main", "loaded %s: %d layers", in.Name(), in.NumLayers())

	m := tui.NewModel(in, deviceMgr, events, th)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
