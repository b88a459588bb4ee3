package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-sampler/config"
	"go-sampler/engine"
	"go-sampler/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		listPorts()
	case "monitor":
		filter := ""
		if len(os.Args) > 2 {
			filter = os.Args[2]
		}
		monitor(filter)
	case "replay":
		if len(os.Args) < 4 {
			usage()
			os.Exit(2)
		}
		err = replay(os.Args[2], os.Args[3])
	case "poll":
		pollDevices()
	default:
		usage()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                          - List all MIDI ports")
	fmt.Println("  monitor [port]                - Print decoded events from inputs")
	fmt.Println("  replay <file.mid> <inst.yaml> - Print the triggers a file produces")
	fmt.Println("  poll                          - Poll for device changes")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ins, ok := midi.InPorts(3 * time.Second)
	if !ok {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return
	}
	for i, p := range ins {
		fmt.Printf("  %d: %s\n", i, p.String())
	}

	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range gomidi.GetOutPorts() {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
}

func monitor(portFilter string) {
	filter := midi.AllPorts
	if portFilter != "" {
		cfg := &config.Config{Inputs: []config.InputConfig{{PortName: portFilter, AutoConnect: true}}}
		filter = cfg.PortFilter()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dm := midi.NewDeviceManager(filter)
	go dm.Run(ctx)

	fmt.Println("Waiting for inputs. Ctrl+C to exit.")
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-dm.Events():
			if !ok {
				return
			}
			if ev.Type == midi.DeviceDisconnected {
				fmt.Printf("[%s] disconnected %s\n", time.Now().Format("15:04:05"), ev.ID)
				continue
			}
			fmt.Printf("[%s] connected %s\n", time.Now().Format("15:04:05"), ev.ID)
			go func(c midi.Controller) {
				for e := range c.Events() {
					fmt.Printf("%-24s %s\n", c.ID(), e)
				}
			}(ev.Controller)
		}
	}
}

func replay(midiPath, instrumentPath string) error {
	def, err := config.LoadInstrument(instrumentPath)
	if err != nil {
		return err
	}
	in, err := engine.FromDefinition(def, engine.Options{Seed: 1})
	if err != nil {
		return err
	}
	defer in.Close()

	events, err := midi.ReadSMFFile(midiPath)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d events, %d layers\n", in.Name(), len(events), in.NumLayers())
	for _, ev := range events {
		for _, t := range in.Dispatch(ev) {
			fmt.Printf("%10.3fs  %s\n", ev.Time.Seconds(), t)
		}
	}

	s := in.Snapshot()
	fmt.Printf("\n%d events, %d triggers\n", s.Events, s.Triggers)
	return nil
}

func pollDevices() {
	fmt.Println("Polling for device changes every 2 seconds...")
	fmt.Println("Connect/disconnect a keyboard to test. Ctrl+C to exit.")

	lastIn := ""

	for {
		ins, ok := midi.InPorts(3 * time.Second)
		if !ok {
			fmt.Println("port scan timed out")
			time.Sleep(2 * time.Second)
			continue
		}

		var inNames []string
		for _, p := range ins {
			if _, wanted := midi.AllPorts(p.String()); wanted {
				inNames = append(inNames, p.String())
			}
		}

		currentIn := strings.Join(inNames, ",")
		if currentIn != lastIn {
			fmt.Printf("\n[%s] Device change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Inputs: %v\n", inNames)
			lastIn = currentIn
		}

		time.Sleep(2 * time.Second)
	}
}
