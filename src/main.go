package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/jinjor/polysynth/src/synth"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		backend   = flag.String("backend", "oto", "audio backend: oto or portaudio")
		record    = flag.String("record", "", "render a demo sequence to a WAV file and exit")
		rate      = flag.Int("rate", 48000, "sample rate")
		block     = flag.Int("block", 512, "block size in frames")
		poly      = flag.Int("poly", 32, "max polyphony")
		retrigger = flag.String("retrigger", "overlap", "retrigger mode: overlap or reuse")
	)
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	log.Printf("NumCPU: %v\n", runtime.NumCPU())

	cfg := synth.DefaultConfig()
	cfg.SampleRate = *rate
	cfg.BlockSize = *block
	cfg.MaxPolyphony = *poly
	switch *retrigger {
	case "overlap":
		cfg.Retrigger = synth.RetriggerOverlap
	case "reuse":
		cfg.Retrigger = synth.RetriggerReuse
	default:
		log.Fatalf("unknown retrigger mode: %v\n", *retrigger)
	}

	engine, err := synth.NewEngine(cfg)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}

	if *record != "" {
		if err := recordDemo(engine, *record); err != nil {
			log.Fatalf("error: %v\n", err)
		}
		log.Printf("wrote %v\n", *record)
		return
	}

	sink, err := synth.NewSink(*backend, engine)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer sink.Close()

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		sig := <-signalCh
		log.Printf("Caught signal %s: shutting down...\n", sig)
		cancel()
	}()

	// every event source funnels through one pump goroutine, the ring's
	// single producer
	events := make(chan synth.Event, 64)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sink.Start(ctx)
	})
	g.Go(func() error {
		return synth.Pump(ctx, engine, synth.ListenToMidiIn(ctx), events)
	})
	rl, err := readline.New("> ")
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	g.Go(func() error {
		return repl(ctx, cancel, engine, events, rl)
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

// recordDemo bounces a short arpeggio so a parameter change can be
// listened to without a MIDI keyboard attached.
func recordDemo(engine *synth.Engine, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rate := engine.Config().SampleRate
	beat := rate / 2
	notes := []synth.BounceNote{
		{Note: 60, Velocity: 0.9, OnFrame: 0, OffFrame: beat},
		{Note: 64, Velocity: 0.9, OnFrame: beat, OffFrame: 2 * beat},
		{Note: 67, Velocity: 0.9, OnFrame: 2 * beat, OffFrame: 3 * beat},
		{Note: 72, Velocity: 1.0, OnFrame: 3 * beat, OffFrame: 5 * beat},
	}
	return synth.Bounce(engine, f, 6*beat, notes)
}

// repl owns the prompt. Readline runs in its own goroutine so a cancel
// from elsewhere (signal, sink failure) never waits for the user to press
// Enter; a watcher closes the instance to unblock any pending read.
func repl(ctx context.Context, cancel context.CancelFunc, engine *synth.Engine, events chan<- synth.Event, rl *readline.Instance) error {
	defer rl.Close()
	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		for {
			line, err := rl.Readline()
			if err != nil {
				readErr <- err
				return
			}
			lines <- line
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Println("repl() interrupted")
			return nil
		case err := <-readErr:
			if err == readline.ErrInterrupt || err == io.EOF {
				cancel()
				return nil
			}
			select {
			case <-ctx.Done():
				// closed by the watcher, not a real read failure
				return nil
			default:
			}
			return err
		case line := <-lines:
			if err := eval(engine, events, strings.Fields(line)); err != nil {
				if err == io.EOF {
					cancel()
					return nil
				}
				fmt.Println(err)
			}
		}
	}
}

func eval(engine *synth.Engine, events chan<- synth.Event, args []string) error {
	if len(args) == 0 {
		return nil
	}
	switch args[0] {
	case "set":
		if len(args) != 3 {
			return fmt.Errorf("usage: set <param> <value>")
		}
		ev, err := engine.ParseControl(args[1], args[2])
		if err != nil {
			return err
		}
		events <- ev
		return nil
	case "note":
		if len(args) < 3 {
			return fmt.Errorf("usage: note on|off <number> [velocity]")
		}
		note, err := strconv.Atoi(args[2])
		if err != nil {
			return err
		}
		if note < 0 || note > 127 {
			return fmt.Errorf("note number should be in 0-127: %v", note)
		}
		switch args[1] {
		case "on":
			velocity := 1.0
			if len(args) > 3 {
				velocity, err = strconv.ParseFloat(args[3], 64)
				if err != nil {
					return err
				}
			}
			events <- synth.NoteOn(note, velocity)
		case "off":
			events <- synth.NoteOff(note)
		default:
			return fmt.Errorf("usage: note on|off <number> [velocity]")
		}
		return nil
	case "status":
		fmt.Printf("active voices: %v, dropped events: %v\n",
			engine.ActiveVoices(), engine.OverflowCount())
		return nil
	case "quit", "exit":
		return io.EOF
	default:
		return fmt.Errorf("unknown command: %v", args[0])
	}
}
