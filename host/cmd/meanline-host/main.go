package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meanline/core"
	"meanline/host/config"
	"meanline/host/device"
	"meanline/host/logging"
	"meanline/host/output"
	"meanline/host/output/console"
	"meanline/host/output/mqtt"
	"meanline/host/serial"
	"meanline/host/telemetry"
	"meanline/sim"
)

const (
	readyTimeout   = 3 * time.Second
	commandTimeout = 2 * time.Second
)

var (
	configPath = flag.String("config", "", "Path to YAML config file")
	devicePath = flag.String("device", "", "Serial device path (overrides config)")
	baud       = flag.Int("baud", 0, "Baud rate (ignored for USB CDC)")
	useSim     = flag.Bool("sim", false, "Use an in-process soft board instead of hardware")
	simProfile = flag.String("sim-profile", "", "Board profile file for the soft board")
	listPorts  = flag.Bool("list-ports", false, "List available serial ports and exit")
	record     = flag.Bool("record", false, "Record readings to the telemetry database")
	dbPath     = flag.String("db", "", "Telemetry database path (overrides config)")
	duration   = flag.Duration("duration", 0, "Stop after this long (0 = run until signal)")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(&cfg)

	logging.Init(cfg.Log.Debug, cfg.Log.Verbose)

	if *listPorts {
		ports, err := serial.ListPorts()
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to list ports")
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found")
			return
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Exiting")
	}
}

// applyFlags lets command line flags override the config file.
func applyFlags(cfg *config.Config) {
	if *devicePath != "" {
		cfg.Device.Port = *devicePath
	}
	if *baud > 0 {
		cfg.Device.Baud = *baud
	}
	if *useSim {
		cfg.Device.Sim = true
	}
	if *simProfile != "" {
		cfg.Device.SimProfile = *simProfile
	}
	if *record {
		cfg.Telemetry.Enabled = true
	}
	if *dbPath != "" {
		cfg.Telemetry.DBPath = *dbPath
	}
	if *debug {
		cfg.Log.Debug = true
	}
	if *verbose {
		cfg.Log.Verbose = true
	}
}

func run(cfg config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if *duration > 0 {
		var tcancel context.CancelFunc
		ctx, tcancel = context.WithTimeout(ctx, *duration)
		defer tcancel()
	}

	conn, source, cleanup, err := connect(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	defer conn.Close()

	outs, err := buildOutputs(cfg)
	if err != nil {
		return err
	}
	defer closeOutputs(outs)

	var rec *telemetry.Recorder
	if cfg.Telemetry.Enabled {
		rec, err = telemetry.Open(cfg.Telemetry.DBPath, source)
		if err != nil {
			return err
		}
		defer rec.Close()
		logging.Info().Str("db", cfg.Telemetry.DBPath).Msg("Recording readings")
	}

	readyCtx, readyCancel := context.WithTimeout(ctx, readyTimeout)
	err = conn.WaitReady(readyCtx)
	readyCancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logging.Debug().Msg("No banner seen, assuming board is already up")
		} else {
			return fmt.Errorf("wait for board: %w", err)
		}
	}

	startCtx, startCancel := context.WithTimeout(ctx, commandTimeout)
	err = conn.Start(startCtx)
	startCancel()
	if err != nil {
		return fmt.Errorf("start sampling: %w", err)
	}
	logging.Info().Msg("Sampling started")

	for {
		select {
		case <-ctx.Done():
			stop(conn)
			return nil

		case r, ok := <-conn.Readings():
			if !ok {
				return fmt.Errorf("board link lost: %w", conn.Err())
			}
			for _, o := range outs {
				if err := o.Publish(r); err != nil {
					logging.Error().Err(err).Msg("Publish failed")
				}
			}
			if rec != nil {
				if err := rec.Store(ctx, r); err != nil {
					logging.Error().Err(err).Msg("Store failed")
				}
			}
		}
	}
}

// connect opens the configured board and reports the source tag used
// for telemetry. The returned cleanup stops the soft board, if any.
func connect(cfg config.Config) (*device.Conn, string, func(), error) {
	if cfg.Device.Sim {
		profile, err := sim.Load(cfg.Device.SimProfile)
		if err != nil {
			return nil, "", nil, err
		}
		board := sim.NewBoard(profile)
		ctrl, err := core.New(board, board, core.Config{})
		if err != nil {
			board.Close()
			return nil, "", nil, err
		}

		runCtx, runCancel := context.WithCancel(context.Background())
		go func() {
			if err := ctrl.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				logging.Error().Err(err).Msg("Soft board stopped")
			}
		}()

		logging.Info().Msg("Using in-process soft board")
		return device.NewConn(board.HostPort()), "sim", runCancel, nil
	}

	if cfg.Device.Port == "" {
		return nil, "", nil, fmt.Errorf("no device configured; set device.port, or pass -device or -sim")
	}

	scfg := serial.DefaultConfig(cfg.Device.Port)
	scfg.Baud = cfg.Device.Baud
	conn, err := device.Dial(scfg)
	if err != nil {
		return nil, "", nil, err
	}
	logging.Info().Str("port", cfg.Device.Port).Int("baud", scfg.Baud).Msg("Connected to board")
	return conn, cfg.Device.Port, func() {}, nil
}

func buildOutputs(cfg config.Config) ([]output.Output, error) {
	outs := make([]output.Output, 0, len(cfg.Outputs))
	for _, oc := range cfg.Outputs {
		switch oc.Type {
		case config.OutputConsole:
			outs = append(outs, console.NewConsole())
		case config.OutputMQTT:
			o, err := mqtt.NewMQTT(*oc.MQTT)
			if err != nil {
				closeOutputs(outs)
				return nil, fmt.Errorf("mqtt output: %w", err)
			}
			outs = append(outs, o)
		default:
			closeOutputs(outs)
			return nil, fmt.Errorf("unknown output type %q", oc.Type)
		}
	}
	return outs, nil
}

func closeOutputs(outs []output.Output) {
	for _, o := range outs {
		if err := o.Close(); err != nil {
			logging.Error().Err(err).Msg("Output close failed")
		}
	}
}

// stop asks the board to stop sampling before the link goes away. The
// surrounding context is already canceled by now, so it gets its own.
func stop(conn *device.Conn) {
	stopCtx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := conn.Stop(stopCtx); err != nil {
		logging.Warn().Err(err).Msg("Failed to stop sampling cleanly")
		return
	}
	logging.Info().Msg("Sampling stopped")
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logging.Info().Msg("Received termination signal")
	cancel()
}
