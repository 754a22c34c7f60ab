// meanline-sim runs the sampling control loop as a host process. The
// default front-end is a simulated board whose serial link is exposed
// on stdio or a TCP listener; with -frontend=ads1115 the same loop
// samples a real converter over I2C and talks on stdio.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"meanline/adapters/ads1115"
	"meanline/adapters/streamlink"
	"meanline/core"
	"meanline/host/logging"
	"meanline/sim"
)

const (
	frontendSim     = "sim"
	frontendADS1115 = "ads1115"
)

var (
	configPath = flag.String("config", "", "Board profile YAML for the simulated front-end")
	frontend   = flag.String("frontend", frontendSim, "Analog front-end: sim or ads1115")
	listen     = flag.String("listen", "", "Serve the link on a TCP address instead of stdio (sim front-end only)")
	window     = flag.Uint("window", 0, "Samples per averaging window (0 = default)")
	i2cBus     = flag.String("i2c-bus", "", "I2C bus for the ads1115 front-end (empty = first available)")
	channel    = flag.Int("channel", 0, "ADS1115 input channel (0-3)")
	rate       = flag.Int("rate", 0, "ADS1115 sample rate in SPS (0 = fastest)")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()
	logging.Init(*debug, *verbose)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := run(ctx); err != nil {
		logging.Fatal().Err(err).Msg("Exiting")
	}
}

func run(ctx context.Context) error {
	switch *frontend {
	case frontendSim:
		profile, err := sim.Load(*configPath)
		if err != nil {
			return err
		}
		if *listen != "" {
			return serveTCP(ctx, profile)
		}
		return serveStdio(ctx, profile)

	case frontendADS1115:
		if *listen != "" {
			return fmt.Errorf("-listen supports the sim front-end only")
		}
		return runConverter(ctx)

	default:
		return fmt.Errorf("unknown front-end %q", *frontend)
	}
}

// serveStdio runs one soft board with its serial link on stdio. EOF on
// stdin ends the run.
func serveStdio(ctx context.Context, profile sim.Config) error {
	board := sim.NewBoard(profile)
	ctrl, err := core.New(board, board, core.Config{WindowSize: uint32(*window)})
	if err != nil {
		board.Close()
		return err
	}

	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go runController(sessCtx, ctrl)

	port := board.HostPort()
	go func() {
		_, _ = io.Copy(port, os.Stdin)
		cancel()
	}()
	go func() {
		_, _ = io.Copy(os.Stdout, port)
	}()

	<-sessCtx.Done()
	board.Close()
	return nil
}

// serveTCP accepts connections one at a time, each getting a fresh
// board: connecting is plugging the board in, disconnecting unplugs it.
func serveTCP(ctx context.Context, profile sim.Config) error {
	ln, err := net.Listen("tcp", *listen)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	logging.Info().Str("addr", ln.Addr().String()).Msg("Serving soft board")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		if err := serveConn(ctx, conn, profile); err != nil {
			logging.Error().Err(err).Msg("Session failed")
		}
	}
}

func serveConn(ctx context.Context, conn net.Conn, profile sim.Config) error {
	logging.Info().Str("peer", conn.RemoteAddr().String()).Msg("Session opened")

	board := sim.NewBoard(profile)
	ctrl, err := core.New(board, board, core.Config{WindowSize: uint32(*window)})
	if err != nil {
		conn.Close()
		board.Close()
		return err
	}

	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		runController(sessCtx, ctrl)
	}()

	port := board.HostPort()
	go func() {
		defer wg.Done()
		_, _ = io.Copy(conn, port) // board to host
	}()
	go func() {
		defer wg.Done()
		_, _ = io.Copy(port, conn) // host to board
		cancel()
	}()

	<-sessCtx.Done()
	board.Close()
	conn.Close()
	wg.Wait()
	logging.Info().Msg("Session closed")
	return nil
}

// runConverter runs the loop against a real ADS1115 with the link on
// stdio.
func runConverter(ctx context.Context) error {
	fe, err := ads1115.Open(ads1115.Config{
		Bus:        *i2cBus,
		Channel:    *channel,
		SampleRate: *rate,
	})
	if err != nil {
		return err
	}
	defer fe.Close()

	link := streamlink.New(stdioStream{})
	defer link.Close()

	ctrl, err := core.New(fe, link, core.Config{WindowSize: uint32(*window)})
	if err != nil {
		return err
	}

	logging.Info().Int("channel", *channel).Msg("Sampling ADS1115 on stdio")
	if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err := fe.Err(); err != nil {
		return fmt.Errorf("converter: %w", err)
	}
	return nil
}

func runController(ctx context.Context, ctrl *core.Controller) {
	if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Controller stopped")
	}
}

// stdioStream joins stdin and stdout into the byte stream the link
// adapter wants. It has no Close, so closing the link leaves the
// process streams alone.
type stdioStream struct{}

func (stdioStream) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioStream) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logging.Info().Msg("Received termination signal")
	cancel()
}
