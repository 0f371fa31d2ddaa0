package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/leandrodaf/midichrono/internal/controlhttp"
	"github.com/leandrodaf/midichrono/internal/display"
	"github.com/leandrodaf/midichrono/internal/logger"
	"github.com/leandrodaf/midichrono/internal/surface"
	"github.com/leandrodaf/midichrono/sdk/contracts"
	"github.com/leandrodaf/midichrono/sdk/midi"
	"github.com/leandrodaf/midichrono/sdk/timecode"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

type runConfig struct {
	clock    []int
	mtc      []int
	tempo    int
	rate     string
	httpAddr string
	oscPeers []string
	start    bool
}

var runFlags runConfig

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the chrono",
	Long: `Run the chrono, sending MIDI clock to the --clock devices and MIDI time code to the
--mtc devices. The position is shown on the terminal until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, runFlags)
	},
}

func init() {
	flags := runCmd.Flags()
	flags.IntSliceVar(&runFlags.clock, "clock", nil, "device indexes receiving MIDI clock")
	flags.IntSliceVar(&runFlags.mtc, "mtc", nil, "device indexes receiving MIDI time code")
	flags.IntVar(&runFlags.tempo, "tempo", timecode.DefaultTempo, "tempo in BPM")
	flags.StringVar(&runFlags.rate, "rate", "30", "MTC frame rate: 24, 25, 29.97df or 30")
	flags.StringVar(&runFlags.httpAddr, "http", "", "serve the HTTP control surface on this address")
	flags.StringSliceVar(&runFlags.oscPeers, "osc", nil, "host:port OSC peers receiving clock and time code")
	flags.BoolVar(&runFlags.start, "start", true, "start the transport immediately")
	rootCmd.AddCommand(runCmd)
}

// listener fans display notifications out to the terminal and send failures to the
// destination tables, which disable the failed row.
type listener struct {
	*display.Display

	mu     sync.Mutex
	tables []*surface.Table
}

func (l *listener) add(t *surface.Table) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tables = append(l.tables, t)
}

func (l *listener) OnSendError(dest contracts.Destination, err error) {
	l.Display.OnSendError(dest, err)

	l.mu.Lock()
	tables := append([]*surface.Table(nil), l.tables...)
	l.mu.Unlock()
	for _, t := range tables {
		t.OnSendError(dest, err)
	}
}

func run(ctx context.Context, cfg runConfig) (err error) {
	rate, err := timecode.ParseFrameRate(cfg.rate)
	if err != nil {
		return err
	}
	opts, err := commonOptions()
	if err != nil {
		return err
	}
	log := logger.NewZapLogger()
	opts = append(opts, contracts.WithLogger(log))

	disp := display.New(os.Stdout, display.WithLogger(log))
	lst := &listener{Display: disp}

	chrono, err := midi.NewChrono(append(opts,
		contracts.WithTempo(cfg.tempo),
		contracts.WithFrameRate(rate),
		contracts.WithListener(lst),
	)...)
	if err != nil {
		return errors.Wrap(err, "creating chrono")
	}

	var (
		transports []contracts.Transport
		tables     []*surface.Table
	)
	defer func() {
		err = multierr.Append(err, chrono.Close())
		for _, t := range tables {
			err = multierr.Append(err, t.Close())
		}
		for _, tr := range transports {
			err = multierr.Append(err, tr.Stop())
		}
		disp.Flush()
	}()

	midiTable, midiErr := openMIDI(log, chrono, opts, cfg)
	switch {
	case midiErr == nil:
		tables = append(tables, midiTable.table)
		transports = append(transports, midiTable.transport)
	case len(cfg.oscPeers) == 0 || len(cfg.clock) > 0 || len(cfg.mtc) > 0:
		return midiErr
	default:
		log.Warn("MIDI output unavailable, continuing with OSC peers only",
			log.Field().Error("error", midiErr))
	}

	if len(cfg.oscPeers) > 0 {
		oscTable, err := openOSC(log, chrono, opts, cfg.oscPeers)
		if err != nil {
			return err
		}
		tables = append(tables, oscTable.table)
		transports = append(transports, oscTable.transport)
	}
	for _, t := range tables {
		lst.add(t)
	}

	if cfg.start {
		if err := chrono.Start(); err != nil {
			return errors.Wrap(err, "starting chrono")
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	if cfg.httpAddr != "" {
		srv := controlhttp.New(log, chrono, surface.Group(tables))
		g.Go(func() error {
			return errors.Wrap(srv.ListenAndServe(ctx, cfg.httpAddr), "serving control surface")
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		return nil
	})
	return g.Wait()
}

type tableHandle struct {
	transport contracts.Transport
	table     *surface.Table
}

func openMIDI(log contracts.Logger, chrono contracts.Chrono, opts []contracts.Option, cfg runConfig) (tableHandle, error) {
	transport, err := midi.NewTransport(opts...)
	if err != nil {
		return tableHandle{}, errors.Wrap(err, "creating MIDI transport")
	}
	table, err := surface.New(log, transport, chrono)
	if err != nil {
		return tableHandle{}, multierr.Append(errors.Wrap(err, "building destination table"), transport.Stop())
	}

	for _, index := range cfg.clock {
		if err := table.SetClock(index, true); err != nil {
			return tableHandle{}, multierr.Combine(errors.Wrapf(err, "enabling clock on device %d", index), table.Close(), transport.Stop())
		}
	}
	for _, index := range cfg.mtc {
		if err := table.SetMTC(index, true); err != nil {
			return tableHandle{}, multierr.Combine(errors.Wrapf(err, "enabling MTC on device %d", index), table.Close(), transport.Stop())
		}
	}
	return tableHandle{transport: transport, table: table}, nil
}

func openOSC(log contracts.Logger, chrono contracts.Chrono, opts []contracts.Option, peers []string) (tableHandle, error) {
	transport, err := midi.NewOSCTransport(append(opts, contracts.WithOSCPeers(peers...))...)
	if err != nil {
		return tableHandle{}, errors.Wrap(err, "creating OSC bridge")
	}
	table, err := surface.New(log, transport, chrono)
	if err != nil {
		return tableHandle{}, multierr.Append(errors.Wrap(err, "building OSC destination table"), transport.Stop())
	}
	for i := range peers {
		if err := table.Set(i, true, true); err != nil {
			return tableHandle{}, multierr.Combine(errors.Wrapf(err, "opening OSC peer %s", peers[i]), table.Close(), transport.Stop())
		}
	}
	return tableHandle{transport: transport, table: table}, nil
}
