package main

import (
	"fmt"
	"time"

	"github.com/leandrodaf/midichrono/internal/logger"
	"github.com/leandrodaf/midichrono/sdk/contracts"
	"github.com/leandrodaf/midichrono/sdk/midi"
	"github.com/leandrodaf/midichrono/sdk/timecode"
)

type printer struct {
	contracts.NopListener
}

func (printer) OnStart(code timecode.TimeCode) { fmt.Println("start", code) }
func (printer) OnStop(code timecode.TimeCode)  { fmt.Println("stop", code) }

func main() {
	log := logger.NewZapLogger()

	chrono, err := midi.NewChrono(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
		contracts.WithTempo(120),
		contracts.WithFrameRate(timecode.Rate25),
		contracts.WithListener(printer{}),
	)
	if err != nil {
		log.Error("Failed to initialize chrono", log.Field().Error("error", err))
		return
	}
	defer chrono.Close()

	transport, err := midi.NewTransport(contracts.WithLogger(log))
	if err != nil {
		log.Error("Failed to initialize MIDI transport", log.Field().Error("error", err))
		return
	}
	defer transport.Stop()

	devices, err := transport.ListDevices()
	if err != nil || len(devices) == 0 {
		log.Error("No MIDI devices found or error listing devices", log.Field().Error("error", err))
		return
	}
	fmt.Println("Available MIDI devices:", devices)

	handle, err := transport.Open(0)
	if err != nil {
		log.Error("Failed to open MIDI device", log.Field().Error("error", err))
		return
	}
	dest := contracts.Destination{Transport: transport, Handle: handle}
	chrono.RegisterForClock(dest, true)
	chrono.RegisterForMTC(dest, true)
	defer chrono.Deregister(dest)

	if err := chrono.Start(); err != nil {
		log.Error("Failed to start chrono", log.Field().Error("error", err))
		return
	}
	time.Sleep(4 * time.Second)
	if err := chrono.Stop(); err != nil {
		log.Error("Failed to stop chrono", log.Field().Error("error", err))
	}
	fmt.Println("Stopped at", chrono.Snapshot().BarBeat)
}
