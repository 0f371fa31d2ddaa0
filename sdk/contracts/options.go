package contracts

import "github.com/leandrodaf/midichrono/sdk/timecode"

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
	PortName   string // Name of the output port created for sending.
}

// ClientOptions defines the configuration options for the chrono and its transports.
type ClientOptions struct {
	Logger         Logger             // Logger for logging events and errors.
	LogLevel       LogLevel           // Level of logging to use.
	LogFilePath    string             // File path for logging if file logging is enabled.
	Tempo          int                // Clock tempo in BPM.
	FrameRate      timecode.FrameRate // MTC frame rate.
	Listener       Listener           // Receives display notifications; may be nil.
	ListenerBuffer int                // Pending notifications before new ones are dropped.
	CoreMIDIConfig *CoreMIDIConfig    // Configuration specific to CoreMIDI.
	OSCPeers       []string           // host:port peers exposed by the OSC bridge transport.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithLogFilePath directs logging to a file instead of the console.
func WithLogFilePath(path string) Option {
	return func(opts *ClientOptions) {
		opts.LogFilePath = path
	}
}

// WithTempo sets the initial tempo in BPM.
func WithTempo(bpm int) Option {
	return func(opts *ClientOptions) {
		opts.Tempo = bpm
	}
}

// WithFrameRate sets the MTC frame rate.
func WithFrameRate(rate timecode.FrameRate) Option {
	return func(opts *ClientOptions) {
		opts.FrameRate = rate
	}
}

// WithListener sets the display listener.
func WithListener(l Listener) Option {
	return func(opts *ClientOptions) {
		opts.Listener = l
	}
}

// WithListenerBuffer sets how many notifications may be queued for the listener.
func WithListenerBuffer(n int) Option {
	return func(opts *ClientOptions) {
		opts.ListenerBuffer = n
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *ClientOptions) {
		opts.CoreMIDIConfig = &config
	}
}

// WithOSCPeers sets the peers the OSC bridge transport exposes as devices.
func WithOSCPeers(peers ...string) Option {
	return func(opts *ClientOptions) {
		opts.OSCPeers = append(opts.OSCPeers, peers...)
	}
}
