package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/airlogic/comfobridge/internal/comfoair"
	"github.com/airlogic/comfobridge/internal/infrastructure/config"
	"github.com/airlogic/comfobridge/internal/infrastructure/mqtt"
)

// Broker is the MQTT surface the bridge drives. *mqtt.Client
// implements it; tests substitute a mock.
type Broker interface {
	PublishString(topic, payload string, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	SetOnDisconnect(callback func(err error))
	Close() error
}

// Device is the ventilation unit surface the bridge drives.
// *comfoair.Client implements it; tests substitute a mock.
type Device interface {
	SetSpeed(ctx context.Context, level int) error
	AddFrameListener(fn comfoair.FrameHandler) comfoair.Subscription
	RemoveFrameListener(sub comfoair.Subscription)
	AddReadingListener(attr comfoair.Attribute, fn comfoair.ReadingHandler) comfoair.Subscription
	RemoveReadingListener(sub comfoair.Subscription)
	SetOnReconnect(callback func())
}

// Recorder persists published readings (optional).
type Recorder interface {
	Record(attribute, value string, at time.Time) error
}

// MetricWriter streams numeric readings to a time-series backend
// (optional, non-blocking).
type MetricWriter interface {
	WriteReading(attribute string, value float64, at time.Time)
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Options configures a Bridge.
type Options struct {
	Config *config.Config
	Device Device

	// Connect establishes an MQTT session. Nil selects the real
	// broker connection from Config.
	Connect func() (Broker, error)

	// History persists readings when non-nil.
	History Recorder

	// Telemetry streams readings when non-nil.
	Telemetry MetricWriter

	// Logger is optional.
	Logger Logger
}

// Bridge connects the ventilation unit to an MQTT broker.
//
// It owns the MQTT session lifecycle: on every (re)connection it
// republishes Home Assistant discovery, marks the unit available,
// clears the dedup cache, attaches device listeners and subscribes to
// the command topics. On session failure it tears down and retries at
// a fixed interval, forever.
//
// Thread Safety:
//   - Run is called once; device events and broker commands may arrive
//     concurrently and are serialized by an internal mutex, so the
//     fan on/off edge derivation always sees a consistent baseline.
type Bridge struct {
	cfg       *config.Config
	device    Device
	connect   func() (Broker, error)
	history   Recorder
	telemetry MetricWriter
	logger    Logger

	cache *stateCache
}

// New creates a Bridge from options.
func New(opts Options) (*Bridge, error) {
	if opts.Config == nil {
		return nil, errors.New("bridge: nil config")
	}
	if opts.Device == nil {
		return nil, errors.New("bridge: nil device")
	}

	b := &Bridge{
		cfg:       opts.Config,
		device:    opts.Device,
		connect:   opts.Connect,
		history:   opts.History,
		telemetry: opts.Telemetry,
		logger:    opts.Logger,
		cache:     newStateCache(),
	}
	if b.connect == nil {
		b.connect = func() (Broker, error) {
			return mqtt.Connect(b.cfg.MQTT)
		}
	}
	return b, nil
}

// Run drives MQTT sessions until ctx is cancelled.
//
// Each failed session is followed by a fixed backoff before the next
// connection attempt. The device connection is managed elsewhere and
// survives broker outages.
func (b *Bridge) Run(ctx context.Context) error {
	interval := b.cfg.GetMQTTReconnectInterval()

	for {
		err := b.runSession(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		b.logError("mqtt session ended", err)
		b.logInfo("reconnecting to mqtt", "backoff", interval)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// runSession performs one full broker session: connect, announce,
// wire, then block until the session dies or ctx is cancelled.
func (b *Bridge) runSession(ctx context.Context) error {
	broker, err := b.connect()
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer broker.Close()

	s := newSession(ctx, b, broker)
	defer s.teardown()

	broker.SetOnDisconnect(func(err error) {
		s.fail(fmt.Errorf("connection lost: %w", err))
	})

	if err := b.publishDiscovery(broker); err != nil {
		return err
	}

	topics := mqtt.Topics{}
	if err := broker.PublishString(topics.Availability(), mqtt.PayloadOnline, true); err != nil {
		return fmt.Errorf("publish availability: %w", err)
	}

	// Fresh session, fresh baseline: every attribute republishes
	b.cache.Clear()

	s.attachDeviceListeners()

	// The unit clearing its own session must also reset the baseline
	b.device.SetOnReconnect(func() {
		b.logInfo("device session reset, clearing publish baseline")
		b.cache.Clear()
	})

	if err := s.subscribeCommands(); err != nil {
		return err
	}

	b.logInfo("mqtt session established")

	select {
	case <-ctx.Done():
		// Session teardown via deferred calls
		return ctx.Err()
	case err := <-s.errc:
		return err
	}
}

// logDebug logs a debug message if logger is set.
func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if logger is set.
func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning if logger is set.
func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (b *Bridge) logError(msg string, err error) {
	if b.logger != nil {
		b.logger.Error(msg, "error", err)
	}
}
