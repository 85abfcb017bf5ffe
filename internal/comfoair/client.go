package comfoair

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.bug.st/serial"
)

// closeOnce wraps a channel with sync.Once to prevent double-close panics.
type closeOnce struct {
	ch   chan struct{}
	once sync.Once
}

func newCloseOnce() *closeOnce {
	return &closeOnce{ch: make(chan struct{})}
}

func (c *closeOnce) Close() {
	c.once.Do(func() { close(c.ch) })
}

func (c *closeOnce) Done() <-chan struct{} {
	return c.ch
}

// Default timeouts and intervals for unit communication.
const (
	// defaultBaudRate is the fixed line speed of the ComfoAir RS-232 port.
	defaultBaudRate = 9600

	// defaultReconnectInterval is the fixed delay between serial reopen attempts.
	defaultReconnectInterval = 5 * time.Second

	// defaultPollInterval is how often the unit is asked for state when
	// no interval is configured.
	defaultPollInterval = 30 * time.Second

	// dispatchQueueSize is the buffer size for the frame dispatch queue.
	dispatchQueueSize = 100

	// minLevel and maxLevel bound the writable ventilation levels.
	// Level 0 (auto) is read-only: the unit reports it but does not
	// accept it as a write.
	minLevel = 1
	maxLevel = 4
)

// Config holds serial connection configuration.
type Config struct {
	// Device is the serial device path (e.g. "/dev/ttyUSB0").
	Device string

	// Baud is the line speed. Default: 9600.
	Baud int

	// ReconnectInterval is the fixed delay between reopen attempts
	// after the serial link fails. Default: 5 seconds.
	ReconnectInterval time.Duration

	// PollInterval is how often ventilation levels and temperatures are
	// requested from the unit. Zero selects the default; negative
	// disables polling (the unit still pushes display broadcasts when a
	// CC Ease panel is attached).
	PollInterval time.Duration
}

// Stats holds operational statistics.
type Stats struct {
	FramesTx        uint64
	FramesRx        uint64
	FramesDropped   uint64 // Frames dropped due to full dispatch queue
	ErrorsTotal     uint64
	ReconnectsTotal uint64 // Successful reconnections
	LastActivity    time.Time
	Connected       bool
	Reconnecting    bool // True if currently attempting to reconnect
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Subscription is an opaque handle returned when registering a
// listener. Removing a listener consumes its handle, so re-registering
// the same function twice yields two independent subscriptions.
type Subscription uint64

// FrameHandler receives every raw frame from the unit.
type FrameHandler func(Frame)

// ReadingHandler receives decoded attribute values.
type ReadingHandler func(Reading)

// Connector interface for testability.
// This allows mocking the serial client in tests.
type Connector interface {
	SetSpeed(ctx context.Context, level int) error
	AddFrameListener(fn FrameHandler) Subscription
	RemoveFrameListener(sub Subscription)
	AddReadingListener(attr Attribute, fn ReadingHandler) Subscription
	RemoveReadingListener(sub Subscription)
	SetOnReconnect(callback func())
	IsConnected() bool
	Stats() Stats
	Close() error
}

// Ensure Client implements Connector.
var _ Connector = (*Client)(nil)

// openPort opens the serial device; a package variable so tests can
// substitute an in-memory transport.
var openPort = func(device string, baud int) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	return serial.Open(device, mode)
}

// readingSub pairs an attribute filter with its handler.
type readingSub struct {
	attr Attribute
	fn   ReadingHandler
}

// Client provides the serial session to the ventilation unit.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Listeners are invoked from a single dispatch goroutine, so each
//     listener observes frames and readings in strict arrival order.
//
// Auto-Reconnection:
//   - When the serial link fails, the client reopens the device at a
//     fixed interval until it succeeds or Close() is called. Listeners
//     survive a reconnect; the OnReconnect callback fires after each
//     re-established session so owners can reset derived state.
type Client struct {
	cfg Config

	// Serial port (guarded by portMu)
	portMu sync.RWMutex
	port   serial.Port

	// Connection state
	connMu    sync.RWMutex
	connected bool

	// Reconnection state
	reconnecting atomic.Bool

	// Listener registry
	listenersMu      sync.RWMutex
	nextSub          atomic.Uint64
	frameListeners   map[Subscription]FrameHandler
	readingListeners map[Subscription]readingSub

	// Reconnect callback
	onReconnect func()
	callbackMu  sync.RWMutex

	// Single dispatch worker preserves frame arrival order
	dispatchQueue chan Frame

	// Shutdown coordination (closeOnce prevents double-close panics)
	done *closeOnce
	wg   sync.WaitGroup

	// Logger (optional)
	logger   Logger
	loggerMu sync.RWMutex

	// Statistics (atomic for performance)
	framesTx        atomic.Uint64
	framesRx        atomic.Uint64
	framesDropped   atomic.Uint64
	errorsTotal     atomic.Uint64
	reconnectsTotal atomic.Uint64
	lastActivity    atomic.Int64 // Unix timestamp
}

// Connect opens the serial device and starts the receive machinery.
//
// Parameters:
//   - ctx: Context for cancellation (initial open only)
//   - cfg: Connection configuration
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: If the device cannot be opened
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	// Apply defaults
	if cfg.Baud == 0 {
		cfg.Baud = defaultBaudRate
	}
	if cfg.ReconnectInterval == 0 {
		cfg.ReconnectInterval = defaultReconnectInterval
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaultPollInterval
	}

	if cfg.Device == "" {
		return nil, fmt.Errorf("%w: no device path", ErrConnectionFailed)
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, ctx.Err())
	default:
	}

	port, err := openPort(cfg.Device, cfg.Baud)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrConnectionFailed, cfg.Device, err)
	}

	client := &Client{
		cfg:              cfg,
		port:             port,
		done:             newCloseOnce(),
		dispatchQueue:    make(chan Frame, dispatchQueueSize),
		frameListeners:   make(map[Subscription]FrameHandler),
		readingListeners: make(map[Subscription]readingSub),
	}
	client.lastActivity.Store(time.Now().Unix())

	client.connMu.Lock()
	client.connected = true
	client.connMu.Unlock()

	// Single dispatch worker keeps listener invocation ordered
	client.wg.Add(1)
	go client.dispatchLoop()

	// Receive loop owns the port reader
	client.wg.Add(1)
	go client.receiveLoop()

	// Poll loop keeps attribute data flowing even without a CC Ease panel
	if cfg.PollInterval > 0 {
		client.wg.Add(1)
		go client.pollLoop()
	}

	return client, nil
}

// receiveLoop continuously reads frames from the unit.
// On serial failure it reopens the device at a fixed interval.
func (c *Client) receiveLoop() {
	defer c.wg.Done()

	c.portMu.RLock()
	scanner := newFrameScanner(c.port)
	c.portMu.RUnlock()

	for {
		select {
		case <-c.done.Done():
			return
		default:
		}

		frame, err := scanner.Next()
		if err != nil {
			if isFrameError(err) {
				// Recoverable: scanner resynchronises on the next start sequence
				c.logWarn("discarding malformed frame", "error", err)
				c.errorsTotal.Add(1)
				continue
			}

			// I/O error: the serial link is gone
			if c.isClosed() {
				return
			}
			c.logError("serial read failed", err)
			c.errorsTotal.Add(1)
			c.handleDisconnect()

			if !c.reconnect() {
				return // Shutdown during reconnection
			}

			c.portMu.RLock()
			scanner = newFrameScanner(c.port)
			c.portMu.RUnlock()
			continue
		}

		c.framesRx.Add(1)
		c.lastActivity.Store(time.Now().Unix())

		// The unit expects every frame to be acknowledged
		c.writeAck()

		select {
		case c.dispatchQueue <- frame:
		default:
			// Queue full, drop frame to prevent memory exhaustion
			c.logWarn("dispatch queue full, dropping frame", "command", frame.Command)
			c.framesDropped.Add(1)
			c.errorsTotal.Add(1)
		}
	}
}

// isFrameError reports whether err is a recoverable framing problem
// rather than a transport failure.
func isFrameError(err error) bool {
	return errors.Is(err, ErrInvalidFrame) || errors.Is(err, ErrChecksumMismatch)
}

// dispatchLoop delivers frames and decoded readings to listeners.
// A single worker guarantees arrival-order delivery.
func (c *Client) dispatchLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done.Done():
			c.drainDispatchQueue()
			return
		case frame := <-c.dispatchQueue:
			c.dispatch(frame)
		}
	}
}

// dispatch invokes raw frame listeners, then reading listeners for
// every attribute the frame carries. Listener panics are recovered so
// one bad handler cannot take down the session.
func (c *Client) dispatch(frame Frame) {
	c.listenersMu.RLock()
	frameFns := make([]FrameHandler, 0, len(c.frameListeners))
	for _, fn := range c.frameListeners {
		frameFns = append(frameFns, fn)
	}
	readingSubs := make([]readingSub, 0, len(c.readingListeners))
	for _, sub := range c.readingListeners {
		readingSubs = append(readingSubs, sub)
	}
	c.listenersMu.RUnlock()

	for _, fn := range frameFns {
		c.safeCall(func() { fn(frame) })
	}

	for _, reading := range DecodeReadings(frame) {
		for _, sub := range readingSubs {
			if sub.attr != reading.Attribute {
				continue
			}
			fn := sub.fn
			r := reading
			c.safeCall(func() { fn(r) })
		}
	}
}

// safeCall runs fn with panic recovery.
func (c *Client) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logError("listener panic", fmt.Errorf("%v", r))
		}
	}()
	fn()
}

// pollLoop periodically requests ventilation levels and temperatures.
func (c *Client) pollLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	// Request initial state immediately so the bridge has data to
	// publish without waiting a full interval.
	c.poll()

	for {
		select {
		case <-c.done.Done():
			return
		case <-ticker.C:
			c.poll()
		}
	}
}

// poll sends the two state request commands. Failures are logged only;
// the receive loop owns reconnection.
func (c *Client) poll() {
	if !c.IsConnected() {
		return
	}
	if err := c.writeFrame(Frame{Command: CmdGetVentilation}); err != nil {
		c.logDebug("ventilation poll failed", "error", err)
		return
	}
	if err := c.writeFrame(Frame{Command: CmdGetTemperatures}); err != nil {
		c.logDebug("temperature poll failed", "error", err)
	}
}

// handleDisconnect marks the session down.
func (c *Client) handleDisconnect() {
	c.connMu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.connMu.Unlock()

	if wasConnected {
		c.logInfo("serial link lost, will attempt reconnection")
	}
}

// reconnect reopens the serial device at a fixed interval until it
// succeeds. Returns false if shutdown was signalled.
func (c *Client) reconnect() bool {
	c.reconnecting.Store(true)
	defer c.reconnecting.Store(false)

	c.closeOldPort()

	attempt := 0
	for {
		if c.isClosed() {
			return false
		}

		attempt++
		c.logInfo("attempting serial reconnection",
			"attempt", attempt, "device", c.cfg.Device)

		port, err := openPort(c.cfg.Device, c.cfg.Baud)
		if err != nil {
			c.logError("serial reopen failed", err)
			c.errorsTotal.Add(1)

			select {
			case <-c.done.Done():
				return false
			case <-time.After(c.cfg.ReconnectInterval):
			}
			continue
		}

		c.portMu.Lock()
		c.port = port
		c.portMu.Unlock()

		c.connMu.Lock()
		c.connected = true
		c.connMu.Unlock()

		c.reconnectsTotal.Add(1)
		c.lastActivity.Store(time.Now().Unix())
		c.logInfo("serial reconnection successful",
			"total_reconnects", c.reconnectsTotal.Load())

		// Let the owner reset session-scoped state (e.g. dedup caches)
		c.callbackMu.RLock()
		callback := c.onReconnect
		c.callbackMu.RUnlock()
		if callback != nil {
			c.safeCall(callback)
		}

		return true
	}
}

// closeOldPort closes the existing port if any.
func (c *Client) closeOldPort() {
	c.portMu.Lock()
	if c.port != nil {
		c.port.Close()
		c.port = nil
	}
	c.portMu.Unlock()
}

// drainDispatchQueue removes and discards any remaining frames.
// Called during shutdown to prevent goroutines from blocking on send.
func (c *Client) drainDispatchQueue() {
	for {
		select {
		case <-c.dispatchQueue:
			// Discard item
		default:
			return
		}
	}
}

// isClosed returns true if the client has been closed.
func (c *Client) isClosed() bool {
	select {
	case <-c.done.Done():
		return true
	default:
		return false
	}
}

// Close gracefully closes the serial session.
//
// It signals all goroutines to stop and closes the device. Safe to
// call multiple times (uses sync.Once).
//
// Returns:
//   - error: nil (closing is best-effort)
func (c *Client) Close() error {
	// Signal shutdown (safe to call multiple times via sync.Once)
	c.done.Close()

	// Mark disconnected
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	// Close port (this will unblock any pending reads)
	c.closeOldPort()

	// Wait for all goroutines to finish
	c.wg.Wait()

	c.logInfo("serial session closed")
	return nil
}

// SetSpeed writes a ventilation level to the unit.
//
// Levels are 1 (away) through 4 (high). Level 0 (auto) is what the
// unit reports when a CC Ease panel drives it; it cannot be written.
//
// Parameters:
//   - ctx: Context for cancellation
//   - level: Ventilation level, 1..4
//
// Returns:
//   - error: ErrInvalidLevel for out-of-range levels, ErrNotConnected
//     or ErrWriteFailed on transport problems
func (c *Client) SetSpeed(ctx context.Context, level int) error {
	if level < minLevel || level > maxLevel {
		return fmt.Errorf("%w: %d (valid: %d..%d)", ErrInvalidLevel, level, minLevel, maxLevel)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrWriteFailed, ctx.Err())
	default:
	}

	return c.writeFrame(Frame{Command: CmdSetLevel, Data: []byte{byte(level)}})
}

// writeFrame encodes and writes a frame to the unit.
func (c *Client) writeFrame(f Frame) error {
	c.portMu.RLock()
	port := c.port
	c.portMu.RUnlock()

	if port == nil {
		return ErrNotConnected
	}

	if _, err := port.Write(f.Encode()); err != nil {
		c.errorsTotal.Add(1)
		return fmt.Errorf("%w: %#04x: %w", ErrWriteFailed, f.Command, err)
	}

	c.framesTx.Add(1)
	c.lastActivity.Store(time.Now().Unix())
	return nil
}

// writeAck acknowledges a received frame. Failures are ignored; the
// unit retransmits unacknowledged frames on its own.
func (c *Client) writeAck() {
	c.portMu.RLock()
	port := c.port
	c.portMu.RUnlock()

	if port == nil {
		return
	}
	port.Write(ackBytes()) //nolint:errcheck // best-effort acknowledgement
}

// AddFrameListener registers a handler for every raw frame.
//
// Returns an opaque subscription handle; pass it to RemoveFrameListener
// to detach.
func (c *Client) AddFrameListener(fn FrameHandler) Subscription {
	sub := Subscription(c.nextSub.Add(1))
	c.listenersMu.Lock()
	c.frameListeners[sub] = fn
	c.listenersMu.Unlock()
	return sub
}

// RemoveFrameListener detaches a raw frame listener.
func (c *Client) RemoveFrameListener(sub Subscription) {
	c.listenersMu.Lock()
	delete(c.frameListeners, sub)
	c.listenersMu.Unlock()
}

// AddReadingListener registers a handler for one decoded attribute.
//
// Returns an opaque subscription handle; pass it to
// RemoveReadingListener to detach.
func (c *Client) AddReadingListener(attr Attribute, fn ReadingHandler) Subscription {
	sub := Subscription(c.nextSub.Add(1))
	c.listenersMu.Lock()
	c.readingListeners[sub] = readingSub{attr: attr, fn: fn}
	c.listenersMu.Unlock()
	return sub
}

// RemoveReadingListener detaches a reading listener.
func (c *Client) RemoveReadingListener(sub Subscription) {
	c.listenersMu.Lock()
	delete(c.readingListeners, sub)
	c.listenersMu.Unlock()
}

// SetOnReconnect sets a callback invoked after each successful serial
// reconnection. The callback runs on the reconnecting goroutine.
func (c *Client) SetOnReconnect(callback func()) {
	c.callbackMu.Lock()
	c.onReconnect = callback
	c.callbackMu.Unlock()
}

// SetLogger sets the logger for this client.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// IsConnected returns true if the serial session is up.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

// Stats returns current operational statistics.
func (c *Client) Stats() Stats {
	return Stats{
		FramesTx:        c.framesTx.Load(),
		FramesRx:        c.framesRx.Load(),
		FramesDropped:   c.framesDropped.Load(),
		ErrorsTotal:     c.errorsTotal.Load(),
		ReconnectsTotal: c.reconnectsTotal.Load(),
		LastActivity:    time.Unix(c.lastActivity.Load(), 0),
		Connected:       c.IsConnected(),
		Reconnecting:    c.reconnecting.Load(),
	}
}

// logDebug logs a debug message if logger is set.
func (c *Client) logDebug(msg string, keysAndValues ...any) {
	if logger := c.getLogger(); logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if logger is set.
func (c *Client) logInfo(msg string, keysAndValues ...any) {
	if logger := c.getLogger(); logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning if logger is set.
func (c *Client) logWarn(msg string, keysAndValues ...any) {
	if logger := c.getLogger(); logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (c *Client) logError(msg string, err error) {
	if logger := c.getLogger(); logger != nil {
		logger.Error(msg, "error", err)
	}
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}
