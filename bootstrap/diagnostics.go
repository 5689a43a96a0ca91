package bootstrap

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Severity is a diagnostic message severity mask. Bits match the runtime's
// debug utils severities.
type Severity uint32

const (
	SeverityVerbose Severity = 0x1
	SeverityInfo    Severity = 0x10
	SeverityWarning Severity = 0x100
	SeverityError   Severity = 0x1000

	SeverityAll = SeverityVerbose | SeverityInfo | SeverityWarning | SeverityError
)

var severityNames = []flagName{
	{uint32(SeverityVerbose), "verbose"},
	{uint32(SeverityInfo), "info"},
	{uint32(SeverityWarning), "warning"},
	{uint32(SeverityError), "error"},
}

func (s Severity) String() string { return flagString(uint32(s), severityNames) }

// MessageType is a diagnostic message category mask. Bits match the
// runtime's debug utils message types.
type MessageType uint32

const (
	TypeGeneral     MessageType = 0x1
	TypeValidation  MessageType = 0x2
	TypePerformance MessageType = 0x4

	TypeAll = TypeGeneral | TypeValidation | TypePerformance
)

var typeNames = []flagName{
	{uint32(TypeGeneral), "general"},
	{uint32(TypeValidation), "validation"},
	{uint32(TypePerformance), "performance"},
}

func (t MessageType) String() string { return flagString(uint32(t), typeNames) }

// Sink receives diagnostic messages. Message may be called concurrently from
// runtime threads and must not block for long.
type Sink interface {
	Message(severity Severity, msgType MessageType, message string)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(severity Severity, msgType MessageType, message string)

func (f SinkFunc) Message(severity Severity, msgType MessageType, message string) {
	f(severity, msgType, message)
}

// LogrusSink writes diagnostic messages to a logrus logger.
type LogrusSink struct {
	Logger logrus.FieldLogger
}

func NewLogrusSink(logger logrus.FieldLogger) *LogrusSink {
	return &LogrusSink{Logger: logger}
}

func (s *LogrusSink) Message(severity Severity, msgType MessageType, message string) {
	entry := s.Logger.WithFields(logrus.Fields{
		"severity": severity,
		"type":     msgType,
	})

	switch {
	case severity&SeverityError != 0:
		entry.Error(message)
	case severity&SeverityWarning != 0:
		entry.Warn(message)
	case severity&SeverityInfo != 0:
		entry.Info(message)
	default:
		entry.Debug(message)
	}
}

type diagnosticMessage struct {
	severity Severity
	msgType  MessageType
	message  string
}

// BufferedSink hands messages to a single goroutine that forwards them to
// the wrapped sink, so runtime threads never wait on the wrapped sink.
type BufferedSink struct {
	sink     Sink
	messages chan diagnosticMessage
	group    errgroup.Group

	mu     sync.RWMutex
	closed bool
}

// NewBufferedSink starts forwarding to sink. capacity bounds how many
// messages can be pending before Message blocks. The forwarding goroutine
// runs until Close.
func NewBufferedSink(sink Sink, capacity int) *BufferedSink {
	b := &BufferedSink{
		sink:     sink,
		messages: make(chan diagnosticMessage, capacity),
	}
	b.group.Go(b.drain)
	return b
}

func (b *BufferedSink) drain() error {
	for m := range b.messages {
		b.sink.Message(m.severity, m.msgType, m.message)
	}
	return nil
}

// Message queues a message. Messages arriving after Close are dropped.
func (b *BufferedSink) Message(severity Severity, msgType MessageType, message string) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	b.messages <- diagnosticMessage{severity: severity, msgType: msgType, message: message}
}

// Close forwards every pending message and stops the forwarding goroutine.
func (b *BufferedSink) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.messages)
	b.mu.Unlock()

	return b.group.Wait()
}

// DiagnosticChannel forwards runtime diagnostics to a Sink.
type DiagnosticChannel struct {
	severities Severity
	types      MessageType
	sink       Sink
	messenger  DebugMessenger
}

func newDiagnosticChannel(severities Severity, types MessageType, sink Sink) *DiagnosticChannel {
	return &DiagnosticChannel{severities: severities, types: types, sink: sink}
}

// CreateInfo describes the channel to the runtime. The same description is
// chained into instance creation and used for registration.
func (c *DiagnosticChannel) CreateInfo() DebugMessengerCreateInfo {
	return DebugMessengerCreateInfo{
		Severities: c.severities,
		Types:      c.types,
		Callback:   c.deliver,
	}
}

func (c *DiagnosticChannel) deliver(severity Severity, msgType MessageType, message string) (abort bool) {
	defer func() {
		// Nothing may unwind into the runtime.
		if r := recover(); r != nil {
			abort = false
		}
	}()

	if c.sink != nil {
		c.sink.Message(severity, msgType, strings.TrimRight(message, "\x00"))
	}
	return false
}

// RegisterDiagnosticChannel registers a channel delivering the messages
// selected by severities and types to sink.
func RegisterDiagnosticChannel(instance InstanceDriver, severities Severity, types MessageType, sink Sink) (*DiagnosticChannel, error) {
	channel := newDiagnosticChannel(severities, types, sink)
	if err := channel.register(instance); err != nil {
		return nil, err
	}
	return channel, nil
}

func (c *DiagnosticChannel) register(instance InstanceDriver) error {
	messenger, err := instance.CreateDebugMessenger(c.CreateInfo())
	if err != nil {
		return newInitError(ErrRuntimeCreationFailed, "debug messenger", errors.Wrap(err, "register diagnostic channel"))
	}
	c.messenger = messenger
	return nil
}

// Unregister stops delivery. It must run before the instance is destroyed.
func (c *DiagnosticChannel) Unregister() {
	if c.messenger != nil {
		c.messenger.Destroy()
		c.messenger = nil
	}
}
