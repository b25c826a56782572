package mqtt

import (
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// fakePaho records publishes and replays scripted errors.
type fakePaho struct {
	paho.Client // satisfies paho.Client for OnConnect; unused methods are nil

	mu          sync.Mutex
	opts        *paho.ClientOptions
	sent        []sentMessage
	publishErrs []error
	connectErr  error
	connectHang bool
	disconnects int
}

type sentMessage struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// useFake routes NewPahoClient to f for the duration of the test.
func useFake(t *testing.T, f *fakePaho) {
	t.Helper()
	prev := newMQTTClient
	newMQTTClient = func(o *paho.ClientOptions) pahoClient {
		f.opts = o
		return f
	}
	t.Cleanup(func() { newMQTTClient = prev })
}

func (f *fakePaho) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakePaho) IsConnected() bool { return f.connectErr == nil }

func (f *fakePaho) Connect() paho.Token {
	if f.connectHang {
		return pendingToken{}
	}
	if f.connectErr == nil && f.opts != nil && f.opts.OnConnect != nil {
		f.opts.OnConnect(f)
	}
	return doneToken{err: f.connectErr}
}

func (f *fakePaho) Disconnect(uint) {
	f.mu.Lock()
	f.disconnects++
	f.mu.Unlock()
}

func (f *fakePaho) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, _ := payload.([]byte)
	f.sent = append(f.sent, sentMessage{topic: topic, qos: qos, retained: retained, payload: b})
	if len(f.publishErrs) == 0 {
		return doneToken{}
	}
	err := f.publishErrs[0]
	f.publishErrs = f.publishErrs[1:]
	return doneToken{err: err}
}

type doneToken struct{ err error }

func (d doneToken) Wait() bool                     { return true }
func (d doneToken) WaitTimeout(time.Duration) bool { return true }
func (d doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (d doneToken) Error() error { return d.err }

// pendingToken never completes.
type pendingToken struct{}

func (pendingToken) Wait() bool                     { return false }
func (pendingToken) WaitTimeout(time.Duration) bool { return false }
func (pendingToken) Done() <-chan struct{}          { return make(chan struct{}) }
func (pendingToken) Error() error                   { return nil }
