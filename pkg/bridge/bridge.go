// Package bridge implements a minimal process-link collaborator: a
// two-peer event forwarder over a net.Conn, framed with encoding/gob.
// relayd's bridge listener uses it to inject peer events; bus.Manager's
// Start does not attach one. A heavier deployment might swap
// this for gRPC/protobuf between node processes; gob keeps the peer
// protocol self-contained without a generated-stub toolchain.
package bridge

import (
	"encoding/gob"
	"fmt"
	"net"
	"sync"

	"github.com/cuemby/relay/pkg/event"
	"github.com/cuemby/relay/pkg/log"
)

func init() {
	gob.Register(map[string]any{})
}

// Envelope is the wire record exchanged between bridge peers: a fired
// event's name/channels/payload. The Value/Errors fields and the "value"
// kind exist on the wire type, but no code here sends them and Pump skips
// every envelope whose Kind is not "event".
type Envelope struct {
	Kind     string // "event" or "value"
	Name     string
	Literal  bool
	Channels []string
	Args     []any
	Kwargs   map[string]any
	Value    any
	Errors   bool
}

// Bridge forwards events fired on a local Manager-like host to a remote
// peer over conn, and forwards the peer's events back locally.
type Bridge struct {
	conn net.Conn
	enc  *gob.Encoder
	dec  *gob.Decoder

	mu     sync.Mutex
	closed bool
}

// Host is the subset of bus.Manager a Bridge needs to inject events
// arriving from its peer. Local events reach the peer only through
// explicit Forward calls.
type Host interface {
	Fire(ev *event.Event, channels ...string) *event.Value
}

// New wraps conn as a bridge peer.
func New(conn net.Conn) *Bridge {
	return &Bridge{
		conn: conn,
		enc:  gob.NewEncoder(conn),
		dec:  gob.NewDecoder(conn),
	}
}

// Forward sends ev to the remote peer; the peer's handling result, if
// any, arrives asynchronously and is ignored here. Bridges sit at the
// same fire-and-forward external-collaborator boundary a gRPC stub
// would occupy between manager and worker nodes.
func (b *Bridge) Forward(ev *event.Event) error {
	env := Envelope{
		Kind:     "event",
		Name:     ev.Name,
		Literal:  ev.Literal,
		Channels: ev.Channels,
		Args:     ev.Args,
		Kwargs:   ev.Kwargs,
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("bridge: closed")
	}
	return b.enc.Encode(&env)
}

// Pump reads envelopes from the peer and fires the corresponding local
// event against host, until the connection closes or recv fails.
func (b *Bridge) Pump(host Host) {
	for {
		var env Envelope
		if err := b.dec.Decode(&env); err != nil {
			log.Error("bridge: decode failed: " + err.Error())
			return
		}
		if env.Kind != "event" {
			continue
		}
		var ev *event.Event
		if env.Literal {
			ev = event.NewLiteral(env.Name, env.Args...)
		} else {
			ev = event.New(env.Name, env.Args...)
		}
		ev.Kwargs = env.Kwargs
		host.Fire(ev, env.Channels...)
	}
}

// Close closes the underlying connection.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return b.conn.Close()
}
