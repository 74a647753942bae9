package mockrobot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/ValerySidorin/mockrobot/internal/protocol"
)

// StatusUnknown is the process status of a session that was disconnected.
const StatusUnknown = "Unknown"

// Driver is a controller session with one robot server. Foreground calls,
// the status poller and background queues share its single transport.
type Driver struct {
	conf DriverConfig
	l    *slog.Logger

	// lifecycle serializes Connect, Disconnect and queue starts.
	lifecycle sync.Mutex

	// rt is held for one request/response round trip.
	rt   sync.Mutex
	conn conn
	seq  uint64

	state     sync.RWMutex
	connected bool
	obs       Observation
	cancel    context.CancelFunc
	ctx       context.Context
	// issued is the round trip of the last motion command.
	issued uint64
	// queued is set while a queue runs in this session.
	queued bool

	wg sync.WaitGroup
}

func NewDriver(conf DriverConfig) (*Driver, error) {
	conf.SetDefaults()
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("validate driver config: %w", err)
	}

	return &Driver{
		conf: conf,
		l:    conf.Logger,
	}, nil
}

// Connect dials the server at address:port and starts the status poller
// once the server admits the session.
func (d *Driver) Connect(ctx context.Context, address, port string) error {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	if d.Connected() {
		return driverError("MockRobot already connected", ErrAlreadyConnected)
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return inputError("Input valid port number")
	}

	// goroutines of a dropped session exit within one interval
	d.wg.Wait()

	c, err := d.dial(ctx, net.JoinHostPort(address, port))
	if err != nil {
		return transportError("Connection failed...", err)
	}

	s, err := protocol.ReadSentinel(c, d.conf.MaxFrameSize)
	if err != nil {
		c.Close()
		return transportError("Connection failed...", fmt.Errorf("read admission: %w", err))
	}
	if s == protocol.ExistingConn {
		c.Close()
		return serverError("More than one client attempting to connect", ErrSlotOccupied)
	}

	d.rt.Lock()
	d.conn = c
	d.rt.Unlock()

	sctx, cancel := context.WithCancel(context.Background())
	d.state.Lock()
	d.connected = true
	d.obs = Observation{}
	d.issued = 0
	d.queued = false
	d.ctx = sctx
	d.cancel = cancel
	d.state.Unlock()

	d.wg.Add(1)
	go d.poll(sctx)

	d.l.Info("connected to mockrobot", "addr", c.RemoteAddr().String(), "transport", d.conf.Transport)
	return nil
}

func (d *Driver) dial(ctx context.Context, addr string) (conn, error) {
	if d.conf.Transport == TransportQUIC {
		return dialQUIC(ctx, addr, d.conf.TLS, d.conf.QUIC)
	}
	return dialTCP(ctx, addr)
}

// Disconnect sends disconnect, closes the transport and waits for the
// poller and running queues to exit.
func (d *Driver) Disconnect() error {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	if !d.Connected() {
		return driverError("No connection available", ErrNotConnected)
	}

	err := d.hangUp(true)
	d.markDisconnected()
	d.wg.Wait()

	d.l.Info("disconnected from mockrobot")
	return err
}

// Abort is Disconnect as offered to front ends.
func (d *Driver) Abort() error {
	return d.Disconnect()
}

// Close disconnects if needed and waits for background work to finish.
func (d *Driver) Close() error {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	err := d.hangUp(d.Connected())
	d.markDisconnected()
	d.wg.Wait()
	return err
}

// hangUp optionally says disconnect, then closes the transport. Both happen
// within one round trip so no other request can follow the disconnect.
func (d *Driver) hangUp(notify bool) error {
	d.rt.Lock()
	defer d.rt.Unlock()

	if d.conn == nil {
		return nil
	}
	defer d.closeConnLocked()

	if !notify {
		return nil
	}

	if err := protocol.WriteRequest(protocol.NewRequest(protocol.DisconnectCommand, protocol.NoParam()), d.conn); err != nil {
		return transportError("Disconnect failed", err)
	}
	if _, err := protocol.ReadResponse(d.conn, d.conf.MaxFrameSize); err != nil {
		return transportError("Disconnect failed", err)
	}
	return nil
}

func (d *Driver) closeConnLocked() {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

func (d *Driver) markDisconnected() {
	d.state.Lock()
	defer d.state.Unlock()

	d.connected = false
	d.obs.Status = StatusUnknown
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Driver) Connected() bool {
	d.state.RLock()
	defer d.state.RUnlock()
	return d.connected
}

// ProcessStatus is the status text last seen by the poller.
func (d *Driver) ProcessStatus() string {
	d.state.RLock()
	defer d.state.RUnlock()
	return d.obs.Status
}

func (d *Driver) Observe() Observation {
	d.state.RLock()
	defer d.state.RUnlock()
	return d.obs
}

// Raw issues one command and returns its payload. A 400 answer is a
// server error wrapping ErrRequestFailed.
func (d *Driver) Raw(cmd protocol.Command, param protocol.Param) (protocol.Payload, error) {
	resp, _, err := d.roundTrip(protocol.NewRequest(cmd, param))
	if err != nil {
		return nil, err
	}
	if !resp.Success() {
		return resp.Data, serverError(resp.Data.String(), ErrRequestFailed)
	}
	return resp.Data, nil
}

func (d *Driver) issue(e Entry) (uint64, error) {
	resp, seq, err := d.roundTrip(protocol.NewRequest(e.Command, e.param()))
	if err != nil {
		return seq, err
	}
	if !resp.Success() {
		return seq, serverError(resp.Data.String(), ErrRequestFailed)
	}
	return seq, nil
}

func (d *Driver) roundTrip(req protocol.Request) (protocol.Response, uint64, error) {
	d.rt.Lock()
	defer d.rt.Unlock()

	if d.conn == nil {
		return protocol.Response{}, 0, driverError("No connection available", ErrNotConnected)
	}

	d.seq++
	seq := d.seq

	if err := protocol.WriteRequest(req, d.conn); err != nil {
		d.failLocked(err)
		return protocol.Response{}, seq, transportError("Request failed", err)
	}

	resp, err := protocol.ReadResponse(d.conn, d.conf.MaxFrameSize)
	if err != nil {
		d.failLocked(err)
		return protocol.Response{}, seq, transportError("Request failed", err)
	}

	if isMotion(req.Command) {
		d.state.Lock()
		d.issued = seq
		d.state.Unlock()
	}

	return resp, seq, nil
}

func isMotion(cmd protocol.Command) bool {
	switch cmd {
	case protocol.HomeCommand, protocol.PickCommand, protocol.PlaceCommand:
		return true
	}
	return false
}

func (d *Driver) failLocked(err error) {
	d.l.Error(fmt.Errorf("round trip: %w", err).Error())
	d.closeConnLocked()
	d.markDisconnected()
}

func (d *Driver) poll(ctx context.Context) {
	defer d.wg.Done()

	var (
		prev     StatusCode
		observed bool
		text     string
	)

	ticker := time.NewTicker(d.conf.PollInterval)
	defer ticker.Stop()

	for {
		resp, seq, err := d.roundTrip(protocol.NewRequest(protocol.GetCurrentStatusIDCommand, protocol.NoParam()))
		if err != nil {
			if !errors.Is(err, ErrNotConnected) {
				d.l.Warn("status poller stopped", "err", err)
			}
			return
		}

		code, err := resp.Data.Int()
		if err != nil {
			d.l.Warn("unexpected status id", "data", resp.Data.String())
		} else {
			if !observed || StatusCode(code) != prev {
				text, err = d.statusText(StatusCode(code))
				if err != nil {
					if ClassOf(err) == ClassTransport || errors.Is(err, ErrNotConnected) {
						return
					}
					text = err.Error()
				}
				prev, observed = StatusCode(code), true
			}
			d.observe(Observation{Code: prev, Status: text, Seq: seq})
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (d *Driver) statusText(code StatusCode) (string, error) {
	data, err := d.Raw(protocol.StatusCommand, protocol.IntParam(int(code)))
	if err != nil {
		return "", err
	}
	return data.String(), nil
}

func (d *Driver) observe(obs Observation) {
	d.state.Lock()
	defer d.state.Unlock()

	if !d.connected {
		return
	}
	if obs.Status != d.obs.Status {
		d.l.Debug("process status changed", "status", obs.Status, "code", int(obs.Code))
	}
	d.obs = obs
}

// Initialize homes the robot in the background.
func (d *Driver) Initialize() error {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	if err := d.ready(); err != nil {
		return err
	}

	d.start(Entry{Command: protocol.HomeCommand})
	return nil
}

// ExecuteOperation validates an operation request and runs it in the
// background.
func (d *Driver) ExecuteOperation(op Operation, names [2]ParamName, values [2]string) error {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	if err := d.ready(); err != nil {
		return err
	}

	entries, err := BuildQueue(op, names, values, d.conf.Locations)
	if err != nil {
		return err
	}

	d.start(entries...)
	return nil
}

// Execute runs entries in order and returns once all are issued. Use
// WaitIdle to wait for the last one to finish.
func (d *Driver) Execute(ctx context.Context, entries ...Entry) error {
	d.lifecycle.Lock()
	err := d.ready()
	if err == nil {
		d.setQueued(true)
	}
	d.lifecycle.Unlock()
	if err != nil {
		return err
	}
	defer d.setQueued(false)

	return newQueue(d, d.conf.QueueInterval, d.l, entries...).Run(ctx)
}

// WaitIdle blocks until no queue runs and the poller has seen a status newer
// than the last motion command that is not In Progress.
func (d *Driver) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(d.conf.PollInterval)
	defer ticker.Stop()

	for {
		d.state.RLock()
		connected, queued, issued, obs := d.connected, d.queued, d.issued, d.obs
		d.state.RUnlock()

		if !connected {
			return driverError("No connection available", ErrNotConnected)
		}
		if !queued && obs.Seq > issued && obs.Code != StatusInProgress {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (d *Driver) ready() error {
	d.state.RLock()
	connected, queued, obs := d.connected, d.queued, d.obs
	d.state.RUnlock()

	if !connected {
		return driverError("No connection available", ErrNotConnected)
	}
	if queued || obs.Code == StatusInProgress {
		return driverError("Process already in progress", ErrInProgress)
	}
	return nil
}

func (d *Driver) setQueued(queued bool) {
	d.state.Lock()
	d.queued = queued
	d.state.Unlock()
}

func (d *Driver) start(entries ...Entry) {
	d.state.Lock()
	ctx := d.ctx
	d.queued = true
	d.state.Unlock()

	q := newQueue(d, d.conf.QueueInterval, d.l, entries...)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.setQueued(false)
		if err := q.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.l.Warn("queue discarded", "err", err, "pending", len(q.Pending()))
		}
	}()
}
