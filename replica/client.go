// Package replica implements the replication engine (C5): the public
// start/events/offset/stop surface over C1-C4, driving the session state
// machine from Disconnected through Streaming.
package replica

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/juju/errors"

	"github.com/zhukovaskychina/mysql-binlog-client/binlogevent"
	"github.com/zhukovaskychina/mysql-binlog-client/cellvalue"
	"github.com/zhukovaskychina/mysql-binlog-client/config"
	"github.com/zhukovaskychina/mysql-binlog-client/gtid"
	"github.com/zhukovaskychina/mysql-binlog-client/handshake"
	"github.com/zhukovaskychina/mysql-binlog-client/logging"
	"github.com/zhukovaskychina/mysql-binlog-client/transport"
)

// Client is the replication engine: one Client drives exactly one replica
// session against exactly one source server.
type Client struct {
	cfg *config.Config

	mu    sync.Mutex
	state State
	conn  *transport.Conn

	tableCache map[uint64]binlogevent.TableMap
	checksumOn bool

	position   gtid.BinlogPosition
	executed   *gtid.Set
	gtidFilter   *gtid.Set
	pending      *gtid.Gtid
	pendingQuery string

	events chan ChangeRecord
	errs   chan error
	stop   chan struct{}
	done   chan struct{}
}

// New constructs a Client for cfg. Call Start to begin streaming.
func New(cfg *config.Config) *Client {
	return &Client{
		cfg:        cfg,
		state:      StateDisconnected,
		tableCache: make(map[uint64]binlogevent.TableMap),
		events:     make(chan ChangeRecord, 256),
		errs:       make(chan error, 1),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// State reports the session's current position in the connection
// lifecycle.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Events returns the channel change records are delivered on. The channel
// is closed once Start's streaming loop exits, for any reason.
func (c *Client) Events() <-chan ChangeRecord {
	return c.events
}

// Errs returns the channel a terminal error (if any) is delivered on
// before Events is closed.
func (c *Client) Errs() <-chan error {
	return c.errs
}

// Offset returns the position the client has durably processed up to:
// the GTID set in GTID mode, or the binlog file/position otherwise.
func (c *Client) Offset() (gtid.BinlogPosition, *gtid.Set) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var set *gtid.Set
	if c.executed != nil {
		set = c.executed.Clone()
	}
	return c.position, set
}

// Stop requests the streaming loop to exit and blocks until it has.
func (c *Client) Stop() {
	close(c.stop)
	<-c.done
}

// Start connects, authenticates, negotiates the session and begins
// streaming. It runs the full state machine synchronously up through
// StateStreaming and then launches the read loop in the background.
func (c *Client) Start() error {
	if c.cfg.GtidFilter != "" {
		set, err := gtid.ParseSet(c.cfg.GtidFilter)
		if err != nil {
			return &GtidParseError{Cause: err}
		}
		c.gtidFilter = set
	}

	c.setState(StateConnecting)
	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)
	conn, err := transport.Dial(addr, c.cfg.DialTimeout, c.cfg.ReadTimeout, c.cfg.DialTimeout)
	if err != nil {
		c.setState(StateFailed)
		return &TransportError{Cause: err}
	}
	c.conn = conn

	c.setState(StateGreeting)
	greetingPkt, err := conn.ReadPacket()
	if err != nil {
		c.setState(StateFailed)
		return &TransportError{Cause: err}
	}
	if handshake.IsErrPacket(greetingPkt) {
		ep := handshake.DecodeErrPacket(greetingPkt)
		c.setState(StateFailed)
		return &AuthFailedError{Code: ep.Code, SQLState: ep.SQLState, Message: ep.Message}
	}
	greeting, err := handshake.DecodeGreeting(greetingPkt)
	if err != nil {
		c.setState(StateFailed)
		return &ProtocolError{Cause: err}
	}

	c.setState(StateAuthenticating)
	resp := handshake.EncodeResponse(greeting, handshake.Credentials{
		Username: c.cfg.Username,
		Password: c.cfg.Password,
		Schema:   c.cfg.Database,
	})
	if err := conn.WritePacket(resp); err != nil {
		c.setState(StateFailed)
		return &TransportError{Cause: err}
	}
	authResult, err := conn.ReadPacket()
	if err != nil {
		c.setState(StateFailed)
		return &TransportError{Cause: err}
	}
	if handshake.IsErrPacket(authResult) {
		ep := handshake.DecodeErrPacket(authResult)
		c.setState(StateFailed)
		return &AuthFailedError{Code: ep.Code, SQLState: ep.SQLState, Message: ep.Message}
	}

	c.setState(StateConfiguring)
	info, err := negotiateSession(conn)
	if err != nil {
		c.setState(StateFailed)
		return err
	}
	serverID := info.serverID
	if c.cfg.ServerID != 0 {
		serverID = c.cfg.ServerID
	}
	c.executed = info.executedSet
	c.position = gtid.BinlogPosition{File: info.masterFile, Offset: info.masterPos}
	if c.cfg.StartFile != "" {
		c.position = gtid.BinlogPosition{File: c.cfg.StartFile, Offset: c.cfg.StartOffset}
	}

	c.setState(StateRegistering)
	var dumpCmd []byte
	if info.gtidModeOn {
		dumpCmd = binlogevent.EncodeDumpGTID(serverID, c.executed)
	} else {
		dumpCmd = binlogevent.EncodeDump(c.position.Offset, c.position.File, serverID)
	}
	conn.ResetSequence()
	if err := conn.WritePacket(dumpCmd); err != nil {
		c.setState(StateFailed)
		return &TransportError{Cause: err}
	}

	c.setState(StateStreaming)
	go c.streamLoop()
	return nil
}

// streamLoop reads events until Stop is called or a terminal error occurs.
func (c *Client) streamLoop() {
	defer close(c.events)
	defer close(c.done)

	for {
		select {
		case <-c.stop:
			c.conn.Close()
			c.setState(StateDisconnected)
			return
		default:
		}

		pkt, err := c.conn.ReadPacket()
		if err != nil {
			select {
			case <-c.stop:
				c.setState(StateDisconnected)
				return
			default:
			}
			c.setState(StateFailed)
			c.errs <- &TransportError{Cause: err}
			return
		}

		if err := c.handlePacket(pkt); err != nil {
			c.setState(StateFailed)
			c.errs <- err
			return
		}
	}
}

func (c *Client) handlePacket(pkt []byte) error {
	if len(pkt) == 0 {
		return nil
	}
	switch pkt[0] {
	case 0x00:
		return c.handleEvent(pkt[1:])
	case 0xFE:
		return nil // EOF marks end of stream on some servers, nothing left to do
	case 0xFF:
		ep := handshake.DecodeErrPacket(pkt)
		return &ServerError{Code: ep.Code, SQLState: ep.SQLState, Message: ep.Message}
	default:
		return &ProtocolError{Cause: errors.Errorf("unexpected status byte 0x%02X", pkt[0])}
	}
}

func (c *Client) handleEvent(buf []byte) error {
	header, err := binlogevent.DecodeHeader(buf)
	if err != nil {
		return &DecodeError{Cause: err}
	}
	// FORMAT_DESCRIPTION keeps its trailing CRC32: its decoder reads the
	// checksum-algorithm byte from just before it.
	if c.checksumOn && header.EventType != 15 && len(buf) >= binlogevent.HeaderSize+4 {
		buf = buf[:len(buf)-4]
	}
	body := buf[binlogevent.HeaderSize:]

	switch int(header.EventType) {
	case 15: // FORMAT_DESCRIPTION
		fd := binlogevent.DecodeFormatDescription(body)
		c.checksumOn = fd.ChecksumAlgorithm == binlogevent.ChecksumCRC32
		logging.Debugf("replica: format_description server=%s checksum=%d", fd.ServerVersion, fd.ChecksumAlgorithm)

	case 4: // ROTATE
		r := binlogevent.DecodeRotate(body)
		c.mu.Lock()
		c.position = gtid.BinlogPosition{File: r.NextFile, Offset: uint32(r.NextPosition)}
		c.mu.Unlock()
		c.setState(StateRotating)
		c.setState(StateStreaming)

	case 19: // TABLE_MAP
		tm, err := binlogevent.DecodeTableMap(body)
		if err != nil {
			return &DecodeError{Cause: err}
		}
		c.tableCache[tm.TableID] = tm

	case 30, 31, 32: // WRITE/UPDATE/DELETE_ROWS
		if err := c.handleRows(header.EventType, body); err != nil {
			return err
		}

	case 2: // QUERY
		if err := c.handleQuery(body); err != nil {
			return err
		}

	case 33, 34: // GTID / ANONYMOUS_GTID
		g, err := binlogevent.DecodeGtid(body)
		if err != nil {
			return &DecodeError{Cause: err}
		}
		c.pending = &g

	case 16: // XID
		c.commitPending()

	case 36: // ROWS_QUERY
		rq := binlogevent.DecodeRowsQuery(body)
		c.pendingQuery = rq.Query

	default:
		// Events this client has no semantics for (e.g. INTVAR, RAND,
		// USER_VAR, HEARTBEAT) are simply skipped.
	}

	if header.EventType != 4 && header.NextPos > 0 {
		c.mu.Lock()
		c.position.Offset = header.NextPos
		c.mu.Unlock()
	}
	return nil
}

func (c *Client) commitPending() {
	if c.pending == nil || c.executed == nil {
		return
	}
	c.executed.Add(c.pending.SourceID, c.pending.TransactionID)
	c.pending = nil
}

func (c *Client) currentGtidString() string {
	if c.pending == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.pending.SourceID.String(), c.pending.TransactionID)
}

func (c *Client) gtidPasses() bool {
	if c.gtidFilter == nil || c.pending == nil {
		return true
	}
	return c.gtidFilter.Contains(c.pending.SourceID, c.pending.TransactionID)
}

func (c *Client) handleQuery(body []byte) error {
	q := binlogevent.DecodeQuery(body)
	upper := strings.ToUpper(strings.TrimSpace(q.SQL))
	if upper == "BEGIN" || upper == "COMMIT" {
		if upper == "COMMIT" {
			c.commitPending()
		}
		return nil
	}
	if !c.cfg.IncludeDDL || !isDDL(upper) {
		return nil
	}
	if !c.cfg.AllowsDatabase(q.Schema) || !c.gtidPasses() {
		return nil
	}
	c.events <- ChangeRecord{
		Op:    OpDDL,
		Ts:    int64(q.ExecutionTime),
		DB:    q.Schema,
		Gtid:  c.currentGtidString(),
		Query: q.SQL,
	}
	return nil
}

var ddlVerbs = []string{"CREATE", "ALTER", "DROP", "TRUNCATE", "RENAME"}

func isDDL(upperSQL string) bool {
	for _, v := range ddlVerbs {
		if strings.HasPrefix(upperSQL, v) {
			return true
		}
	}
	return false
}

func (c *Client) handleRows(eventType byte, body []byte) error {
	tableID, _ := peekTableID(body)
	tm, ok := c.tableCache[tableID]
	if !ok {
		return &ProtocolError{Cause: errors.Errorf("replica: row event references unseen table_id %d", tableID)}
	}

	rows, err := binlogevent.DecodeRows(body, eventType, tm)
	if err != nil {
		return &DecodeError{Cause: err}
	}

	query := c.pendingQuery
	c.pendingQuery = ""
	if !c.cfg.AllowsTable(tm.Schema, tm.Table) || !c.gtidPasses() {
		return nil
	}

	op := rowsOp(eventType)
	now := time.Now().Unix()
	n := len(rows.After)
	if n == 0 {
		n = len(rows.Before)
	}
	for i := 0; i < n; i++ {
		rec := ChangeRecord{Op: op, Ts: now, DB: tm.Schema, Table: tm.Table, Gtid: c.currentGtidString(), Query: query}
		if i < len(rows.Before) {
			rec.Before = rowToMap(rows.Before[i])
		}
		if i < len(rows.After) {
			rec.After = rowToMap(rows.After[i])
		}
		c.events <- rec
	}
	return nil
}

func rowsOp(eventType byte) Op {
	switch eventType {
	case 30:
		return OpInsert
	case 31:
		return OpUpdate
	default:
		return OpDelete
	}
}

func rowToMap(row binlogevent.Row) map[string]any {
	out := make(map[string]any, len(row.Values))
	for i, v := range row.Values {
		out[fmt.Sprintf("col_%d", i)] = cellToAny(v)
	}
	return out
}

func cellToAny(v cellvalue.Value) any {
	switch v.Kind {
	case cellvalue.KindNull:
		return nil
	case cellvalue.KindInt:
		return v.Int
	case cellvalue.KindUint:
		return v.Uint
	case cellvalue.KindFloat:
		return v.Float
	case cellvalue.KindString, cellvalue.KindDecimal:
		return v.Str
	default:
		return v.Bytes
	}
}

// peekTableID reads the 6-byte table_id without fully decoding the row
// event body, letting the cache lookup happen before the (more expensive)
// column-value decode.
func peekTableID(body []byte) (uint64, error) {
	if len(body) < 6 {
		return 0, errors.New("replica: row event body too short for table_id")
	}
	var id uint64
	for i := 5; i >= 0; i-- {
		id = id<<8 | uint64(body[i])
	}
	return id, nil
}
