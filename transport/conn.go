// Package transport implements the packet channel (C1): a length-prefixed
// packet framing over a plain TCP connection to the MySQL server, adapted
// from the teacher's getty-based connection wrapper into a direct
// net.Dial client (this module dials out, it never accepts connections).
package transport

import (
	"io"
	"net"
	"sync/atomic"
	"time"

	gxbytes "github.com/dubbogo/gost/bytes"
	jerrors "github.com/juju/errors"
)

// maxPacketBody is the payload threshold (2^24 - 1) at which the server
// splits a single logical packet across consecutive physical packets with
// the same sequence-id progression.
const maxPacketBody = 0x00FFFFFF

// Conn wraps a dialed net.Conn with MySQL packet framing, read/write
// deadlines and byte/packet counters, mirroring the accounting the
// teacher's mysqlConn kept for its accepted sessions.
type Conn struct {
	nc net.Conn

	readBytes  uint64
	writeBytes uint64
	readPkgs   uint64
	writePkgs  uint64

	readTimeout  time.Duration
	writeTimeout time.Duration

	seq byte
}

// Dial opens a TCP connection to addr and wraps it for packet framing.
func Dial(addr string, dialTimeout, readTimeout, writeTimeout time.Duration) (*Conn, error) {
	nc, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, jerrors.Annotatef(err, "transport: dial %s", addr)
	}
	return &Conn{nc: nc, readTimeout: readTimeout, writeTimeout: writeTimeout}, nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.nc.Close()
}

// Stats returns the cumulative byte/packet counters, useful for a
// replication engine's own progress logging.
func (c *Conn) Stats() (readBytes, writeBytes, readPkgs, writePkgs uint64) {
	return atomic.LoadUint64(&c.readBytes), atomic.LoadUint64(&c.writeBytes),
		atomic.LoadUint64(&c.readPkgs), atomic.LoadUint64(&c.writePkgs)
}

// ResetSequence resets the packet sequence counter to 0, done at the start
// of every new command phase (a fresh COM_QUERY or COM_BINLOG_DUMP).
func (c *Conn) ResetSequence() {
	c.seq = 0
}

// ReadPacket reads one logical MySQL packet, transparently reassembling a
// payload split across 0x00FFFFFF-sized physical packets.
func (c *Conn) ReadPacket() ([]byte, error) {
	var body []byte
	for {
		if c.readTimeout > 0 {
			if err := c.nc.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
				return nil, jerrors.Annotate(err, "transport: set read deadline")
			}
		}

		headerp := gxbytes.GetBytes(4)
		header := *headerp
		if _, err := io.ReadFull(c.nc, header); err != nil {
			gxbytes.PutBytes(headerp)
			return nil, jerrors.Annotate(err, "transport: read packet header")
		}
		length := int(header[0]) | int(header[1])<<8 | int(header[2])<<16
		seq := header[3]
		gxbytes.PutBytes(headerp)

		chunkp := gxbytes.GetBytes(length)
		chunk := (*chunkp)[:length]
		if length > 0 {
			if _, err := io.ReadFull(c.nc, chunk); err != nil {
				gxbytes.PutBytes(chunkp)
				return nil, jerrors.Annotate(err, "transport: read packet body")
			}
		}

		atomic.AddUint64(&c.readBytes, uint64(4+length))
		atomic.AddUint64(&c.readPkgs, 1)
		c.seq = seq + 1

		body = append(body, chunk...)
		gxbytes.PutBytes(chunkp)

		if length < maxPacketBody {
			break
		}
	}
	return body, nil
}

// WritePacket frames and writes body as one or more physical packets,
// splitting at maxPacketBody and advancing the sequence counter the
// server expects to see echoed back.
func (c *Conn) WritePacket(body []byte) error {
	if c.writeTimeout > 0 {
		if err := c.nc.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return jerrors.Annotate(err, "transport: set write deadline")
		}
	}

	offset := 0
	for {
		chunkLen := len(body) - offset
		if chunkLen > maxPacketBody {
			chunkLen = maxPacketBody
		}
		chunk := body[offset : offset+chunkLen]

		header := []byte{
			byte(chunkLen),
			byte(chunkLen >> 8),
			byte(chunkLen >> 16),
			c.seq,
		}
		if _, err := c.nc.Write(header); err != nil {
			return jerrors.Annotate(err, "transport: write packet header")
		}
		if chunkLen > 0 {
			if _, err := c.nc.Write(chunk); err != nil {
				return jerrors.Annotate(err, "transport: write packet body")
			}
		}

		atomic.AddUint64(&c.writeBytes, uint64(4+chunkLen))
		atomic.AddUint64(&c.writePkgs, 1)
		c.seq++
		offset += chunkLen

		if chunkLen < maxPacketBody {
			break
		}
	}
	return nil
}
