package replica

import (
	"strings"

	"github.com/juju/errors"

	"github.com/zhukovaskychina/mysql-binlog-client/gtid"
	"github.com/zhukovaskychina/mysql-binlog-client/transport"
)

// sessionInfo is what the five fixed configuration queries establish
// before the client issues COM_BINLOG_DUMP[_GTID].
type sessionInfo struct {
	binlogFormat string
	serverID     uint32
	gtidModeOn   bool
	executedSet  *gtid.Set
	masterFile   string
	masterPos    uint32
	checksumOff  bool
}

// negotiateSession runs the session-configuration query sequence: confirm
// ROW-format binlogging, learn the server's own server_id and GTID mode,
// read the current executed-GTID-set / file position, and disable the
// binlog checksum the server would otherwise append to every event.
func negotiateSession(conn *transport.Conn) (*sessionInfo, error) {
	info := &sessionInfo{}

	rows, err := queryTextRows(conn, "SHOW GLOBAL VARIABLES LIKE 'binlog_format'")
	if err != nil {
		return nil, errors.Annotate(err, "replica: query binlog_format")
	}
	if len(rows) == 0 {
		return nil, &ServerConfigError{Reason: "binlog_format variable not reported by server"}
	}
	info.binlogFormat = strings.ToUpper(cellString(rows[0], 1))
	if info.binlogFormat != "ROW" {
		return nil, &ServerConfigError{Reason: "binlog_format is " + info.binlogFormat + ", this client only understands ROW-format events"}
	}

	rows, err = queryTextRows(conn, "SELECT @@server_id")
	if err != nil {
		return nil, errors.Annotate(err, "replica: query server_id")
	}
	if len(rows) > 0 {
		if id, perr := parseUint32(cellString(rows[0], 0)); perr == nil {
			info.serverID = id
		}
	}

	rows, err = queryTextRows(conn, "SHOW GLOBAL VARIABLES LIKE 'GTID_MODE'")
	if err != nil {
		return nil, errors.Annotate(err, "replica: query gtid_mode")
	}
	if len(rows) > 0 {
		info.gtidModeOn = strings.EqualFold(cellString(rows[0], 1), "ON")
	}

	rows, err = queryMasterStatus(conn)
	if err != nil {
		return nil, errors.Annotate(err, "replica: query binary log status")
	}
	if info.gtidModeOn {
		if len(rows) > 0 {
			set, perr := gtid.ParseSet(cellString(rows[0], 4))
			if perr != nil {
				return nil, &GtidParseError{Cause: perr}
			}
			info.executedSet = set
		} else {
			info.executedSet = gtid.NewSet()
		}
	} else if len(rows) > 0 {
		info.masterFile = cellString(rows[0], 0)
		if pos, perr := parseUint32(cellString(rows[0], 1)); perr == nil {
			info.masterPos = pos
		}
	}

	if _, err := queryTextRows(conn, "SET @master_binlog_checksum='NONE'"); err != nil {
		return nil, errors.Annotate(err, "replica: disable binlog checksum")
	}
	info.checksumOff = true

	return info, nil
}

// queryMasterStatus issues the MySQL 8.2+ `SHOW BINARY LOG STATUS` query
// (the renamed replacement for the now-deprecated `SHOW MASTER STATUS`,
// per spec query #4) and falls back to the legacy spelling when the server
// doesn't recognize it.
func queryMasterStatus(conn *transport.Conn) ([]textRow, error) {
	rows, err := queryTextRows(conn, "SHOW BINARY LOG STATUS")
	if _, ok := err.(*ServerError); ok {
		return queryTextRows(conn, "SHOW MASTER STATUS")
	}
	return rows, err
}

func parseUint32(s string) (uint32, error) {
	var v uint64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errors.Errorf("replica: %q is not numeric", s)
		}
		v = v*10 + uint64(r-'0')
	}
	return uint32(v), nil
}
