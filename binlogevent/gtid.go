package binlogevent

import (
	"github.com/google/uuid"

	"github.com/zhukovaskychina/mysql-binlog-client/util"
)

// Gtid is the GTID_LOG_EVENT body: the UUID/transaction-id pair that
// uniquely identifies the transaction the following statements belong to.
type Gtid struct {
	Commit        bool
	SourceID      uuid.UUID
	TransactionID int64
}

// DecodeGtid decodes a GTID_LOG_EVENT body, buf starting right after the
// common header.
func DecodeGtid(buf []byte) (Gtid, error) {
	var g Gtid
	var c int

	var commitFlag byte
	c, commitFlag = util.ReadByte(buf, c)
	g.Commit = commitFlag != 0

	var rawUUID []byte
	c, rawUUID = util.ReadBytes(buf, c, 16)
	id, err := uuid.FromBytes(rawUUID)
	if err != nil {
		return Gtid{}, err
	}
	g.SourceID = id

	_, txID := util.ReadUB8(buf, c)
	g.TransactionID = int64(txID)
	return g, nil
}
