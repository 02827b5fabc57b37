package handshake

import "github.com/zhukovaskychina/mysql-binlog-client/mysqlproto"

// Capability flag aliases used by this package; values are the same bits
// the server negotiates during the handshake.
const (
	ClientLongPassword     = mysqlproto.CLIENT_LONG_PASSWORD
	ClientLongFlag         = mysqlproto.CLIENT_LONG_FLAG
	ClientConnectWithDB    = mysqlproto.CLIENT_CONNECT_WITH_DB
	ClientProtocol41       = mysqlproto.CLIENT_PROTOCOL_41
	ClientSecureConnection = mysqlproto.CLIENT_SECURE_CONNECTION
	ClientMultiStatements  = mysqlproto.CLIENT_MULTI_STATEMENTS
	ClientMultiResults     = mysqlproto.CLIENT_MULTI_RESULTS
	ClientPluginAuth       = mysqlproto.CLIENT_PLUGIN_AUTH
)

// clientCapabilities returns the fixed capability set this client asserts
// in its handshake response. CLIENT_CONNECT_WITH_DB is added by the caller
// only when a default schema is configured.
func clientCapabilities() uint32 {
	var caps uint32
	caps |= ClientLongPassword
	caps |= ClientLongFlag
	caps |= ClientProtocol41
	caps |= ClientSecureConnection
	caps |= ClientMultiStatements
	caps |= ClientMultiResults
	caps |= ClientPluginAuth
	return caps
}
