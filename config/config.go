// Package config holds the replication client's structured configuration
// and optional .ini file loading, in the teacher's own conf-loading style.
package config

import (
	"strings"
	"time"

	"github.com/juju/errors"
	"gopkg.in/ini.v1"
)

// SnapshotMode names how the client establishes its starting point. It is
// loaded from configuration, but replica.Client does not read it: in GTID
// mode the client requests every event after the server's executed GTID
// set, and otherwise it starts at StartFile/StartOffset when StartFile is
// set and at the server's current binary log position when it is not.
type SnapshotMode string

const (
	// SnapshotNone names resuming from an explicit position/GTID set only.
	SnapshotNone SnapshotMode = "none"
	// SnapshotLatest names streaming from the server's current position,
	// skipping any history.
	SnapshotLatest SnapshotMode = "latest"
)

// Config is the replication client's full configuration surface.
type Config struct {
	Raw *ini.File

	Host     string
	Port     int
	Username string
	Password string
	Database string

	ServerID uint32

	// Databases/Tables are allow-lists; an empty list means "all".
	Databases []string
	Tables    []string

	SnapshotMode SnapshotMode
	IncludeDDL   bool
	GtidFilter   string
	StartFile    string
	StartOffset  uint32

	DialTimeout time.Duration
	ReadTimeout time.Duration
}

// Default returns a Config with the same conservative defaults the
// teacher's own NewCfg used for its listener (bind address, port), adapted
// to an outbound replica connection.
func Default() *Config {
	return &Config{
		Raw:          ini.Empty(),
		Host:         "127.0.0.1",
		Port:         3306,
		ServerID:     1001,
		SnapshotMode: SnapshotLatest,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  30 * time.Second,
	}
}

// Load reads an .ini file and overlays its [replica] section onto a
// Default() configuration.
func Load(path string) (*Config, error) {
	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, errors.Annotatef(err, "config: loading %s", path)
	}

	cfg := Default()
	cfg.Raw = iniFile
	if err := cfg.parseReplicaSection(iniFile.Section("replica")); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) parseReplicaSection(section *ini.Section) error {
	if key, err := section.GetKey("host"); err == nil {
		cfg.Host = key.Value()
	}
	if key, err := section.GetKey("port"); err == nil {
		port, err := key.Int()
		if err != nil {
			return errors.Annotate(err, "config: replica.port")
		}
		cfg.Port = port
	}
	if key, err := section.GetKey("username"); err == nil {
		cfg.Username = key.Value()
	}
	if key, err := section.GetKey("password"); err == nil {
		cfg.Password = key.Value()
	}
	if key, err := section.GetKey("database"); err == nil {
		cfg.Database = key.Value()
	}
	if key, err := section.GetKey("server_id"); err == nil {
		id, err := key.Uint()
		if err != nil {
			return errors.Annotate(err, "config: replica.server_id")
		}
		cfg.ServerID = uint32(id)
	}
	if key, err := section.GetKey("databases"); err == nil {
		cfg.Databases = splitList(key.Value())
	}
	if key, err := section.GetKey("tables"); err == nil {
		cfg.Tables = splitList(key.Value())
	}
	if key, err := section.GetKey("snapshot_mode"); err == nil {
		cfg.SnapshotMode = SnapshotMode(key.Value())
	}
	if key, err := section.GetKey("include_ddl"); err == nil {
		cfg.IncludeDDL = key.MustBool(false)
	}
	if key, err := section.GetKey("gtid_filter"); err == nil {
		cfg.GtidFilter = key.Value()
	}
	if key, err := section.GetKey("start_file"); err == nil {
		cfg.StartFile = key.Value()
	}
	if key, err := section.GetKey("start_offset"); err == nil {
		off, err := key.Uint()
		if err != nil {
			return errors.Annotate(err, "config: replica.start_offset")
		}
		cfg.StartOffset = uint32(off)
	}
	return nil
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// AllowsDatabase reports whether db passes the configured allow-list.
func (cfg *Config) AllowsDatabase(db string) bool {
	if len(cfg.Databases) == 0 {
		return true
	}
	for _, d := range cfg.Databases {
		if d == db {
			return true
		}
	}
	return false
}

// AllowsTable reports whether db.table passes the configured allow-list.
func (cfg *Config) AllowsTable(db, table string) bool {
	if !cfg.AllowsDatabase(db) {
		return false
	}
	if len(cfg.Tables) == 0 {
		return true
	}
	qualified := db + "." + table
	for _, t := range cfg.Tables {
		if t == table || t == qualified {
			return true
		}
	}
	return false
}
