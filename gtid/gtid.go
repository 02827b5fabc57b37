// Package gtid implements the GTID set model: per-source UUID sorted
// disjoint transaction-id ranges, with merge/contains/subtract/serialize
// operations and the binary encoding COM_BINLOG_DUMP_GTID requires.
package gtid

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

// Interval is an inclusive-exclusive range of transaction numbers
// [Start, End) for one source UUID, matching MySQL's own GTID set
// convention (a single transaction N is stored as [N, N+1)).
type Interval struct {
	Start int64
	End   int64
}

// BinlogPosition is a file/offset pair. A Set is the GTID analogue used
// once the server is running in GTID mode; BinlogPosition remains the
// fallback offset representation for servers without GTID_MODE=ON.
type BinlogPosition struct {
	File   string
	Offset uint32
}

func (p BinlogPosition) String() string {
	return fmt.Sprintf("%s:%d", p.File, p.Offset)
}

// Set is a GTID set: a map of source UUID to its sorted, disjoint list of
// transaction-id intervals.
type Set struct {
	intervals map[uuid.UUID][]Interval
}

// NewSet returns an empty GTID set.
func NewSet() *Set {
	return &Set{intervals: make(map[uuid.UUID][]Interval)}
}

// Clone returns a deep copy of s.
func (s *Set) Clone() *Set {
	out := NewSet()
	for id, ivs := range s.intervals {
		cp := make([]Interval, len(ivs))
		copy(cp, ivs)
		out.intervals[id] = cp
	}
	return out
}

// Add folds a single transaction (source, txID) into the set, merging it
// with any adjacent or overlapping interval for the same source.
func (s *Set) Add(source uuid.UUID, txID int64) {
	s.AddRange(source, Interval{Start: txID, End: txID + 1})
}

// AddRange folds an interval into the set for source, merging overlapping
// or adjacent intervals so the per-source list stays sorted and disjoint.
func (s *Set) AddRange(source uuid.UUID, add Interval) {
	ivs := append(s.intervals[source], add)
	s.intervals[source] = mergeIntervals(ivs)
}

func mergeIntervals(ivs []Interval) []Interval {
	if len(ivs) == 0 {
		return ivs
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].Start < ivs[j].Start })

	merged := []Interval{ivs[0]}
	for _, iv := range ivs[1:] {
		last := &merged[len(merged)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Contains reports whether txID from source is already covered by s.
func (s *Set) Contains(source uuid.UUID, txID int64) bool {
	for _, iv := range s.intervals[source] {
		if txID >= iv.Start && txID < iv.End {
			return true
		}
		if txID < iv.Start {
			break
		}
	}
	return false
}

// ContainsSet reports whether every interval of other is covered by s.
func (s *Set) ContainsSet(other *Set) bool {
	if other == nil {
		return true
	}
	for id, ivs := range other.intervals {
		mine := s.intervals[id]
		for _, iv := range ivs {
			if !intervalCovered(mine, iv) {
				return false
			}
		}
	}
	return true
}

func intervalCovered(mine []Interval, want Interval) bool {
	for _, iv := range mine {
		if want.Start >= iv.Start && want.End <= iv.End {
			return true
		}
	}
	return false
}

// Merge unions other into s, returning s for chaining.
func (s *Set) Merge(other *Set) *Set {
	if other == nil {
		return s
	}
	for id, ivs := range other.intervals {
		merged := append(append([]Interval{}, s.intervals[id]...), ivs...)
		s.intervals[id] = mergeIntervals(merged)
	}
	return s
}

// Subtract removes every interval of other from s, returning s for
// chaining. Used to compute the set of transactions a consumer still
// needs after resuming from a previously-acknowledged offset.
func (s *Set) Subtract(other *Set) *Set {
	if other == nil {
		return s
	}
	for id, subIvs := range other.intervals {
		s.intervals[id] = subtractIntervals(s.intervals[id], subIvs)
	}
	return s
}

func subtractIntervals(from []Interval, sub []Interval) []Interval {
	var out []Interval
	for _, iv := range from {
		remaining := []Interval{iv}
		for _, s := range sub {
			var next []Interval
			for _, r := range remaining {
				next = append(next, splitInterval(r, s)...)
			}
			remaining = next
		}
		out = append(out, remaining...)
	}
	return mergeIntervals(out)
}

func splitInterval(r, cut Interval) []Interval {
	if cut.End <= r.Start || cut.Start >= r.End {
		return []Interval{r}
	}
	var out []Interval
	if cut.Start > r.Start {
		out = append(out, Interval{Start: r.Start, End: cut.Start})
	}
	if cut.End < r.End {
		out = append(out, Interval{Start: cut.End, End: r.End})
	}
	return out
}

// String renders the set in MySQL's canonical textual form:
// uuid:start-end:start-end,uuid:start-end, sorted by source UUID.
func (s *Set) String() string {
	var ids []uuid.UUID
	for id := range s.intervals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	var parts []string
	for _, id := range ids {
		ivs := s.intervals[id]
		if len(ivs) == 0 {
			continue
		}
		var ranges []string
		for _, iv := range ivs {
			if iv.End == iv.Start+1 {
				ranges = append(ranges, strconv.FormatInt(iv.Start, 10))
			} else {
				ranges = append(ranges, fmt.Sprintf("%d-%d", iv.Start, iv.End-1))
			}
		}
		parts = append(parts, fmt.Sprintf("%s:%s", id.String(), strings.Join(ranges, ":")))
	}
	return strings.Join(parts, ",")
}

// ParseSet parses MySQL's canonical GTID set text form.
func ParseSet(text string) (*Set, error) {
	s := NewSet()
	text = strings.TrimSpace(text)
	if text == "" {
		return s, nil
	}
	for _, group := range strings.Split(text, ",") {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		fields := strings.Split(group, ":")
		if len(fields) < 2 {
			return nil, errors.Errorf("gtid: malformed group %q", group)
		}
		id, err := uuid.Parse(fields[0])
		if err != nil {
			return nil, errors.Annotatef(err, "gtid: malformed source id %q", fields[0])
		}
		for _, rangeText := range fields[1:] {
			iv, err := parseInterval(rangeText)
			if err != nil {
				return nil, err
			}
			s.AddRange(id, iv)
		}
	}
	return s, nil
}

func parseInterval(text string) (Interval, error) {
	if dash := strings.IndexByte(text, '-'); dash >= 0 {
		start, err := strconv.ParseInt(text[:dash], 10, 64)
		if err != nil {
			return Interval{}, errors.Annotatef(err, "gtid: malformed range %q", text)
		}
		end, err := strconv.ParseInt(text[dash+1:], 10, 64)
		if err != nil {
			return Interval{}, errors.Annotatef(err, "gtid: malformed range %q", text)
		}
		return Interval{Start: start, End: end + 1}, nil
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Interval{}, errors.Annotatef(err, "gtid: malformed transaction id %q", text)
	}
	return Interval{Start: v, End: v + 1}, nil
}

// EncodeBinary encodes the set in the binary form COM_BINLOG_DUMP_GTID
// requires: n_sids, then per-SID the 16-byte UUID followed by its
// n_intervals pairs of 8-byte little-endian start/end values.
func (s *Set) EncodeBinary() []byte {
	var ids []uuid.UUID
	for id := range s.intervals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(len(ids)))

	for _, id := range ids {
		idBytes, _ := id.MarshalBinary()
		buf = append(buf, idBytes...)

		ivs := s.intervals[id]
		n := make([]byte, 8)
		binary.LittleEndian.PutUint64(n, uint64(len(ivs)))
		buf = append(buf, n...)

		for _, iv := range ivs {
			se := make([]byte, 16)
			binary.LittleEndian.PutUint64(se[0:8], uint64(iv.Start))
			binary.LittleEndian.PutUint64(se[8:16], uint64(iv.End))
			buf = append(buf, se...)
		}
	}
	return buf
}
