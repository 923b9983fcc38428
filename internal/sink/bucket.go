// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

package sink

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ottlab/loggen/internal/metrics"
	"github.com/ottlab/loggen/internal/models"
)

// HourKey identifies one sink partition: a single hour of a single day
// in the configured timezone.
type HourKey struct {
	Year  int
	Month time.Month
	Day   int
	Hour  int
}

// hourKeyOf derives the hour key for a timestamp.
func hourKeyOf(ts time.Time) HourKey {
	return HourKey{Year: ts.Year(), Month: ts.Month(), Day: ts.Day(), Hour: ts.Hour()}
}

// Path returns the Hive-style partition path for the key.
func (k HourKey) Path() string {
	return fmt.Sprintf("year=%04d/month=%02d/day=%02d/hour=%02d", k.Year, k.Month, k.Day, k.Hour)
}

func (k HourKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d", k.Year, k.Month, k.Day, k.Hour)
}

// Filename builds the per-flush object name: topic, zero-padded offset
// and a 6-character uuid fragment.
func Filename(topic string, offset int) string {
	return fmt.Sprintf("%s-%06d-%s.json", topic, offset, uuid.NewString()[:6])
}

// objectPrefix names the flush objects for one writer. Partition 0 is
// the single-writer default and keeps the bare topic; a non-zero
// partition is appended so parallel writers with separate offset
// sequences never collide on filenames.
func objectPrefix(topic string, partition int) string {
	if partition == 0 {
		return topic
	}
	return fmt.Sprintf("%s-%d", topic, partition)
}

var filenamePattern = regexp.MustCompile(`^(.+)-(\d{6})-([0-9a-f]{6})\.json$`)

// ParseFilename recovers (topic, offset, uuid fragment) from a flush
// filename.
func ParseFilename(name string) (topic string, offset int, uid string, err error) {
	m := filenamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", 0, "", fmt.Errorf("malformed sink filename %q", name)
	}
	offset, err = strconv.Atoi(m[2])
	if err != nil {
		return "", 0, "", err
	}
	return m[1], offset, m[3], nil
}

var partitionPattern = regexp.MustCompile(`year=(\d{4})/month=(\d{2})/day=(\d{2})/hour=(\d{2})`)

// ParsePartitionPath recovers the hour key from a partition path.
func ParsePartitionPath(path string) (HourKey, error) {
	m := partitionPattern.FindStringSubmatch(path)
	if m == nil {
		return HourKey{}, fmt.Errorf("malformed partition path %q", path)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	return HourKey{Year: year, Month: time.Month(month), Day: day, Hour: hour}, nil
}

// bucket is one open hour of buffered events.
type bucket struct {
	key    HourKey
	events []*models.Event
}

// flushFunc persists one sorted bucket. The payload is the NDJSON body;
// key and offset determine the object path.
type flushFunc func(key HourKey, offset int, body []byte, count int) error

// buffer holds at most two open hour buckets, the current and the next.
// An event beyond the next bucket flushes the current one and promotes.
// Events older than the current bucket are dropped.
type buffer struct {
	current *bucket
	next    *bucket

	offsets offsetSource
	flush   flushFunc
	name    string
}

func newBuffer(name string, offsets offsetSource, flush flushFunc) *buffer {
	return &buffer{offsets: offsets, flush: flush, name: name}
}

// add routes the event into the current or next bucket, promoting when
// the event belongs beyond both. Returns ErrLateEvent for events older
// than the current bucket's hour.
func (b *buffer) add(e *models.Event) error {
	key := hourKeyOf(e.Timestamp.Time())

	if b.current == nil {
		b.current = &bucket{key: key}
	}

	switch {
	case key == b.current.key:
		b.current.events = append(b.current.events, e)
		return nil
	case before(key, b.current.key):
		metrics.EventsDroppedLate.Inc()
		return ErrLateEvent
	case b.next == nil:
		b.next = &bucket{key: key, events: []*models.Event{e}}
		return nil
	case key == b.next.key:
		b.next.events = append(b.next.events, e)
		return nil
	case before(key, b.next.key):
		// Between current and next; the current bucket is still open.
		// Rotate next forward so ordering is preserved.
		if err := b.flushBucket(b.current); err != nil {
			return err
		}
		b.current = &bucket{key: key, events: []*models.Event{e}}
		return nil
	default:
		// Beyond next: flush current, promote next, start a fresh next.
		if err := b.flushBucket(b.current); err != nil {
			return err
		}
		b.current = b.next
		b.next = &bucket{key: key, events: []*models.Event{e}}
		return nil
	}
}

// close flushes both open buckets in hour order.
func (b *buffer) close() error {
	var firstErr error
	for _, bk := range []*bucket{b.current, b.next} {
		if bk == nil {
			continue
		}
		if err := b.flushBucket(bk); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.current, b.next = nil, nil
	return firstErr
}

// flushBucket sorts the bucket, serializes it as NDJSON and hands it to
// the back-end with the next offset for its hour key.
func (b *buffer) flushBucket(bk *bucket) error {
	if bk == nil || len(bk.events) == 0 {
		return nil
	}
	sort.SliceStable(bk.events, func(i, j int) bool {
		return bk.events[i].Timestamp.Time().Before(bk.events[j].Timestamp.Time())
	})

	var body bytes.Buffer
	for _, e := range bk.events {
		line, err := e.Marshal()
		if err != nil {
			return err
		}
		body.Write(line)
		body.WriteByte('\n')
	}

	offset, err := b.offsets.next(bk.key)
	if err != nil {
		return err
	}
	if err := b.flush(bk.key, offset, body.Bytes(), len(bk.events)); err != nil {
		metrics.SinkFlushes.WithLabelValues(b.name, "error").Inc()
		return err
	}
	metrics.SinkFlushes.WithLabelValues(b.name, "ok").Inc()
	metrics.SinkBytesWritten.WithLabelValues(b.name).Add(float64(body.Len()))
	return nil
}

// before orders hour keys chronologically.
func before(a, c HourKey) bool {
	if a.Year != c.Year {
		return a.Year < c.Year
	}
	if a.Month != c.Month {
		return a.Month < c.Month
	}
	if a.Day != c.Day {
		return a.Day < c.Day
	}
	return a.Hour < c.Hour
}
