// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

package sink

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/ottlab/loggen/internal/config"
	"github.com/ottlab/loggen/internal/logging"
	"github.com/ottlab/loggen/internal/models"
)

func fileSinkConfig(dir string) *config.Config {
	return &config.Config{
		Sink: config.SinkConfig{
			Type:      config.SinkFile,
			OutputDir: dir,
			Topic:     "user-logs",
		},
	}
}

func accessEvent(ts time.Time) *models.Event {
	return models.NewEvent(ts, 42, models.KindAccessIn, models.Detail{Platform: models.PlatformPC})
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 6, 15, hour, minute, 0, 0, time.UTC)
}

// collectFiles walks the output dir and maps relative paths to contents.
func collectFiles(t *testing.T, dir string) map[string][]byte {
	t.Helper()
	files := map[string][]byte{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		files[filepath.ToSlash(rel)] = data
		return nil
	})
	if err != nil {
		t.Fatalf("walk output: %v", err)
	}
	return files
}

func TestFileSinkHourBucketPromotion(t *testing.T) {
	dir := t.TempDir()
	offsets, _ := newOffsetSource("", "user-logs", logging.Logger())
	s := newFileSink(fileSinkConfig(dir), offsets, logging.Logger())

	// Events spanning three hours, deliberately unsorted inside hour 11.
	for _, ts := range []time.Time{at(10, 30), at(10, 59), at(11, 45), at(11, 5), at(12, 10)} {
		if err := s.Write(context.Background(), accessEvent(ts)); err != nil {
			t.Fatalf("write %v: %v", ts, err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files := collectFiles(t, dir)
	if len(files) != 3 {
		t.Fatalf("got %d files, want 3: %v", len(files), keys(files))
	}

	wantHours := map[int]int{10: 2, 11: 2, 12: 1}
	for rel, body := range files {
		key, err := ParsePartitionPath(rel)
		if err != nil {
			t.Fatalf("partition path: %v", err)
		}
		if !strings.HasPrefix(rel, "user-logs/") {
			t.Fatalf("path %q not under topic dir", rel)
		}

		topic, offset, _, err := ParseFilename(filepath.Base(rel))
		if err != nil {
			t.Fatalf("filename: %v", err)
		}
		if topic != "user-logs" {
			t.Fatalf("topic %q", topic)
		}
		if offset != 0 {
			t.Fatalf("hour %d first flush has offset %d, want 0", key.Hour, offset)
		}

		lines := parseNDJSON(t, body)
		if len(lines) != wantHours[key.Hour] {
			t.Fatalf("hour %d has %d events, want %d", key.Hour, len(lines), wantHours[key.Hour])
		}
		if !sort.SliceIsSorted(lines, func(i, j int) bool {
			return lines[i].Timestamp.Time().Before(lines[j].Timestamp.Time())
		}) {
			t.Fatalf("hour %d NDJSON not sorted", key.Hour)
		}
		for _, e := range lines {
			if e.Timestamp.Time().Hour() != key.Hour {
				t.Fatalf("event at %v filed under hour %d", e.Timestamp.Time(), key.Hour)
			}
		}
		delete(wantHours, key.Hour)
	}
	if len(wantHours) != 0 {
		t.Fatalf("missing hour partitions: %v", wantHours)
	}
}

func TestFileSinkDropsLateEvents(t *testing.T) {
	dir := t.TempDir()
	offsets, _ := newOffsetSource("", "user-logs", logging.Logger())
	s := newFileSink(fileSinkConfig(dir), offsets, logging.Logger())

	for _, ts := range []time.Time{at(10, 30), at(11, 5), at(12, 10)} {
		if err := s.Write(context.Background(), accessEvent(ts)); err != nil {
			t.Fatalf("write %v: %v", ts, err)
		}
	}
	// Hour 10 flushed when hour 12 opened; a late event must be refused.
	if err := s.Write(context.Background(), accessEvent(at(10, 45))); !errors.Is(err, ErrLateEvent) {
		t.Fatalf("expected ErrLateEvent, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	for rel, body := range collectFiles(t, dir) {
		key, err := ParsePartitionPath(rel)
		if err != nil {
			t.Fatalf("partition path: %v", err)
		}
		if key.Hour == 10 && len(parseNDJSON(t, body)) != 1 {
			t.Fatal("late event leaked into flushed hour")
		}
	}
}

// Multi-worker runs append the configured partition number to the flush
// filenames so writers sharing a prefix never collide.
func TestFileSinkPartitionNaming(t *testing.T) {
	dir := t.TempDir()
	cfg := fileSinkConfig(dir)
	cfg.Sink.Partition = 3

	offsets, _ := newOffsetSource("", objectPrefix(cfg.Sink.Topic, cfg.Sink.Partition), logging.Logger())
	s := newFileSink(cfg, offsets, logging.Logger())

	if err := s.Write(context.Background(), accessEvent(at(10, 30))); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files := collectFiles(t, dir)
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1: %v", len(files), keys(files))
	}
	for rel := range files {
		if !strings.HasPrefix(rel, "user-logs/") {
			t.Fatalf("path %q not under topic dir", rel)
		}
		base := filepath.Base(rel)
		if !strings.HasPrefix(base, "user-logs-3-000000-") {
			t.Fatalf("filename %q lacks partition number", base)
		}
		topic, offset, _, err := ParseFilename(base)
		if err != nil {
			t.Fatalf("filename: %v", err)
		}
		if topic != "user-logs-3" || offset != 0 {
			t.Fatalf("parsed (%q, %d), want (user-logs-3, 0)", topic, offset)
		}
	}
}

func TestObjectPrefix(t *testing.T) {
	if got := objectPrefix("user-logs", 0); got != "user-logs" {
		t.Fatalf("partition 0 prefix %q, want bare topic", got)
	}
	if got := objectPrefix("user-logs", 7); got != "user-logs-7" {
		t.Fatalf("partition 7 prefix %q", got)
	}
}

func TestMemOffsetsMonotone(t *testing.T) {
	m := &memOffsets{counters: make(map[HourKey]int)}
	key := HourKey{Year: 2025, Month: time.June, Day: 15, Hour: 10}
	other := HourKey{Year: 2025, Month: time.June, Day: 15, Hour: 11}

	for want := 0; want < 5; want++ {
		got, err := m.next(key)
		if err != nil || got != want {
			t.Fatalf("offset %d (err %v), want %d", got, err, want)
		}
	}
	if got, _ := m.next(other); got != 0 {
		t.Fatalf("new key starts at %d, want 0", got)
	}
}

func TestFilenameRoundTrip(t *testing.T) {
	name := Filename("raw-userlog", 42)
	topic, offset, uid, err := ParseFilename(name)
	if err != nil {
		t.Fatalf("parse %q: %v", name, err)
	}
	if topic != "raw-userlog" || offset != 42 || len(uid) != 6 {
		t.Fatalf("round trip mismatch: %q %d %q", topic, offset, uid)
	}

	if _, _, _, err := ParseFilename("user-logs.json"); err == nil {
		t.Fatal("malformed name parsed")
	}
}

func TestPartitionPathRoundTrip(t *testing.T) {
	key := HourKey{Year: 2025, Month: time.March, Day: 7, Hour: 3}
	if got := key.Path(); got != "year=2025/month=03/day=07/hour=03" {
		t.Fatalf("path %q", got)
	}

	back, err := ParsePartitionPath("prefix/user-logs/" + key.Path() + "/user-logs-000001-ab12cd.json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if back != key {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func parseNDJSON(t *testing.T, body []byte) []*models.Event {
	t.Helper()
	var events []*models.Event
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		e, err := models.UnmarshalEvent(scanner.Bytes())
		if err != nil {
			t.Fatalf("parse NDJSON line: %v", err)
		}
		events = append(events, e)
	}
	return events
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
