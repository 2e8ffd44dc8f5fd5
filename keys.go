package terrastore

import (
	"fmt"
	"path"
	"strings"
	"time"
)

const (
	// BackupPrefix is the root of all backup keys.
	BackupPrefix = "backups/"

	scenariosDir = "scenarios"
	dataSuffix   = "-data.json"
	jsonSuffix   = ".json"

	// isoMillis is ISO-8601 UTC with millisecond precision.
	isoMillis = "2006-01-02T15:04:05.000Z"

	backupStampLen = len("2006-01-02T15-04-05-000Z")
)

// LocationKey returns the key of a location's primary document:
// {location}/{dataType}-data.json.
func LocationKey(location, dataType string) string {
	return location + "/" + dataType + dataSuffix
}

// ScenarioPrefix returns the prefix under which a location's scenarios live.
func ScenarioPrefix(location string) string {
	return location + "/" + scenariosDir + "/"
}

// ScenarioKey returns the key of a scenario document:
// {location}/scenarios/{scenarioId}.json.
func ScenarioKey(location, scenarioID string) string {
	return ScenarioPrefix(location) + scenarioID + jsonSuffix
}

// BackupKey returns the key of a backup taken at t:
// backups/{location}/{dataType}-{timestamp}.json, where timestamp is
// ISO-8601 UTC with milliseconds and ':' and '.' replaced by '-'.
func BackupKey(location, dataType string, t time.Time) string {
	return BackupPrefix + location + "/" + dataType + "-" + backupStamp(t) + jsonSuffix
}

// BackupRef identifies a backup by its key parts.
type BackupRef struct {
	Location  string
	DataType  string
	Timestamp time.Time
}

// ParseBackupKey splits a key produced by BackupKey.
func ParseBackupKey(key string) (BackupRef, error) {
	rest, ok := strings.CutPrefix(key, BackupPrefix)
	if !ok {
		return BackupRef{}, fmt.Errorf("%w: %q", ErrInvalidBackupKey, key)
	}
	rest, ok = strings.CutSuffix(rest, jsonSuffix)
	if !ok {
		return BackupRef{}, fmt.Errorf("%w: %q", ErrInvalidBackupKey, key)
	}

	i := strings.LastIndex(rest, "/")
	if i <= 0 {
		return BackupRef{}, fmt.Errorf("%w: %q", ErrInvalidBackupKey, key)
	}
	location, name := rest[:i], rest[i+1:]

	// {dataType}-{stamp}
	if len(name) < backupStampLen+2 || name[len(name)-backupStampLen-1] != '-' {
		return BackupRef{}, fmt.Errorf("%w: %q", ErrInvalidBackupKey, key)
	}
	dataType := name[:len(name)-backupStampLen-1]
	ts, err := parseBackupStamp(name[len(name)-backupStampLen:])
	if err != nil {
		return BackupRef{}, fmt.Errorf("%w: %q: %w", ErrInvalidBackupKey, key, err)
	}
	return BackupRef{Location: location, DataType: dataType, Timestamp: ts}, nil
}

func backupStamp(t time.Time) string {
	return strings.NewReplacer(":", "-", ".", "-").Replace(t.UTC().Format(isoMillis))
}

// parseBackupStamp reverses backupStamp. Positions are fixed by isoMillis.
func parseBackupStamp(s string) (time.Time, error) {
	b := []byte(s)
	b[13], b[16], b[19] = ':', ':', '.'
	return time.Parse(isoMillis, string(b))
}

// validLocation reports whether s can prefix a key. Nested locations
// ("us/arizona") are allowed.
func validLocation(s string) bool {
	return s != "" && !strings.HasPrefix(s, "/") && !strings.HasSuffix(s, "/") &&
		path.Clean(s) == s && !strings.HasPrefix(s, "../") && s != ".."
}

// validSegment reports whether s can be used as a single key segment.
func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, "/\x00")
}
