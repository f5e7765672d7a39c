package backup

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const snapshotVersion = "1.0"

// SnapshotMetadata describes a snapshot without its payload.
type SnapshotMetadata struct {
	CreatedAt   time.Time `json:"created_at"`
	Tables      []string  `json:"tables"`
	RecordCount int64     `json:"record_count"`
	Version     string    `json:"version"`
}

// Snapshot is the full-table JSON export uploaded to object storage. Data maps
// each table name to its complete row set.
type Snapshot struct {
	Metadata SnapshotMetadata            `json:"metadata"`
	Data     map[string][]map[string]any `json:"data"`
}

// NewSnapshot builds a snapshot from dumped tables, recomputing the record
// count and table list from the data itself.
func NewSnapshot(createdAt time.Time, data map[string][]map[string]any) *Snapshot {
	tables := make([]string, 0, len(data))
	var count int64
	for table, rows := range data {
		tables = append(tables, table)
		count += int64(len(rows))
	}
	return &Snapshot{
		Metadata: SnapshotMetadata{
			CreatedAt:   createdAt.UTC(),
			Tables:      tables,
			RecordCount: count,
			Version:     snapshotVersion,
		},
		Data: data,
	}
}

// Marshal serializes the snapshot as indented JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// ParseSnapshot decodes and validates a downloaded snapshot. Any structural
// problem is reported as ErrCorruptSnapshot.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if s.Metadata.Version == "" {
		return nil, fmt.Errorf("%w: missing metadata version", ErrCorruptSnapshot)
	}
	if len(s.Data) == 0 {
		return nil, fmt.Errorf("%w: snapshot contains no tables", ErrCorruptSnapshot)
	}
	for table := range s.Data {
		if table == "" {
			return nil, fmt.Errorf("%w: empty table name", ErrCorruptSnapshot)
		}
	}
	return &s, nil
}

// snapshotKey derives the storage object name from the snapshot time.
// Colons and dots are not safe in every object store, so they become dashes:
// backup_2026-08-31T03-00-00-000Z.json
func snapshotKey(t time.Time) string {
	iso := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return "backup_" + strings.NewReplacer(":", "-", ".", "-").Replace(iso) + ".json"
}
