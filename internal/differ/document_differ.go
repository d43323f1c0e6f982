package differ

import (
	"strings"

	"github.com/aleister1102/firefoxversions/internal/snapshot"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// ChangeType classifies a key-level difference between two documents.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

// Change is one key that differs between two documents. Values are the raw
// JSON of each side.
type Change struct {
	Key      string     `json:"key"`
	Type     ChangeType `json:"type"`
	OldValue string     `json:"old_value,omitempty"`
	NewValue string     `json:"new_value,omitempty"`
}

// DocumentDiffer compares version documents key by key and line by line.
type DocumentDiffer struct {
	processor       *DiffProcessor
	statsCalculator *DiffStatsCalculator
}

// NewDocumentDiffer creates a differ using line-based diffing.
func NewDocumentDiffer() *DocumentDiffer {
	return &DocumentDiffer{
		processor:       NewDiffProcessor(DefaultDiffConfig()),
		statsCalculator: NewDiffStatsCalculator(),
	}
}

// Compare returns the changed keys between previous and current, sorted by key.
func (d *DocumentDiffer) Compare(previous, current snapshot.Document) []Change {
	keys := mergedKeys(previous, current)

	var changes []Change
	for _, key := range keys {
		oldValue, inOld := previous.Raw(key)
		newValue, inNew := current.Raw(key)

		switch {
		case inOld && !inNew:
			changes = append(changes, Change{Key: key, Type: ChangeRemoved, OldValue: oldValue})
		case !inOld && inNew:
			changes = append(changes, Change{Key: key, Type: ChangeAdded, NewValue: newValue})
		case oldValue != newValue:
			changes = append(changes, Change{Key: key, Type: ChangeModified, OldValue: oldValue, NewValue: newValue})
		}
	}
	return changes
}

// Patch renders the changed lines of both documents, one "KEY: value" line
// each, prefixed with "-" or "+".
func (d *DocumentDiffer) Patch(previous, current snapshot.Document) string {
	diffs := d.processor.ProcessDiff(documentLines(previous), documentLines(current))

	var sb strings.Builder
	for _, diff := range diffs {
		var prefix string
		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			continue
		}
		for _, line := range strings.SplitAfter(diff.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(strings.TrimSuffix(line, "\n"))
			sb.WriteByte('\n')
		}
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// Stats counts added and deleted lines between the two documents.
func (d *DocumentDiffer) Stats(previous, current snapshot.Document) DiffStatistics {
	diffs := d.processor.ProcessDiff(documentLines(previous), documentLines(current))
	return d.statsCalculator.CalculateStats(diffs)
}

// ChangedKeys lists the keys of changes in order.
func ChangedKeys(changes []Change) []string {
	keys := make([]string, 0, len(changes))
	for _, c := range changes {
		keys = append(keys, c.Key)
	}
	return keys
}

func documentLines(doc snapshot.Document) string {
	var sb strings.Builder
	for _, key := range doc.Keys() {
		sb.WriteString(key)
		sb.WriteString(": ")
		raw, _ := doc.Raw(key)
		sb.WriteString(raw)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func mergedKeys(a, b snapshot.Document) []string {
	merged := make(snapshot.Document, len(a)+len(b))
	for k := range a {
		merged[k] = nil
	}
	for k := range b {
		merged[k] = nil
	}
	return merged.Keys()
}
