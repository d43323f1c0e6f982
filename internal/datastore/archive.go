package datastore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aleister1102/firefoxversions/internal/common"
	"github.com/aleister1102/firefoxversions/internal/snapshot"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
	"github.com/rs/zerolog"
)

// archiveTimeLayout names archive files so that they sort by creation time.
const archiveTimeLayout = "20060102T150405.000000000Z"

// ArchivedEvent is the Parquet row written for each event.
type ArchivedEvent struct {
	ID                   string `parquet:"id"`
	Agent                string `parquet:"agent"`
	CreatedAtUnixMilli   int64  `parquet:"created_at_unix_milli"`
	LatestFirefoxVersion string `parquet:"latest_firefox_version"`
	FirefoxESR           string `parquet:"firefox_esr"`
	FirefoxNightly       string `parquet:"firefox_nightly"`
	LastReleaseDate      string `parquet:"last_release_date"`
	PayloadJSON          string `parquet:"payload_json"`
}

// EventArchive writes every event to its own Parquet file under
// <base>/events/<agent>/.
type EventArchive struct {
	basePath string
	codec    compress.Codec
	logger   zerolog.Logger
}

// NewEventArchive creates an archive rooted at basePath using the named
// compression codec (zstd, snappy, gzip or none).
func NewEventArchive(basePath, codecName string, logger zerolog.Logger) (*EventArchive, error) {
	if basePath == "" {
		return nil, common.NewValidationError("parquet_base_path", basePath, "ParquetBasePath is not configured for the event archive")
	}
	codec, err := compressionCodec(codecName)
	if err != nil {
		return nil, err
	}
	return &EventArchive{
		basePath: basePath,
		codec:    codec,
		logger:   logger.With().Str("component", "EventArchive").Logger(),
	}, nil
}

func compressionCodec(name string) (compress.Codec, error) {
	switch strings.ToLower(name) {
	case "", "zstd":
		return &parquet.Zstd, nil
	case "snappy":
		return &parquet.Snappy, nil
	case "gzip":
		return &parquet.Gzip, nil
	case "none":
		return &parquet.Uncompressed, nil
	default:
		return nil, common.NewValidationError("compression_codec", name, "unsupported compression codec")
	}
}

// Archive writes event to a new Parquet file and returns its path.
func (ea *EventArchive) Archive(ctx context.Context, event Event) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := ea.agentDir(event.Agent)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", common.WrapError(err, "failed to create event archive directory: "+dir)
	}

	fileName := event.CreatedAt.UTC().Format(archiveTimeLayout) + "-" + event.ID + ".parquet"
	filePath := filepath.Join(dir, fileName)

	if err := ea.writeToParquetFile(filePath, toArchivedEvent(event)); err != nil {
		return "", err
	}

	ea.logger.Debug().Str("file_path", filePath).Str("event_id", event.ID).Msg("Archived event")
	return filePath, nil
}

// Publish archives event, discarding the file path.
func (ea *EventArchive) Publish(ctx context.Context, event Event) error {
	_, err := ea.Archive(ctx, event)
	return err
}

func (ea *EventArchive) writeToParquetFile(filePath string, row ArchivedEvent) error {
	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return common.WrapError(err, "failed to create event parquet file: "+filePath)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[ArchivedEvent](file, parquet.Compression(ea.codec))

	if _, err := writer.Write([]ArchivedEvent{row}); err != nil {
		_ = writer.Close()
		return common.WrapError(err, "failed to write event to parquet file")
	}
	return writer.Close()
}

// Load reads every archived event of agent, oldest first.
func (ea *EventArchive) Load(ctx context.Context, agent string) ([]ArchivedEvent, error) {
	files, err := filepath.Glob(filepath.Join(ea.agentDir(agent), "*.parquet"))
	if err != nil {
		return nil, common.WrapError(err, "failed to list archived events")
	}
	sort.Strings(files)

	events := make([]ArchivedEvent, 0, len(files))
	for _, filePath := range files {
		if err := ctx.Err(); err != nil {
			ea.logger.Info().Err(err).Str("agent", agent).Msg("Loading archived events cancelled")
			return nil, err
		}
		rows, err := readParquetFile(filePath)
		if err != nil {
			return nil, err
		}
		events = append(events, rows...)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAtUnixMilli < events[j].CreatedAtUnixMilli
	})
	return events, nil
}

func readParquetFile(filePath string) ([]ArchivedEvent, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, common.WrapError(err, "failed to open event parquet file: "+filePath)
	}
	defer file.Close()

	reader := parquet.NewGenericReader[ArchivedEvent](file)
	defer reader.Close()

	var rows []ArchivedEvent
	batch := make([]ArchivedEvent, 16)
	for {
		n, err := reader.Read(batch)
		rows = append(rows, batch[:n]...)
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, common.WrapError(err, "failed to read event parquet file: "+filePath)
		}
	}
}

func (ea *EventArchive) agentDir(agent string) string {
	return filepath.Join(ea.basePath, "events", agent)
}

func toArchivedEvent(event Event) ArchivedEvent {
	return ArchivedEvent{
		ID:                   event.ID,
		Agent:                event.Agent,
		CreatedAtUnixMilli:   event.CreatedAt.UnixMilli(),
		LatestFirefoxVersion: event.Payload.Text(snapshot.KeyLatestFirefoxVersion),
		FirefoxESR:           event.Payload.Text(snapshot.KeyFirefoxESR),
		FirefoxNightly:       event.Payload.Text(snapshot.KeyFirefoxNightly),
		LastReleaseDate:      event.Payload.Text(snapshot.KeyLastReleaseDate),
		PayloadJSON:          event.Payload.Canonical(),
	}
}
