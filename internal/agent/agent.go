package agent

import (
	"context"
	"time"

	"github.com/aleister1102/firefoxversions/internal/common"
	"github.com/aleister1102/firefoxversions/internal/differ"
	"github.com/aleister1102/firefoxversions/internal/httpclient"
	"github.com/aleister1102/firefoxversions/internal/snapshot"
	"github.com/rs/zerolog"
)

const (
	// SourceURL is the product-details document polled on every check.
	SourceURL = "https://product-details.mozilla.org/1.0/firefox_versions.json"

	// MemoryKeyLastStatus is the memory slot holding the last fetched document.
	MemoryKeyLastStatus = "last_status"

	// DefaultSchedule is how often a host runs the agent unless told otherwise.
	DefaultSchedule = "every_1h"

	Name = "FirefoxVersionsAgent"

	Description = `The Firefox versions Agent fetches releases information for Firefox (desktop and mobile) from https://product-details.mozilla.org/.

An event is created on every check, or only when the tracked version changed when changes_only is true.
type selects the tracked version: latest (LATEST_FIREFOX_VERSION), latest_esr (FIREFOX_ESR) or latest_nightly (FIREFOX_NIGHTLY).

debug is used to verbose mode.

expected_receive_period_in_days is used to determine if the Agent is working. Set it to the maximum number of days
that you anticipate passing without this Agent receiving an incoming Event.`

	EventDescription = `Events carry the whole upstream document:

    {
      "FIREFOX_AURORA": "",
      "FIREFOX_DEVEDITION": "104.0b2",
      "FIREFOX_ESR": "91.12.0esr",
      "FIREFOX_ESR_NEXT": "102.1.0esr",
      "FIREFOX_NIGHTLY": "105.0a1",
      "FIREFOX_PINEBUILD": "",
      "LAST_MERGE_DATE": "2022-07-25",
      "LAST_RELEASE_DATE": "2022-07-26",
      "LAST_SOFTFREEZE_DATE": "2022-07-21",
      "LATEST_FIREFOX_DEVEL_VERSION": "104.0b2",
      "LATEST_FIREFOX_OLDER_VERSION": "3.6.28",
      "LATEST_FIREFOX_RELEASED_DEVEL_VERSION": "104.0b2",
      "LATEST_FIREFOX_VERSION": "103.0",
      "NEXT_MERGE_DATE": "2022-08-22",
      "NEXT_RELEASE_DATE": "2022-08-23",
      "NEXT_SOFTFREEZE_DATE": "2022-08-18"
    }`
)

// Capabilities the agent advertises to its host.
const (
	CanDryRun       = true
	CanBulkReceive  = false
	CanReceiveEvent = false
)

// Fetcher performs the upstream GET. Non-2xx responses are not errors.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (*httpclient.Response, error)
}

// Memory is the per-agent key/value store owned by the host.
type Memory interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// EventSink receives the events created by the agent.
type EventSink interface {
	Emit(ctx context.Context, payload snapshot.Document) error
}

// HealthSource exposes the host's bookkeeping used by Working.
type HealthSource interface {
	LastEventAt(ctx context.Context) (time.Time, bool, error)
	HasRecentErrors(ctx context.Context) (bool, error)
}

// Agent polls the Firefox versions document and emits change events.
// A single Agent must not run Check concurrently.
type Agent struct {
	options Options
	fetcher Fetcher
	memory  Memory
	sink    EventSink
	differ  *differ.DocumentDiffer
	logger  zerolog.Logger
	now     func() time.Time
}

// Options returns the agent's configuration.
func (a *Agent) Options() Options {
	return a.options
}

// Check runs one fetch-and-compare cycle and emits at most one event.
func (a *Agent) Check(ctx context.Context) error {
	resp, err := a.fetcher.Get(ctx, SourceURL)
	if err != nil {
		return common.WrapError(err, "failed to fetch firefox versions")
	}

	a.logger.Info().
		Int("status_code", resp.StatusCode).
		Msgf("fetch status request status : %d", resp.StatusCode)

	doc, err := snapshot.Parse(resp.Body)
	if err != nil {
		return err
	}

	a.debug().Interface("payload", doc).Msg("Fetched firefox versions")

	canonical := doc.Canonical()
	stored, found, err := a.memory.Get(ctx, MemoryKeyLastStatus)
	if err != nil {
		return common.WrapError(err, "failed to read last status")
	}

	if !a.options.ChangesOnly {
		if err := a.emit(ctx, doc); err != nil {
			return err
		}
		if !found || stored != canonical {
			return a.store(ctx, canonical)
		}
		return nil
	}

	if found && stored == canonical {
		a.debug().Msg("equal")
		return nil
	}

	if !found {
		if err := a.emit(ctx, doc); err != nil {
			return err
		}
		return a.store(ctx, canonical)
	}

	previous, err := snapshot.Decode(stored)
	if err != nil {
		return err
	}

	if a.options.Debug {
		changes := a.differ.Compare(previous, doc)
		stats := a.differ.Stats(previous, doc)
		a.debug().
			Strs("changed_keys", differ.ChangedKeys(changes)).
			Int("lines_added", stats.LinesAdded).
			Int("lines_deleted", stats.LinesDeleted).
			Str("patch", a.differ.Patch(previous, doc)).
			Msg("Snapshot differs from last status")
	}

	key := a.options.Type.DocumentKey()
	if versionChanged(previous, doc, key) {
		a.debug().Msg("not equal, so event created!")
		if err := a.emit(ctx, doc); err != nil {
			return err
		}
	} else {
		a.debug().Msg("equal")
	}

	return a.store(ctx, canonical)
}

// Working reports whether an event was created within the expected receive
// period and no recent errors were logged.
func (a *Agent) Working(ctx context.Context, health HealthSource) bool {
	lastEventAt, ok, err := health.LastEventAt(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Failed to read last event time")
		return false
	}
	if !ok {
		return false
	}

	period := time.Duration(a.options.ExpectedReceivePeriodInDays) * 24 * time.Hour
	if !lastEventAt.After(a.now().Add(-period)) {
		return false
	}

	recentErrors, err := health.HasRecentErrors(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Failed to read recent errors")
		return false
	}
	return !recentErrors
}

// versionChanged compares the raw JSON of key, so null and "" differ.
func versionChanged(previous, current snapshot.Document, key string) bool {
	oldValue, oldOK := previous.Raw(key)
	newValue, newOK := current.Raw(key)
	return oldValue != newValue || oldOK != newOK
}

func (a *Agent) emit(ctx context.Context, doc snapshot.Document) error {
	if err := a.sink.Emit(ctx, doc.Clone()); err != nil {
		return common.WrapError(err, "failed to emit event")
	}
	return nil
}

func (a *Agent) store(ctx context.Context, canonical string) error {
	if err := a.memory.Set(ctx, MemoryKeyLastStatus, canonical); err != nil {
		return common.WrapError(err, "failed to store last status")
	}
	return nil
}

// debug returns an info event when debug logging is on, nil otherwise.
// zerolog treats a nil event as disabled.
func (a *Agent) debug() *zerolog.Event {
	if !a.options.Debug {
		return nil
	}
	return a.logger.Info()
}
