package agent

import (
	"time"

	"github.com/aleister1102/firefoxversions/internal/common"
	"github.com/aleister1102/firefoxversions/internal/differ"
	"github.com/rs/zerolog"
)

// AgentBuilder provides a fluent interface for creating an Agent
type AgentBuilder struct {
	options Options
	fetcher Fetcher
	memory  Memory
	sink    EventSink
	logger  zerolog.Logger
	now     func() time.Time
}

// NewAgentBuilder creates a new builder with default options
func NewAgentBuilder(logger zerolog.Logger) *AgentBuilder {
	return &AgentBuilder{
		options: Options{
			ExpectedReceivePeriodInDays: 2,
			Type:                        CompareLatest,
			ChangesOnly:                 true,
		},
		logger: logger,
		now:    time.Now,
	}
}

// WithOptions sets the agent options
func (b *AgentBuilder) WithOptions(options Options) *AgentBuilder {
	b.options = options
	return b
}

// WithFetcher sets the upstream fetcher
func (b *AgentBuilder) WithFetcher(fetcher Fetcher) *AgentBuilder {
	b.fetcher = fetcher
	return b
}

// WithMemory sets the memory store
func (b *AgentBuilder) WithMemory(memory Memory) *AgentBuilder {
	b.memory = memory
	return b
}

// WithEventSink sets the event sink
func (b *AgentBuilder) WithEventSink(sink EventSink) *AgentBuilder {
	b.sink = sink
	return b
}

// WithClock overrides the time source used by Working
func (b *AgentBuilder) WithClock(now func() time.Time) *AgentBuilder {
	b.now = now
	return b
}

// Build creates a new Agent instance
func (b *AgentBuilder) Build() (*Agent, error) {
	if b.fetcher == nil {
		return nil, common.NewValidationError("fetcher", nil, "fetcher cannot be nil")
	}
	if b.memory == nil {
		return nil, common.NewValidationError("memory", nil, "memory cannot be nil")
	}
	if b.sink == nil {
		return nil, common.NewValidationError("sink", nil, "event sink cannot be nil")
	}
	if b.options.ExpectedReceivePeriodInDays <= 0 {
		return nil, common.NewConfigurationError("options", OptionExpectedReceivePeriod, validationMessages[OptionExpectedReceivePeriod])
	}
	if _, ok := comparisonFieldKeys[b.options.Type]; !ok {
		return nil, common.NewConfigurationError("options", OptionType, validationMessages[OptionType])
	}

	return &Agent{
		options: b.options,
		fetcher: b.fetcher,
		memory:  b.memory,
		sink:    b.sink,
		differ:  differ.NewDocumentDiffer(),
		logger:  b.logger.With().Str("component", "FirefoxVersionsAgent").Logger(),
		now:     b.now,
	}, nil
}
