package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aleister1102/firefoxversions/internal/agent"
	"github.com/aleister1102/firefoxversions/internal/common"
	"github.com/aleister1102/firefoxversions/internal/config"
	"github.com/aleister1102/firefoxversions/internal/datastore"
	"github.com/aleister1102/firefoxversions/internal/host"
	"github.com/aleister1102/firefoxversions/internal/httpclient"
	"github.com/aleister1102/firefoxversions/internal/logger"
	"github.com/aleister1102/firefoxversions/internal/notifier"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	flags, err := ParseFlags(args, stderr)
	if err != nil {
		return err
	}
	if flags.Help {
		return nil
	}

	bootstrap := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).With().Timestamp().Logger()
	gCfg, err := config.LoadGlobalConfig(flags.ConfigFile, bootstrap)
	if err != nil {
		return common.WrapError(err, "could not load configuration")
	}
	if err := config.ValidateConfig(gCfg); err != nil {
		return common.WrapError(err, "configuration validation failed")
	}

	zLogger, err := logger.NewWithAgentName(gCfg.LogConfig, gCfg.AgentConfig.Name)
	if err != nil {
		return common.WrapError(err, "could not initialize logger")
	}

	options, err := agent.ParseOptions(gCfg.AgentConfig.Options)
	if err != nil {
		return common.WrapError(err, "invalid agent options")
	}
	interval, err := config.ParseSchedule(gCfg.HostConfig.Schedule)
	if err != nil {
		return err
	}

	if flags.Validate {
		_, _ = fmt.Fprintln(stdout, "configuration is valid")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := httpclient.NewHTTPClient(gCfg.HTTPClientConfig.ToClientConfig(), zLogger)
	if err != nil {
		return common.WrapError(err, "could not create HTTP client")
	}

	store, err := datastore.NewStore(gCfg.StorageConfig.SQLiteDBPath, zLogger)
	if err != nil {
		return common.WrapError(err, "could not open host database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			zLogger.Warn().Err(err).Msg("Failed to close host database")
		}
	}()
	agentStore := store.ForAgent(gCfg.AgentConfig.Name, gCfg.HostConfig.ErrorWindow())

	switch {
	case flags.ResetMemory:
		if err := store.ClearMemory(ctx, agentStore.Agent()); err != nil {
			return err
		}
		zLogger.Info().Str("agent", agentStore.Agent()).Msg("Agent memory cleared")
		return nil
	case flags.DryRun:
		return dryRun(ctx, options, client, agentStore, zLogger, stdout)
	}

	discordNotifier, err := notifier.NewDiscordNotifier(gCfg.NotificationConfig, client, zLogger)
	if err != nil {
		return err
	}

	pipeline := host.NewEventPipeline(agentStore, zLogger)
	var archive *datastore.EventArchive
	if gCfg.StorageConfig.ArchiveEvents {
		archive, err = datastore.NewEventArchive(gCfg.StorageConfig.ParquetBasePath, gCfg.StorageConfig.CompressionCodec, zLogger)
		if err != nil {
			return common.WrapError(err, "could not create event archive")
		}
		pipeline.Subscribe("parquet_archive", archive)
	}
	pipeline.Subscribe("discord", discordNotifier)

	firefoxAgent, err := agent.NewAgentBuilder(zLogger).
		WithOptions(options).
		WithFetcher(client).
		WithMemory(agentStore).
		WithEventSink(pipeline).
		Build()
	if err != nil {
		return common.WrapError(err, "could not build agent")
	}

	runner := host.NewRunner(firefoxAgent, agentStore.Agent(), interval, zLogger).
		WithFailureRecorder(agentStore).
		WithFailureNotifier(discordNotifier)

	if flags.Once {
		return runner.RunOnce(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runner.Run(gctx)
	})
	if addr := gCfg.HostConfig.StatusListenAddr; addr != "" {
		working := func(ctx context.Context) bool { return firefoxAgent.Working(ctx, agentStore) }
		server := host.NewServer(agentStore.Agent(), working, agentStore, runner, gCfg.HostConfig.ShutdownTimeout(), zLogger)
		if archive != nil {
			server.WithArchive(archive)
		}
		g.Go(func() error {
			return server.ListenAndServe(gctx, addr)
		})
	}

	err = g.Wait()
	zLogger.Info().Msg("Shutdown complete")
	return err
}

// dryRun performs one check against the stored memory without writing to it
// and prints the events that would have been created.
func dryRun(ctx context.Context, options agent.Options, fetcher agent.Fetcher, memory agent.Memory, zLogger zerolog.Logger, stdout io.Writer) error {
	overlay := host.NewOverlayMemory(memory)
	sink := &host.CollectingSink{}

	dryRunAgent, err := agent.NewAgentBuilder(zLogger).
		WithOptions(options).
		WithFetcher(fetcher).
		WithMemory(overlay).
		WithEventSink(sink).
		Build()
	if err != nil {
		return common.WrapError(err, "could not build agent")
	}

	if err := dryRunAgent.Check(ctx); err != nil {
		return err
	}

	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(map[string]any{
		"events": sink.Events(),
		"memory": overlay.Writes(),
	})
}
