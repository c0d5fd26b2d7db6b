package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/brettbedarf/filein"
	"github.com/brettbedarf/filein/adapters"
	"github.com/brettbedarf/filein/config"
	"github.com/brettbedarf/filein/internal/util"
	"github.com/brettbedarf/filein/session"
)

func main() {
	var (
		configPath string
		verbose    int
		src        string
		blockSize  uint
		start      float64
	)
	flag.StringVar(&configPath, "config", "", "Path to a YAML, JSON or TOML config file")
	flag.StringVar(&configPath, "c", "", "--config (shorthand)")
	flag.StringVar(&src, "src", "", "Location of source content (path, file: or file:// URL). May also be passed as the argument")
	flag.UintVar(&blockSize, "block-size", uint(config.DefaultBlockSize), "Maximum bytes read into the packet")
	flag.UintVar(&blockSize, "b", uint(config.DefaultBlockSize), "--block-size (shorthand)")
	flag.Float64Var(&start, "start", config.DefaultStart, "Playback start in seconds")
	flag.IntVar(&verbose, "verbose", config.InfoVerbose, "Log verbosity level between 1 (error) and 5 (trace). Default is 3 (info).")
	flag.IntVar(&verbose, "v", config.InfoVerbose, "--verbose (shorthand)")
	flag.Parse()

	if src == "" {
		src = flag.Arg(0)
	}

	// Flags given explicitly win over the config file
	override := &config.ConfigOverride{}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "verbose", "v":
			override.LogLvl = &verbose
		case "block-size", "b":
			bs := uint32(blockSize)
			override.BlockSize = &bs
		case "start":
			override.Start = &start
		}
	})
	if src != "" {
		override.Src = &src
	}

	cfg := config.NewDefaultConfig()
	var cfgErr error
	if configPath != "" {
		cfg, cfgErr = config.NewConfigFromFile(configPath)
		if cfgErr != nil {
			cfg = config.NewDefaultConfig()
		}
	}
	cfg.Merge(override)

	util.InitializeLogger(cfg.LogLvl)
	logger := util.GetLogger("main")

	if cfgErr != nil {
		logger.Fatal().Err(cfgErr).Str("config", configPath).Msg("Failed to load config file")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger.Debug().
		Str("src", cfg.Src).
		Uint32("block_size", cfg.BlockSize).
		Float64("start", cfg.Start).
		Msg("Configuration loaded")

	registry := adapters.NewRegistry()
	adapters.RegisterBuiltins(registry)

	name, provider, err := registry.Select(cfg.Src, "")
	if err != nil {
		logger.Fatal().Err(err).Str("src", cfg.Src).Msg("No adapter can serve the source")
	}
	adapter, err := provider.NewAdapter(cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("adapter", name).Msg("Failed to create adapter")
	}
	logger.Info().Str("adapter", name).Str("src", cfg.Src).Msg("Source selected")

	collector := &session.Collector{}
	s := session.New(collector)

	if cfg.Start > 0 {
		s.Dispatch(adapter, &filein.Event{Type: filein.EventPlay, PortID: adapter.PortID(), StartRange: cfg.Start})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.Run(ctx, adapter); err != nil {
		logger.Error().Err(err).Msg("Source failed")
		stop()
		os.Exit(1)
	}

	for _, port := range s.Ports() {
		fmt.Printf("port %s\n", port.ID())
		props := port.Properties()
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, string(k))
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %-10s %v\n", k, props[filein.PropKey(k)])
		}
	}
	for _, r := range collector.Received() {
		offset, _ := r.Packet.Property(filein.PropByteOffset)
		fmt.Printf("packet port=%s size=%s cts=%dms sap=%d start=%t end=%t offset=%v digest=%s\n",
			r.PortID,
			humanize.Bytes(uint64(len(r.Packet.Data))),
			r.Packet.CTS,
			r.Packet.SAP,
			r.Packet.Start,
			r.Packet.End,
			offset,
			r.Digest,
		)
	}
}
