package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/halcyon-data/domgraph/internal/config"
	"github.com/halcyon-data/domgraph/internal/dataset"
	"github.com/halcyon-data/domgraph/internal/dataset/jsonset"
	"github.com/halcyon-data/domgraph/internal/features"
	"github.com/halcyon-data/domgraph/internal/logging"
	"github.com/halcyon-data/domgraph/internal/monitoring"
)

const contextFileName = "root_context.json"

func main() {
	dataDir := flag.String("data", "", "data directory (overrides DATA_DIR)")
	trainDir := flag.String("train", "", "training split directory")
	valDir := flag.String("val", "", "validation split directory")
	testDir := flag.String("test", "", "test split directory")
	workers := flag.Int("workers", 0, "compute workers (0 = one per CPU)")
	force := flag.Bool("force", false, "recompute pages with existing output")
	invalidate := flag.Bool("invalidate", false, "back up and discard cached samples, then exit")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}
	if *trainDir != "" {
		cfg.Data.TrainDir = *trainDir
	}
	if *valDir != "" {
		cfg.Data.ValDir = *valDir
	}
	if *testDir != "" {
		cfg.Data.TestDir = *testDir
	}
	if *workers != 0 {
		cfg.Extraction.Workers = *workers
	}
	if cfg.Extraction.Workers <= 0 {
		cfg.Extraction.Workers = runtime.NumCPU()
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		log = logging.NewDefault()
		log.Warn("invalid log level, using defaults", zap.String("level", cfg.Logging.Level))
	}
	defer log.Sync()
	log = log.With(zap.String("run_id", uuid.NewString()))

	if err := run(cfg, log, *force, *invalidate); err != nil {
		log.Fatal("run failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger, force, invalidate bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	params, err := config.LoadParams(cfg.Data.Dir)
	if err != nil {
		return err
	}
	log.Info("parameters loaded",
		zap.String("data_dir", cfg.Data.Dir),
		zap.Strings("features", params.Features),
		zap.Int("workers", cfg.Extraction.Workers))

	splits := []struct {
		name string
		dir  string
	}{
		{"train", cfg.Data.TrainDir},
		{"val", cfg.Data.ValDir},
		{"test", cfg.Data.TestDir},
	}

	collection := dataset.NewCollection()
	for _, s := range splits {
		if s.dir == "" {
			continue
		}
		ds, err := jsonset.Open(jsonset.Options{Dir: s.dir, Log: log.Named(s.name)})
		if err != nil {
			return err
		}
		split, err := collection.AddSplit(s.name, ds.DatasetPages())
		if err != nil {
			return err
		}
		log.Info("split opened",
			zap.String("split", split.Name),
			zap.String("dir", s.dir),
			zap.Int("pages", len(split.Pages)))
	}

	if len(collection.Splits()) == 0 {
		return errors.New("no split directories configured; set TRAIN_DIR or pass -train")
	}

	feats, err := features.Build(params.Features)
	if err != nil {
		return err
	}
	opts := features.Options{
		CutoffWords:      params.CutoffWords,
		CutoffWordLength: params.CutoffWordLength,
	}
	contextPath := filepath.Join(cfg.Data.Dir, contextFileName)
	root, err := features.LoadRootContext(contextPath, opts)
	if err != nil {
		return err
	}

	extractor := dataset.NewExtractor(root, feats, collection.Labels, extractorOptions(params), log)
	extractor.Metrics = monitoring.NewMetrics()

	if invalidate {
		for _, split := range collection.Splits() {
			n, err := extractor.DeleteSaved(split.Pages, true)
			if err != nil {
				return err
			}
			log.Info("cache invalidated", zap.String("split", split.Name), zap.Int("entries", n))
		}
		return nil
	}

	// Prepare is sequential: it grows dictionaries shared by every split.
	for _, split := range collection.Splits() {
		start := time.Now()
		if err := extractor.PrepareFeatures(ctx, split.Pages, force); err != nil {
			return err
		}
		log.Info("split prepared",
			zap.String("split", split.Name),
			zap.Duration("elapsed", time.Since(start)))
	}

	root.Freeze()
	if err := root.Save(contextPath); err != nil {
		return err
	}
	log.Info("root context frozen",
		zap.String("path", contextPath),
		zap.Any("sizes", root.Describe()))

	for _, split := range collection.Splits() {
		start := time.Now()
		computed, err := extractor.ComputeFeatures(ctx, split.Pages, cfg.Extraction.Workers, force)
		if err != nil {
			return err
		}
		log.Info("split computed",
			zap.String("split", split.Name),
			zap.Int("pages", computed),
			zap.Duration("elapsed", time.Since(start)))
	}

	log.Info("done",
		zap.Int("labels", collection.Labels.Len()),
		zap.Int("feature_dim", features.TotalDimension(feats, root)))
	return nil
}

func extractorOptions(params config.Params) dataset.ExtractorOptions {
	opts := dataset.DefaultExtractorOptions()
	opts.LabelKeys = params.LabelKeys
	opts.PropagateLabelsToLeaves = params.PropagateLabels
	opts.ClassifyOnlyTextNodes = params.ClassifyOnlyTextNodes
	opts.FriendCycles = params.FriendCycles
	if params.MaxFriends > 0 {
		opts.FriendOptions.MaxFriends = params.MaxFriends
	}
	if params.MaxAncestorDistance > 0 {
		opts.FriendOptions.MaxAncestorDistance = params.MaxAncestorDistance
	}
	opts.VisualNeighbors = params.VisualNeighbors
	if params.NNeighbors > 0 {
		opts.NNeighbors = params.NNeighbors
	}
	if params.NeighborDistance == string(dataset.NeighborCenter) {
		opts.NeighborDistance = dataset.NeighborCenter
	}
	opts.LoadVisuals = params.LoadVisuals
	opts.RequireBoxes = params.RequireBoxes
	return opts
}
