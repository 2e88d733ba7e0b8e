// Package config provides 12-factor configuration for the extraction
// pipeline.
//
// Environment configuration (envconfig) covers deployment concerns: data
// directories, log level, worker count. Extraction parameters live in a
// versioned JSON document beside the data so that prepared contexts and
// computed samples stay reproducible across runs.
//
// Environment Variables:
//   - DATA_DIR, TRAIN_DIR, VAL_DIR, TEST_DIR
//   - LOG_LEVEL, LOG_DEV
//   - WORKERS
package config
