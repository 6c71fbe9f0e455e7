// Package config provides configuration for arrowfeat feature runs.
//
// A run is described by a single FeatureConfig with four sections:
//
//   - Depth: threshold list and worker pool bound
//   - Input: table path, format and re-chunking
//   - Output: table path, format and compression
//   - Observability: logging, metrics and tracing
//
// # Loading
//
// Files are YAML. ${VAR_NAME} and ${VAR_NAME:-fallback} are substituted from the
// environment before parsing:
//
//	depth:
//	  thresholds: [15, 40]
//	  max_workers: ${DEPTH_WORKERS:-4}
//	input:
//	  path: ${DATA_DIR}/book.parquet
//
//	cfg, err := config.LoadFeatureConfig("depth.yaml")
//	if err != nil {
//		return err
//	}
//
// Validation errors are *errors.Error values of type ErrorTypeConfig.
package config
