package config_test

import (
	"fmt"

	"github.com/ajitpratap0/arrowfeat/pkg/config"
)

// ExampleNewFeatureConfig shows the defaults a run starts from.
func ExampleNewFeatureConfig() {
	cfg := config.NewFeatureConfig("book-depth")
	cfg.Depth.Thresholds = []float64{15, 40}

	workers, set := cfg.Depth.Workers()
	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
	fmt.Printf("Workers set: %v (%d)\n", set, workers)
	fmt.Printf("Valid: %v\n", cfg.Validate() == nil)

	// Output:
	// Log level: info
	// Workers set: false (0)
	// Valid: true
}

// ExampleDepthConfig_Validate demonstrates threshold validation.
func ExampleDepthConfig_Validate() {
	d := config.DepthConfig{Thresholds: []float64{5, 2}}
	fmt.Println(d.Validate())

	// Output:
	// config: depth.thresholds must be sorted ascending
}
