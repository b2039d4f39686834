package cmd

import (
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/mediapull/internal/config"
	"github.com/jmylchreest/mediapull/pkg/duration"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  `Commands for managing mediapull configuration.`,
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the default configuration",
	Long: `Dump the default configuration values in YAML format.

This shows all available configuration options with their default values.
You can redirect this output to a file to create a configuration template:

  mediapull config dump > config.yaml

Configuration can be set via:
  - Config file (config.yaml, /etc/mediapull/config.yaml, $HOME/.mediapull)
  - Environment variables (MEDIAPULL_SCRAPER_POST_LIMIT, MEDIAPULL_STORAGE_BASE_DIR, etc.)
  - Command-line flags (for some options)

Environment variables use the MEDIAPULL_ prefix and underscores for nesting.
Example: scraper.post_limit -> MEDIAPULL_SCRAPER_POST_LIMIT`,
	RunE: runConfigDump,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configDumpCmd)
}

// toMap converts a struct to a map, formatting durations and byte sizes
// for human readability.
func toMap(v any) map[string]any {
	result := make(map[string]any)
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		key := fieldType.Tag.Get("mapstructure")
		if key == "" {
			key = fieldType.Name
		}

		switch fv := field.Interface().(type) {
		case time.Duration:
			result[key] = duration.Format(fv)
		case config.ByteSize:
			result[key] = fv.String()
		default:
			if field.Kind() == reflect.Struct {
				result[key] = toMap(field.Interface())
			} else {
				result[key] = field.Interface()
			}
		}
	}
	return result
}

func runConfigDump(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cfgMap := toMap(cfg)

	yamlData, err := yaml.Marshal(cfgMap)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	fmt.Println("# mediapull Configuration File")
	fmt.Println("# =============================")
	fmt.Println("#")
	fmt.Println("# All values shown below are defaults.")
	fmt.Println("# Duration format: 30s, 5m, 1h")
	fmt.Println("# Size format: 5MB, 1GB")
	fmt.Println("#")
	fmt.Println("# Environment variable overrides:")
	fmt.Println("#   MEDIAPULL_TARGETS_TARGETS, MEDIAPULL_TARGETS_CONCURRENT_TARGETS")
	fmt.Println("#   MEDIAPULL_SCRAPER_LISTING_TYPE, MEDIAPULL_SCRAPER_POST_LIMIT")
	fmt.Println("#   MEDIAPULL_FILTER_NSFW_MODE, MEDIAPULL_ORGANIZATION_ORGANIZE_BY")
	fmt.Println("#   MEDIAPULL_STORAGE_BASE_DIR, MEDIAPULL_LOGGING_LEVEL")
	fmt.Println("#   etc.")
	fmt.Println("#")
	fmt.Println("")
	fmt.Print(string(yamlData))

	return nil
}
