// Package config holds the compiler's tunables: batching and retry
// knobs that spec §4.1/§8/§9 name without hard-coding a value for, the
// same way the teacher's database.GeneratorConfig separates "what the
// generator does" from "how its behavior is tuned". A Compiler is
// loaded from YAML via ParseCompilerConfig/ParseCompilerConfigString,
// mirroring database.ParseGeneratorConfig/ParseGeneratorConfigString,
// and zero-value fields fall back to Default() when merged.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Compiler holds every tunable the compiler and its engine consult
// outside of the SQL text itself.
type Compiler struct {
	// CreateAsSelectRetryCount bounds the ReaderOutOfDate retry loop
	// CREATE TABLE AS SELECT runs around its population step (spec §8).
	CreateAsSelectRetryCount int `yaml:"create_as_select_retry_count"`

	// InsertAsSelectBatchSize is loaded and merged but not read by the
	// compiler: INSERT ... SELECT commits once, after appending every
	// row.
	InsertAsSelectBatchSize int `yaml:"insert_as_select_batch_size"`

	// CopyBufferSize is the read buffer size, in bytes, COPY uses when
	// streaming a local file (spec §6.2 "COPY").
	CopyBufferSize int `yaml:"copy_buffer_size"`

	// WriterOpenBusyTimeoutMicros is loaded and merged but not read by
	// the compiler or memengine: GetWriter does not wait or retry, and
	// fails with Busy as soon as the table's writer is already held.
	WriterOpenBusyTimeoutMicros int64 `yaml:"writer_open_busy_timeout_micros"`

	// DefaultSymbolCapacity/DefaultSymbolCacheEnabled/
	// DefaultIndexValueBlockCapacity are the values a SYMBOL column
	// gets when CREATE TABLE doesn't specify CAPACITY/CACHE/INDEX
	// explicitly (spec §3).
	DefaultSymbolCapacity          int  `yaml:"default_symbol_capacity"`
	DefaultSymbolCacheEnabled      bool `yaml:"default_symbol_cache_enabled"`
	DefaultIndexValueBlockCapacity int  `yaml:"default_index_value_block_capacity"`
}

// Default returns the tunables the CLI runs with when no config file is
// given, matched to the values the spec's examples imply.
func Default() Compiler {
	return Compiler{
		CreateAsSelectRetryCount:       5,
		InsertAsSelectBatchSize:        1000,
		CopyBufferSize:                 1 << 16,
		WriterOpenBusyTimeoutMicros:    5_000_000,
		DefaultSymbolCapacity:          256,
		DefaultSymbolCacheEnabled:      true,
		DefaultIndexValueBlockCapacity: 256,
	}
}

// Merge layers override on top of base: any field left at its zero
// value in override keeps base's value (mirrors
// database.MergeGeneratorConfig's override semantics).
func Merge(base, override Compiler) Compiler {
	result := base
	if override.CreateAsSelectRetryCount != 0 {
		result.CreateAsSelectRetryCount = override.CreateAsSelectRetryCount
	}
	if override.InsertAsSelectBatchSize != 0 {
		result.InsertAsSelectBatchSize = override.InsertAsSelectBatchSize
	}
	if override.CopyBufferSize != 0 {
		result.CopyBufferSize = override.CopyBufferSize
	}
	if override.WriterOpenBusyTimeoutMicros != 0 {
		result.WriterOpenBusyTimeoutMicros = override.WriterOpenBusyTimeoutMicros
	}
	if override.DefaultSymbolCapacity != 0 {
		result.DefaultSymbolCapacity = override.DefaultSymbolCapacity
	}
	if override.DefaultIndexValueBlockCapacity != 0 {
		result.DefaultIndexValueBlockCapacity = override.DefaultIndexValueBlockCapacity
	}
	result.DefaultSymbolCacheEnabled = result.DefaultSymbolCacheEnabled || override.DefaultSymbolCacheEnabled
	return result
}

// ParseCompilerConfigString parses a YAML document, merging it over
// Default(). An empty string returns Default() unchanged.
func ParseCompilerConfigString(yamlString string) (Compiler, error) {
	if yamlString == "" {
		return Default(), nil
	}
	var override Compiler
	dec := yaml.NewDecoder(bytes.NewReader([]byte(yamlString)), yaml.DisallowUnknownField())
	if err := dec.Decode(&override); err != nil {
		return Compiler{}, fmt.Errorf("config: parsing compiler config: %w", err)
	}
	return Merge(Default(), override), nil
}

// ParseCompilerConfig reads configFile and parses it the same way as
// ParseCompilerConfigString. An empty path returns Default().
func ParseCompilerConfig(configFile string) (Compiler, error) {
	if configFile == "" {
		return Default(), nil
	}
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return Compiler{}, fmt.Errorf("config: reading %s: %w", configFile, err)
	}
	return ParseCompilerConfigString(string(buf))
}
