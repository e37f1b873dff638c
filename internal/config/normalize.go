package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeConversion()
	c.normalizeChunking()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeConversion() {
	c.Conversion.Binary = strings.TrimSpace(c.Conversion.Binary)
	if c.Conversion.Binary == "" {
		c.Conversion.Binary = defaultConversionBinary
	}
	if c.Conversion.ThroughputKBps <= 0 {
		c.Conversion.ThroughputKBps = defaultThroughputKBps
	}
	if c.Conversion.MinEstimateSeconds <= 0 {
		c.Conversion.MinEstimateSeconds = defaultMinEstimate
	}
	if c.Conversion.MaxEstimateSeconds <= 0 {
		c.Conversion.MaxEstimateSeconds = defaultMaxEstimate
	}
}

func (c *Config) normalizeChunking() {
	c.Chunking.Binary = strings.TrimSpace(c.Chunking.Binary)
	if c.Chunking.Binary == "" {
		c.Chunking.Binary = defaultChunkingBinary
	}
	c.Chunking.Tokenizer = strings.TrimSpace(c.Chunking.Tokenizer)
	if c.Chunking.Tokenizer == "" {
		c.Chunking.Tokenizer = defaultTokenizer
	}
	if c.Chunking.MaxTokens <= 0 {
		c.Chunking.MaxTokens = defaultMaxTokens
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
