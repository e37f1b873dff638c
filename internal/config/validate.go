package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateConversion(); err != nil {
		return err
	}
	if err := c.validateChunking(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateConversion() error {
	if c.Conversion.TimeoutSeconds <= 0 {
		return errors.New("conversion.timeout_seconds must be positive")
	}
	if c.Conversion.MinEstimateSeconds > c.Conversion.MaxEstimateSeconds {
		return fmt.Errorf("conversion.min_estimate_seconds (%d) must not exceed conversion.max_estimate_seconds (%d)",
			c.Conversion.MinEstimateSeconds, c.Conversion.MaxEstimateSeconds)
	}
	if c.Conversion.MinFreeDiskMB < 0 {
		return errors.New("conversion.min_free_disk_mb must not be negative")
	}
	return nil
}

func (c *Config) validateChunking() error {
	if c.Chunking.TimeoutSeconds <= 0 {
		return errors.New("chunking.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.QueuePollInterval <= 0 {
		return errors.New("workflow.queue_poll_interval must be positive")
	}
	if c.Workflow.SupervisePollInterval <= 0 {
		return errors.New("workflow.supervise_poll_interval must be positive")
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		return errors.New("workflow.error_retry_interval must be positive")
	}
	if c.Workflow.LockTimeoutSeconds <= 0 {
		return errors.New("workflow.lock_timeout_seconds must be positive")
	}
	if c.Workflow.ProgressMinDelta < 0 {
		return errors.New("workflow.progress_min_delta must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
