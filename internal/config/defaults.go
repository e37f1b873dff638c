package config

const (
	defaultDataDir    = "~/.local/share/docforge"
	defaultStagingDir = "~/.local/share/docforge/output"
	defaultLogDir     = "~/.local/share/docforge/logs"

	defaultConversionBinary  = "docling"
	defaultConversionTimeout = 1800
	defaultThroughputKBps    = 50
	defaultMinEstimate       = 10
	defaultMaxEstimate       = 900
	defaultMinFreeDiskMB     = 256

	defaultChunkingBinary  = "docling-chunk"
	defaultChunkingTimeout = 600
	defaultTokenizer       = "hf"
	defaultTokenizerModel  = "sentence-transformers/all-MiniLM-L6-v2"
	defaultMaxTokens       = 512

	defaultQueuePollInterval     = 2
	defaultSupervisePollInterval = 1
	defaultErrorRetryInterval    = 5
	defaultLockTimeoutSeconds    = 10
	defaultProgressMinDelta      = 1.0

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Conversion: Conversion{
			Binary:             defaultConversionBinary,
			TimeoutSeconds:     defaultConversionTimeout,
			ThroughputKBps:     defaultThroughputKBps,
			MinEstimateSeconds: defaultMinEstimate,
			MaxEstimateSeconds: defaultMaxEstimate,
			MinFreeDiskMB:      defaultMinFreeDiskMB,
		},
		Chunking: Chunking{
			Binary:         defaultChunkingBinary,
			TimeoutSeconds: defaultChunkingTimeout,
			Tokenizer:      defaultTokenizer,
			TokenizerModel: defaultTokenizerModel,
			MaxTokens:      defaultMaxTokens,
		},
		Workflow: Workflow{
			QueuePollInterval:     defaultQueuePollInterval,
			SupervisePollInterval: defaultSupervisePollInterval,
			ErrorRetryInterval:    defaultErrorRetryInterval,
			LockTimeoutSeconds:    defaultLockTimeoutSeconds,
			ProgressMinDelta:      defaultProgressMinDelta,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
