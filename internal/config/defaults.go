package config

const (
	defaultOutputPath             = "pdf_analysis.csv"
	defaultOutputFormat           = ""
	defaultBatchSize              = 1000
	defaultQueueCapacity          = 5000
	defaultResume                 = true
	defaultPageThreshold          = 100
	defaultSizeThresholdBytes     = 10 * 1024 * 1024
	defaultMinSizeBytes           = 100
	defaultIsolation              = IsolationProcess
	defaultInspectTimeoutSeconds  = 60
	defaultProgressIntervalSecond = 3
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultPublishTimeoutSeconds  = 120
	defaultPublishMaxAttempts     = 3
)

// Isolation modes for document inspection.
const (
	IsolationProcess = "process"
	IsolationInline  = "inline"
)

// Output store formats.
const (
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
)

var defaultExtensions = []string{".pdf"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Scan: Scan{
			Extensions:      append([]string(nil), defaultExtensions...),
			CaseInsensitive: true,
		},
		Classify: Classify{
			Workers:               0,
			PageThreshold:         defaultPageThreshold,
			SizeThresholdBytes:    defaultSizeThresholdBytes,
			MinSizeBytes:          defaultMinSizeBytes,
			Isolation:             defaultIsolation,
			InspectTimeoutSeconds: defaultInspectTimeoutSeconds,
		},
		Output: Output{
			Path:          defaultOutputPath,
			Format:        defaultOutputFormat,
			BatchSize:     defaultBatchSize,
			QueueCapacity: defaultQueueCapacity,
			Resume:        defaultResume,
		},
		Progress: Progress{
			IntervalSeconds: defaultProgressIntervalSecond,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Publish: Publish{
			TimeoutSeconds: defaultPublishTimeoutSeconds,
			MaxAttempts:    defaultPublishMaxAttempts,
		},
	}
}
