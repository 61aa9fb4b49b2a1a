package testing

import "time"

// Logger Constants
const (
	// TestLoggerLevelDebug is the debug log level used in most tests
	TestLoggerLevelDebug = "debug"
	// TestLoggerLevelDisabled completely disables logging in tests
	TestLoggerLevelDisabled = "disabled"
)

// Target Constants
// Common base URLs and endpoints used across request and executor tests.
const (
	TestBaseURL     = "https://api.example.com/v1"
	TestEndpoint    = "/users"
	TestDownloadURL = "https://cdn.example.com/files/report.pdf"
	TestAppVersion  = "20210705"
)

// Credential Constants
const (
	TestToken        = "test-token"
	TestRefreshToken = "test-refresh-token"
)

// Time Duration Constants
// Common time durations used in test synchronization and timeouts.
const (
	// TestShortDelay is a short delay for goroutine synchronization (100ms)
	TestShortDelay = 100 * time.Millisecond
	// TestEventuallyTimeout is the timeout for require.Eventually assertions (2s)
	TestEventuallyTimeout = 2 * time.Second
	// TestEventuallyTick is the polling interval for require.Eventually (10ms)
	TestEventuallyTick = 10 * time.Millisecond
)
