//Package eccheader defines API information about securelog SDK, including ProcessResult and API functions.
package eccheader

import (
	"context"
)

// ProcessResult is the outcome of processing one log record.
// Masked is always usable, even when encryption failed.
type ProcessResult struct {
	Masked      string `json:"masked"`                // masked log text, printable
	SecureData  string `json:"secure_data,omitempty"` // Base64 envelope of the originals, empty if nothing was extracted or crypto failed
	Fingerprint string `json:"fingerprint,omitempty"` // public key fingerprint, set only when SecureData is set
}

// HasSecureData checks whether an envelope was produced
func (I *ProcessResult) HasSecureData() bool {
	return len(I.SecureData) > 0
}

// ProcessorAPI is a collection of securelog APIs
type ProcessorAPI interface {
	// Process masks one log record and builds the SECURE_DATA envelope
	// 对单条日志先结构化脱敏，再将原始敏感值加密为 SECURE_DATA
	Process(ctx context.Context, message string) ProcessResult

	// ProcessToContext masks the record and publishes envelope and fingerprint
	// into the context diagnostic map under the configured keys
	ProcessToContext(ctx context.Context, message string) (context.Context, string)

	// ClearSecureDataFromContext removes the configured output keys from the context map
	ClearSecureDataFromContext(ctx context.Context) context.Context

	// Fingerprint returns the fingerprint of the configured public key
	Fingerprint() string

	// ClearSessionKeys drops all cached per-trace keys
	ClearSessionKeys()

	// ClearSystemKeys drops all cached time-window keys
	ClearSystemKeys()

	// SetSessionCacheSize resizes the session track, size must be > 0
	SetSessionCacheSize(size int) error

	// SetSystemCacheSize resizes the system track, size must be > 0
	SetSystemCacheSize(size int) error

	// GetVersion returns sdk version string
	// 获取版本号
	GetVersion() string

	// Close processor object, release memory of inner object
	// 关闭，释放内部变量
	Close()
}
