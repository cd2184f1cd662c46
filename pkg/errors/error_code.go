package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInsufficientData     ErrorCode = 106
	ErrCodeInvalidType          ErrorCode = 107
	ErrCodeInvalidPeriod        ErrorCode = 108
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidDate          ErrorCode = 120
	ErrCodeInvalidColumn        ErrorCode = 121

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 204

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeInvalidTimespan       ErrorCode = 703
	ErrCodeInvalidProvider       ErrorCode = 704
	ErrCodeInvalidWriter         ErrorCode = 705
	ErrCodeExportFailed          ErrorCode = 706

	// Storage errors (800-899)
	ErrCodeStorageUnavailable ErrorCode = 800
	ErrCodeShareNotFound      ErrorCode = 801
	ErrCodeShareExists        ErrorCode = 802
	ErrCodePriceSaveFailed    ErrorCode = 803
	ErrCodeMigrationFailed    ErrorCode = 804

	// Video errors (900-999)
	ErrCodeVideoRequestFailed ErrorCode = 900
	ErrCodeVideoNotFound      ErrorCode = 901
)

// Category returns the name of the code group.
func (c ErrorCode) Category() string {
	switch {
	case c >= 1 && c < 100:
		return "general"
	case c >= 100 && c < 200:
		return "validation"
	case c >= 200 && c < 300:
		return "data"
	case c >= 700 && c < 800:
		return "market data"
	case c >= 800 && c < 900:
		return "storage"
	case c >= 900 && c < 1000:
		return "video"
	default:
		return "unknown"
	}
}
