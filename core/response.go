package core

// ResponseCode classifies the outcome of a retrieval operation on the wire.
// The values are part of the agent output format and must stay stable.
type ResponseCode string

const (
	// ResponseSuccess indicates matching pages were found.
	ResponseSuccess ResponseCode = "success"
	// ResponseNotFound indicates the operation completed but matched nothing.
	// Empty results and an explicit no-match signal are deliberately merged
	// into this single code.
	ResponseNotFound ResponseCode = "error_no_documents_found"
	// ResponseMissingCapability indicates no available tool can answer the
	// request.
	ResponseMissingCapability ResponseCode = "error_missing_capability"
	// ResponseInternalError indicates a malformed model response or an
	// unexpected failure inside the loop.
	ResponseInternalError ResponseCode = "error_internal"
)

// Valid reports whether the code is one of the known wire values.
func (c ResponseCode) Valid() bool {
	switch c {
	case ResponseSuccess, ResponseNotFound, ResponseMissingCapability, ResponseInternalError:
		return true
	}
	return false
}

// DefaultMessage returns the stock human-readable message for error codes.
func (c ResponseCode) DefaultMessage() string {
	switch c {
	case ResponseNotFound:
		return "No matching documents found"
	case ResponseMissingCapability:
		return "Required capability not available"
	case ResponseInternalError:
		return "An internal error occurred"
	default:
		return "Unknown error occurred"
	}
}
