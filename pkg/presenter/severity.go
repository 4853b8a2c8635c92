package presenter

import (
	perrors "github.com/odvcencio/perch/pkg/errors"
	"github.com/odvcencio/perch/pkg/view"
)

// severityFor maps an error to the severity of its error banner. User
// mistakes and retryable conditions warn; storage failures are errors;
// anything unclassified is critical because the app cannot reason about
// its own state.
func severityFor(err error) view.Severity {
	switch perrors.GetCode(err) {
	case perrors.ErrCodeInvalidInput,
		perrors.ErrCodeProfileInvalid,
		perrors.ErrCodeMCPInvalid,
		perrors.ErrCodeMCPDuplicate,
		perrors.ErrCodeChatBusy:
		return view.SeverityWarning

	case perrors.ErrCodeConversationNotFound,
		perrors.ErrCodeProfileNotFound,
		perrors.ErrCodeModelNotFound,
		perrors.ErrCodeMCPNotFound,
		perrors.ErrCodeSecretNotFound:
		return view.SeverityWarning

	case perrors.ErrCodeMCPConnect,
		perrors.ErrCodeChatSend,
		perrors.ErrCodeStorageRead,
		perrors.ErrCodeStorageWrite,
		perrors.ErrCodeStorageCorrupt,
		perrors.ErrCodeConfigLoad,
		perrors.ErrCodeConfigParse,
		perrors.ErrCodeConfigInvalid:
		return view.SeverityError

	default:
		return view.SeverityCritical
	}
}
