package executor

import "github.com/alpacahq/eventstore/utils/io"

type InvalidObjectError string

func (msg InvalidObjectError) Error() string {
	return string(msg) + ": Object id 0 is reserved"
}

type WriterClosedError string

func (msg WriterClosedError) Error() string {
	return string(msg) + ": Writer is closed"
}

// IntegrityError reports a block or directory that breaks the layout rules of
// the data file.
type IntegrityError string

func (msg IntegrityError) Error() string {
	return string(msg) + ": Integrity check failed"
}

func invalidObject(msg string) InvalidObjectError { return InvalidObjectError(errContext(msg)) }
func writerClosed(msg string) WriterClosedError { return WriterClosedError(errContext(msg)) }
func integrityError(msg string) IntegrityError { return IntegrityError(errContext(msg)) }

// errContext prefixes msg with the file and line that built the error, so the
// location survives wrapping.
func errContext(msg string) string {
	return io.GetCallerFileContext(2) + ":" + msg
}
