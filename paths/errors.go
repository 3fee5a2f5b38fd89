package paths

import "github.com/alpacahq/eventstore/utils/io"

type MalformedPathError string

func (msg MalformedPathError) Error() string {
	return string(msg) + ": Malformed path data"
}

type ShortBufferError string

func (msg ShortBufferError) Error() string {
	return string(msg) + ": Buffer too short"
}

func malformedPath(msg string) MalformedPathError { return MalformedPathError(errContext(msg)) }
func shortBuffer(msg string) ShortBufferError { return ShortBufferError(errContext(msg)) }

// errContext prefixes msg with the file and line that built the error, so the
// location survives wrapping.
func errContext(msg string) string {
	return io.GetCallerFileContext(2) + ":" + msg
}
