package block

import "github.com/alpacahq/eventstore/utils/io"

// InvalidArgumentError is returned when a required input is missing or zero.
type InvalidArgumentError string

func (msg InvalidArgumentError) Error() string {
	return string(msg) + ": Invalid argument"
}

// PreconditionError is returned when a block is used without a usable data
// file: no file, a zero block size, an unmapped file or a block outside the
// mapped region.
type PreconditionError string

func (msg PreconditionError) Error() string {
	return string(msg) + ": Precondition violated"
}

// CorruptSplitError is returned when a split could not be completed after the
// data file had already been grown.
type CorruptSplitError string

func (msg CorruptSplitError) Error() string {
	return string(msg) + ": Split could not complete"
}

func invalidArgument(msg string) InvalidArgumentError { return InvalidArgumentError(errContext(msg)) }
func precondition(msg string) PreconditionError { return PreconditionError(errContext(msg)) }
func corruptSplit(msg string) CorruptSplitError { return CorruptSplitError(errContext(msg)) }

// errContext prefixes msg with the file and line that built the error, so the
// location survives wrapping.
func errContext(msg string) string {
	return io.GetCallerFileContext(2) + ":" + msg
}
