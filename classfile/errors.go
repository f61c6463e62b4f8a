package classfile

import "errors"

// Sentinel errors for the recoverable classfile-parse failure kinds
// enumerated in spec.md §7 point 3: truncated streams and malformed
// constant-pool tags. Callers (the Work Queue's parser stage) recover from
// these by skipping the classfile and logging the failure; they never abort
// the scan.
var (
	ErrTruncated      = errors.New("classfile: truncated")
	ErrBadMagic       = errors.New("classfile: bad magic number")
	ErrBadConstantTag = errors.New("classfile: unrecognized constant pool tag")
	ErrBadConstantRef = errors.New("classfile: constant pool index out of range or wrong kind")
	ErrFiltered       = errors.New("classfile: filtered by scan spec")
)
