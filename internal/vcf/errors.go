package vcf

import (
	"fmt"
	"io/fs"
)

// NotFoundError reports that the input path does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("vcf file not found: %s", e.Path)
}

func (e *NotFoundError) Unwrap() error {
	return fs.ErrNotExist
}

// UnsupportedFormatError reports an input path whose suffix is neither
// .vcf nor .vcf.gz.
type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file extension: %s", e.Path)
}

// MalformedRecordError describes a data line that could not be parsed
// as a record. It never surfaces from Next: the line is skipped and the
// error is delivered through the parser's diagnostic callback.
type MalformedRecordError struct {
	Line    int
	Message string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}
