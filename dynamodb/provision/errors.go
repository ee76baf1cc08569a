package provision

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingHashKey         = errors.New("missing hash key")
	ErrUnknownAttribute       = errors.New("attribute not declared in schema")
	ErrInvalidKeyType         = errors.New("attribute type cannot be used as a key")
	ErrInvalidProjection      = errors.New("invalid projection")
	ErrDuplicateIndexName     = errors.New("duplicate index name")
	ErrMissingRangeKey        = errors.New("local index requires a range key")
	ErrLocalIndexWithoutRange = errors.New("local index on a table without a range key")
	ErrLocalIndexThroughput   = errors.New("local index cannot declare capacity")
	ErrInvalidThroughput      = errors.New("invalid capacity units")
	ErrInvalidIndexType       = errors.New("invalid index type")
	ErrInvalidAttributeType   = errors.New("unrecognized attribute type")
	ErrMissingName            = errors.New("model has neither a name nor a table name")
	ErrDuplicateKeyAttribute  = errors.New("hash and range key use the same attribute")
	ErrTooManyIndexes         = errors.New("too many secondary indexes")
)

// SchemaError reports a model definition that cannot be compiled into a table.
// It is never transient; Err is one of the sentinel errors above.
type SchemaError struct {
	Model     string
	Index     string
	Attribute string
	Err       error
	Msg       string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("schema error: model ")
	fmt.Fprintf(&b, "%q", e.Model)
	if e.Index != "" {
		fmt.Fprintf(&b, " index %q", e.Index)
	}
	if e.Attribute != "" {
		fmt.Fprintf(&b, " attribute %q", e.Attribute)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// IsSchemaError reports whether err or anything it wraps is a *SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}
