package sheet

// Record is one raw row as served by the sheet endpoint. Exactly one of
// Fields (named shape) or Values (positional shape) is set.
type Record struct {
	Fields map[string]any
	Values []any
}

func (r Record) IsPositional() bool {
	return r.Fields == nil && r.Values != nil
}

type Shape int

const (
	ShapeEmpty Shape = iota
	ShapeObject
	ShapeArray
	ShapeDelimited
)

func (s Shape) String() string {
	switch s {
	case ShapeObject:
		return "object"
	case ShapeArray:
		return "array"
	case ShapeDelimited:
		return "delimited"
	default:
		return "empty"
	}
}

// Payload is the classified response body. Only the field matching Shape is set.
type Payload struct {
	Shape  Shape
	Object map[string]any
	Array  []any
	Text   string
}

// DefaultCollections are the object properties searched for the row array.
var DefaultCollections = []string{"posts", "data", "rows", "records", "items"}
