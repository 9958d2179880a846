package capture

// Origin records who last wrote a draft field.
type Origin string

const (
	OriginEmpty    Origin = ""
	OriginComputed Origin = "computed"
	OriginManual   Origin = "manual"
)

// Field is a draft value tagged with its provenance. A manual zero is a real value,
// distinct from an empty field.
type Field struct {
	Value  float64 `json:"value"`
	Origin Origin  `json:"origin"`
}

// Set reports whether the field holds a value.
func (f Field) Set() bool {
	return f.Origin != OriginEmpty
}
