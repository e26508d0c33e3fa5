package element

// TextRange is a span of a source file. Offsets are byte offsets, lines are
// 1-based.
type TextRange struct {
	StartOffset int `json:"start_offset"`
	EndOffset   int `json:"end_offset"`
	StartLine   int `json:"start_line"`
	EndLine     int `json:"end_line"`
}

// Location is one declaration site of an element
type Location struct {
	File      string    `json:"file"`
	NameRange TextRange `json:"name_range"`
	FullRange TextRange `json:"full_range"`
}

// Disposition is the resolved source view of an element. It is derived on
// demand and never owned by the element.
type Disposition struct {
	Element   Identity
	Locations []Location
	valid     bool
}

// InvalidDisposition is returned when the element's declaration cannot be
// found or is out of date. It is a normal outcome, not an error.
var InvalidDisposition = Disposition{}

// NewDisposition returns a valid disposition for id
func NewDisposition(id Identity, locations []Location) Disposition {
	return Disposition{Element: id, Locations: locations, valid: true}
}

// Valid reports whether the disposition points at live declarations
func (d Disposition) Valid() bool {
	return d.valid
}

// Locator resolves identities to source locations. Elements hold one so they
// can answer Disposition without knowing how sources are indexed.
type Locator interface {
	Resolve(id Identity) Disposition
	ProjectFiles(id Identity) []string
}
