package compiler

// StringID is a handle to a lexeme recorded by a StringIndexer. IDs are
// dense and increase from 0 in the order lexemes are added.
type StringID int

// NoString is the ID carried by tokens that have no lexeme.
const NoString StringID = -1

// StringLocation is a half-open byte range [Start, End) into the source.
type StringLocation struct {
	Start int
	End   int
}

// StringIndexer maps lexeme spans to small integer handles so tokens do not
// carry their own copy of the text. It references the source string and
// never copies it.
type StringIndexer struct {
	source string
	refs   []StringLocation
}

// NewStringIndexer creates an indexer over source.
func NewStringIndexer(source string) *StringIndexer {
	return &StringIndexer{
		source: source,
		refs:   make([]StringLocation, 0, 32),
	}
}

// Add records the span [start, end) and returns its handle.
func (si *StringIndexer) Add(start, end int) StringID {
	si.refs = append(si.refs, StringLocation{Start: start, End: end})
	return StringID(len(si.refs) - 1)
}

// Location returns the span recorded for id.
func (si *StringIndexer) Location(id StringID) (StringLocation, error) {
	if id < 0 || int(id) >= len(si.refs) {
		return StringLocation{}, ErrStringIndexOutOfBounds
	}
	return si.refs[id], nil
}

// Get returns the lexeme text for id.
func (si *StringIndexer) Get(id StringID) (string, error) {
	loc, err := si.Location(id)
	if err != nil {
		return "", err
	}
	return si.source[loc.Start:loc.End], nil
}

// Len returns the number of recorded lexemes.
func (si *StringIndexer) Len() int {
	return len(si.refs)
}
