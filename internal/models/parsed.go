package models

// ItemKind distinguishes the two meaningful line forms of a program file.
type ItemKind int

const (
	SongItem ItemKind = iota
	SectionItem
)

func (k ItemKind) String() string {
	switch k {
	case SongItem:
		return "song"
	case SectionItem:
		return "section"
	default:
		return ""
	}
}

// ParsedItem is one meaningful line of a program file: either a song
// reference or a section marker that opens a named subprogram.
type ParsedItem struct {
	Kind ItemKind
	Name string
}

// ParsedProgram is the result of parsing a program file.
// Title is the optional file-level {Title} override, "" when absent.
type ParsedProgram struct {
	Title string
	Items []ParsedItem
}

// Empty reports whether the program contains no importable items.
func (p *ParsedProgram) Empty() bool {
	return p == nil || len(p.Items) == 0
}
