package programs

import (
	"strings"

	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/shared"
)

// Parse reads program file contents into ordered items.
//
// Line grammar, applied after trimming surrounding whitespace:
//
//	(blank)        skipped
//	{Some Title}   file-level title override; the last one wins
//	#Section Name  section marker opening a named subprogram
//	Song Name:key  song reference; everything from the first colon on is a
//	               presentation parameter and is stripped
//
// Names have underscores normalized to spaces. Lines that reduce to nothing
// ("#", "{}", ":key") are skipped rather than rejected; a program file is
// never invalid, only more or less empty.
func Parse(contents string) *models.ParsedProgram {
	parsed := &models.ParsedProgram{}

	for _, line := range strings.Split(contents, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "{") && strings.HasSuffix(line, "}") {
			if title := shared.NormalizeTitle(line[1 : len(line)-1]); title != "" {
				parsed.Title = title
			}
			continue
		}

		if rest, ok := strings.CutPrefix(line, "#"); ok {
			if name := shared.NormalizeTitle(rest); name != "" {
				parsed.Items = append(parsed.Items, models.ParsedItem{Kind: models.SectionItem, Name: name})
			}
			continue
		}

		name := line
		if idx := strings.IndexByte(name, ':'); idx >= 0 {
			name = name[:idx]
		}
		if name = shared.NormalizeTitle(name); name != "" {
			parsed.Items = append(parsed.Items, models.ParsedItem{Kind: models.SongItem, Name: name})
		}
	}

	return parsed
}

// DeriveTitle combines a program file's name with its parsed {Title} override.
// When the override is absent or just restates the filename, the filename
// alone is the title; otherwise both are kept so two files sharing an
// override still get distinct program titles.
func DeriveTitle(filename, parsedTitle string) string {
	base := shared.LabelFromFilename(filename)
	if parsedTitle == "" || shared.TitleKey(parsedTitle) == shared.TitleKey(base) {
		return base
	}
	return base + " - " + parsedTitle
}
