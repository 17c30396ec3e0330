// Package diffpos translates unified-diff patch text into the diff-relative
// coordinates review APIs require for anchoring inline comments. A comment
// on "new-file line N" must be posted at the 1-based offset of that line
// within the patch text, counting every patch line including hunk headers.
package diffpos

import (
	"regexp"
	"strconv"
	"strings"
)

// hunkHeader matches `@@ -a,b +c,d @@` style markers; the old-side range and
// both counts are optional in degenerate hunks.
var hunkHeader = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// PositionMap maps new-file line numbers to diff positions. Only addition
// lines are addressable: context lines advance the new-line counter but are
// intentionally absent from the map, and removed lines never appear in the
// new file at all.
type PositionMap map[int]int

// Build parses one file's patch text and produces its position map. A patch
// with no recognizable hunk header yields an empty map; malformed trailing
// content yields a partial map. Neither is an error; callers handle an
// address miss by dropping that comment.
func Build(patch string) PositionMap {
	positions := make(PositionMap)
	if patch == "" {
		return positions
	}

	currentNewLine := 0
	inHunk := false

	for position, line := range strings.Split(patch, "\n") {
		diffPosition := position + 1 // positions are 1-based

		if m := hunkHeader.FindStringSubmatch(line); m != nil {
			newStart, _ := strconv.Atoi(m[1])
			currentNewLine = newStart - 1
			inHunk = true
			continue
		}
		if !inHunk {
			continue
		}

		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			// File headers, not content lines.
		case strings.HasPrefix(line, "+"):
			currentNewLine++
			positions[currentNewLine] = diffPosition
		case strings.HasPrefix(line, "-"):
			// Old-file line; the new-line counter does not move.
		case strings.HasPrefix(line, `\`):
			// "\ No newline at end of file" takes a diff position but is
			// not a content line on either side.
		default:
			currentNewLine++
		}
	}

	return positions
}

// Position returns the diff position for a new-file line number. The second
// return is false when the line is not an addition covered by any hunk and
// therefore cannot be anchored.
func (p PositionMap) Position(newLine int) (int, bool) {
	pos, ok := p[newLine]
	return pos, ok
}
