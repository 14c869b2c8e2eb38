package chunker

import (
	"regexp"
	"strings"
)

// A boundaryFinder locates a natural break inside segment at or after the
// byte offset from, returning the offset just past the break. ok is false
// when the segment has no such break in the search window.
type boundaryFinder func(segment string, from int) (pos int, ok bool)

// boundaryFinders is applied in priority order; the first success wins.
// Adding a new break heuristic means inserting one more entry here.
var boundaryFinders = []boundaryFinder{
	paragraphBreak,
	sentenceBreak,
	lineBreak,
	wordBreak,
}

// findBreakPoint picks the best offset to cut segment at. The search window
// starts at 60% of the segment so chunks stay reasonably full; if no finder
// succeeds the segment is hard-cut at its end.
func findBreakPoint(segment string) int {
	from := len(segment) * 6 / 10
	for _, find := range boundaryFinders {
		if pos, ok := find(segment, from); ok {
			return pos
		}
	}
	return len(segment)
}

func paragraphBreak(segment string, from int) (int, bool) {
	if pos := lastIndexFrom(segment, "\n\n", from); pos >= 0 {
		return pos + 2, true
	}
	return 0, false
}

var sentenceEndRe = regexp.MustCompile(`[.!?]\s`)

func sentenceBreak(segment string, from int) (int, bool) {
	matches := sentenceEndRe.FindAllStringIndex(segment[from:], -1)
	if len(matches) == 0 {
		return 0, false
	}
	return from + matches[len(matches)-1][1], true
}

func lineBreak(segment string, from int) (int, bool) {
	if pos := lastIndexFrom(segment, "\n", from); pos >= 0 {
		return pos + 1, true
	}
	return 0, false
}

func wordBreak(segment string, from int) (int, bool) {
	if pos := lastIndexFrom(segment, " ", from); pos >= 0 {
		return pos + 1, true
	}
	return 0, false
}

// lastIndexFrom returns the last occurrence of sub at or after from,
// or -1 when the last occurrence falls before from.
func lastIndexFrom(s, sub string, from int) int {
	idx := strings.LastIndex(s, sub)
	if idx >= from {
		return idx
	}
	return -1
}
