package diff

import "strings"

// Op classifies one line in an edit script.
type Op int

// Edit operations.
const (
	OpEqual Op = iota
	OpInsert
	OpDelete
)

// Edit is a single line-level operation in an edit script. Applying the
// script to the old line sequence reproduces the new one: equal and delete
// consume an old line, equal and insert produce a new line.
type Edit struct {
	Op   Op
	Line string
}

// SplitLines splits text into lines for diffing. A trailing newline does
// not produce a final empty line; an empty body has no lines.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}

// Lines computes a minimal line-based edit script from a to b using Myers'
// greedy O(ND) algorithm. Whitespace-only line changes count like any
// other change: one deletion plus one insertion.
func Lines(a, b []string) []Edit {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}

	trace := shortestEditTrace(a, b)

	return backtrack(trace, a, b)
}

// Stats aggregates insertion and deletion counts from an edit script.
func Stats(edits []Edit) (additions, deletions int) {
	for _, e := range edits {
		switch e.Op {
		case OpInsert:
			additions++
		case OpDelete:
			deletions++
		}
	}

	return additions, deletions
}

// shortestEditTrace runs the forward pass, recording the furthest-reaching
// x per diagonal at each depth for backtracking.
func shortestEditTrace(a, b []string) [][]int {
	n, m := len(a), len(b)
	max := n + m
	v := make([]int, 2*max+2)

	var trace [][]int

	for d := 0; d <= max; d++ {
		trace = append(trace, append([]int(nil), v...))

		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[max+k-1] < v[max+k+1]) {
				x = v[max+k+1]
			} else {
				x = v[max+k-1] + 1
			}

			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}

			v[max+k] = x

			if x >= n && y >= m {
				return trace
			}
		}
	}

	// Unreachable: depth n+m always suffices.
	return trace
}

// backtrack walks the trace from (len(a), len(b)) back to the origin,
// emitting the edit script in order.
func backtrack(trace [][]int, a, b []string) []Edit {
	n, m := len(a), len(b)
	max := n + m
	x, y := n, m

	var reversed []Edit

	for d := len(trace) - 1; d >= 0; d-- {
		v := trace[d]
		k := x - y

		var prevK int
		if k == -d || (k != d && v[max+k-1] < v[max+k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}

		prevX := v[max+prevK]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			reversed = append(reversed, Edit{Op: OpEqual, Line: a[x-1]})
			x--
			y--
		}

		if d > 0 {
			if x == prevX {
				reversed = append(reversed, Edit{Op: OpInsert, Line: b[y-1]})
				y--
			} else {
				reversed = append(reversed, Edit{Op: OpDelete, Line: a[x-1]})
				x--
			}
		}
	}

	edits := make([]Edit, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		edits = append(edits, reversed[i])
	}

	return edits
}

// Apply replays an edit script against the old line sequence, returning
// the new one. Used to verify the round-trip property in tests and to
// render previews.
func Apply(old []string, edits []Edit) []string {
	var out []string

	i := 0

	for _, e := range edits {
		switch e.Op {
		case OpEqual:
			out = append(out, old[i])
			i++
		case OpDelete:
			i++
		case OpInsert:
			out = append(out, e.Line)
		}
	}

	return out
}
