// Package phrase serves prerecorded audio for responses the agent
// says often, so common turns skip the synthesizer entirely.
package phrase

import "strings"

// Ratio measures how similar two strings are as 2*M/T, where M is the
// number of matched characters across all matching blocks and T the
// total length of both strings. 1.0 means identical, 0.0 means no
// overlap. Inputs are lowercased and trimmed first.
func Ratio(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	matched := 0
	for _, m := range matchingBlocks([]byte(a), []byte(b)) {
		matched += m.size
	}
	return 2.0 * float64(matched) / float64(len(a)+len(b))
}

type match struct {
	aIdx, bIdx, size int
}

// matchingBlocks finds non-overlapping matching runs by recursively
// taking the longest common substring and splitting around it.
func matchingBlocks(a, b []byte) []match {
	// Positions of each byte in b, for the longest-match scan.
	b2j := make(map[byte][]int, len(b))
	for j, c := range b {
		b2j[c] = append(b2j[c], j)
	}

	type span struct {
		aLo, aHi, bLo, bHi int
	}
	queue := []span{{0, len(a), 0, len(b)}}
	var blocks []match

	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		m := longestMatch(a, b2j, s.aLo, s.aHi, s.bLo, s.bHi)
		if m.size == 0 {
			continue
		}
		blocks = append(blocks, m)
		if s.aLo < m.aIdx && s.bLo < m.bIdx {
			queue = append(queue, span{s.aLo, m.aIdx, s.bLo, m.bIdx})
		}
		if m.aIdx+m.size < s.aHi && m.bIdx+m.size < s.bHi {
			queue = append(queue, span{m.aIdx + m.size, s.aHi, m.bIdx + m.size, s.bHi})
		}
	}
	return blocks
}

// longestMatch finds the longest run a[i:i+k] == b[j:j+k] inside the
// given window, preferring the earliest match on ties.
func longestMatch(a []byte, b2j map[byte][]int, aLo, aHi, bLo, bHi int) match {
	best := match{aIdx: aLo, bIdx: bLo}

	// j2len[j] is the length of the longest run ending at a[i], b[j].
	j2len := make(map[int]int)
	for i := aLo; i < aHi; i++ {
		newJ2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < bLo {
				continue
			}
			if j >= bHi {
				break
			}
			k := j2len[j-1] + 1
			newJ2len[j] = k
			if k > best.size {
				best = match{aIdx: i - k + 1, bIdx: j - k + 1, size: k}
			}
		}
		j2len = newJ2len
	}
	return best
}
