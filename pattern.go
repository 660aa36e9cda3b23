package main

import (
	"fmt"
	"strings"
)

// Steps is the length of a bar: sixteenth notes in 4/4.
const Steps = 16

// Voice is one row of the pattern.
type Voice int

const (
	KickVoice Voice = iota
	HiHatVoice
	OpenHiHatVoice
	SnapVoice

	NumVoices
)

var voiceNames = [NumVoices]string{
	KickVoice:      "kick",
	HiHatVoice:     "hihat",
	OpenHiHatVoice: "openhh",
	SnapVoice:      "snap",
}

func (v Voice) String() string {
	if v < 0 || v >= NumVoices {
		return fmt.Sprintf("Voice(%d)", int(v))
	}
	return voiceNames[v]
}

// Pattern says which voices fire on which step of the bar.
type Pattern [NumVoices][Steps]bool

// DefaultPattern is a four on the floor groove at 116 BPM.
var DefaultPattern = parsePattern(map[Voice]string{
	//              1...2...3...4...
	KickVoice:      "x...x...x...x...",
	HiHatVoice:     "x.x.x.x.x.x.x.x.",
	OpenHiHatVoice: "...x.......x....",
	SnapVoice:      "....x.......x...",
})

func parsePattern(rows map[Voice]string) Pattern {
	var p Pattern
	for v, row := range rows {
		if len(row) != Steps {
			panic(fmt.Sprintf("pattern row %s has %d steps", v, len(row)))
		}
		for i, c := range row {
			p[v][i] = c == 'x'
		}
	}
	return p
}

// Active reports whether v fires on step.
func (p *Pattern) Active(v Voice, step int) bool {
	return p[v][step%Steps]
}

// String renders the pattern as a text grid, one row per voice.
func (p *Pattern) String() string {
	var sb strings.Builder
	for v := Voice(0); v < NumVoices; v++ {
		fmt.Fprintf(&sb, "%-7s ", v)
		for i := 0; i < Steps; i++ {
			switch {
			case p[v][i]:
				sb.WriteByte('x')
			case i%4 == 0:
				sb.WriteByte('|')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
