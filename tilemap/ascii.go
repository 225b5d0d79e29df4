package tilemap

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ASCII maps use one character per tile: '#' is blocked, '.' or ' ' is
// open water. The first line is row y = 0.
const (
	BlockedChar = '#'
	OpenChar    = '.'
)

// ParseASCII reads an ASCII map. Blank lines and the whitespace around
// each line are skipped; every row must have the same length.
func ParseASCII(r io.Reader) (*Grid, error) {
	var rows []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, strings.TrimSpace(line))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty map: %w", ErrBadSize)
	}

	g, err := New(len(rows[0]), len(rows))
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		if len(row) != len(rows[0]) {
			return nil, fmt.Errorf("tilemap: row %d has %d tiles, want %d", y, len(row), len(rows[0]))
		}
		for x := 0; x < len(row); x++ {
			switch row[x] {
			case BlockedChar:
				g.SetBlocked(x, y, true)
			case OpenChar, ' ':
			default:
				return nil, fmt.Errorf("tilemap: unknown tile %q at (%d,%d)", row[x], x, y)
			}
		}
	}
	return g, nil
}

// ParseString is ParseASCII over a string.
func ParseString(s string) (*Grid, error) {
	return ParseASCII(strings.NewReader(s))
}

// MustParse is ParseString for literals known to be valid.
func MustParse(s string) *Grid {
	g, err := ParseString(s)
	if err != nil {
		panic(err)
	}
	return g
}

// Render draws the grid; mark may override the character of any tile by
// returning a non-zero byte.
func (g *Grid) Render(mark func(x, y int) byte) string {
	var sb strings.Builder
	sb.Grow((g.Width() + 1) * g.Height())
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			c := byte(OpenChar)
			if g.Blocked(x, y) {
				c = BlockedChar
			}
			if mark != nil {
				if m := mark(x, y); m != 0 {
					c = m
				}
			}
			sb.WriteByte(c)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (g *Grid) String() string {
	return g.Render(nil)
}
