package board

import "github.com/bloops-games/biasbingo/internal/database/gamestate/model"

const (
	Side  = 5
	Cells = model.GridSize
)

type Kind uint8

const (
	KindRow Kind = iota + 1
	KindColumn
	KindDiagonal
)

func (k Kind) String() string {
	switch k {
	case KindRow:
		return "row"
	case KindColumn:
		return "column"
	case KindDiagonal:
		return "diagonal"
	default:
		return "unknown"
	}
}

type Line struct {
	Index int
	Kind  Kind
	Cells [Side]int
	mask  Set
}

// Lines are the 12 winning lines: rows, then columns, then the two diagonals.
var Lines = buildLines()

func buildLines() [2*Side + 2]Line {
	var lines [2*Side + 2]Line
	n := 0
	add := func(kind Kind, cells [Side]int) {
		var mask Set
		for _, c := range cells {
			mask = mask.Add(c)
		}
		lines[n] = Line{Index: n, Kind: kind, Cells: cells, mask: mask}
		n++
	}

	for r := 0; r < Side; r++ {
		var cells [Side]int
		for c := 0; c < Side; c++ {
			cells[c] = r*Side + c
		}
		add(KindRow, cells)
	}

	for c := 0; c < Side; c++ {
		var cells [Side]int
		for r := 0; r < Side; r++ {
			cells[r] = r*Side + c
		}
		add(KindColumn, cells)
	}

	var main, anti [Side]int
	for i := 0; i < Side; i++ {
		main[i] = i*Side + i
		anti[i] = i*Side + (Side - 1 - i)
	}
	add(KindDiagonal, main)
	add(KindDiagonal, anti)

	return lines
}

// Set is a bitset over cell ids, ids outside the grid are ignored.
type Set uint32

func NewSet(ids ...int) Set {
	var s Set
	for _, id := range ids {
		s = s.Add(id)
	}
	return s
}

func FromEvidence(found map[int]model.Evidence) Set {
	var s Set
	for id := range found {
		s = s.Add(id)
	}
	return s
}

func (s Set) Add(id int) Set {
	if id < 0 || id >= Cells {
		return s
	}
	return s | 1<<uint(id)
}

func (s Set) Has(id int) bool {
	if id < 0 || id >= Cells {
		return false
	}
	return s&(1<<uint(id)) != 0
}

func (s Set) Len() int {
	n := 0
	for v := s; v != 0; v &= v - 1 {
		n++
	}
	return n
}

func (s Set) covers(l Line) bool {
	return s&l.mask == l.mask
}

// Check returns the first line fully covered by found.
func Check(found Set) (Line, bool) {
	for _, l := range Lines {
		if found.covers(l) {
			return l, true
		}
	}
	return Line{}, false
}

// Completed returns every line fully covered by found.
func Completed(found Set) []Line {
	var lines []Line
	for _, l := range Lines {
		if found.covers(l) {
			lines = append(lines, l)
		}
	}
	return lines
}
