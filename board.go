package gobang

import "fmt"

// Cell values on a board.
const (
	Empty       = 0
	PlayerBlack = 1
	PlayerWhite = 2
)

// MinBoardSize and MaxBoardSize bound the edge of a board.
const (
	MinBoardSize = WinLength
	MaxBoardSize = 19
)

// Board is a square gobang board. Cells are indexed [x][y].
type Board struct {
	Size  int     `json:"size"`
	Cells [][]int `json:"cells"`
}

// NewBoard returns an empty board of the given size.
func NewBoard(size int) (Board, error) {
	if size < MinBoardSize || size > MaxBoardSize {
		return Board{}, fmt.Errorf("board size %d out of range %d..%d", size, MinBoardSize, MaxBoardSize)
	}

	cells := make([][]int, size)
	for i := range cells {
		cells[i] = make([]int, size)
	}

	return Board{Size: size, Cells: cells}, nil
}

// Clone returns a deep copy so callers can mutate it freely.
func (b Board) Clone() Board {
	cells := make([][]int, len(b.Cells))
	for i, row := range b.Cells {
		cells[i] = append([]int(nil), row...)
	}
	return Board{Size: b.Size, Cells: cells}
}

// InBounds reports whether (x, y) is on the board.
func (b Board) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Size && y < b.Size && x < len(b.Cells) && y < len(b.Cells[x])
}

// At returns the cell value at (x, y).
func (b Board) At(x, y int) int {
	if !b.InBounds(x, y) {
		return Empty
	}
	return b.Cells[x][y]
}

// Place puts a stone for player at (x, y). The board is modified in place.
func (b Board) Place(x, y, player int) error {
	if !b.InBounds(x, y) {
		return fmt.Errorf("(%d, %d) is off the %dx%d board", x, y, b.Size, b.Size)
	}
	if b.Cells[x][y] != Empty {
		return fmt.Errorf("(%d, %d) is already occupied", x, y)
	}

	b.Cells[x][y] = player
	return nil
}

// Stones counts the non-empty cells.
func (b Board) Stones() int {
	n := 0
	for _, row := range b.Cells {
		for _, c := range row {
			if c != Empty {
				n++
			}
		}
	}
	return n
}

// Full reports whether no empty cell is left.
func (b Board) Full() bool {
	return b.Stones() == b.Size*b.Size
}

var directions = [][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

// FiveFrom reports whether the stone at (x, y) is part of an unbroken line of
// at least WinLength stones of its colour.
func (b Board) FiveFrom(x, y int) bool {
	player := b.At(x, y)
	if player == Empty {
		return false
	}

	for _, d := range directions {
		n := 1
		for i := 1; b.At(x+i*d[0], y+i*d[1]) == player; i++ {
			n++
		}
		for i := 1; b.At(x-i*d[0], y-i*d[1]) == player; i++ {
			n++
		}
		if n >= WinLength {
			return true
		}
	}
	return false
}
