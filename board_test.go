package gobang

import (
	"testing"
)

func TestNewBoard(t *testing.T) {
	tests := []struct {
		size int
		ok   bool
	}{
		{4, false},
		{5, true},
		{15, true},
		{19, true},
		{20, false},
	}

	for _, tc := range tests {
		b, err := NewBoard(tc.size)
		if tc.ok && err != nil {
			t.Errorf("NewBoard(%d): %+v", tc.size, err)
			continue
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("NewBoard(%d) should fail", tc.size)
			}
			continue
		}

		if b.Size != tc.size || len(b.Cells) != tc.size {
			t.Errorf("NewBoard(%d) has size %d with %d rows", tc.size, b.Size, len(b.Cells))
		}
		if b.Stones() != 0 {
			t.Errorf("new board has %d stones", b.Stones())
		}
	}
}

func TestBoardPlace(t *testing.T) {
	b, err := NewBoard(DefaultBoardSize)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	if err := b.Place(7, 7, PlayerBlack); err != nil {
		t.Fatalf("place center: %+v", err)
	}
	if b.At(7, 7) != PlayerBlack {
		t.Errorf("center is %d", b.At(7, 7))
	}

	if err := b.Place(7, 7, PlayerWhite); err == nil {
		t.Error("placing on an occupied cell should fail")
	}

	for _, pos := range [][2]int{{-1, 0}, {0, -1}, {15, 0}, {0, 15}} {
		if err := b.Place(pos[0], pos[1], PlayerWhite); err == nil {
			t.Errorf("placing at %v should fail", pos)
		}
	}

	if b.Stones() != 1 {
		t.Errorf("expected 1 stone, got %d", b.Stones())
	}
}

func TestBoardClone(t *testing.T) {
	b, err := NewBoard(9)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if err := b.Place(0, 0, PlayerBlack); err != nil {
		t.Fatalf("%+v", err)
	}

	c := b.Clone()
	if err := c.Place(1, 1, PlayerWhite); err != nil {
		t.Fatalf("%+v", err)
	}

	if b.At(1, 1) != Empty {
		t.Error("clone shares cells with the original")
	}
	if c.At(0, 0) != PlayerBlack {
		t.Error("clone lost the original stones")
	}
}

func TestBoardFull(t *testing.T) {
	b, err := NewBoard(MinBoardSize)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	p := PlayerBlack
	for x := 0; x < b.Size; x++ {
		for y := 0; y < b.Size; y++ {
			if b.Full() {
				t.Fatalf("board full after %d stones", b.Stones())
			}
			if err := b.Place(x, y, p); err != nil {
				t.Fatalf("%+v", err)
			}
			p = Other(p)
		}
	}

	if !b.Full() {
		t.Error("board should be full")
	}
}

func TestBoardFiveFrom(t *testing.T) {
	tests := []struct {
		name  string
		cells [][2]int
		at    [2]int
		want  bool
	}{
		{"row", [][2]int{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}}, [2]int{2, 0}, true},
		{"column", [][2]int{{7, 3}, {7, 4}, {7, 5}, {7, 6}, {7, 7}}, [2]int{7, 7}, true},
		{"diagonal", [][2]int{{1, 1}, {2, 2}, {3, 3}, {4, 4}, {5, 5}}, [2]int{1, 1}, true},
		{"anti-diagonal", [][2]int{{4, 0}, {3, 1}, {2, 2}, {1, 3}, {0, 4}}, [2]int{2, 2}, true},
		{"overline", [][2]int{{0, 9}, {1, 9}, {2, 9}, {3, 9}, {4, 9}, {5, 9}}, [2]int{5, 9}, true},
		{"four", [][2]int{{0, 0}, {1, 0}, {2, 0}, {3, 0}}, [2]int{3, 0}, false},
		{"broken", [][2]int{{0, 0}, {1, 0}, {2, 0}, {4, 0}, {5, 0}}, [2]int{2, 0}, false},
		{"empty cell", nil, [2]int{7, 7}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, err := NewBoard(DefaultBoardSize)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			for _, c := range tc.cells {
				if err := b.Place(c[0], c[1], PlayerBlack); err != nil {
					t.Fatalf("%+v", err)
				}
			}
			if got := b.FiveFrom(tc.at[0], tc.at[1]); got != tc.want {
				t.Errorf("FiveFrom%v = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}
