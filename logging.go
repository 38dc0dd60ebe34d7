package gobang

const (
	// Service is the name of this service.
	Service = "gobang"

	// DefaultBoardSize is the standard gobang board edge.
	DefaultBoardSize = 15

	// WinLength is the number of stones in a row that wins.
	WinLength = 5
)
