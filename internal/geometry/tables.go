package geometry

// Direction codes used in the station path tables.
const (
	X byte = iota // end of run / end of table
	U
	R
	D
	L

	// Sub-steps that don't align to the grid
	DL
	DL23
	DR23
)

// RunLength is the longest LED run on a single strand output.
const RunLength = 76

const rl = RunLength

// Tables holds the path tables for each station, indexed by station id.
// Each run is (first LED index, start x, start y) followed by direction codes and X.
// A trailing X closes the table.
var Tables = [][]byte{
	// T
	{
		// Heading left
		rl * 0, 5, 18, L, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, L, L, X,

		// Heading right
		rl * 1, 6, 18, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, R, R, R, R, U, U, L, L, L, L, L, L, L, L, L, L, D, D, R, X,

		X,
	},

	// O
	{
		// Inside
		rl * 0, 8, 16, L, L, L, L, L, L, U, U, U, U, U, U, U, U, U, U, U, U, U, U, R, R, R, R, R, R, D, D, D, D, D, D, D, D, D, D, D, D, D, X,

		// Outside, going left
		rl * 1, 10, 18, L, L, L, L, L, L, L, L, L, L, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, R, R, R, R, R, R, R, R, R, R, D, X,

		// Outside, going up
		rl * 2, 10, 17, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, X,

		X,
	},

	// O, mirrored wiring
	{
		// Outside, going left
		rl * 0, 9, 18, L, L, L, L, L, L, L, L, L, U, U, U, U, U, U, U, U, U, U, X,

		// Inside
		rl * 1, 8, 16, L, L, L, L, L, L, U, U, U, U, U, U, U, U, U, U, U, U, U, U, R, R, R, R, R, R, D, D, D, D, D, D, D, D, D, D, D, D, D, X,

		// Outside, going up
		rl * 2, 10, 18, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, L, L, L, L, L, L, L, L, L, L, D, D, D, D, D, D, D, X,

		X,
	},

	// R
	{
		// Going up
		rl * 1, 10, 18, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, L, L, L, L, L, L, L, L, DL, DL, D, D, D, D, DR23, DR23, X,

		// Around the hole
		rl*1 + 35, 2, 7, U, U, U, U, U, R, R, R, R, R, R, D, D, D, D, D, D, L, L, L, L, L, D, X,

		// Going left
		rl * 2, 9, 18, L, U, U, U, U, U, U, U, U, L, L, L, L, L, DL23, DL23, DL23, D, D, D, D, D, D, D, R, R, U, U, U, U, U, U, U, X,

		X,
	},

	// C
	{
		// Bottom, going left
		rl * 0, 10, 18, L, L, L, L, L, L, L, L, L, L, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, R, R, R, R, R, R, R, R, R, R, D, X,

		// Going up
		rl * 1, 10, 17, U, L, L, L, L, L, L, L, L, U, U, U, U, U, U, U, U, U, U, U, U, U, U, R, R, R, R, R, R, R, R, X,

		X,
	},

	// A
	{
		// Going right
		rl * 0, 9, 18, R, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, X,

		// Jumps to the center
		rl*0 + 20, 8, 2, L, L, L, L, L, L, D, D, D, D, D, D, R, R, R, R, R, R, U, U, U, U, U, X,

		// Going up
		rl * 2, 8, 18, U, U, U, U, U, U, U, U, L, L, L, L, L, L, D, D, D, D, D, D, D, D, L, L, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, R, R, R, R, R, R, R, R, R, X,

		X,
	},

	// M
	{
		// Going left
		rl * 0, 8, 18, L, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, L, L, L, L, L, L, D, D, D, D, D, D, D, D, D, D, D, D, D, D, D, D, L, L, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, R, R, R, R, R, R, R, R, R, R, R, R, R, R, R, R, X,

		// Going up
		rl * 2, 9, 18, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, R, R, R, R, R, R, D, D, D, D, D, D, D, D, D, D, D, D, D, D, D, D, R, R, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, L, X,

		X,
	},

	// P
	{
		// Going left
		rl * 2, 1, 18, L, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, U, R, R, R, R, R, R, R, R, R, R, D, D, D, D, D, D, X,

		// Going up
		rl * 1, 2, 18, U, U, U, U, U, U, U, U, R, R, R, R, R, R, R, R, U, U, U, X,

		// Jumps to the middle
		rl*1 + 20, 8, 7, D, L, L, L, L, L, L, U, U, U, U, U, U, R, R, R, R, R, R, D, D, D, D, X,

		X,
	},
}
