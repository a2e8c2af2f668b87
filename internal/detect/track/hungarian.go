package track

import "math"

// forbiddenCost stands in for +Inf in the cost matrix: pairs gated out
// by max_distance get this cost so the solver never selects them ahead
// of a genuinely cheaper pairing.
const forbiddenCost = 1e18

// kuhnMunkres holds the working state of one potential-based assignment
// solve: row/column potentials, the column-to-row assignment built up
// so far, and the per-column scratch used while searching for the next
// augmenting path. Everything is 1-indexed so column/row 0 can serve
// as the "nothing assigned yet" sentinel without a separate bool.
type kuhnMunkres struct {
	dim      int
	cost     [][]float64
	rowPot   []float64
	colPot   []float64
	colOwner []int // colOwner[j]: row currently assigned to column j
	cameFrom []int // cameFrom[j]: column visited just before j on the search tree
	reduced  []float64
	visited  []bool
}

func newKuhnMunkres(cost [][]float64, dim int) *kuhnMunkres {
	return &kuhnMunkres{
		dim:      dim,
		cost:     cost,
		rowPot:   make([]float64, dim+1),
		colPot:   make([]float64, dim+1),
		colOwner: make([]int, dim+1),
		cameFrom: make([]int, dim+1),
		reduced:  make([]float64, dim+1),
		visited:  make([]bool, dim+1),
	}
}

const kmInf = math.MaxFloat64 / 2

// augment grows the assignment by one row: it searches for a shortest
// augmenting path from row rowID through the bipartite graph of
// potential-reduced costs, updating potentials each time the search
// stalls, then flips every edge along the discovered path.
func (s *kuhnMunkres) augment(rowID int) {
	s.colOwner[0] = rowID
	frontier := 0

	for j := 1; j <= s.dim; j++ {
		s.reduced[j] = kmInf
		s.visited[j] = false
	}

	for {
		s.visited[frontier] = true
		row := s.colOwner[frontier]

		nextCol, nextCost := -1, kmInf
		for j := 1; j <= s.dim; j++ {
			if s.visited[j] {
				continue
			}
			edge := s.cost[row-1][j-1] - s.rowPot[row] - s.colPot[j]
			if edge < s.reduced[j] {
				s.reduced[j] = edge
				s.cameFrom[j] = frontier
			}
			if s.reduced[j] < nextCost {
				nextCost, nextCol = s.reduced[j], j
			}
		}
		if nextCol < 0 {
			break // every column already on the search tree; nothing left to relax
		}

		for j := 0; j <= s.dim; j++ {
			if s.visited[j] {
				s.rowPot[s.colOwner[j]] += nextCost
				s.colPot[j] -= nextCost
			} else {
				s.reduced[j] -= nextCost
			}
		}

		frontier = nextCol
		if s.colOwner[frontier] == 0 {
			break
		}
	}

	for frontier != 0 {
		prev := s.cameFrom[frontier]
		s.colOwner[frontier] = s.colOwner[prev]
		frontier = prev
	}
}

// rowToColumn reads off the solved row->column assignment from
// colOwner, -1 for a row the solve never reached.
func (s *kuhnMunkres) rowToColumn() []int {
	owner := make([]int, s.dim)
	for i := range owner {
		owner[i] = -1
	}
	for j := 1; j <= s.dim; j++ {
		if row := s.colOwner[j]; row > 0 && row <= s.dim {
			owner[row-1] = j - 1
		}
	}
	return owner
}

// squarePad embeds an n x m cost matrix into a dim x dim one (dim =
// max(n, m)), filling the padding with forbiddenCost so the solver
// never prefers a padded cell over a real one.
func squarePad(cost [][]float64, n, m, dim int) [][]float64 {
	padded := make([][]float64, dim)
	for i := 0; i < dim; i++ {
		padded[i] = make([]float64, dim)
		for j := 0; j < dim; j++ {
			if i < n && j < m {
				padded[i][j] = cost[i][j]
			} else {
				padded[i][j] = forbiddenCost
			}
		}
	}
	return padded
}

// solveAssignment solves the rectangular minimum-cost assignment
// problem for an n (rows, clusters) x m (columns, tracks) cost matrix
// via Kuhn-Munkres with potentials (the Jonker-Volgenant variant).
// Returns rowToCol[i] = column assigned to row i, or -1 if row i is
// left unassigned: either it lands on a padding column (n > m) or its
// assigned cell carries forbiddenCost.
func solveAssignment(cost [][]float64) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}
	m := len(cost[0])
	if m == 0 {
		unassigned := make([]int, n)
		for i := range unassigned {
			unassigned[i] = -1
		}
		return unassigned
	}

	dim := n
	if m > dim {
		dim = m
	}
	padded := squarePad(cost, n, m, dim)

	solver := newKuhnMunkres(padded, dim)
	for row := 1; row <= dim; row++ {
		solver.augment(row)
	}
	rowToCol := solver.rowToColumn()

	result := make([]int, n)
	for i := 0; i < n; i++ {
		c := rowToCol[i]
		if c < 0 || c >= m || padded[i][c] >= forbiddenCost {
			result[i] = -1
			continue
		}
		result[i] = c
	}
	return result
}
