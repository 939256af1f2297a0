package engine

// board indexes the pieces standing on each shared path cell so capture
// resolution does not scan every piece in the game.
type board struct {
	cells map[int][]*Piece
}

func newBoard() *board {
	return &board{cells: make(map[int][]*Piece)}
}

// rebuild discards the index and re-adds every piece currently on the path.
func (b *board) rebuild(players []*Player) {
	b.cells = make(map[int][]*Piece)
	for _, pl := range players {
		for _, p := range pl.Pieces {
			b.place(p)
		}
	}
}

// place indexes p at its current position if that position is a path cell.
func (b *board) place(p *Piece) {
	if p.InHome || !IsPathCell(p.Position) {
		return
	}
	b.cells[p.Position] = append(b.cells[p.Position], p)
}

// remove drops p from the cell it was indexed at.
func (b *board) remove(p *Piece, position int) {
	occupants := b.cells[position]
	for i, o := range occupants {
		if o == p {
			occupants = append(occupants[:i], occupants[i+1:]...)
			break
		}
	}
	if len(occupants) == 0 {
		delete(b.cells, position)
		return
	}
	b.cells[position] = occupants
}

// occupants returns a copy of the pieces on a cell.
func (b *board) occupants(position int) []*Piece {
	src := b.cells[position]
	out := make([]*Piece, len(src))
	copy(out, src)
	return out
}
