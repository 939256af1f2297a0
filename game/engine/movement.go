package engine

// State derives the lifecycle state of the piece from its position.
func (p *Piece) State() PieceState {
	switch {
	case p.Position == StartArea:
		return InStart
	case p.InHome:
		return Home
	case p.Position >= PathLength:
		return InHomeLane
	default:
		return OnPath
	}
}

// IsInStart reports whether the piece is still in the start area.
func (p *Piece) IsInStart() bool {
	return p.Position == StartArea
}

// CanMove reports whether the piece may advance by dice. It never mutates the piece.
func (p *Piece) CanMove(dice int) bool {
	if dice < DiceMin || dice > DiceMax {
		return false
	}
	geo, ok := GeometryFor(p.Owner)
	if !ok {
		return false
	}

	switch p.State() {
	case InStart:
		return dice == RollToEnter
	case Home:
		return false
	case OnPath:
		_, _, ok := p.advance(geo, dice)
		return ok
	case InHomeLane:
		return p.Position+dice <= geo.HomeEnd
	}
	return false
}

// advance computes where a piece on the path lands after dice steps.
// Progress is measured in steps so that home entry is a plain threshold
// independent of the wraparound at cell 39.
func (p *Piece) advance(geo Geometry, dice int) (position, steps int, ok bool) {
	steps = p.StepsTaken + dice
	if steps >= PathLength {
		intoHome := steps - PathLength
		if intoHome > HomeLaneLength-1 {
			return 0, 0, false
		}
		return geo.HomeStart + intoHome, steps, true
	}
	return (geo.StartCell + steps) % PathLength, steps, true
}

// Move advances the piece by dice. It returns false and leaves the piece
// untouched when the move is illegal. Captures are resolved by the Game.
func (p *Piece) Move(dice int) bool {
	if !p.CanMove(dice) {
		return false
	}
	geo, _ := GeometryFor(p.Owner)

	switch p.State() {
	case InStart:
		p.Position = geo.StartCell
		p.StepsTaken = 0
	case OnPath:
		position, steps, _ := p.advance(geo, dice)
		p.Position = position
		p.StepsTaken = steps
		p.InHome = geo.InHomeRange(position)
	case InHomeLane:
		p.Position += dice
		p.StepsTaken += dice
		p.InHome = true
	}
	return true
}

// SendToStart returns a captured piece to the start area.
// The step counter is cleared as well so a re-entering piece starts from zero.
func (p *Piece) SendToStart() {
	p.Position = StartArea
	p.StepsTaken = 0
	p.InHome = false
}

// HasWon reports whether all of the player's pieces are home.
func (pl *Player) HasWon() bool {
	if len(pl.Pieces) != PiecesPerPlayer {
		return false
	}
	for _, p := range pl.Pieces {
		if !p.InHome {
			return false
		}
	}
	return true
}

// PiecesHome counts the player's pieces that reached home.
func (pl *Player) PiecesHome() int {
	n := 0
	for _, p := range pl.Pieces {
		if p.InHome {
			n++
		}
	}
	return n
}
