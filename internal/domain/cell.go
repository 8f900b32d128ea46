package domain

type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellSnakeHead
	CellSnakeTail
	CellFruit
)

func (k CellKind) String() string {
	switch k {
	case CellEmpty:
		return "empty"
	case CellSnakeHead:
		return "head"
	case CellSnakeTail:
		return "tail"
	case CellFruit:
		return "fruit"
	default:
		return "unknown"
	}
}

// Cell is one square of a projected grid. Direction is only set on head cells.
type Cell struct {
	Kind      CellKind
	Direction Direction
}

func HeadCell(d Direction) Cell { return Cell{Kind: CellSnakeHead, Direction: d} }

var (
	EmptyCell = Cell{Kind: CellEmpty}
	TailCell  = Cell{Kind: CellSnakeTail}
	FruitCell = Cell{Kind: CellFruit}
)
