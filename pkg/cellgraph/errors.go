package cellgraph

import "errors"

// errForeignCell is panicked when a CellId or cell pointer created by one
// Runtime is passed to another.
var errForeignCell = errors.New("cellgraph: cell belongs to a different runtime")

// errUnbalancedBatch is panicked when BatchResult's internal depth bookkeeping
// underflows, which can only happen from concurrent use of the same Runtime.
var errUnbalancedBatch = errors.New("cellgraph: unbalanced batch nesting")
