package compiler

// Value is the evaluator's runtime cell type: whatever Go value a
// column's typed Get accessor (or a literal/constant) produces. It is
// an alias for funcreg.Value so expression evaluation and function
// binding share one representation without this package importing
// funcreg's type under a different name everywhere.
type Value = any
