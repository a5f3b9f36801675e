package parse

// DefaultMaxDepth bounds the nesting of parsed documents.
const DefaultMaxDepth = 10000

type parseOpts struct {
	maxDepth int
}

type ParseOption func(*parseOpts)

// MaxDepth sets the maximum nesting depth accepted by Parse.
func MaxDepth(n int) ParseOption {
	return func(o *parseOpts) { o.maxDepth = n }
}
