package tagstream

// Grouper yields the blocks of successive unit tags from a Parser. Blocks
// outside any unit are discarded. A unit tag nested inside another unit of
// the same name is kept inside the outer unit.
type Grouper struct {
	p   *Parser
	tag string
}

// NewGrouper groups the blocks of p by tag.
func NewGrouper(p *Parser, tag string) *Grouper {
	return &Grouper{p: p, tag: tag}
}

// Walk streams the blocks of the next unit to visit without retaining them.
// It returns io.EOF when the stream holds no further unit. An error returned
// by visit stops the walk and is returned unchanged.
func (g *Grouper) Walk(visit func(Block) error) error {
	depth := 0
	for {
		b, err := g.p.Next()
		if err != nil {
			return err
		}
		if depth == 0 && (b.Name != g.tag || b.Close) {
			continue
		}
		if err := visit(b); err != nil {
			return err
		}
		if b.Name != g.tag {
			continue
		}
		if !b.Close {
			depth++
			continue
		}
		depth--
		if depth == 0 {
			return nil
		}
	}
}

// Next returns the next complete unit, or io.EOF.
func (g *Grouper) Next() (Unit, error) {
	var u Unit
	err := g.Walk(func(b Block) error {
		u = append(u, b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}
