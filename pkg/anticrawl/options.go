package anticrawl

// Option configures a Provider at construction time.
type Option func(*Provider)

// WithRand sets the random source behind every selection decision. Pass a
// seeded source for reproducible draws; tests rely on this to replay
// identical identity sequences.
func WithRand(src Source) Option {
	return func(p *Provider) {
		if src != nil {
			p.rnd = src
		}
	}
}

// WithProxyCursor shares a rotation cursor between providers, or pins its
// starting position. The default is a fresh cursor per provider, so
// independent providers never interfere with each other's round robin.
func WithProxyCursor(c *Cursor) Option {
	return func(p *Provider) {
		if c != nil {
			p.cursor = c
		}
	}
}
