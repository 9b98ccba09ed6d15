package model

// indexer interface is design to give a unique index to a match indicator's attributes and vice versa
type indexer interface {
	// Returns a unique index (1-based) to the combination (home, away, period, week), home != away
	Index(home, away, period, week int) Var
	// Returns the combination of match indicator's attributes from a unique index
	Attributes(index Var) (home, away, period, week int)
	// Number of indices produced
	Size() int
}

func newIndexer(teams, periods, weeks int) indexer {
	return &indexerImplementation{
		teams:   teams,
		periods: periods,
		weeks:   weeks,
	}
}
