package model

// Ordered pairs (home, away) with home != away are packed into n*(n-1) positions:
// pair = home*(n-1) + away', where away' skips the diagonal
type indexerImplementation struct {
	teams   int
	periods int
	weeks   int
}

func (indexer *indexerImplementation) pairs() int {
	return indexer.teams * (indexer.teams - 1)
}

func (indexer *indexerImplementation) Index(home, away, period, week int) Var {
	shifted := away
	if away > home {
		shifted--
	}
	pair := home*(indexer.teams-1) + shifted
	return Var(pair + indexer.pairs()*period + indexer.pairs()*indexer.periods*week + 1)
}

func (indexer *indexerImplementation) Attributes(index Var) (home, away, period, week int) {
	value := int(index) - 1
	pair := value % indexer.pairs()
	value = value / indexer.pairs()

	period = value % indexer.periods
	value = value / indexer.periods

	week = value % indexer.weeks

	home = pair / (indexer.teams - 1)
	away = pair % (indexer.teams - 1)
	if away >= home {
		away++
	}
	return home, away, period, week
}

func (indexer *indexerImplementation) Size() int {
	return indexer.pairs() * indexer.periods * indexer.weeks
}
