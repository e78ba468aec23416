package postgres

// Store bundles the PostgreSQL repositories behind repository.Store
type Store struct {
	*productRepository
	*salesRepository
	*forecastRepository
	*suggestionRepository
}

func NewStore(db *DB) *Store {
	return &Store{
		productRepository:    NewProductRepository(db),
		salesRepository:      NewSalesRepository(db),
		forecastRepository:   NewForecastRepository(db),
		suggestionRepository: NewSuggestionRepository(db),
	}
}
