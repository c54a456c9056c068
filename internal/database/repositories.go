package database

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups the stores sharing one pool
type Repositories struct {
	Companies *CompanyRepository
	Entities  *EntityRepository
	Accounts  *AccountRepository
	Journal   *JournalRepository
}

func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Companies: NewCompanyRepository(pool),
		Entities:  NewEntityRepository(pool),
		Accounts:  NewAccountRepository(pool),
		Journal:   NewJournalRepository(pool),
	}
}
