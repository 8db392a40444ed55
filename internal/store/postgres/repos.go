package postgres

import (
	"github.com/oyen-dev/streamfund-backend/internal/domain/model"
	"github.com/oyen-dev/streamfund-backend/internal/store"
)

// NewRepos wires every ledger repository onto db.
func NewRepos(db *DB) *store.Repos {
	return &store.Repos{
		DB:           db,
		Chain:        NewChainRepo(db),
		Token:        NewTokenRepo(db),
		FeeCollector: NewFeeCollectorRepo(db),
		User:         NewUserRepo(db),
		TopSupport:   NewTopSupportRepo(db, model.LeaderboardTopSupport),
		TopSupporter: NewTopSupportRepo(db, model.LeaderboardTopSupporter),
		Support:      NewSupportRepo(db),
	}
}

var (
	_ store.ChainRepository        = (*ChainRepo)(nil)
	_ store.TokenRepository        = (*TokenRepo)(nil)
	_ store.FeeCollectorRepository = (*FeeCollectorRepo)(nil)
	_ store.UserRepository         = (*UserRepo)(nil)
	_ store.TopSupportRepository   = (*TopSupportRepo)(nil)
	_ store.SupportRepository      = (*SupportRepo)(nil)
)
