package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyen-dev/streamfund-backend/internal/domain/model"
)

func TestStore_CommitAppliesRollbackUndoes(t *testing.T) {
	s := New()
	defer s.Close()
	repos := s.Repos()
	ctx := context.Background()

	chain, err := repos.Chain.Create(ctx, &model.Chain{ChainID: 84532, Name: "Base Sepolia"})
	require.NoError(t, err)
	viewer, err := repos.User.Ensure(ctx, "0xViewer")
	require.NoError(t, err)

	tx, err := s.BeginTx(ctx, nil)
	require.NoError(t, err)
	fc, err := repos.FeeCollector.CreateTx(ctx, tx, chain.ID, "0xCollector")
	require.NoError(t, err)
	require.NoError(t, repos.FeeCollector.IncrementTotalTx(ctx, tx, fc.ID, decimal.NewFromInt(5)))
	require.NoError(t, repos.User.IncrementGivenTx(ctx, tx, viewer.ID, decimal.NewFromInt(100)))
	require.NoError(t, tx.Rollback())

	assert.Empty(t, s.FeeCollectors(chain.ID))
	assert.True(t, s.UserByAddress("0xViewer").UsdTotalGiven.IsZero())

	tx, err = s.BeginTx(ctx, nil)
	require.NoError(t, err)
	fc, err = repos.FeeCollector.CreateTx(ctx, tx, chain.ID, "0xCollector")
	require.NoError(t, err)
	require.NoError(t, repos.FeeCollector.IncrementTotalTx(ctx, tx, fc.ID, decimal.NewFromInt(5)))
	require.NoError(t, tx.Commit())

	active, err := repos.FeeCollector.FindActive(ctx, chain.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.True(t, active.UsdTotal.Equal(decimal.NewFromInt(5)))
}

func TestStore_TxMethodsRejectForeignTx(t *testing.T) {
	s := New()
	repos := s.Repos()
	ctx := context.Background()
	viewer, err := repos.User.Ensure(ctx, "0xViewer")
	require.NoError(t, err)

	tx, err := s.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	err = repos.User.IncrementGivenTx(ctx, tx, viewer.ID, decimal.NewFromInt(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not open")
}

func TestStore_BeginTxSerialisesWriters(t *testing.T) {
	s := New()
	ctx := context.Background()

	tx, err := s.BeginTx(ctx, nil)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = s.BeginTx(waitCtx, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, tx.Commit())
	tx2, err := s.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, tx2.Rollback())
}

func TestStore_SupportInsertIsUnique(t *testing.T) {
	s := New()
	repos := s.Repos()
	ctx := context.Background()

	sup := &model.Support{SourceChainID: 1, TxHash: "0xabc", LogIndex: 0, UsdAmount: decimal.NewFromInt(1)}
	tx, err := s.BeginTx(ctx, nil)
	require.NoError(t, err)
	inserted, err := repos.Support.InsertTx(ctx, tx, sup)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotEqual(t, [16]byte{}, [16]byte(sup.ID))

	again := &model.Support{SourceChainID: 1, TxHash: "0xabc", LogIndex: 0}
	inserted, err = repos.Support.InsertTx(ctx, tx, again)
	require.NoError(t, err)
	assert.False(t, inserted)

	other := &model.Support{SourceChainID: 1, TxHash: "0xabc", LogIndex: 1}
	inserted, err = repos.Support.InsertTx(ctx, tx, other)
	require.NoError(t, err)
	assert.True(t, inserted)
	require.NoError(t, tx.Commit())

	assert.Len(t, s.Supports(), 2)
	got, err := repos.Support.FindByEventKey(ctx, 1, "0xabc", 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, other.ID, got.ID)
}

func TestStore_FeeCollectorExclusivity(t *testing.T) {
	s := New()
	repos := s.Repos()
	ctx := context.Background()
	chain, err := repos.Chain.Create(ctx, &model.Chain{ChainID: 1})
	require.NoError(t, err)

	tx, _ := s.BeginTx(ctx, nil)
	a, err := repos.FeeCollector.CreateTx(ctx, tx, chain.ID, "0xA")
	require.NoError(t, err)
	_, err = repos.FeeCollector.CreateTx(ctx, tx, chain.ID, "0xB")
	require.Error(t, err, "second active collector is rejected")
	require.NoError(t, repos.FeeCollector.SoftDeleteTx(ctx, tx, a.ID))
	b, err := repos.FeeCollector.CreateTx(ctx, tx, chain.ID, "0xB")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	tx, _ = s.BeginTx(ctx, nil)
	require.Error(t, repos.FeeCollector.RestoreTx(ctx, tx, a.ID))
	n, err := repos.FeeCollector.SoftDeleteActiveExceptTx(ctx, tx, chain.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, repos.FeeCollector.RestoreTx(ctx, tx, a.ID))
	require.NoError(t, tx.Commit())

	active, err := repos.FeeCollector.FindActive(ctx, chain.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, active.ID)
	got, err := repos.FeeCollector.FindByAddress(ctx, chain.ID, "0xB")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.False(t, got.IsActive())
}

func TestStore_EnsureIsRaceFree(t *testing.T) {
	s := New()
	repos := s.Repos()
	ctx := context.Background()
	streamer, _ := repos.User.Ensure(ctx, "0xS")
	viewer, _ := repos.User.Ensure(ctx, "0xV")

	var wg sync.WaitGroup
	ids := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ts, err := repos.TopSupporter.Ensure(ctx, streamer.ID, viewer.ID)
			if assert.NoError(t, err) {
				ids <- ts.ID.String()
			}
		}()
	}
	wg.Wait()
	close(ids)
	seen := map[string]bool{}
	for id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, 1)

	assert.Nil(t, s.TopSupport(model.LeaderboardTopSupport, streamer.ID, viewer.ID))
	assert.NotNil(t, s.TopSupport(model.LeaderboardTopSupporter, streamer.ID, viewer.ID))
}

func TestStore_TokenLifecycle(t *testing.T) {
	s := New()
	repos := s.Repos()
	ctx := context.Background()
	chain, _ := repos.Chain.Create(ctx, &model.Chain{ChainID: 1})

	_, err := repos.Token.Create(ctx, &model.Token{Address: "0xT"})
	require.Error(t, err, "unknown chain")

	tok, err := repos.Token.Create(ctx, &model.Token{ChainRef: chain.ID, Address: "0xT", Symbol: "A", Decimals: 6})
	require.NoError(t, err)
	require.NoError(t, repos.Token.SoftDelete(ctx, tok.ID))

	tok.Symbol = "B"
	require.NoError(t, repos.Token.Refresh(ctx, tok))
	tokens := s.Tokens(chain.ID)
	require.Len(t, tokens, 1)
	assert.Equal(t, "B", tokens[0].Symbol)
	assert.True(t, tokens[0].IsActive())
	assert.Equal(t, tok.CreatedAt, tokens[0].CreatedAt)
}
