package searcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/haru-search/pkg/types"
)

func TestSearchWithinChat(t *testing.T) {
	f := newFixture(t)
	owner, stranger := f.user("owner"), f.user("stranger")
	kai := f.companion("Kai", true, stranger)
	chat := f.chat(owner, kai, "")
	human := f.message(chat, owner.ID, "what about the comet")
	ai := f.message(chat, kai.ID, "the comet returns every 76 years")

	s := f.searcher(f.store)
	ctx := context.Background()

	t.Run("owner sees matches", func(t *testing.T) {
		results, err := s.SearchWithinChat(ctx, chat.ID, "comet", owner.ID)
		require.NoError(t, err)
		require.Len(t, results, 2)

		ids := []string{results[0].ID, results[1].ID}
		assert.ElementsMatch(t, []string{human.ID, ai.ID}, ids)
		for _, r := range results {
			if r.ID == human.ID {
				require.NotNil(t, r.Sender.Username)
				assert.Equal(t, "owner", *r.Sender.Username)
			} else {
				assert.Equal(t, kai.ID, r.Sender.ID)
				assert.Nil(t, r.Sender.Username)
			}
		}
	})

	t.Run("owner without matches gets empty list", func(t *testing.T) {
		results, err := s.SearchWithinChat(ctx, chat.ID, "asteroid", owner.ID)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("other caller is denied", func(t *testing.T) {
		_, err := s.SearchWithinChat(ctx, chat.ID, "comet", stranger.ID)
		assert.ErrorIs(t, err, types.ErrAccessDenied)
	})

	t.Run("anonymous caller is denied", func(t *testing.T) {
		_, err := s.SearchWithinChat(ctx, chat.ID, "comet", "")
		assert.ErrorIs(t, err, types.ErrAccessDenied)
	})

	t.Run("missing chat is denied", func(t *testing.T) {
		_, err := s.SearchWithinChat(ctx, "no-such-chat", "comet", owner.ID)
		assert.ErrorIs(t, err, types.ErrAccessDenied)
	})

	t.Run("empty query short-circuits", func(t *testing.T) {
		results, err := s.SearchWithinChat(ctx, "no-such-chat", "!!", stranger.ID)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestSearchWithinChat_StoreFailure(t *testing.T) {
	f := newFixture(t)
	owner, other := f.user("owner"), f.user("other")
	chat := f.chat(owner, f.companion("Kai", true, other), "")

	for _, entity := range []string{"chat", "chat_messages"} {
		t.Run(entity, func(t *testing.T) {
			faulty := newFaultyStore(f.store)
			faulty.fail[entity] = true

			_, err := f.searcher(faulty).SearchWithinChat(context.Background(), chat.ID, "hello", owner.ID)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrStoreFailure)
			assert.ErrorIs(t, err, errStoreDown)
			assert.False(t, errors.Is(err, types.ErrAccessDenied))
		})
	}
}
