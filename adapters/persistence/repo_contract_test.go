package persistence

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/internal/domain/user"
	"github.com/khoahotran/folio/pkg/apperror"
)

// runRepoContract exercises behaviour every storage backend must share.
// Each call uses fresh slugs so suites can run it against one database.
func runRepoContract(t *testing.T, portfolios portfolio.Repository, users user.Repository) {
	ctx := context.Background()
	run := uuid.NewString()[:8]
	slug := func(name string) string { return fmt.Sprintf("%s-%s", name, run) }

	t.Run("create and find", func(t *testing.T) {
		p := portfolio.New(uuid.New(), slug("jane"), "Jane")
		p.Content.Projects = []portfolio.Project{{ID: "p1", Title: "Folio", Technologies: []string{"Go"}}}
		require.NoError(t, portfolios.Create(ctx, p))

		byUser, err := portfolios.FindByUserID(ctx, p.UserID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, byUser.ID)
		assert.Equal(t, "Folio", byUser.Content.Projects[0].Title)
		assert.Equal(t, portfolio.DefaultThemeConfig(), byUser.ThemeConfig)
		assert.Equal(t, portfolio.DefaultSectionVisibility(), byUser.SectionVisibility)

		bySlug, err := portfolios.FindBySlug(ctx, p.Slug)
		require.NoError(t, err)
		assert.Equal(t, p.UserID, bySlug.UserID)

		_, err = portfolios.GetPublic(ctx, p.Slug)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("unique slug and owner", func(t *testing.T) {
		first := portfolio.New(uuid.New(), slug("taken"), "First")
		require.NoError(t, portfolios.Create(ctx, first))

		err := portfolios.Create(ctx, portfolio.New(uuid.New(), first.Slug, "Second"))
		assert.ErrorIs(t, err, apperror.ErrSlugTaken)

		err = portfolios.Create(ctx, portfolio.New(first.UserID, slug("other"), "First again"))
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("concurrent create exactly one wins", func(t *testing.T) {
		contested := slug("race")
		var wins, taken int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := portfolios.Create(ctx, portfolio.New(uuid.New(), contested, "Racer"))
				if err == nil {
					atomic.AddInt32(&wins, 1)
				} else if assert.ErrorIs(t, err, apperror.ErrSlugTaken) {
					atomic.AddInt32(&taken, 1)
				}
			}()
		}
		wg.Wait()
		assert.EqualValues(t, 1, wins)
		assert.EqualValues(t, 7, taken)
	})

	t.Run("partial update keeps other sections", func(t *testing.T) {
		p := portfolio.New(uuid.New(), slug("partial"), "Partial")
		p.Content.Bio = "Original bio"
		require.NoError(t, portfolios.Create(ctx, p))

		updated, err := portfolios.Update(ctx, p.UserID, portfolio.Changes{
			Content: map[string]any{
				portfolio.FieldExperience: []portfolio.Experience{{ID: "e1", Title: "Engineer", Company: "Acme", StartDate: "2020-01"}},
			},
			HiddenItems: portfolio.HiddenItems{portfolio.SectionExperience: {"e1"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "Original bio", updated.Content.Bio)
		require.Len(t, updated.Content.Experience, 1)
		assert.Equal(t, []string{"e1"}, updated.HiddenItems.Keys(portfolio.SectionExperience))

		vis := portfolio.DefaultSectionVisibility()
		vis.Projects = false
		published := true
		updated, err = portfolios.Update(ctx, p.UserID, portfolio.Changes{SectionVisibility: &vis, IsPublished: &published})
		require.NoError(t, err)
		assert.False(t, updated.SectionVisibility.Projects)
		assert.True(t, updated.IsPublished)
		assert.Equal(t, "Engineer", updated.Content.Experience[0].Title)

		_, err = portfolios.Update(ctx, uuid.New(), portfolio.Changes{IsPublished: &published})
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("slug change hits unique index", func(t *testing.T) {
		a := portfolio.New(uuid.New(), slug("alpha"), "Alpha")
		b := portfolio.New(uuid.New(), slug("beta"), "Beta")
		require.NoError(t, portfolios.Create(ctx, a))
		require.NoError(t, portfolios.Create(ctx, b))

		_, err := portfolios.Update(ctx, b.UserID, portfolio.Changes{Slug: &a.Slug})
		assert.ErrorIs(t, err, apperror.ErrSlugTaken)

		renamed := slug("beta2")
		out, err := portfolios.Update(ctx, b.UserID, portfolio.Changes{Slug: &renamed})
		require.NoError(t, err)
		assert.Equal(t, renamed, out.Slug)
	})

	t.Run("views only count for published portfolios", func(t *testing.T) {
		p := portfolio.New(uuid.New(), slug("views"), "Views")
		require.NoError(t, portfolios.Create(ctx, p))
		assert.ErrorIs(t, portfolios.IncrementViews(ctx, p.Slug), apperror.ErrNotFound)

		published := true
		_, err := portfolios.Update(ctx, p.UserID, portfolio.Changes{IsPublished: &published})
		require.NoError(t, err)
		require.NoError(t, portfolios.IncrementViews(ctx, p.Slug))
		require.NoError(t, portfolios.IncrementViews(ctx, p.Slug))

		public, err := portfolios.GetPublic(ctx, p.Slug)
		require.NoError(t, err)
		assert.EqualValues(t, 2, public.Views)
	})

	t.Run("delete", func(t *testing.T) {
		p := portfolio.New(uuid.New(), slug("gone"), "Gone")
		require.NoError(t, portfolios.Create(ctx, p))
		require.NoError(t, portfolios.Delete(ctx, p.UserID))
		_, err := portfolios.FindByUserID(ctx, p.UserID)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
		assert.ErrorIs(t, portfolios.Delete(ctx, p.UserID), apperror.ErrNotFound)
	})

	t.Run("users ensure and upsert", func(t *testing.T) {
		ext := "user_" + run
		first, err := users.EnsureByExternalID(ctx, user.New(ext, "", "", ""))
		require.NoError(t, err)
		assert.Equal(t, user.DefaultName, first.Name)

		again, err := users.EnsureByExternalID(ctx, user.New(ext, "", "Ignored", ""))
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, user.DefaultName, again.Name)

		// a second user without email must not collide with the first
		_, err = users.EnsureByExternalID(ctx, user.New(ext+"_b", "", "", ""))
		require.NoError(t, err)

		synced, err := users.Upsert(ctx, user.New(ext, ext+"@example.com", "Jane Doe", "https://img.example.com/j.png"))
		require.NoError(t, err)
		assert.Equal(t, first.ID, synced.ID)
		assert.Equal(t, "Jane Doe", synced.Name)
		assert.Equal(t, ext+"@example.com", synced.Email)

		byID, err := users.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, ext, byID.ExternalID)

		require.NoError(t, users.DeleteByExternalID(ctx, ext))
		_, err = users.FindByExternalID(ctx, ext)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}
