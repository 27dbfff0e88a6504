package usecase_catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/suprdory/filmvote/core/internal/model"
	repo_mocks "github.com/suprdory/filmvote/core/internal/usecase/catalog/mocks/repository"
)

type CatalogUnitSuite struct {
	suite.Suite

	mockRepo *repo_mocks.CatalogRepository
	usecase  *Usecase
	ctx      context.Context
}

func (s *CatalogUnitSuite) BeforeEach(t provider.T) {
	s.mockRepo = repo_mocks.NewCatalogRepository(t)
	s.usecase = New(s.mockRepo)
	s.ctx = context.Background()
}

func (s *CatalogUnitSuite) TestFilms(t provider.T) {
	t.Run("Should pass the catalog through", func(t provider.T) {
		films := []model.Film{
			{ID: "tt0078748", Title: "Alien", Year: 1979},
			{Title: "Untitled Screener"},
		}
		s.mockRepo.On("Load", s.ctx).Return(films, nil).Once()

		got, err := s.usecase.Films(s.ctx)

		assert.NoError(t, err)
		assert.Equal(t, films, got)
		s.mockRepo.AssertExpectations(t)
	})

	t.Run("Should wrap loader failures", func(t provider.T) {
		s.mockRepo.On("Load", s.ctx).Return(nil, errors.New("boom")).Once()

		got, err := s.usecase.Films(s.ctx)

		assert.ErrorIs(t, err, ErrCatalogUnavailable)
		assert.Nil(t, got)
		s.mockRepo.AssertExpectations(t)
	})
}

func TestCatalogUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(CatalogUnitSuite))
}
