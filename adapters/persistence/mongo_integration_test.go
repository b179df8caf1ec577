package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/internal/domain/user"
	"github.com/khoahotran/folio/pkg/logger"
)

type MongoRepoIntegrationTestSuite struct {
	suite.Suite
	container     *mongodb.MongoDBContainer
	client        *mongo.Client
	db            *mongo.Database
	portfolioRepo portfolio.Repository
	userRepo      user.Repository
}

func (s *MongoRepoIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()
	testLogger := logger.NewNop()

	container, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		s.T().Fatalf("Failed to start mongo container: %s", err)
	}
	s.container = container

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		s.T().Fatalf("Failed to get connection string: %s", err)
	}

	var cfg config.Config
	cfg.DB.MongoURI = uri
	cfg.DB.MongoDatabase = "folio_test"
	client, err := NewMongoClient(ctx, cfg, testLogger)
	if err != nil {
		s.T().Fatalf("Failed to connect mongo: %s", err)
	}
	s.client = client
	s.db = client.Database(cfg.DB.MongoDatabase)

	if err := EnsureIndexes(ctx, s.db); err != nil {
		s.T().Fatalf("Failed to ensure indexes: %s", err)
	}

	s.portfolioRepo = NewMongoPortfolioRepo(s.db, testLogger)
	s.userRepo = NewMongoUserRepo(s.db, testLogger)
}

func (s *MongoRepoIntegrationTestSuite) TearDownSuite() {
	ctx := context.Background()
	if s.client != nil {
		_ = s.client.Disconnect(ctx)
	}
	if s.container != nil {
		if err := s.container.Terminate(ctx); err != nil {
			s.T().Fatalf("Failed to terminate mongo container: %s", err)
		}
	}
}

func TestMongoRepoIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode.")
	}
	suite.Run(t, new(MongoRepoIntegrationTestSuite))
}

func (s *MongoRepoIntegrationTestSuite) Test_RepositoryContract() {
	runRepoContract(s.T(), s.portfolioRepo, s.userRepo)
}

func (s *MongoRepoIntegrationTestSuite) Test_EnsureIndexesIsIdempotent() {
	s.NoError(EnsureIndexes(context.Background(), s.db))
}

func (s *MongoRepoIntegrationTestSuite) Test_MissingVisibilityKeysDecodeVisible() {
	ctx := context.Background()
	p := portfolio.New(uuid.New(), "legacy-mongo", "Legacy")
	s.Require().NoError(s.portfolioRepo.Create(ctx, p))

	_, err := s.db.Collection(collPortfolios).UpdateOne(ctx,
		bson.M{"_id": p.ID.String()},
		bson.M{"$set": bson.M{"section_visibility": bson.M{"showSkills": false}}, "$unset": bson.M{"theme_config": ""}},
	)
	s.Require().NoError(err)

	found, err := s.portfolioRepo.FindBySlug(ctx, "legacy-mongo")
	s.Require().NoError(err)
	s.False(found.SectionVisibility.Skills)
	s.True(found.SectionVisibility.Experience)
	s.Equal(portfolio.DefaultThemeConfig(), found.ThemeConfig)
}
