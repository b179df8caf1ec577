package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/internal/domain/user"
	"github.com/khoahotran/folio/pkg/logger"
)

type PostgresRepoIntegrationTestSuite struct {
	suite.Suite
	dbPool        *pgxpool.Pool
	pgContainer   *postgres.PostgresContainer
	portfolioRepo portfolio.Repository
	userRepo      user.Repository
}

func (s *PostgresRepoIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()
	testLogger := logger.NewNop()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("folio_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(1*time.Minute),
		),
	)
	if err != nil {
		s.T().Fatalf("Failed to start postgres container: %s", err)
	}
	s.pgContainer = pgContainer

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		s.T().Fatalf("Failed to get connection string: %s", err)
	}

	var cfg config.Config
	cfg.DB.DSN = dsn
	cfg.DB.MigrationsPath = "file://../../migrations"
	if err := RunMigrations(cfg, testLogger); err != nil {
		s.T().Fatalf("Failed to run migrations: %s", err)
	}

	pool, err := NewPostgresPool(ctx, cfg, testLogger)
	if err != nil {
		s.T().Fatalf("Failed to create pgxpool: %s", err)
	}
	s.dbPool = pool

	s.portfolioRepo = NewPostgresPortfolioRepo(s.dbPool, testLogger)
	s.userRepo = NewPostgresUserRepo(s.dbPool, testLogger)
}

func (s *PostgresRepoIntegrationTestSuite) TearDownSuite() {
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(context.Background()); err != nil {
			s.T().Fatalf("Failed to terminate postgres container: %s", err)
		}
	}
}

func TestPostgresRepoIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode.")
	}
	suite.Run(t, new(PostgresRepoIntegrationTestSuite))
}

func (s *PostgresRepoIntegrationTestSuite) Test_RepositoryContract() {
	runRepoContract(s.T(), s.portfolioRepo, s.userRepo)
}

func (s *PostgresRepoIntegrationTestSuite) Test_LegacyVisibilityDefaultsToVisible() {
	ctx := context.Background()
	p := portfolio.New(uuid.New(), "legacy-visibility", "Legacy")
	s.Require().NoError(s.portfolioRepo.Create(ctx, p))

	_, err := s.dbPool.Exec(ctx,
		`UPDATE portfolios SET section_visibility = '{"showSkills": false}'::jsonb WHERE id = $1`, p.ID)
	s.Require().NoError(err)

	found, err := s.portfolioRepo.FindByUserID(ctx, p.UserID)
	s.Require().NoError(err)
	s.False(found.SectionVisibility.Skills)
	s.True(found.SectionVisibility.Projects)
	s.True(found.SectionVisibility.Certifications)
}
