package repository

import (
	"log/slog"

	"github.com/degen-feed/degen-feed/internal/config"
	"github.com/degen-feed/degen-feed/internal/database"
	"github.com/degen-feed/degen-feed/internal/domain/errors"
	"github.com/degen-feed/degen-feed/internal/feed/repository/orm"
	sqlrepo "github.com/degen-feed/degen-feed/internal/feed/repository/sql"
	"github.com/degen-feed/degen-feed/pkg/txs"
)

type Factory struct {
	db        *database.PostgresDB
	txManager *txs.TxManager
	config    *config.Config
	logger    *slog.Logger
}

func NewFactory(db *database.PostgresDB, txManager *txs.TxManager, config *config.Config, logger *slog.Logger) *Factory {
	return &Factory{
		db:        db,
		txManager: txManager,
		config:    config,
		logger:    logger,
	}
}

func (f *Factory) CreateTopicRepository() (TopicRepository, error) {
	switch f.config.DatabaseAccessType {
	case config.SquirrelAccess:
		f.logger.Info("Создание ORM (Squirrel) репозитория топиков")
		return orm.NewTopicRepository(f.db, f.txManager), nil
	case config.SQLAccess:
		f.logger.Info("Создание SQL репозитория топиков")
		return sqlrepo.NewTopicRepository(f.db), nil
	default:
		return nil, &errors.ErrUnknownDBAccessType{AccessType: string(f.config.DatabaseAccessType)}
	}
}

func (f *Factory) CreateUserRepository() (UserRepository, error) {
	switch f.config.DatabaseAccessType {
	case config.SquirrelAccess:
		f.logger.Info("Создание ORM (Squirrel) репозитория пользователей")
		return orm.NewUserRepository(f.db), nil
	case config.SQLAccess:
		f.logger.Info("Создание SQL репозитория пользователей")
		return sqlrepo.NewUserRepository(f.db), nil
	default:
		var repo UserRepository
		return repo, &errors.ErrUnknownDBAccessType{AccessType: string(f.config.DatabaseAccessType)}
	}
}
