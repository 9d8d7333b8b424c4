package memory

import (
	"context"

	"voicenote-vector-be/internal/repository/contract"
	"voicenote-vector-be/internal/repository/unitofwork"
)

// UnitOfWork wraps the in-memory repository with no-op transaction semantics.
type UnitOfWork struct {
	repo *EmbeddingRecordRepository
}

func (u *UnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *UnitOfWork) Commit() error                   { return nil }
func (u *UnitOfWork) Rollback() error                 { return nil }

func (u *UnitOfWork) EmbeddingRecordRepository() contract.EmbeddingRecordRepository {
	return u.repo
}

// RepositoryFactory hands out unit-of-works sharing one in-memory repository.
type RepositoryFactory struct {
	Repo *EmbeddingRecordRepository
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{Repo: NewEmbeddingRecordRepository()}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &UnitOfWork{repo: f.Repo}
}
