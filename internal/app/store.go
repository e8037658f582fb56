package app

import (
	"context"
	"fmt"
	"os"

	"github.com/godilite/gradebot/internal/dataset"
	"github.com/godilite/gradebot/internal/repository"
	dbbuilder "github.com/godilite/gradebot/pkg/database"
	"go.uber.org/zap"
)

// LoadDataset reads the dataset at path. Paths ending in .db, .sqlite or
// .sqlite3 are SQLite stores; anything else is a JSON file.
func LoadDataset(ctx context.Context, path, driver string, logger *zap.Logger) (*dataset.Dataset, error) {
	if !dbbuilder.IsSQLitePath(path) {
		d, err := dataset.LoadFile(path)
		if err != nil {
			return nil, err
		}
		logger.Info("dataset loaded", zap.String("path", path), zap.Int("professors", d.Len()), zap.Int("courses", d.NumCourses()))
		return d, nil
	}

	// Opening a missing SQLite file would create an empty store.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}

	repo, closeDB, err := openRepository(ctx, path, driver)
	if err != nil {
		return nil, err
	}
	defer closeDB()

	d, err := repo.LoadDataset(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset from %s: %w", path, err)
	}
	logger.Info("dataset loaded from database", zap.String("path", path), zap.Int("professors", d.Len()), zap.Int("courses", d.NumCourses()))
	return d, nil
}

// SaveDataset writes d to path, choosing the store the same way LoadDataset
// does.
func SaveDataset(ctx context.Context, path, driver string, d *dataset.Dataset, logger *zap.Logger) error {
	if !dbbuilder.IsSQLitePath(path) {
		if err := dataset.SaveFile(path, d); err != nil {
			return err
		}
		logger.Info("dataset written", zap.String("path", path))
		return nil
	}

	repo, closeDB, err := openRepository(ctx, path, driver)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := repo.SaveDataset(ctx, d); err != nil {
		return fmt.Errorf("save dataset to %s: %w", path, err)
	}

	summary, err := repo.Summary(ctx)
	if err != nil {
		return err
	}
	logger.Info("dataset written to database",
		zap.String("path", path),
		zap.Int64("professors", summary.Professors),
		zap.Int64("courses", summary.Courses),
		zap.Int64("students", summary.Students))
	return nil
}

func openRepository(ctx context.Context, path, driver string) (*repository.GradeRepository, func(), error) {
	db, err := dbbuilder.New(ctx,
		dbbuilder.WithDriver(driver),
		dbbuilder.WithDataSource(dbbuilder.SQLiteDSN(path)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("database init failed: %w", err)
	}

	repo := repository.NewGradeRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repo, func() { db.Close() }, nil
}
