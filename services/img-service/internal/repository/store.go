package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"mashalpipes.in/Website/services/img-service/internal/config"
	"mashalpipes.in/Website/services/img-service/internal/domain"
)

// OpenGorm connects to Postgres or SQLite and migrates the images table.
func OpenGorm(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.StoreDriverPostgres:
		dialector = postgres.Open(dsn)
	case config.StoreDriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect db: %w", err)
	}
	// auto migration
	if err := db.AutoMigrate(&domain.Image{}); err != nil {
		return nil, fmt.Errorf("failed to migrate db: %w", err)
	}
	return db, nil
}

// Open builds the record store selected by STORE_DRIVER. The returned func releases it.
func Open(ctx context.Context, conf *config.ImgConfig) (domain.ImgRepository, func(context.Context) error, error) {
	switch conf.StoreDriver {
	case config.StoreDriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(conf.DatabaseURL))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect mongo: %w", err)
		}
		if err := client.Ping(connectCtx, nil); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
		}
		return NewMongoImgRepository(client.Database(conf.MongoDatabase)), client.Disconnect, nil
	default:
		db, err := OpenGorm(conf.StoreDriver, conf.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
		return NewImgRepository(db), closeFn, nil
	}
}
