package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// Models 返回需要自动迁移的全部模型，测试与 Init 共用。
func Models() []any {
	return []any{
		&User{},
		&Goal{},
		&Habit{},
		&HabitCompletion{},
		&WeeklyPriority{},
		&DailyTask{},
		&DailySubtask{},
		&NotificationEvent{},
	}
}

// Init 初始化数据库连接并执行自动迁移。
// databasePath 为空时将回退到默认值 dailyfocus.db。
func Init(databasePath string) error {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = "dailyfocus.db"
	}

	if err := ensureParentDir(path); err != nil {
		return err
	}

	gdb, err := openWithRetry(context.Background(), path)
	if err != nil {
		return err
	}
	DB = gdb

	// 自动迁移模式，为核心模型创建表
	return DB.AutoMigrate(Models()...)
}

// openWithRetry 在文件被其他进程锁定时做指数退避重试。
func openWithRetry(ctx context.Context, path string) (*gorm.DB, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 10 * time.Second

	var gdb *gorm.DB
	err := backoff.Retry(func() error {
		opened, err := gorm.Open(sqlite.Open(path), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			return err
		}
		sqlDB, err := opened.DB()
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			sqlDB.Close()
			return err
		}
		gdb = opened
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
