package pg

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type txContextKey string

const (
	txKey    txContextKey = "trx"
	hooksKey txContextKey = "trx_hooks"
)

type commitHooks struct {
	fns []func()
}

type DB struct {
	read  *gorm.DB
	write *gorm.DB
}

// GormConfig is shared by every connection so tests and production
// translate driver errors (unique violations) the same way.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
		TranslateError: true,
	}
}

func Create(config Config, withDebug bool) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(config.DSN()), GormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	config.applyPool(sqlDB)

	if withDebug {
		db = db.Debug()
	}
	return db, nil
}

func CreateReadWrite(readConfig Config, writeConfig Config, withDebug bool) (*DB, error) {
	read, err := Create(readConfig, withDebug)
	if err != nil {
		return nil, err
	}
	write, err := Create(writeConfig, withDebug)
	if err != nil {
		return nil, err
	}
	return &DB{read, write}, nil
}

// New wraps already opened handles. Passing the same handle twice gives a
// single-node setup, which is what the tests use.
func New(read, write *gorm.DB) *DB {
	return &DB{read: read, write: write}
}

// WithinTransaction runs fn inside a write transaction carried by ctx.
// A ctx that already carries a transaction is reused, so services can
// compose transactional calls without opening a second connection.
func (r *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}
	hooks := &commitHooks{}
	err := r.write.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(context.WithValue(ctx, txKey, tx), hooksKey, hooks))
	})
	if err != nil {
		return err
	}
	for _, f := range hooks.fns {
		f()
	}
	return nil
}

// AfterCommit defers f until the outermost transaction carried by ctx
// commits; it is dropped on rollback. Outside a transaction f runs now.
func AfterCommit(ctx context.Context, f func()) {
	if h, ok := ctx.Value(hooksKey).(*commitHooks); ok {
		h.fns = append(h.fns, f)
		return
	}
	f()
}

func (r *DB) Write(ctx context.Context) *gorm.DB {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if ok {
		return tx
	}

	return r.write.WithContext(ctx)
}

// Read goes to the replica unless ctx carries a transaction; reads inside a
// transaction must see its own uncommitted writes.
func (r *DB) Read(ctx context.Context) *gorm.DB {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if ok {
		return tx
	}

	return r.read.WithContext(ctx)
}

func (r *DB) Ping(ctx context.Context) error {
	sqlDB, err := r.write.DB()
	if err != nil {
		return fmt.Errorf("pg: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
