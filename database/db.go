// Package database opens the datastore, migrates the schema and seeds
// the default group/right catalog. The handle is returned to the caller
// and injected into the services rather than held as a package global,
// so its lifecycle is explicit: open at process start, close at
// shutdown.
package database

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path"
	"strings"

	"github.com/modelhub/modelhub/config"
	"github.com/modelhub/modelhub/database/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func initModels(db *gorm.DB) error {
	models := []any{
		&model.User{},
		&model.Session{},
		&model.Group{},
		&model.Right{},
		&model.GroupRight{},
		&model.Membership{},
		&model.Article{},
		&model.ArticleTag{},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			log.Printf("Error auto migrating model: %v", err)
			return err
		}
	}
	return nil
}

// seedGroup is one row of the default group/right catalog.
type seedGroup struct {
	name   string
	label  string
	desc   string
	rights []string
}

var defaultGroups = []seedGroup{
	{
		name:   model.GroupAdministrator,
		label:  "Administrator",
		desc:   "Full access to every capability",
		rights: []string{model.WildcardRight},
	},
	{
		name:   model.GroupCreator,
		label:  "Creator",
		desc:   "May author and manage own content",
		rights: []string{model.RightCreateContent},
	},
	{
		name:  model.GroupUser,
		label: "User",
		desc:  "Registered reader",
	},
}

// seedAuth installs the default groups and the right catalog. It is
// idempotent and runs on every startup; existing rows are left alone.
func seedAuth(db *gorm.DB) error {
	allRights := []string{model.WildcardRight, model.RightCreateContent, model.RightManageUsers}

	return db.Transaction(func(tx *gorm.DB) error {
		rightIds := make(map[string]int, len(allRights))
		for _, name := range allRights {
			right := &model.Right{Name: name}
			if err := tx.Where("name = ?", name).FirstOrCreate(right).Error; err != nil {
				return err
			}
			rightIds[name] = right.Id
		}

		for _, sg := range defaultGroups {
			group := &model.Group{Name: sg.name, Label: sg.label, Description: sg.desc}
			if err := tx.Where("name = ?", sg.name).FirstOrCreate(group).Error; err != nil {
				return err
			}
			for _, rightName := range sg.rights {
				gr := &model.GroupRight{GroupId: group.Id, RightId: rightIds[rightName]}
				err := tx.Where("group_id = ? AND right_id = ?", group.Id, gr.RightId).
					FirstOrCreate(gr).Error
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Open connects to the sqlite datastore at dbPath, migrates the schema
// and applies the seed.
func Open(dbPath string) (*gorm.DB, error) {
	dir := path.Dir(dbPath)
	err := os.MkdirAll(dir, fs.ModePerm)
	if err != nil {
		return nil, err
	}

	var gormLogger logger.Interface

	if config.IsDebug() {
		gormLogger = logger.Default
	} else {
		gormLogger = logger.Discard
	}

	c := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	}

	dsn := dbPath + "?cache=shared&_journal_mode=WAL&_synchronous=NORMAL"
	db, err := gorm.Open(sqlite.Open(dsn), c)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	_, err = sqlDB.Exec("PRAGMA foreign_keys = ON;")
	if err != nil {
		return nil, err
	}

	if err := initModels(db); err != nil {
		return nil, err
	}
	if err := seedAuth(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsUniqueViolation reports whether err is the datastore rejecting a
// duplicate value on a unique index. The pre-checks in the services are
// a fast-fail courtesy; this is the authority.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
