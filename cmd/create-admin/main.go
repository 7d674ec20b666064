// Command create-admin creates the admin account, or resets its password
// when it already exists. It is run at deploy time and has no HTTP surface.
//
//	create-admin -username admin -password '...'
//	ADMIN_PASSWORD='...' create-admin
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/zemen-restaurant/zemen-backend/auth"
	"github.com/zemen-restaurant/zemen-backend/config"
	"github.com/zemen-restaurant/zemen-backend/database"
	"github.com/zemen-restaurant/zemen-backend/models"
	"github.com/zemen-restaurant/zemen-backend/utils"
	"gorm.io/gorm"
)

const minPasswordLength = 8

func main() {
	if err := run(os.Args[1:]); err != nil {
		logrus.Fatal(err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	username := fs.String("username", "admin", "admin username")
	password := fs.String("password", "", "admin password (defaults to $ADMIN_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *password == "" {
		*password = os.Getenv("ADMIN_PASSWORD")
	}
	if *username == "" {
		return errors.New("username must not be empty")
	}
	if len(*password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := utils.NewLogger(cfg.LogLevel, cfg.AppEnv)

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db, log); err != nil {
		return err
	}

	created, err := ensureAdmin(context.Background(), db, *username, *password)
	if err != nil {
		return err
	}

	entry := log.WithField("username", *username)
	if created {
		entry.Info("Admin user created")
	} else {
		entry.Info("Admin user already existed, password and admin flag reset")
	}
	return nil
}

// ensureAdmin creates the user or, when it exists, resets its password and
// admin flag. It reports whether a new row was created.
func ensureAdmin(ctx context.Context, db *gorm.DB, username, password string) (bool, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	var user models.User
	err = db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{Username: username, Password: hash, IsAdmin: true}
		if err := db.WithContext(ctx).Create(&user).Error; err != nil {
			return false, fmt.Errorf("create admin: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("load user: %w", err)
	}

	err = db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"password": hash,
		"is_admin": true,
	}).Error
	if err != nil {
		return false, fmt.Errorf("update admin: %w", err)
	}
	return false, nil
}
