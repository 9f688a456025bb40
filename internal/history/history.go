// Package history records successfully published videos in a local SQLite database.
package history

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"moul.io/zapgorm2"
)

// Publish is one successfully published video.
type Publish struct {
	ID          uint   `gorm:"primarykey"`
	URL         string `gorm:"index"`
	Title       string
	Caption     string
	Account     string
	PublishedAt time.Time `gorm:"autoCreateTime;index"`
}

type Database struct {
	db *gorm.DB
}

func NewDatabase(path string) (*Database, error) {
	logger := zapgorm2.New(zap.L().Named("history"))
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger})
	if err != nil {
		return nil, err
	}
	return &Database{db}, nil
}

func (d *Database) Migrate() error {
	return d.db.AutoMigrate(&Publish{})
}

func (d *Database) Close() {
	if sqlDB, err := d.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// InsertPublish adds a new publish record, overwriting Publish.ID and Publish.PublishedAt
// with the values the database generated.
func (d *Database) InsertPublish(p *Publish) error {
	return d.db.Create(p).Error
}

func (d *Database) GetAllPublishes() ([]Publish, error) {
	var publishes []Publish
	if err := d.db.Order("published_at DESC, id DESC").Find(&publishes).Error; err != nil {
		return nil, err
	}
	return publishes, nil
}

// GetLatestPublishByURL returns (nil, nil) if the error is only that no such row exists.
func (d *Database) GetLatestPublishByURL(url string) (*Publish, error) {
	p := Publish{}
	err := d.db.Where("url = ?", url).Order("published_at DESC").First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return &p, nil
}
