package db

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	models "github.com/swarmware/swarmware/dbmodels"
)

var DB *gorm.DB

func ConnectDB(dbURL string) {
	var err error
	DB, err = gorm.Open(postgres.Open(dbURL), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to Postgres:", err)
	}

	if err := DB.AutoMigrate(&models.User{}, &models.Swarm{}, &models.Agent{}, &models.Template{}, &models.SecurityAlert{}, &models.ApiCall{}, &models.AppState{}); err != nil {
		log.Fatal("Migration failed:", err)
	}
}
