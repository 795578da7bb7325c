package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/swarmware/swarmware/core/bus"
	"github.com/swarmware/swarmware/core/metrics"
	"github.com/swarmware/swarmware/core/simulator"
	"github.com/swarmware/swarmware/core/store"
	models "github.com/swarmware/swarmware/dbmodels"
	"github.com/swarmware/swarmware/db"
	"github.com/swarmware/swarmware/webui"
)

var dbURL = os.Getenv("SWARMWARE_DB_URL")
var listenAddr = os.Getenv("SWARMWARE_ADDR")
var apiKeysEnv = os.Getenv("SWARMWARE_API_KEYS")
var demoUserID = os.Getenv("SWARMWARE_DEMO_USER")
var withSimulator = os.Getenv("SWARMWARE_DISABLE_SIMULATOR") != "true"

func init() {
	_ = godotenv.Load()
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		panic("SWARMWARE_DB_URL not set")
	}
	if listenAddr == "" {
		listenAddr = ":3000"
	}
	if demoUserID == "" {
		demoUserID = "demo-user"
	}
}

func main() {
	db.ConnectDB(dbURL)

	storage := store.NewDatabaseStorage(db.DB)

	ctx := context.Background()
	if err := storage.InitializeAppState(ctx); err != nil {
		log.Fatal("App state initialization failed:", err)
	}
	if _, err := storage.UpsertUser(ctx, models.UpsertUser{ID: demoUserID, Email: demoUserID + "@swarmware.local"}); err != nil {
		log.Fatal("Demo user setup failed:", err)
	}

	apiKeys := []string{}
	if apiKeysEnv != "" {
		apiKeys = strings.Split(apiKeysEnv, ",")
	}

	manager := bus.NewManager()
	engine := metrics.NewEngine(storage, storage)

	if withSimulator {
		sim := simulator.NewSimulator(storage, manager)
		if err := sim.Start(); err != nil {
			log.Fatal("Simulator start failed:", err)
		}
		defer sim.Stop()
	}

	app := webui.NewApp(
		webui.WithStorage(storage),
		webui.WithBus(manager),
		webui.WithEngine(engine),
		webui.WithApiKeys(apiKeys...),
		webui.WithDemoUserID(demoUserID),
	)

	// Start the web server
	log.Fatal(app.Listen(listenAddr))
}
