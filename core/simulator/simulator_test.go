package simulator_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/swarmware/swarmware/core/bus"
	"github.com/swarmware/swarmware/core/simulator"
	"github.com/swarmware/swarmware/core/store"
	models "github.com/swarmware/swarmware/dbmodels"
)

func openTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	Expect(err).NotTo(HaveOccurred())
	Expect(db.Migrator().DropTable(
		&models.User{}, &models.Swarm{}, &models.Agent{}, &models.Template{},
		&models.SecurityAlert{}, &models.ApiCall{}, &models.AppState{},
	)).To(Succeed())
	Expect(db.AutoMigrate(
		&models.User{}, &models.Swarm{}, &models.Agent{}, &models.Template{},
		&models.SecurityAlert{}, &models.ApiCall{}, &models.AppState{},
	)).To(Succeed())
	return db
}

var _ = Describe("Simulator", func() {
	var (
		s       *store.DatabaseStorage
		manager bus.Manager
		ctx     context.Context
		swarm   *models.Swarm
	)

	BeforeEach(func() {
		ctx = context.Background()
		s = store.NewDatabaseStorage(openTestDB())
		manager = bus.NewManager()

		user, err := s.UpsertUser(ctx, models.UpsertUser{ID: "demo-user", Email: "demo@swarmware.local"})
		Expect(err).NotTo(HaveOccurred())
		swarm, err = s.CreateSwarm(ctx, models.InsertSwarm{
			Name:    "Production",
			Status:  models.SwarmStatusActive,
			OwnerID: user.ID,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("heartbeat pass", func() {
		It("refreshes every active agent", func() {
			agent, err := s.CreateAgent(ctx, models.InsertAgent{
				Name:    "beating",
				Type:    models.AgentTypeMonitoring,
				Status:  models.AgentStatusActive,
				SwarmID: swarm.ID,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(agent.LastHeartbeat).To(BeNil())

			sim := simulator.NewSimulator(s, manager)
			sim.RunHeartbeats()

			reread, err := s.GetAgent(ctx, agent.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reread.LastHeartbeat).NotTo(BeNil())
		})
	})

	Describe("alert sweep", func() {
		It("raises a catalog alert and broadcasts it when the draw hits", func() {
			listener := bus.NewClient("watcher")
			manager.Subscribe(listener)

			draws := []int{0, 0, 4} // fire, first swarm, last catalog entry
			sim := simulator.NewSimulator(s, manager, simulator.WithRand(func(n int) int {
				d := draws[0] % n
				draws = draws[1:]
				return d
			}))
			sim.RunAlertSweep()

			alerts, err := s.GetSecurityAlerts(ctx, "demo-user")
			Expect(err).NotTo(HaveOccurred())
			Expect(alerts).To(HaveLen(1))
			Expect(alerts[0].Title).To(Equal("Unauthorized API access attempt"))
			Expect(alerts[0].Severity).To(Equal(models.AlertSeverityCritical))
			Expect(alerts[0].SwarmID).NotTo(BeNil())
			Expect(*alerts[0].SwarmID).To(Equal(swarm.ID))

			Eventually(listener.Chan()).Should(Receive(WithTransform(func(e bus.Event) bus.EventType {
				return e.Type
			}, Equal(bus.EventSecurityAlert))))
		})

		It("does nothing when the draw misses", func() {
			sim := simulator.NewSimulator(s, manager, simulator.WithRand(func(n int) int {
				return 1 // never zero: the sweep stays quiet
			}))
			sim.RunAlertSweep()

			alerts, err := s.GetSecurityAlerts(ctx, "demo-user")
			Expect(err).NotTo(HaveOccurred())
			Expect(alerts).To(BeEmpty())
		})

		It("does nothing without an active swarm", func() {
			inactive := models.SwarmStatusInactive
			_, err := s.UpdateSwarm(ctx, swarm.ID, models.UpdateSwarm{Status: &inactive})
			Expect(err).NotTo(HaveOccurred())

			sim := simulator.NewSimulator(s, manager, simulator.WithRand(func(n int) int {
				return 0 // always fire; there is just nothing to target
			}))
			sim.RunAlertSweep()

			alerts, err := s.GetSecurityAlerts(ctx, "demo-user")
			Expect(err).NotTo(HaveOccurred())
			Expect(alerts).To(BeEmpty())
		})
	})

	Describe("scheduling", func() {
		It("starts and stops cleanly", func() {
			sim := simulator.NewSimulator(s, manager)
			Expect(sim.Start()).To(Succeed())
			sim.Stop()
		})
	})
})
