package swarmware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	models "github.com/swarmware/swarmware/dbmodels"
	swarmware "github.com/swarmware/swarmware/pkg/client"
)

var _ = Describe("Client", func() {
	It("sends the api key and user identity with every request", func() {
		var gotAuth, gotUser string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotUser = r.Header.Get("X-User-Id")
			json.NewEncoder(w).Encode([]models.Swarm{})
		}))
		defer server.Close()

		client := swarmware.NewClient(server.URL, "s3cr3t", time.Second).WithUser("alice")
		_, err := client.ListSwarms()
		Expect(err).NotTo(HaveOccurred())
		Expect(gotAuth).To(Equal("Bearer s3cr3t"))
		Expect(gotUser).To(Equal("alice"))
	})

	It("scopes user reads with the userId query parameter", func() {
		var gotQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("userId")
			json.NewEncoder(w).Encode([]models.SecurityAlert{})
		}))
		defer server.Close()

		client := swarmware.NewClient(server.URL, "", time.Second).WithUser("bob")
		_, err := client.ListSecurityAlerts()
		Expect(err).NotTo(HaveOccurred())
		Expect(gotQuery).To(Equal("bob"))
	})

	It("decodes a swarm listing", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/api/swarms"))
			json.NewEncoder(w).Encode([]models.Swarm{
				{Name: "Recon", Status: models.SwarmStatusActive},
			})
		}))
		defer server.Close()

		client := swarmware.NewClient(server.URL, "", time.Second)
		swarms, err := client.ListSwarms()
		Expect(err).NotTo(HaveOccurred())
		Expect(swarms).To(HaveLen(1))
		Expect(swarms[0].Name).To(Equal("Recon"))
	})

	It("surfaces the server's error body on a failed call", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "Swarm not found"})
		}))
		defer server.Close()

		client := swarmware.NewClient(server.URL, "", time.Second)
		_, err := client.DashboardStats()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("status 404"))
		Expect(err.Error()).To(ContainSubstring("Swarm not found"))
	})
})
