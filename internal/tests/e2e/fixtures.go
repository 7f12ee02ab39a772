package e2e

import (
	"net/http"
	"testing"
)

const agentPassword = "agent-secret"

// TestDataFixtures creates accounts and CRM records through the API
type TestDataFixtures struct {
	t          *testing.T
	server     *TestServer
	adminToken string
}

// Agent is a logged in agent account
type Agent struct {
	ID    uint
	Token string
}

// NewTestDataFixtures creates a fixture helper acting as the bootstrap admin
func NewTestDataFixtures(t *testing.T, server *TestServer) *TestDataFixtures {
	t.Helper()
	return &TestDataFixtures{t: t, server: server, adminToken: server.AdminToken()}
}

// AdminToken returns the admin session used by the fixtures
func (f *TestDataFixtures) AdminToken() string {
	return f.adminToken
}

// CreateAgent registers an agent and logs it in
func (f *TestDataFixtures) CreateAgent(username string) Agent {
	f.t.Helper()
	resp := f.server.Expect(http.StatusCreated, http.MethodPost, "/accounts", f.adminToken, map[string]string{
		"username": username,
		"password": agentPassword,
		"role":     "agent",
	})
	return Agent{ID: idOf(f.t, resp), Token: f.server.Login(username, agentPassword)}
}

// CreateContact creates a contact as the token's account
func (f *TestDataFixtures) CreateContact(token string, body map[string]interface{}) uint {
	f.t.Helper()
	return idOf(f.t, f.server.Expect(http.StatusCreated, http.MethodPost, "/contacts", token, body))
}

// LogCall records a call on a contact
func (f *TestDataFixtures) LogCall(token string, contactID uint, outcome string) uint {
	f.t.Helper()
	return idOf(f.t, f.server.Expect(http.StatusCreated, http.MethodPost, "/calls", token, map[string]interface{}{
		"contact_id": contactID,
		"outcome":    outcome,
	}))
}

// ScheduleFollowup creates an open followup due on day (YYYY-MM-DD)
func (f *TestDataFixtures) ScheduleFollowup(token string, contactID uint, title, day string) uint {
	f.t.Helper()
	return idOf(f.t, f.server.Expect(http.StatusCreated, http.MethodPost, "/followups", token, map[string]interface{}{
		"contact_id": contactID,
		"title":      title,
		"due_date":   day,
	}))
}
