package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/ewhitfield/questboard/internal/database"
	"github.com/ewhitfield/questboard/internal/middleware"
	"github.com/ewhitfield/questboard/internal/store"
	ws "github.com/ewhitfield/questboard/internal/websocket"
)

// testServer is a running httptest server plus direct store access for
// seeding state the API cannot produce (e.g. scheduler-made notifications).
type testServer struct {
	*httptest.Server
	notifications *store.NotificationStore
	quests        *store.QuestStore
}

// newTestServer wires the handlers into the same route layout the server
// uses and returns it as a running httptest server.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.Default()
	hub := ws.NewHub(logger)

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	memberStore := store.NewMemberStore(db)
	questStore := store.NewQuestStore(db)
	notificationStore := store.NewNotificationStore(db)
	sessionStore := store.NewSessionStore(db)

	authH := NewAuthHandler(userStore, sessionStore, logger)
	householdH := NewHouseholdHandler(householdStore, memberStore, hub, logger)
	memberH := NewMemberHandler(memberStore, userStore, hub, logger)
	questH := NewQuestHandler(questStore, memberStore, hub, logger)
	leaderboardH := NewLeaderboardHandler(memberStore, logger)
	notificationH := NewNotificationHandler(notificationStore, logger)

	protected := http.NewServeMux()
	protected.HandleFunc("POST /api/auth/logout", authH.Logout)
	protected.HandleFunc("GET /api/auth/me", authH.Me)
	protected.HandleFunc("POST /api/households", householdH.Create)
	protected.HandleFunc("GET /api/households/{id}", householdH.Get)
	protected.HandleFunc("PATCH /api/households/{id}", householdH.Update)
	protected.HandleFunc("GET /api/households/{id}/members", memberH.List)
	protected.HandleFunc("POST /api/households/{id}/members", memberH.Add)
	protected.HandleFunc("PATCH /api/members/{id}", memberH.Update)
	protected.HandleFunc("DELETE /api/members/{id}", memberH.Remove)
	protected.HandleFunc("GET /api/households/{id}/quests", questH.List)
	protected.HandleFunc("POST /api/households/{id}/quests", questH.Create)
	protected.HandleFunc("PATCH /api/quests/{id}", questH.Update)
	protected.HandleFunc("DELETE /api/quests/{id}", questH.Delete)
	protected.HandleFunc("POST /api/quests/{id}/claim", questH.Claim)
	protected.HandleFunc("POST /api/quests/{id}/complete", questH.Complete)
	protected.HandleFunc("GET /api/households/{id}/leaderboard", leaderboardH.Get)
	protected.HandleFunc("GET /api/households/{id}/notifications", notificationH.List)
	protected.HandleFunc("POST /api/notifications/{id}/read", notificationH.MarkRead)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", authH.Register)
	mux.HandleFunc("POST /api/auth/login", authH.Login)
	mux.Handle("/", middleware.RequireAuth(sessionStore, userStore)(protected))

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, notifications: notificationStore, quests: questStore}
}

// newClient returns an HTTP client with a cookie jar, so the session cookie
// set on register/login rides along on subsequent requests.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

// do issues a JSON request and decodes the JSON response into out (which may
// be nil). It returns the response status code.
func do(t *testing.T, client *http.Client, method, url string, body, out any) int {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

// register signs up a fresh user and leaves their session cookie in the
// client's jar.
func register(t *testing.T, client *http.Client, baseURL, username, password string) map[string]any {
	t.Helper()
	var user map[string]any
	status := do(t, client, "POST", baseURL+"/api/auth/register",
		map[string]string{"username": username, "password": password}, &user)
	if status != http.StatusCreated {
		t.Fatalf("register %s: status = %d, want %d", username, status, http.StatusCreated)
	}
	return user
}

// createHousehold creates a household for the client's current user and
// returns the response (household + owner member).
func createHousehold(t *testing.T, client *http.Client, baseURL, name string) map[string]any {
	t.Helper()
	var resp map[string]any
	status := do(t, client, "POST", baseURL+"/api/households",
		map[string]string{"name": name}, &resp)
	if status != http.StatusCreated {
		t.Fatalf("create household %s: status = %d, want %d", name, status, http.StatusCreated)
	}
	return resp
}

func householdID(t *testing.T, resp map[string]any) string {
	t.Helper()
	household, ok := resp["household"].(map[string]any)
	if !ok {
		t.Fatalf("no household in response: %v", resp)
	}
	id, ok := household["id"].(string)
	if !ok || id == "" {
		t.Fatalf("no household id in response: %v", resp)
	}
	return id
}
