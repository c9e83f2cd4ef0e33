package handler

import (
	"net/http"
	"testing"

	"github.com/ewhitfield/questboard/internal/model"
)

func TestCreateHousehold(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)
	register(t, client, ts.URL, "alex", "pw1234")

	resp := createHousehold(t, client, ts.URL, "Basecamp")

	household := resp["household"].(map[string]any)
	if household["name"] != "Basecamp" {
		t.Errorf("name = %v, want Basecamp", household["name"])
	}

	member, ok := resp["member"].(map[string]any)
	if !ok {
		t.Fatal("expected owner member in response")
	}
	if member["role"] != model.RoleManager {
		t.Errorf("owner role = %v, want %v", member["role"], model.RoleManager)
	}
	if member["name"] != "alex" {
		t.Errorf("owner member name = %v, want alex (defaults to username)", member["name"])
	}

	// The user record now carries the household.
	var me map[string]any
	do(t, client, "GET", ts.URL+"/api/auth/me", nil, &me)
	if me["household_id"] != household["id"] {
		t.Errorf("me household_id = %v, want %v", me["household_id"], household["id"])
	}
}

func TestCreateHouseholdTwice(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)
	register(t, client, ts.URL, "alex", "pw1234")
	createHousehold(t, client, ts.URL, "Basecamp")

	status := do(t, client, "POST", ts.URL+"/api/households",
		map[string]string{"name": "Second"}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", status, http.StatusBadRequest)
	}
}

func TestGetHousehold(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)
	register(t, client, ts.URL, "alex", "pw1234")
	hid := householdID(t, createHousehold(t, client, ts.URL, "Basecamp"))

	var household map[string]any
	status := do(t, client, "GET", ts.URL+"/api/households/"+hid, nil, &household)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}
	if household["name"] != "Basecamp" {
		t.Errorf("name = %v, want Basecamp", household["name"])
	}
}

func TestGetHouseholdForbiddenForOutsiders(t *testing.T) {
	ts := newTestServer(t)

	owner := newClient(t)
	register(t, owner, ts.URL, "alex", "pw1234")
	hid := householdID(t, createHousehold(t, owner, ts.URL, "Basecamp"))

	outsider := newClient(t)
	register(t, outsider, ts.URL, "mallory", "pw1234")

	status := do(t, outsider, "GET", ts.URL+"/api/households/"+hid, nil, nil)
	if status != http.StatusForbidden {
		t.Errorf("status = %d, want %d", status, http.StatusForbidden)
	}
}

func TestUpdateHousehold(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)
	register(t, client, ts.URL, "alex", "pw1234")
	hid := householdID(t, createHousehold(t, client, ts.URL, "Basecamp"))

	var household map[string]any
	status := do(t, client, "PATCH", ts.URL+"/api/households/"+hid,
		map[string]string{"name": "Summit Camp"}, &household)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}
	if household["name"] != "Summit Camp" {
		t.Errorf("name = %v, want Summit Camp", household["name"])
	}
}
