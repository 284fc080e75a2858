package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shoplist/api/internal/models"
)

func TestHouseholdLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	_, aliceToken := createTestUser(t, env.db, "alice", "pw123456")
	_, bobToken := createTestUser(t, env.db, "bob", "pw123456")

	homeID := createHousehold(t, env, aliceToken, "Home")

	resp := performRequest(t, env.app, http.MethodGet, "/api/households", nil, authHeaders(aliceToken))
	assertStatus(t, resp, http.StatusOK)
	households := dataList(t, decodeJSONMap(t, resp))
	if len(households) != 1 || households[0].(map[string]any)["name"] != "Home" {
		t.Fatalf("expected [Home], got %+v", households)
	}

	resp = performRequest(t, env.app, http.MethodGet, "/api/households", nil, authHeaders(bobToken))
	assertStatus(t, resp, http.StatusOK)
	if got := dataList(t, decodeJSONMap(t, resp)); len(got) != 0 {
		t.Fatalf("bob should see no households, got %+v", got)
	}

	path := fmt.Sprintf("/api/households/%s", homeID)
	resp = performRequest(t, env.app, http.MethodGet, path, nil, authHeaders(bobToken))
	assertStatus(t, resp, http.StatusForbidden)
	assertEnvelopeError(t, decodeJSONMap(t, resp), "you are not a member of this household")

	resp = performJSONRequest(t, env.app, http.MethodPost, path+"/members", map[string]any{"email": "bob@x.com"}, authHeaders(aliceToken))
	assertStatus(t, resp, http.StatusCreated)

	resp = performJSONRequest(t, env.app, http.MethodPost, path+"/members", map[string]any{"email": "bob@x.com"}, authHeaders(aliceToken))
	assertStatus(t, resp, http.StatusConflict)

	resp = performJSONRequest(t, env.app, http.MethodPost, path+"/members", map[string]any{"email": "ghost@x.com"}, authHeaders(aliceToken))
	assertStatus(t, resp, http.StatusNotFound)
	assertEnvelopeError(t, decodeJSONMap(t, resp), "user not found")

	resp = performRequest(t, env.app, http.MethodGet, path, nil, authHeaders(bobToken))
	assertStatus(t, resp, http.StatusOK)
	members := dataMap(t, decodeJSONMap(t, resp))["members"].([]any)
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}

	resp = performRequest(t, env.app, http.MethodDelete, path+"/members/me", nil, authHeaders(bobToken))
	assertStatus(t, resp, http.StatusOK)
	if dataMap(t, decodeJSONMap(t, resp))["householdDeleted"] != false {
		t.Fatal("household should remain while alice is a member")
	}

	resp = performRequest(t, env.app, http.MethodDelete, path, nil, authHeaders(aliceToken))
	assertStatus(t, resp, http.StatusOK)

	resp = performRequest(t, env.app, http.MethodGet, path, nil, authHeaders(aliceToken))
	assertStatus(t, resp, http.StatusNotFound)
	assertEnvelopeError(t, decodeJSONMap(t, resp), "household not found")
}

func TestHouseholdValidationAndIDs(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "alice", "pw123456")

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/households", map[string]any{"name": "H"}, authHeaders(token))
	assertStatus(t, resp, http.StatusBadRequest)
	assertEnvelopeError(t, decodeJSONMap(t, resp), "name must be at least 2 characters")

	resp = performRequest(t, env.app, http.MethodGet, "/api/households/not-a-uuid", nil, authHeaders(token))
	assertStatus(t, resp, http.StatusBadRequest)
	assertEnvelopeError(t, decodeJSONMap(t, resp), "invalid household id")

	resp = performRequest(t, env.app, http.MethodGet, "/api/households/"+uuid.NewString(), nil, authHeaders(token))
	assertStatus(t, resp, http.StatusNotFound)

	resp = performRequest(t, env.app, http.MethodGet, "/api/households", nil, nil)
	assertStatus(t, resp, http.StatusUnauthorized)
}

func TestDeleteHouseholdEndpointCascades(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "alice", "pw123456")

	homeID := createHousehold(t, env, token, "Home")
	listID := createList(t, env, token, homeID, "Weekly", "2024-01-01")
	createItem(t, env, token, listID, map[string]any{"name": "Milk"})
	createItem(t, env, token, listID, map[string]any{"name": "Bread"})

	resp := performRequest(t, env.app, http.MethodDelete, "/api/households/"+homeID, nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)

	var lists, items int64
	env.db.Model(&models.ShoppingList{}).Where("household_id = ?", homeID).Count(&lists)
	env.db.Model(&models.ShoppingItem{}).Where("shopping_list_id = ?", listID).Count(&items)
	if lists != 0 || items != 0 {
		t.Fatalf("expected cascade, found %d lists and %d items", lists, items)
	}

	resp = performRequest(t, env.app, http.MethodGet, "/api/lists/"+listID+"/items", nil, authHeaders(token))
	assertStatus(t, resp, http.StatusNotFound)
}

func TestHouseholdActivityEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	_, aliceToken := createTestUser(t, env.db, "alice", "pw123456")
	_, bobToken := createTestUser(t, env.db, "bob", "pw123456")

	homeID := createHousehold(t, env, aliceToken, "Home")
	listID := createList(t, env, aliceToken, homeID, "Weekly", "2024-01-01")
	createItem(t, env, aliceToken, listID, map[string]any{"name": "Milk"})

	deadline := time.Now().Add(2 * time.Second)
	for {
		var n int64
		env.db.Model(&models.AuditLog{}).Where("household_id = ?", homeID).Count(&n)
		if n == 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 3 activity rows, got %d", n)
		}
		time.Sleep(10 * time.Millisecond)
	}

	path := fmt.Sprintf("/api/households/%s/activity?page=1&limit=2", homeID)
	resp := performRequest(t, env.app, http.MethodGet, path, nil, authHeaders(aliceToken))
	assertStatus(t, resp, http.StatusOK)
	body := decodeJSONMap(t, resp)

	entries := dataList(t, body)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries on the first page, got %d", len(entries))
	}
	if entries[0].(map[string]any)["action"] != "item.create" {
		t.Fatalf("expected newest entry first, got %+v", entries[0])
	}
	pagination := body["pagination"].(map[string]any)
	if pagination["total"] != float64(3) || pagination["totalPages"] != float64(2) {
		t.Fatalf("unexpected pagination %+v", pagination)
	}
	if id, _ := entries[0].(map[string]any)["requestID"].(string); id == "" {
		t.Fatal("expected request id on activity rows")
	}

	resp = performRequest(t, env.app, http.MethodGet, path, nil, authHeaders(bobToken))
	assertStatus(t, resp, http.StatusForbidden)
}
