package integration

import (
	"net/http"
	"testing"
)

func TestAuth_TokenExchange(t *testing.T) {
	app := setupApp(t)

	t.Run("valid key yields a bearer token", func(t *testing.T) {
		token := app.authToken(t)
		if token == "" {
			t.Fatal("expected a token")
		}

		rec := app.request("GET", "/api/v1/accounts", "", token)
		if rec.Code != http.StatusOK {
			t.Errorf("token should grant access, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("wrong key is rejected", func(t *testing.T) {
		rec := app.request("POST", "/api/v1/auth/token", `{"api_key":"wrong"}`, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
		}
		errObj := parseJSON(t, rec)["error"].(map[string]interface{})
		if errObj["code"] != "INVALID_API_KEY" {
			t.Errorf("expected INVALID_API_KEY, got %v", errObj["code"])
		}
	})
}

func TestAuth_ProtectedRoutes(t *testing.T) {
	app := setupApp(t)

	t.Run("missing header", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/accounts", "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/accounts", "", "not-a-jwt")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("formats endpoint is public", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/formats", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		formats := parseJSON(t, rec)["formats"].([]interface{})
		if len(formats) < 20 {
			t.Errorf("expected the full schema registry, got %d entries", len(formats))
		}
	})
}
