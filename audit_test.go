package almoner

import "testing"

func TestRedactMap(t *testing.T) {
	in := map[string]any{
		"email":    "donor@example.com",
		"password": "hunter2",
		"SSN":      "078-05-1120",
		"profile": map[string]any{
			"card_number": "4242424242424242",
			"name":        "Jane",
		},
		"attempts": []any{
			map[string]any{"token": "tok_abc", "ok": true},
		},
	}

	out := RedactMap(in)

	if out["password"] != RedactedValue {
		t.Fatalf("password not redacted: %v", out["password"])
	}
	if out["SSN"] != RedactedValue {
		t.Fatalf("case-insensitive match failed: %v", out["SSN"])
	}
	if out["email"] != "donor@example.com" {
		t.Fatal("non-sensitive field was altered")
	}

	profile := out["profile"].(map[string]any)
	if profile["card_number"] != RedactedValue {
		t.Fatal("nested field not redacted")
	}
	if profile["name"] != "Jane" {
		t.Fatal("nested non-sensitive field was altered")
	}

	attempt := out["attempts"].([]any)[0].(map[string]any)
	if attempt["token"] != RedactedValue {
		t.Fatal("field inside slice not redacted")
	}

	// The input must be left untouched.
	if in["password"] != "hunter2" {
		t.Fatal("RedactMap mutated its input")
	}
	if in["profile"].(map[string]any)["card_number"] != "4242424242424242" {
		t.Fatal("RedactMap mutated a nested input map")
	}
}

func TestRedactMapNil(t *testing.T) {
	if RedactMap(nil) != nil {
		t.Fatal("nil map should stay nil")
	}
}

func TestActorHasCapability(t *testing.T) {
	a := &Actor{ID: "u17", Type: ActorTypeUser, Capabilities: []string{CapDonationsRead, CapNotificationsSend}}
	if !a.HasCapability(CapNotificationsSend) {
		t.Fatal("expected capability to be present")
	}
	if a.HasCapability(CapDonorsManage) {
		t.Fatal("unexpected capability")
	}
	var nilActor *Actor
	if nilActor.HasCapability(CapAuditRead) {
		t.Fatal("nil actor must hold no capabilities")
	}
}
