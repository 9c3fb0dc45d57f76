package notify

import (
	"strings"
	"testing"
)

func TestRenderWelcome(t *testing.T) {
	subject, body, err := Render(Message{
		To:        "asha@example.com",
		FirstName: "Asha",
		Kind:      KindWelcome,
		ActionURL: "https://ramani.co.tz/v1/users/verifyEmail/abc123",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if subject != "Welcome to Ramani!" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(body, "Asha") {
		t.Fatal("body must greet by first name")
	}
	if !strings.Contains(body, "verifyEmail/abc123") {
		t.Fatal("body must carry the verification link")
	}
}

func TestRenderReset(t *testing.T) {
	subject, body, err := Render(Message{
		FirstName: "Juma",
		Kind:      KindReset,
		ActionURL: "https://ramani.co.tz/v1/users/resetPassword/tok",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(subject, "10 minutes") {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(body, "resetPassword/tok") {
		t.Fatal("body must carry the reset link")
	}
}

func TestRenderApproved(t *testing.T) {
	_, body, err := Render(Message{
		FirstName: "Neema",
		Kind:      KindApproved,
		SiteTitle: "Masaki Office Block",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(body, "Masaki Office Block") {
		t.Fatal("body must name the approved site")
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	_, body, err := Render(Message{
		FirstName: "<script>alert(1)</script>",
		Kind:      KindApproved,
		SiteTitle: "Site",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(body, "<script>") {
		t.Fatal("template must escape user-controlled fields")
	}
}

func TestRenderUnknownKind(t *testing.T) {
	if _, _, err := Render(Message{Kind: Kind("unknown")}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
