package i18n

import (
	"context"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	if DetectLanguage("en-US,en;q=0.9") != "en" {
		t.Fatalf("expected en")
	}
	if DetectLanguage("EN-gb") != "en" {
		t.Fatalf("expected en for EN-gb")
	}
	if DetectLanguage("fr-FR,fr;q=0.8") != "fr" {
		t.Fatalf("expected fr fallback")
	}
	if DetectLanguage("") != "fr" {
		t.Fatalf("expected default fr")
	}
}

func TestTranslations(t *testing.T) {
	if T("en", "required") != "Required" {
		t.Fatalf("expected Required")
	}
	if T("fr", "required") != "Requis" {
		t.Fatalf("expected Requis")
	}
	// unknown code -> fallback to code
	if T("en", "__nope__") != "__nope__" {
		t.Fatalf("expected fallback to code")
	}
	// unknown language -> fallback to fr translation if exists
	if T("es", "required") != "Requis" {
		t.Fatalf("expected fr fallback for es lang")
	}
}

func TestTf(t *testing.T) {
	if got := Tf("en", "negative_quantity", 2); got != "Product 2: quantity cannot be negative" {
		t.Fatalf("unexpected %q", got)
	}
	if got := Tf("fr", "webhook_http_other", 418); got != "Le webhook a répondu avec le statut HTTP 418" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestLangContext(t *testing.T) {
	if LangFrom(context.Background()) != "fr" {
		t.Fatalf("expected fr default")
	}
	ctx := WithLang(context.Background(), "en")
	if LangFrom(ctx) != "en" {
		t.Fatalf("expected en from context")
	}
}

func TestCatalogsHaveSameCodes(t *testing.T) {
	for code := range catalog["fr"] {
		if _, ok := catalog["en"][code]; !ok {
			t.Errorf("code %q missing in en", code)
		}
	}
	for code := range catalog["en"] {
		if _, ok := catalog["fr"][code]; !ok {
			t.Errorf("code %q missing in fr", code)
		}
	}
}
