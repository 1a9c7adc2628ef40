package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPrefsLanguageResolution(t *testing.T) {
	var got string
	h := Prefs(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LangFrom(r)
	}))

	tests := []struct {
		name   string
		url    string
		cookie string
		accept string
		want   string
	}{
		{"default", "/", "", "", "fr"},
		{"header", "/", "", "en-US,en;q=0.9", "en"},
		{"unsupported header", "/", "", "de-DE", "fr"},
		{"cookie beats header", "/", "fr", "en", "fr"},
		{"query beats cookie", "/?lang=en", "fr", "", "en"},
		{"bad query ignored", "/?lang=xx", "en", "", "en"},
		{"bad cookie falls to header", "/", "xx", "en", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: "lang", Value: tt.cookie})
			}
			if tt.accept != "" {
				r.Header.Set("Accept-Language", tt.accept)
			}
			h.ServeHTTP(httptest.NewRecorder(), r)
			if got != tt.want {
				t.Fatalf("lang %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrefsRemembersQueryLanguage(t *testing.T) {
	h := Prefs(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?lang=en", nil))
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "lang" || cookies[0].Value != "en" {
		t.Fatalf("expected lang cookie, got %v", cookies)
	}
}
