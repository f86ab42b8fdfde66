// Package flash carries the notice a mutation leaves for the page it
// redirects to. The notice rides in a short-lived cookie that the next page
// render reads and expires.
package flash

import (
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/requestmeta"
)

// CookieName is the cookie holding the pending notice.
const CookieName = "meeting_flash"

// maxMessage keeps the cookie well under browser size limits.
const maxMessage = 512

// Kind selects how the notice is styled.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notice is one message shown on the next page render.
type Notice struct {
	Kind    Kind
	Message string
}

// Success creates a success notice.
func Success(message string) Notice {
	return Notice{Kind: KindSuccess, Message: message}
}

// Error creates an error notice.
func Error(message string) Notice {
	return Notice{Kind: KindError, Message: message}
}

// Write leaves notice for the next request, marking the cookie secure when r
// arrived over TLS.
func Write(w http.ResponseWriter, r *http.Request, notice Notice) {
	WriteWithPolicy(w, r, notice, requestmeta.SchemePolicy{})
}

// WriteWithPolicy is Write with an explicit proxy scheme policy. Notices
// without a message or with an unknown kind are dropped.
func WriteWithPolicy(w http.ResponseWriter, r *http.Request, notice Notice, policy requestmeta.SchemePolicy) {
	notice, ok := notice.clean()
	if w == nil || !ok {
		return
	}
	value := url.Values{"k": {string(notice.Kind)}, "m": {notice.Message}}.Encode()
	http.SetCookie(w, cookie(r, policy, value, 0))
}

// ReadAndClear returns the pending notice and expires its cookie. A cookie
// that does not decode is still expired.
func ReadAndClear(w http.ResponseWriter, r *http.Request) (Notice, bool) {
	if r == nil {
		return Notice{}, false
	}
	c, err := r.Cookie(CookieName)
	if err != nil {
		return Notice{}, false
	}
	if w != nil {
		http.SetCookie(w, cookie(r, requestmeta.SchemePolicy{}, "", -1))
	}
	values, err := url.ParseQuery(c.Value)
	if err != nil {
		return Notice{}, false
	}
	return Notice{Kind: Kind(values.Get("k")), Message: values.Get("m")}.clean()
}

func cookie(r *http.Request, policy requestmeta.SchemePolicy, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   requestmeta.IsHTTPSWithPolicy(r, policy),
		SameSite: http.SameSiteLaxMode,
	}
}

// clean trims the message, cuts it to maxMessage on a rune boundary and
// rejects empty messages and unknown kinds.
func (n Notice) clean() (Notice, bool) {
	n.Message = strings.TrimSpace(n.Message)
	if n.Message == "" || (n.Kind != KindSuccess && n.Kind != KindError) {
		return Notice{}, false
	}
	if len(n.Message) > maxMessage {
		cut := maxMessage
		for cut > 0 && !utf8.RuneStart(n.Message[cut]) {
			cut--
		}
		n.Message = n.Message[:cut]
	}
	return n, true
}
