package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"log/slog"
	"net/http"

	"github.com/gorilla/securecookie"

	"activityboard/internal/application/board"
)

const (
	flashCookieName = "activityboard_flash"
	// flashMaxAge bounds how long an unread outcome survives the redirect.
	flashMaxAge = 60
)

// flashStore carries one visitor's board.Feedback from a form post to the
// page load that follows its redirect. The cookie is signed and encrypted
// because it can hold the email the visitor typed.
type flashStore struct {
	codec  *securecookie.SecureCookie
	secure bool
}

// newFlashStore derives separate signing and encryption keys from secret.
// PRE: secret is non-empty
func newFlashStore(secret []byte, secure bool) *flashStore {
	codec := securecookie.New(deriveKey(secret, "flash-hash"), deriveKey(secret, "flash-block"))
	codec.MaxAge(flashMaxAge)
	return &flashStore{codec: codec, secure: secure}
}

func deriveKey(secret []byte, label string) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(label))
	return mac.Sum(nil)
}

// set stores fb for the next page load. Empty feedback clears nothing and sets nothing.
func (f *flashStore) set(w http.ResponseWriter, fb board.Feedback) {
	if fb.Empty() {
		return
	}
	value, err := f.codec.Encode(flashCookieName, fb)
	if err != nil {
		slog.Error("flash_encode_failed", "error", err.Error())
		return
	}
	http.SetCookie(w, f.cookie(value, flashMaxAge))
}

// pop returns the pending feedback and expires the cookie so it renders once.
// A missing, expired or tampered cookie yields empty feedback.
func (f *flashStore) pop(w http.ResponseWriter, r *http.Request) board.Feedback {
	c, err := r.Cookie(flashCookieName)
	if err != nil {
		return board.Feedback{}
	}
	http.SetCookie(w, f.cookie("", -1))

	var fb board.Feedback
	if err := f.codec.Decode(flashCookieName, c.Value, &fb); err != nil {
		slog.Warn("flash_rejected", "error", err.Error())
		return board.Feedback{}
	}
	return fb
}

func (f *flashStore) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     flashCookieName,
		Value:    value,
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   maxAge,
	}
}
