package auth

import (
	"fmt"
	"io"
)

// WriteCookieGuide explains where the two session cookies come from
func WriteCookieGuide(w io.Writer) {
	fmt.Fprintln(w, "Archiving private or rate-limited profiles needs the session cookies of a logged-in account.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  1. Log in at https://www.instagram.com in your browser")
	fmt.Fprintln(w, "  2. Open Developer Tools (F12) and go to Application (Chrome) or Storage (Firefox)")
	fmt.Fprintln(w, "  3. Under Cookies > https://www.instagram.com copy the values of:")
	fmt.Fprintln(w, "       sessionid   long URL-encoded string")
	fmt.Fprintln(w, "       csrftoken   32 characters")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "These cookies grant full access to the account. They are kept in the system")
	fmt.Fprintln(w, "keychain when available, otherwise in an encrypted file in the config directory.")
}
