package user

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	"github.com/trezcool/darasa/core"
)

var (
	tokenSalt = []byte("darasa.core.user.token_gen")
	NowFunc   = time.Now // mockable

	// errors
	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// tokenEpoch anchors the day counter embedded in reset tokens.
var tokenEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// EncodeUID base64 encodes given User ID
func EncodeUID(usr User) string {
	return base64.RawURLEncoding.EncodeToString([]byte(usr.ID))
}

// decodeUID base64 decodes given UID
func decodeUID(uid string) (string, error) {
	idBytes, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return "", err
	}
	return string(idBytes), nil
}

// MakeToken generates a password reset token for a given User.
// The token is invalidated by use (the password hash changes) and by login
// (LastLogin changes), and expires after conf.PasswordResetTimeoutDelta.
func MakeToken(conf *core.Config, usr User) (string, error) {
	return tokenForDay(conf, usr, daysSinceEpoch(NowFunc()))
}

// verifyToken checks that a password reset token for a given User is valid.
func verifyToken(conf *core.Config, usr User, token string) error {
	dayPart, _, found := bytes.Cut([]byte(token), []byte("-"))
	if !found {
		return errInvalidToken
	}
	day, err := strconv.ParseInt(string(dayPart), 36, 64)
	if err != nil {
		return errInvalidToken
	}

	// recompute for the embedded day; mismatch means tampering or a stale
	// password hash / last login
	want, err := tokenForDay(conf, usr, int(day))
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(token)) == 0 {
		return errInvalidToken
	}

	if daysSinceEpoch(NowFunc())-int(day) > int(conf.PasswordResetTimeoutDelta/(24*time.Hour)) {
		return errTokenExpired
	}
	return nil
}

func tokenForDay(conf *core.Config, usr User, day int) (string, error) {
	key := sha256.Sum256(append(tokenSalt, conf.SecretKey...))
	h := hmac.New(sha256.New, key[:])

	var val bytes.Buffer
	val.WriteString(usr.ID)
	val.Write(usr.PasswordHash)
	if !usr.LastLogin.IsZero() {
		val.WriteString(usr.LastLogin.String())
	}
	val.WriteString(strconv.Itoa(day))
	if _, err := h.Write(val.Bytes()); err != nil {
		return "", err
	}

	sig := base64.RawURLEncoding.EncodeToString(h.Sum(nil))
	return strconv.FormatInt(int64(day), 36) + "-" + sig, nil
}

func daysSinceEpoch(t time.Time) int {
	return int(t.Sub(tokenEpoch).Hours() / 24)
}
