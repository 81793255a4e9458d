package user

import (
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
)

func TestMakeVerifyToken(t *testing.T) {
	conf := &core.Config{
		SecretKey:                 []byte("secret"),
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
	}

	now := time.Now()
	usr := User{
		ID:        "5fa04be7-9aed-46fa-85bc-fb7ecdd6e89d",
		Name:      "T",
		Email:     "t@test.test",
		Role:      RoleStudent,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: now,
	}
	_ = usr.SetPassword("pwd")

	validToken, err := MakeToken(conf, usr)
	if err != nil {
		t.Fatalf("MakeToken() failed: %v", err)
	}

	// generate an expired token
	dayLate := conf.PasswordResetTimeoutDelta + (24 * time.Hour)
	NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := MakeToken(conf, usr)
	if err != nil {
		t.Fatalf("MakeToken() failed: %v", err)
	}
	NowFunc = time.Now // reset

	otherUsr := usr
	otherUsr.ID = "0e8bb617-39e5-44a2-a1be-e6d34bf2db28"

	tests := []struct {
		name    string
		usr     User
		token   string
		wantErr error
	}{
		{name: "no token", usr: usr, wantErr: errInvalidToken},
		{name: "no separator", usr: usr, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "bad day counter", usr: usr, token: "n0p3!-sigsigsig", wantErr: errInvalidToken},
		{name: "tampered signature", usr: usr, token: "5wa-sigsigsig", wantErr: errInvalidToken},
		{name: "token for another user", usr: otherUsr, token: validToken, wantErr: errInvalidToken},
		{name: "expired token", usr: usr, token: expiredToken, wantErr: errTokenExpired},
		{name: "valid token", usr: usr, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := verifyToken(conf, tt.usr, tt.token); err != tt.wantErr {
				t.Errorf("verifyToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
