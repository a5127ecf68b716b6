package session

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestUsernameFromToken(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"username": "alice"}).
		SignedString([]byte("any-secret"))
	if err != nil {
		t.Fatal(err)
	}
	noName, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"iat": 1}).
		SignedString([]byte("any-secret"))

	tests := []struct {
		name    string
		token   string
		want    string
		wantErr bool
	}{
		{"valid", signed, "alice", false},
		{"no username claim", noName, "", true},
		{"not a jwt", "abc", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := usernameFromToken(tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
