package metadata

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		allowed bool
	}{
		{"https://chat.whatsapp.com/abc", true},
		{"http://chat.whatsapp.com/abc", true},
		{"https://8.8.8.8/chat.whatsapp.com", true},
		{"ftp://chat.whatsapp.com/abc", false},
		{"file:///etc/passwd", false},
		{"chat.whatsapp.com/abc", false},
		{"http://localhost/chat.whatsapp.com", false},
		{"http://api.localhost/chat.whatsapp.com", false},
		{"http://127.0.0.1/chat.whatsapp.com", false},
		{"http://10.1.2.3/chat.whatsapp.com", false},
		{"http://172.20.0.1/chat.whatsapp.com", false},
		{"http://192.168.1.1/chat.whatsapp.com", false},
		{"http://169.254.169.254/chat.whatsapp.com", false},
		{"http://[::1]/chat.whatsapp.com", false},
		{"http://[fd00::1]/chat.whatsapp.com", false},
		{"http://%zz", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.allowed {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrURLNotAllowed)
			}
		})
	}
}

func TestGuardAddress(t *testing.T) {
	tests := []struct {
		address string
		allowed bool
	}{
		{"93.184.216.34:443", true},
		{"[2606:4700::1111]:443", true},
		{"127.0.0.1:80", false},
		{"10.0.0.7:8080", false},
		{"169.254.169.254:80", false},
		{"[::1]:80", false},
		{"[::ffff:127.0.0.1]:80", false},
		{"example.com:80", false},
		{"no-port", false},
	}
	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			err := GuardAddress(tt.address)
			if tt.allowed {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrURLNotAllowed)
			}
		})
	}
}
