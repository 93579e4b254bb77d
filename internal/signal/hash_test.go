package signal

import "testing"

func TestHashPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    string
	}{
		{
			name:    "empty payload yields offset basis",
			payload: []byte{},
			want:    "811c9dc5",
		},
		{
			name:    "known vector",
			payload: []byte("foobar"),
			want:    "bf9cf968",
		},
		{
			name:    "single byte",
			payload: []byte("a"),
			want:    "e40c292c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HashPayload(tt.payload)
			if got != tt.want {
				t.Errorf("HashPayload(%q) = %q, want %q", tt.payload, got, tt.want)
			}
		})
	}
}

func TestHashStringDeterministic(t *testing.T) {
	a := HashString("data:image/png;base64,AAAA")
	b := HashString("data:image/png;base64,AAAA")
	if a != b {
		t.Errorf("same input hashed differently: %q vs %q", a, b)
	}

	c := HashString("data:image/png;base64,BBBB")
	if a == c {
		t.Errorf("different inputs collided on %q", a)
	}
}
