package cache

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name string
		key  DataKey
		want error
	}{
		{name: "valid", key: "dataset:sales:abc", want: nil},
		{name: "empty", key: "", want: ErrInvalidKey},
		{name: "whitespace", key: "   ", want: ErrInvalidKey},
		{name: "newline", key: "a\nb", want: ErrInvalidKey},
		{name: "carriage return", key: "a\rb", want: ErrInvalidKey},
		{name: "max length", key: DataKey(strings.Repeat("k", MaxKeyLength)), want: nil},
		{name: "too long", key: DataKey(strings.Repeat("k", MaxKeyLength+1)), want: ErrKeyTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateKey(tt.key); !errors.Is(got, tt.want) {
				t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestCompositeKey_Equality(t *testing.T) {
	tests := []struct {
		name string
		a, b CompositeKey
		want bool
	}{
		{"same", NewCompositeKey("s1", "k"), NewCompositeKey("s1", "k"), true},
		{"different session", NewCompositeKey("s1", "k"), NewCompositeKey("s2", "k"), false},
		{"different key", NewCompositeKey("s1", "k1"), NewCompositeKey("s1", "k2"), false},
		{"both differ", NewCompositeKey("s1", "k1"), NewCompositeKey("s2", "k2"), false},
		{"shifted boundary", NewCompositeKey("a:", "b"), NewCompositeKey("a", ":b"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a == tt.b; got != tt.want {
				t.Errorf("%v == %v is %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if tt.want && tt.a.Hash() != tt.b.Hash() {
				t.Errorf("equal keys hash differently: %d vs %d", tt.a.Hash(), tt.b.Hash())
			}
			if !tt.want && tt.a.String() == tt.b.String() {
				t.Errorf("distinct keys share encoding %q", tt.a.String())
			}
		})
	}
}

func TestCompositeKey_MapKey(t *testing.T) {
	m := map[any]string{}
	m[NewCompositeKey("s1", "k")] = "one"
	m[NewCompositeKey("s2", "k")] = "two"

	if got := m[CompositeKey{SessionID: "s1", Key: "k"}]; got != "one" {
		t.Errorf("m[s1/k] = %q, want one", got)
	}
	if len(m) != 2 {
		t.Errorf("len(m) = %d, want 2", len(m))
	}
}

func TestCompositeKey_StringRoundTrip(t *testing.T) {
	keys := []CompositeKey{
		NewCompositeKey("session-1", "dataset:sales:0011223344556677"),
		NewCompositeKey("with:colons:", "key:with:colons"),
		NewCompositeKey("", "anonymous"),
		NewCompositeKey("s", ""),
		NewCompositeKey("unicodé", "ключ"),
	}

	for _, want := range keys {
		got, err := ParseCompositeKey(want.String())
		if err != nil {
			t.Errorf("ParseCompositeKey(%q) error = %v", want.String(), err)
			continue
		}
		if got != want {
			t.Errorf("ParseCompositeKey(%q) = %+v, want %+v", want.String(), got, want)
		}
	}
}

func TestCompositeKey_StringFormat(t *testing.T) {
	if got, want := NewCompositeKey("abc", "k").String(), "3:abc:k"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseCompositeKey_Malformed(t *testing.T) {
	inputs := []string{
		"",
		"plain-key",
		":abc:k",
		"x:abc:k",
		"-1:abc:k",
		"10:abc:k",
		"3:abck",
		"3:abc",
	}

	for _, in := range inputs {
		if _, err := ParseCompositeKey(in); !errors.Is(err, ErrMalformedKey) {
			t.Errorf("ParseCompositeKey(%q) error = %v, want ErrMalformedKey", in, err)
		}
	}
}
