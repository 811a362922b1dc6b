package utils

import (
	"strings"
	"testing"
)

func TestMaskKey(t *testing.T) {
	key := "AIzaSyExampleKey1234"
	masked := MaskKey(key)

	if strings.Contains(masked, "AIzaSy") {
		t.Errorf("Expected key prefix to be hidden, got %s", masked)
	}
	if !strings.HasPrefix(masked, "***1234@") {
		t.Errorf("Expected last four characters to be kept, got %s", masked)
	}
	if MaskKey(key) != masked {
		t.Error("Expected stable label for the same key")
	}
	if MaskKey("AIzaSyOtherKey99991234") == masked {
		t.Error("Expected different keys with the same suffix to get different labels")
	}
	if got := MaskKey("short"); !strings.HasPrefix(got, "***@") {
		t.Errorf("Expected short keys to be fully hidden, got %s", got)
	}
	if got := MaskKey(" "); got != "<empty>" {
		t.Errorf("Expected <empty>, got %s", got)
	}
}

func TestGenerateUUID(t *testing.T) {
	a, b := GenerateUUID(), GenerateUUID()
	if a == b || len(a) != 36 {
		t.Errorf("Expected two distinct UUIDs, got %s and %s", a, b)
	}
}
