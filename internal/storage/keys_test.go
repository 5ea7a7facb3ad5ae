package storage

import "testing"

func TestKeysAreDeterministic(t *testing.T) {
	a := ServiceRecordKey(12, 34, "before.jpg")
	b := ServiceRecordKey(12, 34, "before.jpg")
	if a != b {
		t.Fatalf("same inputs produced different keys: %q vs %q", a, b)
	}
	if a != "homes/12/records/34/before.jpg" {
		t.Fatalf("unexpected key: %q", a)
	}
}

func TestKeysSeparateEntityTypes(t *testing.T) {
	keys := map[string]string{
		"record":   ServiceRecordKey(1, 2, "f.pdf"),
		"request":  ServiceRequestKey(1, 2, "f.pdf"),
		"warranty": WarrantyKey(1, 2, "f.pdf"),
		"reminder": ReminderKey(1, 2, "f.pdf"),
		"message":  MessageKey(1, 2, "f.pdf"),
	}
	seen := make(map[string]string)
	for kind, key := range keys {
		if prev, ok := seen[key]; ok {
			t.Fatalf("%s and %s collide on %q", kind, prev, key)
		}
		seen[key] = kind
	}
}

func TestCleanFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"my photo.jpg", "my_photo.jpg"},
		{"../../etc/passwd", "passwd"},
		{"C:\\Users\\me\\doc.pdf", "doc.pdf"},
		{"héllo.png", "h_llo.png"},
		{"", "file"},
		{"...", "file"},
	}
	for _, tt := range tests {
		if got := CleanFilename(tt.in); got != tt.want {
			t.Errorf("CleanFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
