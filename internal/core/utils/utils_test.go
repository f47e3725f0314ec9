package utils

import "testing"

func TestHashJSON(t *testing.T) {
	type payload struct {
		A string `json:"a"`
		B int    `json:"b"`
	}

	h1, err := HashJSON(payload{A: "x", B: 1})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	h2, _ := HashJSON(payload{A: "x", B: 1})
	h3, _ := HashJSON(payload{A: "x", B: 2})

	if len(h1) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(h1))
	}
	if h1 != h2 {
		t.Fatal("expected equal payloads to hash equally")
	}
	if h1 == h3 {
		t.Fatal("expected different payloads to hash differently")
	}

	if _, err := HashJSON(make(chan int)); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}
