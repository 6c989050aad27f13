package codec

import (
	"testing"
)

type record struct {
	Text  string `json:"text"`
	Score float64
}

func TestJSONRoundTrip(t *testing.T) {
	c := JSON[record]()
	in := record{Text: "hello", Score: 0.5}
	data, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestJSONDecodeMalformed(t *testing.T) {
	c := JSON[record]()
	if _, err := c.Decode([]byte(`{"text": `)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestGobRoundTrip(t *testing.T) {
	c := Gob[map[string][]int]()
	in := map[string][]int{"a": {1, 2}, "b": {3}}
	data, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out) != 2 || out["a"][1] != 2 || out["b"][0] != 3 {
		t.Errorf("got %v, want %v", out, in)
	}
}

func TestGobDecodeMalformed(t *testing.T) {
	c := Gob[record]()
	if _, err := c.Decode([]byte{0x01, 0x02}); err == nil {
		t.Fatal("expected error for malformed gob")
	}
}

func TestBytesPassthrough(t *testing.T) {
	c := Bytes()
	in := []byte{0x00, 0xff, 0x10}
	data, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(out) != string(in) {
		t.Errorf("bytes not preserved: %v", out)
	}
}

func TestTextPassthrough(t *testing.T) {
	c := Text()
	data, err := c.Encode("héllo\n")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out != "héllo\n" {
		t.Errorf("text not preserved: %q", out)
	}
}

func TestNames(t *testing.T) {
	if JSON[int]().Name() != "json" || Gob[int]().Name() != "gob" ||
		Bytes().Name() != "bytes" || Text().Name() != "text" {
		t.Error("unexpected codec names")
	}
}
