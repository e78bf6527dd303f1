package vvc

import "testing"

func FuzzDecode(f *testing.F) {
	pic := testPicture(32, 24, 8, 9)
	enc, err := NewEncoder(DefaultConfig(30), nil)
	if err != nil {
		f.Fatal(err)
	}
	intra, rec, err := enc.Encode(pic, nil)
	if err != nil {
		f.Fatal(err)
	}
	inter, _, err := enc.Encode(shifted(pic, 1, 0), rec)
	if err != nil {
		f.Fatal(err)
	}
	f.Add(intra)
	f.Add(inter)
	f.Add([]byte("VVC1"))

	dec, err := NewDecoder(&DecoderConfig{MaxPixels: 1 << 14})
	if err != nil {
		f.Fatal(err)
	}
	f.Fuzz(func(t *testing.T, data []byte) {
		out, err := dec.Decode(data, rec)
		if err != nil {
			return
		}
		if len(out.Pix) != out.Width*out.Height {
			t.Fatalf("decoded %d samples for %dx%d", len(out.Pix), out.Width, out.Height)
		}
	})
}
