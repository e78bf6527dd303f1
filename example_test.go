package vvc_test

import (
	"fmt"
	"slices"

	"github.com/deepteams/vvc"
)

func ExampleEncoder() {
	pic := vvc.NewPicture(32, 32, 8)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			pic.Pix[y*32+x] = int32(4*x + 2*y)
		}
	}

	enc, err := vvc.NewEncoder(vvc.DefaultConfig(22), nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	data, recon, err := enc.Encode(pic, nil)
	if err != nil {
		fmt.Println(err)
		return
	}

	dec, err := vvc.NewDecoder(nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	out, err := dec.Decode(data, nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("match:", slices.Equal(out.Pix, recon.Pix))
	// Output:
	// match: true
}
