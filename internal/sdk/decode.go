package sdk

// Formats beyond the png, jpeg and gif decoders imaging registers
import (
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)
