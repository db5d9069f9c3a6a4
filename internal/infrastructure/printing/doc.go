// Package printing provides the infrastructure of label printing.
//
// On the print server it loads the printer registry, turns an uploaded label
// image into a 1-bit bitmap, encodes it as a Phomemo ESC/POS raster stream
// and writes the stream to the printer device.
//
// On the client side it provides the drawing surfaces a label is composed
// on (an in-process raster Surface and a headless Chrome HTMLRasterizer) and
// the HTTP Client that lists printers and submits labels.
//
// Example usage on the server:
//
//	img, _, err := DecodeImage(upload)
//	if err != nil {
//	    return err
//	}
//	bitmap := PrepareLabel(img, PrepareOptions{Width: 321, Height: 241, HeadWidth: 384})
//	dev, err := opener.Open(ctx, "/dev/phomemo")
//	if err != nil {
//	    return err
//	}
//	defer dev.Close()
//	return NewEncoder(EncoderOptions{}).Encode(dev, bitmap)
package printing
