// Package imaging loads, saves and reshapes the pixel buffers that flow
// through the plate detection pipeline.
//
// Images are decoded with github.com/disintegration/imaging, so PNG, JPEG,
// BMP, GIF and TIFF input is accepted and EXIF orientation is honoured. Output
// format follows the destination file extension.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Ownership
//
// Functions never modify their input image. Resize and Crop return fresh
// *image.NRGBA buffers owned by the caller.
//
// # Color Representation
//
// Colors are configured as hex strings ("#RRGGBB") and parsed with
// github.com/lucasb-eyer/go-colorful into opaque color.RGBA values.
package imaging
