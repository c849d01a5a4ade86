// Package detection defines the contract between the pipeline and the
// object detector that finds license plates.
//
// The model itself (weights, inference, non-maximum suppression) lives
// outside this repository. Detector is the seam the pipeline consumes;
// Adapter implements it over a Backend that actually runs the model, and
// RemoteBackend is a Backend that talks to an HTTP inference service.
//
// # Coordinate System
//
// Boxes use the standard image convention:
//   - Origin (0, 0) at the top-left corner of the image the box refers to
//   - X increases rightward
//   - Y increases downward
//   - (X1, Y1) is the top-left corner, (X2, Y2) the bottom-right corner
//
// Which image a box refers to depends on the scaleToOriginal flag passed to
// Detect: the original input when true, the resized inference buffer when
// false.
//
// # Confidence Scores
//
// Confidence is the model's score in [0, 1]. Adapter drops detections below
// the configured threshold and never returns more than MaxDet of them,
// keeping the order the backend reported.
//
// # Concurrency
//
// Adapter and RemoteBackend hold no per-call state and are safe for
// concurrent use.
package detection
