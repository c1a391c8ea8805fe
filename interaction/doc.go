// Package interaction maps user gestures on the architecture scene to state
// changes.
//
// Clicks select, double-clicks expand through the inference service, drags pin
// nodes through the layout engine. Service errors never escape as failures of
// the scene: they are stored as the store's error message and the canonical
// graph is left unchanged. Results that arrive after the graph was replaced are
// dropped with ErrStaleResult.
package interaction
