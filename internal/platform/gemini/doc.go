// Package gemini implements the detection.Detector interface using
// Google's Gemini API. It owns prompt construction, the wire call, and
// parsing of the model's JSON bounding-box output; API failures are
// surfaced with their HTTP status attached so the retry layer can classify
// them.
package gemini
