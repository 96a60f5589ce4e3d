// Package detection provides interfaces and errors for interacting with
// external vision model services. It abstracts the details of the model API
// integration (Gemini), allowing the application to locate objects in
// images without coupling to a specific external service.
package detection
