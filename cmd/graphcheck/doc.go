// Command graphcheck tries to import a layout model with go-metal's ONNX
// importer. It only builds on darwin.
package main
