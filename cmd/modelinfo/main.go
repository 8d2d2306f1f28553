package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dudu/layoutkit/internal/config"
	"github.com/dudu/layoutkit/internal/inference"
)

func main() {
	libPath := flag.String("lib", config.DefaultRuntimeLibraryPath(), "ONNX Runtime shared library")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: modelinfo [--lib path] <model.onnx|model.ort>")
		fmt.Fprintln(os.Stderr, "\nPrints a layout model's declared inputs, outputs and metadata.")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	modelPath := flag.Arg(0)
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		fmt.Printf("Error: File not found: %s\n", modelPath)
		os.Exit(1)
	}

	fmt.Println("Initializing ONNX Runtime...")
	if err := inference.Acquire(*libPath); err != nil {
		fmt.Printf("❌ %v\n", err)
		fmt.Printf("\nSet --lib or $%s to the onnxruntime shared library.\n", config.RuntimeLibraryEnv)
		os.Exit(1)
	}
	defer inference.Release()

	info, err := inference.Inspect(modelPath)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nModel: %s\n", info.Path)
	fmt.Printf("\nInputs (%d):\n", len(info.Inputs))
	for _, in := range info.Inputs {
		fmt.Printf("  %s: shape=%v, type=%s\n", in.Name, in.Shape, in.DataType)
	}
	fmt.Printf("\nOutputs (%d):\n", len(info.Outputs))
	for _, out := range info.Outputs {
		fmt.Printf("  %s: shape=%v, type=%s\n", out.Name, out.Shape, out.DataType)
	}

	fmt.Println("\nMetadata:")
	fmt.Printf("  Producer: %s\n", info.Producer)
	fmt.Printf("  Version: %d\n", info.Version)
	if info.Domain != "" {
		fmt.Printf("  Domain: %s\n", info.Domain)
	}
	if info.Description != "" {
		fmt.Printf("  Description: %s\n", info.Description)
	}
}
