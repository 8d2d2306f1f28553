//go:build darwin

package main

import (
	"fmt"
	"os"

	"github.com/tsawler/go-metal/checkpoints"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: graphcheck <model.onnx>")
		fmt.Println("\nReports whether a layout model's graph can be imported by go-metal.")
		os.Exit(1)
	}

	modelPath := os.Args[1]
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		fmt.Printf("Error: File not found: %s\n", modelPath)
		os.Exit(1)
	}

	fmt.Printf("Importing %s with go-metal...\n", modelPath)
	importer := checkpoints.NewONNXImporter()
	checkpoint, err := importer.ImportFromONNX(modelPath)
	if err != nil {
		fmt.Printf("\n❌ Import failed:\n%v\n", err)
		fmt.Println("\nDETR-style layout models use attention and gather ops that go-metal")
		fmt.Println("does not implement; run them with the onnx, ort or openvino runtime.")
		os.Exit(1)
	}

	fmt.Println("\n✅ Graph imported.")
	fmt.Printf("  Layers: %d\n", len(checkpoint.ModelSpec.Layers))
	fmt.Printf("  Weights: %d tensors\n", len(checkpoint.Weights))
	for i, layer := range checkpoint.ModelSpec.Layers {
		fmt.Printf("  %d: %s (%s)\n", i+1, layer.Name, layer.Type)
	}
}
