// Package embedder defines the contract of the face-embedding collaborator.
// Implementations can call any detector/model (local ONNX runtime, remote
// inference service, etc.) as long as they return a fixed-length float32
// vector per image. The store and match packages remain model-agnostic.
package embedder
