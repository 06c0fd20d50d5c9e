// Package serialization reads and writes model weights in the SafeTensors
// format:
//
//	[8 bytes: header size N (uint64 LE)]
//	[N bytes: JSON header, space padded to a multiple of 8]
//	[tensor data: little-endian, densely packed]
//
// The header maps tensor names to dtype, shape and data offsets, and may
// hold string metadata under "__metadata__". Writers emit tensors in state
// dict order and record a SHA-256 of the data section in the metadata;
// readers preserve header order and verify the checksum when present.
//
// Example usage:
//
//	state := serialization.StateTensors(model.StateDict())
//	err := serialization.WriteFile("res.safetensors", state, serialization.WriteOptions{
//	    Metadata: serialization.NewMetadata(model.Name()),
//	})
//
//	f, err := serialization.ReadFile("res.safetensors")
//	err = model.LoadStateDict(f.Map())
package serialization
